// Package normalize turns raw storage rows into canonical attendance records.
//
// Two row shapes are supported: a denormalized log row that carries user and
// device names itself, and a joined row where the names come from nullable
// user and device columns. Both produce the same types.AttendanceLog.
package normalize

import (
	"database/sql"
	"strings"

	"github.com/Rasheed893/biotime-live-view/internal/attendance/types"
)

// RawRow is a storage row that can be normalized into an AttendanceLog.
type RawRow interface {
	Normalize() types.AttendanceLog
}

// DenormalizedRow is a log row with names embedded at write time.
// Embedded names are trusted and never re-resolved.
type DenormalizedRow struct {
	LogID          any
	UserID         string
	UserName       string
	DeviceID       string
	DeviceName     string
	DeviceIP       string
	EventType      string
	EventDateTime  types.WallTime
	EventStatus    sql.NullString
	TerminalSerial sql.NullString
	ReceivedAt     *types.WallTime
}

func (r DenormalizedRow) Normalize() types.AttendanceLog {
	return types.AttendanceLog{
		LogID:          KeyString(r.LogID),
		UserID:         r.UserID,
		UserName:       r.UserName,
		DeviceID:       r.DeviceID,
		DeviceName:     r.DeviceName,
		DeviceIP:       r.DeviceIP,
		EventType:      types.EventType(r.EventType),
		EventDateTime:  r.EventDateTime,
		EventStatus:    orDefault(r.EventStatus, types.StatusOffline),
		TerminalSerial: r.TerminalSerial.String,
		ReceivedAt:     r.ReceivedAt,
	}
}

// JoinedRow is a log row holding foreign keys, with the user and device
// columns coming from an outer join. Missing references keep the id and
// leave the name empty.
type JoinedRow struct {
	LogID          any
	UserID         string
	UserName       sql.NullString
	DeviceID       string
	DeviceName     sql.NullString
	DeviceIP       sql.NullString
	DeviceSerial   sql.NullString
	EventType      string
	EventDateTime  types.WallTime
	EventStatus    sql.NullString
	TerminalSerial sql.NullString
	ReceivedAt     *types.WallTime
}

func (r JoinedRow) Normalize() types.AttendanceLog {
	serial := r.TerminalSerial.String
	if !r.TerminalSerial.Valid || serial == "" {
		serial = r.DeviceSerial.String
	}
	return types.AttendanceLog{
		LogID:          KeyString(r.LogID),
		UserID:         r.UserID,
		UserName:       r.UserName.String,
		DeviceID:       r.DeviceID,
		DeviceName:     r.DeviceName.String,
		DeviceIP:       r.DeviceIP.String,
		EventType:      types.EventType(r.EventType),
		EventDateTime:  r.EventDateTime,
		EventStatus:    orDefault(r.EventStatus, types.StatusOffline),
		TerminalSerial: serial,
		ReceivedAt:     r.ReceivedAt,
	}
}

// Normalize converts any supported row shape.
func Normalize(r RawRow) types.AttendanceLog {
	return r.Normalize()
}

// All normalizes a batch, preserving order.
func All[R RawRow](rows []R) []types.AttendanceLog {
	out := make([]types.AttendanceLog, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Normalize())
	}
	return out
}

// UserRow is a users table row before defaults are applied.
type UserRow struct {
	UserID     string
	UserName   string
	Department sql.NullString
	JobTitle   sql.NullString
	Status     sql.NullString
}

func NormalizeUser(r UserRow) types.User {
	return types.User{
		UserID:     r.UserID,
		UserName:   r.UserName,
		Department: r.Department.String,
		JobTitle:   r.JobTitle.String,
		Status:     orDefault(r.Status, types.UserInactive),
	}
}

// DeviceRow is a devices table row before defaults are applied.
type DeviceRow struct {
	DeviceID     string
	DeviceName   string
	IPAddress    sql.NullString
	SerialNumber sql.NullString
	LastSeen     *types.WallTime
	Status       sql.NullString
}

func NormalizeDevice(r DeviceRow) types.Device {
	return types.Device{
		DeviceID:     r.DeviceID,
		DeviceName:   r.DeviceName,
		IPAddress:    r.IPAddress.String,
		SerialNumber: r.SerialNumber.String,
		LastSeen:     r.LastSeen,
		Status:       orDefault(r.Status, types.DeviceOffline),
	}
}

// MessageRow is a remote_messages row.
type MessageRow struct {
	MessageID        any
	ReceivedAtUTC    types.WallTime
	SourceIP         sql.NullString
	SourcePort       sql.NullInt64
	Protocol         sql.NullString
	Identifier       sql.NullString
	RawLength        sql.NullInt64
	TerminalSerial   sql.NullString
	EventDateTime    *types.WallTime
	EventStatus      sql.NullString
	UserID           sql.NullString
	AttendanceStatus sql.NullString
	Notes            sql.NullString
}

func NormalizeMessage(r MessageRow) types.RemoteMessage {
	return types.RemoteMessage{
		MessageID:        KeyString(r.MessageID),
		ReceivedAtUTC:    r.ReceivedAtUTC.Time,
		SourceIP:         r.SourceIP.String,
		SourcePort:       int(r.SourcePort.Int64),
		Protocol:         r.Protocol.String,
		Identifier:       r.Identifier.String,
		RawLength:        int(r.RawLength.Int64),
		TerminalSerial:   r.TerminalSerial.String,
		EventDateTime:    r.EventDateTime,
		EventStatus:      r.EventStatus.String,
		UserID:           r.UserID.String,
		AttendanceStatus: r.AttendanceStatus.String,
		Notes:            r.Notes.String,
	}
}

func orDefault(s sql.NullString, def string) string {
	if !s.Valid || strings.TrimSpace(s.String) == "" {
		return def
	}
	return s.String
}
