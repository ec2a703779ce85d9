package gormstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Rasheed893/biotime-live-view/internal/attendance/filter"
	"github.com/Rasheed893/biotime-live-view/internal/attendance/normalize"
	"github.com/Rasheed893/biotime-live-view/internal/attendance/store"
	"github.com/Rasheed893/biotime-live-view/internal/attendance/types"
)

var denormalizedColumns = filter.Columns{
	EventTime: "event_date_time",
	UserID:    "user_id",
	DeviceID:  "device_id",
	EventType: "event_type",
}

var joinedColumns = filter.Columns{
	EventTime: "e.event_date_time",
	UserID:    "e.user_id",
	DeviceID:  "e.device_id",
	EventType: "e.event_type",
}

type joinedScan struct {
	LogID          int64          `gorm:"column:log_id"`
	UserID         string         `gorm:"column:user_id"`
	UserName       sql.NullString `gorm:"column:user_name"`
	DeviceID       string         `gorm:"column:device_id"`
	DeviceName     sql.NullString `gorm:"column:device_name"`
	DeviceIP       sql.NullString `gorm:"column:device_ip"`
	DeviceSerial   sql.NullString `gorm:"column:device_serial"`
	EventType      string         `gorm:"column:event_type"`
	EventDateTime  time.Time      `gorm:"column:event_date_time"`
	EventStatus    sql.NullString `gorm:"column:event_status"`
	TerminalSerial sql.NullString `gorm:"column:terminal_serial"`
	ReceivedAt     sql.NullTime   `gorm:"column:received_at"`
}

type LogStore struct {
	db     *gorm.DB
	schema store.Schema
}

func NewLogStore(db *gorm.DB, schema store.Schema) *LogStore {
	if schema == "" {
		schema = store.Denormalized
	}
	return &LogStore{db: db, schema: schema}
}

func (s *LogStore) QueryLogs(ctx context.Context, q filter.Query) ([]types.AttendanceLog, error) {
	if s.schema == store.Joined {
		var rows []joinedScan
		tx := s.joined(ctx, q).
			Order("e.event_date_time DESC").
			Order("e.log_id DESC")
		if err := page(tx, q).Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("QueryLogs: %w", err)
		}
		out := make([]types.AttendanceLog, 0, len(rows))
		for _, r := range rows {
			out = append(out, normalize.Normalize(normalize.JoinedRow{
				LogID:          r.LogID,
				UserID:         r.UserID,
				UserName:       r.UserName,
				DeviceID:       r.DeviceID,
				DeviceName:     r.DeviceName,
				DeviceIP:       r.DeviceIP,
				DeviceSerial:   r.DeviceSerial,
				EventType:      r.EventType,
				EventDateTime:  wallOf(r.EventDateTime),
				EventStatus:    r.EventStatus,
				TerminalSerial: r.TerminalSerial,
				ReceivedAt:     wallPtr(r.ReceivedAt),
			}))
		}
		return out, nil
	}

	var rows []attendanceLogModel
	tx := where(s.db.WithContext(ctx).Model(&attendanceLogModel{}), q, denormalizedColumns).
		Order("event_date_time DESC").
		Order("log_id DESC")
	if err := page(tx, q).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("QueryLogs: %w", err)
	}
	out := make([]types.AttendanceLog, 0, len(rows))
	for _, r := range rows {
		out = append(out, normalize.Normalize(normalize.DenormalizedRow{
			LogID:          r.LogID,
			UserID:         r.UserID,
			UserName:       r.UserName,
			DeviceID:       r.DeviceID,
			DeviceName:     r.DeviceName,
			DeviceIP:       r.DeviceIP,
			EventType:      r.EventType,
			EventDateTime:  wallOf(r.EventDateTime),
			EventStatus:    r.EventStatus,
			TerminalSerial: r.TerminalSerial,
			ReceivedAt:     wallPtr(r.ReceivedAt),
		}))
	}
	return out, nil
}

func (s *LogStore) CountLogs(ctx context.Context, q filter.Query) (int, error) {
	var n int64
	var tx *gorm.DB
	if s.schema == store.Joined {
		tx = where(s.db.WithContext(ctx).Table("access_events AS e"), q, joinedColumns)
	} else {
		tx = where(s.db.WithContext(ctx).Model(&attendanceLogModel{}), q, denormalizedColumns)
	}
	if err := tx.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("CountLogs: %w", err)
	}
	return int(n), nil
}

func (s *LogStore) joined(ctx context.Context, q filter.Query) *gorm.DB {
	tx := s.db.WithContext(ctx).
		Table("access_events AS e").
		Select(`e.log_id, e.user_id, u.user_name, e.device_id, d.device_name,
d.ip_address AS device_ip, d.serial_number AS device_serial, e.event_type,
e.event_date_time, e.event_status, e.terminal_serial, e.received_at`).
		Joins("LEFT JOIN users u ON u.user_id = e.user_id").
		Joins("LEFT JOIN devices d ON d.device_id = e.device_id")
	return where(tx, q, joinedColumns)
}

func where(tx *gorm.DB, q filter.Query, cols filter.Columns) *gorm.DB {
	conds, args := q.Conditions(cols)
	for i, c := range conds {
		tx = tx.Where(c, args[i])
	}
	return tx
}

func page(tx *gorm.DB, q filter.Query) *gorm.DB {
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}
	return tx
}

// wallOf reads a wall-clock column. Wall times are written as UTC instants;
// drivers may hand them back in the session zone (timestamptz, MySQL
// loc=Local), so the instant is moved back to UTC before its clock is taken.
func wallOf(t time.Time) types.WallTime {
	return types.AsWall(t.UTC())
}

func wallPtr(t sql.NullTime) *types.WallTime {
	if !t.Valid {
		return nil
	}
	w := wallOf(t.Time)
	return &w
}
