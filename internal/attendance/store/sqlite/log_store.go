package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Rasheed893/biotime-live-view/internal/attendance/filter"
	"github.com/Rasheed893/biotime-live-view/internal/attendance/normalize"
	"github.com/Rasheed893/biotime-live-view/internal/attendance/store"
	"github.com/Rasheed893/biotime-live-view/internal/attendance/types"
)

const denormalizedSelect = `
SELECT log_id, user_id, user_name, device_id, device_name, device_ip,
       event_type, event_at_ms, event_status, terminal_serial, received_at_ms
FROM attendance_logs`

const joinedSelect = `
SELECT e.log_id, e.user_id, u.user_name, e.device_id, d.device_name, d.ip_address,
       d.serial_number, e.event_type, e.event_at_ms, e.event_status,
       e.terminal_serial, e.received_at_ms
FROM access_events e
LEFT JOIN users u ON u.user_id = e.user_id
LEFT JOIN devices d ON d.device_id = e.device_id`

func millisArg(t time.Time) any { return t.UnixMilli() }

var denormalizedColumns = filter.Columns{
	EventTime: "event_at_ms",
	UserID:    "user_id",
	DeviceID:  "device_id",
	EventType: "event_type",
	TimeArg:   millisArg,
}

var joinedColumns = filter.Columns{
	EventTime: "e.event_at_ms",
	UserID:    "e.user_id",
	DeviceID:  "e.device_id",
	EventType: "e.event_type",
	TimeArg:   millisArg,
}

// LogStore reads events from either the denormalized attendance_logs
// table or the joined access_events table.
type LogStore struct {
	db     *sql.DB
	schema store.Schema
}

func NewLogStore(db *sql.DB, schema store.Schema) *LogStore {
	if schema == "" {
		schema = store.Denormalized
	}
	return &LogStore{db: db, schema: schema}
}

func (s *LogStore) QueryLogs(ctx context.Context, q filter.Query) ([]types.AttendanceLog, error) {
	base, cols, order := denormalizedSelect, denormalizedColumns, "event_at_ms DESC, log_id DESC"
	if s.schema == store.Joined {
		base, cols, order = joinedSelect, joinedColumns, "e.event_at_ms DESC, e.log_id DESC"
	}

	where, args := whereClause(q, cols)

	var sb strings.Builder
	sb.WriteString(base)
	sb.WriteString(where)
	sb.WriteString("\nORDER BY ")
	sb.WriteString(order)
	if q.Limit > 0 {
		sb.WriteString("\nLIMIT ? OFFSET ?")
		args = append(args, q.Limit, q.Offset)
	}
	sb.WriteString(";")

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("QueryLogs: %w", err)
	}
	defer rows.Close()

	var out []types.AttendanceLog
	for rows.Next() {
		var raw normalize.RawRow
		if s.schema == store.Joined {
			raw, err = scanJoined(rows)
		} else {
			raw, err = scanDenormalized(rows)
		}
		if err != nil {
			return nil, fmt.Errorf("QueryLogs scan: %w", err)
		}
		out = append(out, normalize.Normalize(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("QueryLogs rows: %w", err)
	}
	return out, nil
}

func (s *LogStore) CountLogs(ctx context.Context, q filter.Query) (int, error) {
	table, cols := "attendance_logs", denormalizedColumns
	if s.schema == store.Joined {
		table, cols = "access_events e", joinedColumns
	}

	where, args := whereClause(q, cols)

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table+where+";", args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("CountLogs: %w", err)
	}
	return n, nil
}

func whereClause(q filter.Query, cols filter.Columns) (string, []any) {
	conds, args := q.Conditions(cols)
	if len(conds) == 0 {
		return "", args
	}
	return "\nWHERE " + strings.Join(conds, " AND "), args
}

func scanDenormalized(rows *sql.Rows) (normalize.DenormalizedRow, error) {
	var (
		r          normalize.DenormalizedRow
		logID      int64
		eventMs    int64
		receivedMs sql.NullInt64
	)
	if err := rows.Scan(
		&logID, &r.UserID, &r.UserName, &r.DeviceID, &r.DeviceName, &r.DeviceIP,
		&r.EventType, &eventMs, &r.EventStatus, &r.TerminalSerial, &receivedMs,
	); err != nil {
		return r, err
	}
	r.LogID = logID
	r.EventDateTime = types.WallFromMillis(eventMs)
	r.ReceivedAt = wallPtr(receivedMs)
	return r, nil
}

func scanJoined(rows *sql.Rows) (normalize.JoinedRow, error) {
	var (
		r          normalize.JoinedRow
		logID      int64
		eventMs    int64
		receivedMs sql.NullInt64
	)
	if err := rows.Scan(
		&logID, &r.UserID, &r.UserName, &r.DeviceID, &r.DeviceName, &r.DeviceIP,
		&r.DeviceSerial, &r.EventType, &eventMs, &r.EventStatus,
		&r.TerminalSerial, &receivedMs,
	); err != nil {
		return r, err
	}
	r.LogID = logID
	r.EventDateTime = types.WallFromMillis(eventMs)
	r.ReceivedAt = wallPtr(receivedMs)
	return r, nil
}

func wallPtr(ms sql.NullInt64) *types.WallTime {
	if !ms.Valid {
		return nil
	}
	w := types.WallFromMillis(ms.Int64)
	return &w
}
