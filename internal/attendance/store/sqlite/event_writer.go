package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Rasheed893/biotime-live-view/internal/attendance/normalize"
	"github.com/Rasheed893/biotime-live-view/internal/attendance/store"
	"github.com/Rasheed893/biotime-live-view/internal/attendance/types"
	dbpkg "github.com/Rasheed893/biotime-live-view/internal/db"
)

// EventWriter appends events through the single-writer worker and marks
// the reporting device as seen.
type EventWriter struct {
	writer *dbpkg.Worker
	schema store.Schema
}

func NewEventWriter(writer *dbpkg.Worker, schema store.Schema) *EventWriter {
	if schema == "" {
		schema = store.Denormalized
	}
	return &EventWriter{writer: writer, schema: schema}
}

func (s *EventWriter) AppendEvent(ctx context.Context, rec store.EventRecord) (string, error) {
	if rec.ReceivedAt.IsZero() {
		rec.ReceivedAt = time.Now()
	}
	if rec.EventAt.IsZero() {
		rec.EventAt = types.AsWall(rec.ReceivedAt)
	}
	if rec.EventStatus == "" {
		rec.EventStatus = types.StatusRealtime
	}

	eventMs := rec.EventAt.Millis()
	receivedMs := types.AsWall(rec.ReceivedAt).Millis()

	var id int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := ensureDevice(ctx, tx, rec.DeviceID); err != nil {
			return err
		}

		var res sql.Result
		var err error
		switch s.schema {
		case store.Joined:
			res, err = tx.ExecContext(ctx, `
INSERT INTO access_events(
  user_id, device_id, event_type, event_at_ms, event_status, terminal_serial, received_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?);
`, rec.UserID, rec.DeviceID, string(rec.EventType), eventMs, rec.EventStatus, rec.TerminalSerial, receivedMs)
		default:
			// Names are copied at write time; later renames do not rewrite history.
			var userName, deviceName, deviceIP, serial sql.NullString
			if err := tx.QueryRowContext(ctx, `
SELECT user_name FROM users WHERE user_id = ?;
`, rec.UserID).Scan(&userName); err != nil && err != sql.ErrNoRows {
				return fmt.Errorf("AppendEvent resolve user: %w", err)
			}
			if err := tx.QueryRowContext(ctx, `
SELECT device_name, ip_address, serial_number FROM devices WHERE device_id = ?;
`, rec.DeviceID).Scan(&deviceName, &deviceIP, &serial); err != nil && err != sql.ErrNoRows {
				return fmt.Errorf("AppendEvent resolve device: %w", err)
			}
			if rec.TerminalSerial == "" {
				rec.TerminalSerial = serial.String
			}
			res, err = tx.ExecContext(ctx, `
INSERT INTO attendance_logs(
  user_id, user_name, device_id, device_name, device_ip,
  event_type, event_at_ms, event_status, terminal_serial, received_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`,
				rec.UserID, userName.String, rec.DeviceID, deviceName.String, deviceIP.String,
				string(rec.EventType), eventMs, rec.EventStatus, rec.TerminalSerial, receivedMs,
			)
		}
		if err != nil {
			return fmt.Errorf("AppendEvent insert: %w", err)
		}

		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("AppendEvent id: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
UPDATE devices SET last_seen_at_ms = ?, status = 'Online'
WHERE device_id = ? AND (last_seen_at_ms IS NULL OR last_seen_at_ms < ?);
`, eventMs, rec.DeviceID, eventMs); err != nil {
			return fmt.Errorf("AppendEvent mark seen: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return normalize.KeyString(id), nil
}

// ensureDevice guarantees a devices row exists for deviceID so that a
// terminal reporting before registration still shows up in the directory.
// New rows carry the id as their name until an operator renames them.
//
// Must be called inside an existing transaction.
func ensureDevice(ctx context.Context, tx *sql.Tx, deviceID string) error {
	if _, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO devices(device_id, device_name, status)
VALUES (?, ?, 'Offline');
`, deviceID, deviceID); err != nil {
		return fmt.Errorf("ensureDevice %s: %w", deviceID, err)
	}
	return nil
}
