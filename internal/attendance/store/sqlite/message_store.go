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

type MessageStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

// NewMessageStore builds a reader. writer may be nil when nothing appends.
func NewMessageStore(db *sql.DB, writer *dbpkg.Worker) *MessageStore {
	return &MessageStore{db: db, writer: writer}
}

func (s *MessageStore) RecentMessages(ctx context.Context, limit int) ([]types.RemoteMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT message_id, received_at_ms, source_ip, source_port, protocol, identifier,
       raw_length, terminal_serial, event_at_ms, event_status, user_id,
       attendance_status, notes
FROM remote_messages
ORDER BY received_at_ms DESC, message_id DESC
LIMIT ?;`, limit)
	if err != nil {
		return nil, fmt.Errorf("RecentMessages: %w", err)
	}
	defer rows.Close()

	out := []types.RemoteMessage{}
	for rows.Next() {
		var (
			r          normalize.MessageRow
			id         int64
			receivedMs int64
			eventMs    sql.NullInt64
		)
		if err := rows.Scan(
			&id, &receivedMs, &r.SourceIP, &r.SourcePort, &r.Protocol, &r.Identifier,
			&r.RawLength, &r.TerminalSerial, &eventMs, &r.EventStatus, &r.UserID,
			&r.AttendanceStatus, &r.Notes,
		); err != nil {
			return nil, fmt.Errorf("RecentMessages scan: %w", err)
		}
		r.MessageID = id
		r.ReceivedAtUTC = types.WallFromMillis(receivedMs)
		r.EventDateTime = wallPtr(eventMs)
		out = append(out, normalize.NormalizeMessage(r))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("RecentMessages rows: %w", err)
	}
	return out, nil
}

func (s *MessageStore) AppendMessage(ctx context.Context, rec store.MessageRecord) (string, error) {
	if s.writer == nil {
		return "", fmt.Errorf("AppendMessage: store is read-only")
	}
	if rec.ReceivedAt.IsZero() {
		rec.ReceivedAt = time.Now().UTC()
	}

	var eventMs any
	if rec.EventAt != nil {
		eventMs = rec.EventAt.Millis()
	}

	var id int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
INSERT INTO remote_messages(
  received_at_ms, source_ip, source_port, protocol, identifier, raw_length,
  terminal_serial, event_at_ms, event_status, user_id, attendance_status, notes
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`,
			rec.ReceivedAt.UTC().UnixMilli(), rec.SourceIP, rec.SourcePort, rec.Protocol,
			rec.Identifier, rec.RawLength, rec.TerminalSerial, eventMs, rec.EventStatus,
			rec.UserID, rec.AttendanceStatus, rec.Notes,
		)
		if err != nil {
			return fmt.Errorf("AppendMessage insert: %w", err)
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return "", err
	}
	return normalize.KeyString(id), nil
}
