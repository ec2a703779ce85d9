package gormstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Rasheed893/biotime-live-view/internal/attendance/normalize"
	"github.com/Rasheed893/biotime-live-view/internal/attendance/store"
	"github.com/Rasheed893/biotime-live-view/internal/attendance/types"
)

type MessageStore struct {
	db *gorm.DB
}

func NewMessageStore(db *gorm.DB) *MessageStore {
	return &MessageStore{db: db}
}

func (s *MessageStore) RecentMessages(ctx context.Context, limit int) ([]types.RemoteMessage, error) {
	var rows []remoteMessageModel
	err := s.db.WithContext(ctx).
		Order("received_at_utc DESC").
		Order("message_id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("RecentMessages: %w", err)
	}

	out := make([]types.RemoteMessage, 0, len(rows))
	for _, r := range rows {
		out = append(out, normalize.NormalizeMessage(normalize.MessageRow{
			MessageID:        r.MessageID,
			ReceivedAtUTC:    types.WallTime{Time: r.ReceivedAtUTC.UTC()},
			SourceIP:         r.SourceIP,
			SourcePort:       r.SourcePort,
			Protocol:         r.Protocol,
			Identifier:       r.Identifier,
			RawLength:        r.RawLength,
			TerminalSerial:   r.TerminalSerial,
			EventDateTime:    wallPtr(r.EventDateTime),
			EventStatus:      r.EventStatus,
			UserID:           r.UserID,
			AttendanceStatus: r.AttendanceStatus,
			Notes:            r.Notes,
		}))
	}
	return out, nil
}

func (s *MessageStore) AppendMessage(ctx context.Context, rec store.MessageRecord) (string, error) {
	if rec.ReceivedAt.IsZero() {
		rec.ReceivedAt = time.Now()
	}
	m := remoteMessageModel{
		ReceivedAtUTC:    rec.ReceivedAt.UTC(),
		SourceIP:         nullString(rec.SourceIP),
		SourcePort:       sql.NullInt64{Int64: int64(rec.SourcePort), Valid: rec.SourcePort != 0},
		Protocol:         nullString(rec.Protocol),
		Identifier:       nullString(rec.Identifier),
		RawLength:        sql.NullInt64{Int64: int64(rec.RawLength), Valid: true},
		TerminalSerial:   nullString(rec.TerminalSerial),
		EventStatus:      nullString(rec.EventStatus),
		UserID:           nullString(rec.UserID),
		AttendanceStatus: nullString(rec.AttendanceStatus),
		Notes:            nullString(rec.Notes),
	}
	if rec.EventAt != nil {
		m.EventDateTime = sql.NullTime{Time: rec.EventAt.Time, Valid: true}
	}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return "", fmt.Errorf("AppendMessage: %w", err)
	}
	return normalize.KeyString(m.MessageID), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func transaction(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(fn)
}
