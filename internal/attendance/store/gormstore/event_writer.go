package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Rasheed893/biotime-live-view/internal/attendance/normalize"
	"github.com/Rasheed893/biotime-live-view/internal/attendance/store"
	"github.com/Rasheed893/biotime-live-view/internal/attendance/types"
)

type EventWriter struct {
	db     *gorm.DB
	schema store.Schema
}

func NewEventWriter(db *gorm.DB, schema store.Schema) *EventWriter {
	if schema == "" {
		schema = store.Denormalized
	}
	return &EventWriter{db: db, schema: schema}
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
	received := types.AsWall(rec.ReceivedAt).Time

	var id int64
	err := transaction(ctx, s.db, func(tx *gorm.DB) error {
		var dev deviceModel
		err := tx.Where("device_id = ?", rec.DeviceID).Take(&dev).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			dev = deviceModel{DeviceID: rec.DeviceID, DeviceName: rec.DeviceID, Status: nullString(types.DeviceOffline)}
			if err := tx.Create(&dev).Error; err != nil {
				return fmt.Errorf("AppendEvent ensure device: %w", err)
			}
		case err != nil:
			return fmt.Errorf("AppendEvent resolve device: %w", err)
		}
		if rec.TerminalSerial == "" {
			rec.TerminalSerial = dev.SerialNumber.String
		}

		if s.schema == store.Joined {
			ev := accessEventModel{
				UserID:         rec.UserID,
				DeviceID:       rec.DeviceID,
				EventType:      string(rec.EventType),
				EventDateTime:  rec.EventAt.Time,
				EventStatus:    nullString(rec.EventStatus),
				TerminalSerial: nullString(rec.TerminalSerial),
			}
			ev.ReceivedAt.Time, ev.ReceivedAt.Valid = received, true
			if err := tx.Create(&ev).Error; err != nil {
				return fmt.Errorf("AppendEvent insert: %w", err)
			}
			id = ev.LogID
		} else {
			var user userModel
			if err := tx.Where("user_id = ?", rec.UserID).Take(&user).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("AppendEvent resolve user: %w", err)
			}
			ev := attendanceLogModel{
				UserID:         rec.UserID,
				UserName:       user.UserName,
				DeviceID:       rec.DeviceID,
				DeviceName:     dev.DeviceName,
				DeviceIP:       dev.IPAddress.String,
				EventType:      string(rec.EventType),
				EventDateTime:  rec.EventAt.Time,
				EventStatus:    nullString(rec.EventStatus),
				TerminalSerial: nullString(rec.TerminalSerial),
			}
			ev.ReceivedAt.Time, ev.ReceivedAt.Valid = received, true
			if err := tx.Create(&ev).Error; err != nil {
				return fmt.Errorf("AppendEvent insert: %w", err)
			}
			id = ev.LogID
		}

		if err := tx.Model(&deviceModel{}).
			Where("device_id = ? AND (last_seen IS NULL OR last_seen < ?)", rec.DeviceID, rec.EventAt.Time).
			Updates(map[string]any{"last_seen": rec.EventAt.Time, "status": types.DeviceOnline}).Error; err != nil {
			return fmt.Errorf("AppendEvent mark seen: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return normalize.KeyString(id), nil
}
