package gormstore

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Rasheed893/biotime-live-view/internal/attendance/normalize"
	"github.com/Rasheed893/biotime-live-view/internal/attendance/types"
)

type DirectoryStore struct {
	db *gorm.DB
}

func NewDirectoryStore(db *gorm.DB) *DirectoryStore {
	return &DirectoryStore{db: db}
}

func (s *DirectoryStore) ListUsers(ctx context.Context) ([]types.User, error) {
	var rows []userModel
	if err := s.db.WithContext(ctx).Order("user_name").Order("user_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("ListUsers: %w", err)
	}
	out := make([]types.User, 0, len(rows))
	for _, r := range rows {
		out = append(out, normalize.NormalizeUser(normalize.UserRow{
			UserID:     r.UserID,
			UserName:   r.UserName,
			Department: r.Department,
			JobTitle:   r.JobTitle,
			Status:     r.Status,
		}))
	}
	return out, nil
}

func (s *DirectoryStore) ListDevices(ctx context.Context) ([]types.Device, error) {
	var rows []deviceModel
	if err := s.db.WithContext(ctx).Order("device_name").Order("device_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("ListDevices: %w", err)
	}
	out := make([]types.Device, 0, len(rows))
	for _, r := range rows {
		out = append(out, normalize.NormalizeDevice(normalize.DeviceRow{
			DeviceID:     r.DeviceID,
			DeviceName:   r.DeviceName,
			IPAddress:    r.IPAddress,
			SerialNumber: r.SerialNumber,
			LastSeen:     wallPtr(r.LastSeen),
			Status:       r.Status,
		}))
	}
	return out, nil
}

func (s *DirectoryStore) Ping(ctx context.Context) error {
	var one int
	if err := s.db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error; err != nil {
		return fmt.Errorf("Ping: %w", err)
	}
	return nil
}
