package gormstore

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Rasheed893/biotime-live-view/internal/db"
)

// SeedDirectory inserts the development users and devices, leaving
// existing rows untouched.
func SeedDirectory(ctx context.Context, gdb *gorm.DB) error {
	users := make([]userModel, 0, len(db.DevUsers))
	for _, u := range db.DevUsers {
		users = append(users, userModel{
			UserID:     u.ID,
			UserName:   u.Name,
			Department: nullString(u.Department),
			JobTitle:   nullString(u.JobTitle),
			Status:     nullString(u.Status),
		})
	}
	devices := make([]deviceModel, 0, len(db.DevDevices))
	for _, d := range db.DevDevices {
		devices = append(devices, deviceModel{
			DeviceID:     d.ID,
			DeviceName:   d.Name,
			IPAddress:    nullString(d.IP),
			SerialNumber: nullString(d.Serial),
			Status:       nullString(d.Status),
		})
	}

	return transaction(ctx, gdb, func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&users).Error; err != nil {
			return fmt.Errorf("seed users: %w", err)
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&devices).Error; err != nil {
			return fmt.Errorf("seed devices: %w", err)
		}
		return nil
	})
}
