package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Rasheed893/biotime-live-view/internal/attendance/normalize"
	"github.com/Rasheed893/biotime-live-view/internal/attendance/types"
)

type DirectoryStore struct {
	db *sql.DB
}

func NewDirectoryStore(db *sql.DB) *DirectoryStore {
	return &DirectoryStore{db: db}
}

func (s *DirectoryStore) ListUsers(ctx context.Context) ([]types.User, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT user_id, user_name, department, job_title, status
FROM users
ORDER BY user_name, user_id;`)
	if err != nil {
		return nil, fmt.Errorf("ListUsers: %w", err)
	}
	defer rows.Close()

	out := []types.User{}
	for rows.Next() {
		var r normalize.UserRow
		if err := rows.Scan(&r.UserID, &r.UserName, &r.Department, &r.JobTitle, &r.Status); err != nil {
			return nil, fmt.Errorf("ListUsers scan: %w", err)
		}
		out = append(out, normalize.NormalizeUser(r))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListUsers rows: %w", err)
	}
	return out, nil
}

func (s *DirectoryStore) ListDevices(ctx context.Context) ([]types.Device, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT device_id, device_name, ip_address, serial_number, last_seen_at_ms, status
FROM devices
ORDER BY device_name, device_id;`)
	if err != nil {
		return nil, fmt.Errorf("ListDevices: %w", err)
	}
	defer rows.Close()

	out := []types.Device{}
	for rows.Next() {
		var (
			r      normalize.DeviceRow
			seenMs sql.NullInt64
		)
		if err := rows.Scan(&r.DeviceID, &r.DeviceName, &r.IPAddress, &r.SerialNumber, &seenMs, &r.Status); err != nil {
			return nil, fmt.Errorf("ListDevices scan: %w", err)
		}
		r.LastSeen = wallPtr(seenMs)
		out = append(out, normalize.NormalizeDevice(r))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListDevices rows: %w", err)
	}
	return out, nil
}

// Ping runs a trivial round trip through the pool.
func (s *DirectoryStore) Ping(ctx context.Context) error {
	var one int
	if err := s.db.QueryRowContext(ctx, "SELECT 1;").Scan(&one); err != nil {
		return fmt.Errorf("Ping: %w", err)
	}
	return nil
}
