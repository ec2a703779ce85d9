package db

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand/v2"
	"time"
)

type SeedUser struct {
	ID, Name, Department, JobTitle, Status string
}

type SeedDevice struct {
	ID, Name, IP, Serial, Status string
}

var DevUsers = []SeedUser{
	{"U001", "Ahmed Al-Farsi", "Engineering", "Software Engineer", "Active"},
	{"U002", "Sara Malik", "HR", "HR Manager", "Active"},
	{"U003", "James Chen", "Operations", "Operations Lead", "Active"},
	{"U004", "Fatima Hassan", "Finance", "Accountant", "Active"},
	{"U005", "Omar Khaled", "Engineering", "DevOps Engineer", "Active"},
	{"U006", "Lina Yousef", "Marketing", "Marketing Specialist", "Active"},
	{"U007", "David Smith", "Security", "Security Officer", "Active"},
	{"U008", "Noor Amin", "Engineering", "QA Engineer", "Inactive"},
	{"U009", "Khalid Raza", "IT", "System Admin", "Active"},
	{"U010", "Maria Lopez", "Operations", "Coordinator", "Active"},
	{"U011", "Tariq Hussain", "Finance", "Financial Analyst", "Active"},
	{"U012", "Aisha Binte", "HR", "Recruiter", "Inactive"},
}

var DevDevices = []SeedDevice{
	{"D001", "Main Entrance", "192.168.1.101", "BT-SN-4001", "Online"},
	{"D002", "Parking Gate", "192.168.1.102", "BT-SN-4002", "Online"},
	{"D003", "Server Room", "192.168.1.103", "BT-SN-4003", "Online"},
	{"D004", "Floor 2 Entry", "192.168.1.104", "BT-SN-4004", "Online"},
	{"D005", "Warehouse", "192.168.1.105", "BT-SN-4005", "Offline"},
	{"D006", "Cafeteria", "192.168.1.106", "BT-SN-4006", "Online"},
}

var devEventTypes = []string{"Access Granted", "Access Denied", "Attendance"}

type SeedDevOptions struct {
	// HistoryEvents is how many past events to spread over HistoryDays.
	// Zero skips event seeding.
	HistoryEvents int
	HistoryDays   int

	// Now is the wall clock the history is anchored to.
	Now time.Time
	// Seed makes the generated history reproducible.
	Seed uint64
}

// SeedDev populates reference data and, optionally, a week of history in
// both event tables. It is a no-op for rows that already exist.
func SeedDev(ctx context.Context, db *sql.DB, opt SeedDevOptions) error {
	if opt.Now.IsZero() {
		opt.Now = time.Now()
	}
	if opt.HistoryDays <= 0 {
		opt.HistoryDays = 7
	}
	nowMs := wallMillis(opt.Now)

	for _, u := range DevUsers {
		if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO users(user_id, user_name, department, job_title, status)
VALUES (?, ?, ?, ?, ?);`, u.ID, u.Name, u.Department, u.JobTitle, u.Status); err != nil {
			return fmt.Errorf("seed user %s: %w", u.ID, err)
		}
	}

	for _, d := range DevDevices {
		seen := nowMs
		if d.Status == "Offline" {
			seen = nowMs - time.Hour.Milliseconds()
		}
		if _, err := db.ExecContext(ctx, `
INSERT INTO devices(device_id, device_name, ip_address, serial_number, last_seen_at_ms, status)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(device_id) DO UPDATE SET
  device_name = excluded.device_name,
  ip_address = excluded.ip_address,
  serial_number = excluded.serial_number;
`, d.ID, d.Name, d.IP, d.Serial, seen, d.Status); err != nil {
			return fmt.Errorf("seed device %s: %w", d.ID, err)
		}
	}

	if opt.HistoryEvents <= 0 {
		return nil
	}

	var existing int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM attendance_logs;`).Scan(&existing); err != nil {
		return fmt.Errorf("seed count: %w", err)
	}
	if existing > 0 {
		return nil
	}

	rng := rand.New(rand.NewPCG(opt.Seed, opt.Seed^0x9e3779b97f4a7c15))
	active := activeDevUsers()
	span := int64(opt.HistoryDays) * 24 * time.Hour.Milliseconds()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	for i := 0; i < opt.HistoryEvents; i++ {
		u := active[rng.IntN(len(active))]
		d := DevDevices[rng.IntN(len(DevDevices))]
		at := nowMs - rng.Int64N(span)
		typ := devEventTypes[rng.IntN(len(devEventTypes))]
		status := "Real-time"
		if rng.IntN(10) == 0 {
			status = "Offline"
		}

		if _, err := tx.ExecContext(ctx, `
INSERT INTO attendance_logs(
  user_id, user_name, device_id, device_name, device_ip,
  event_type, event_at_ms, event_status, terminal_serial, received_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
			u.ID, u.Name, d.ID, d.Name, d.IP, typ, at, status, d.Serial, at,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("seed attendance_logs: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO access_events(
  user_id, device_id, event_type, event_at_ms, event_status, terminal_serial, received_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?);`,
			u.ID, d.ID, typ, at, status, d.Serial, at,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("seed access_events: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	return nil
}

func activeDevUsers() []SeedUser {
	out := make([]SeedUser, 0, len(DevUsers))
	for _, u := range DevUsers {
		if u.Status == "Active" {
			out = append(out, u)
		}
	}
	return out
}

// wallMillis stores t's calendar fields as if they were UTC.
func wallMillis(t time.Time) int64 {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC).UnixMilli()
}
