package sqlite_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/Rasheed893/biotime-live-view/internal/attendance/types"
	"github.com/Rasheed893/biotime-live-view/internal/db"
)

// openTestDB returns an in-memory SQLite connection with the same PRAGMAs
// and schema as production.  The connection is closed automatically when the
// test finishes.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// Each call gets a unique in-memory database.  The shared-cache URI
	// keeps the database alive for the lifetime of the connection pool.
	dsn := fmt.Sprintf(
		"file:test_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)",
		t.Name(),
	)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("openTestDB: sql.Open: %v", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.Ping(); err != nil {
		conn.Close()
		t.Fatalf("openTestDB: ping: %v", err)
	}

	if err := db.Migrate(context.Background(), conn); err != nil {
		conn.Close()
		t.Fatalf("openTestDB: migrate: %v", err)
	}

	t.Cleanup(func() { conn.Close() })
	return conn
}

// newTestWriter returns a db.Worker backed by conn.  The worker is closed
// automatically when the test finishes.
func newTestWriter(t *testing.T, conn *sql.DB) *db.Worker {
	t.Helper()

	w := db.NewWorker(conn)
	t.Cleanup(func() { w.Close() })
	return w
}

func seedUser(t *testing.T, conn *sql.DB, id, name string, status any) {
	t.Helper()
	if _, err := conn.Exec(`INSERT INTO users(user_id, user_name, department, status) VALUES (?, ?, 'Ops', ?)`, id, name, status); err != nil {
		t.Fatalf("seedUser %s: %v", id, err)
	}
}

func seedDevice(t *testing.T, conn *sql.DB, id, name string, status any) {
	t.Helper()
	if _, err := conn.Exec(`INSERT INTO devices(device_id, device_name, ip_address, serial_number, status) VALUES (?, ?, '10.0.0.1', ?, ?)`,
		id, name, "SN-"+id, status); err != nil {
		t.Fatalf("seedDevice %s: %v", id, err)
	}
}

type event struct {
	id     int64
	user   string
	device string
	typ    string
	at     types.WallTime
	status any
}

// seedEvent writes the same event into both event tables so either schema
// can be queried.
func seedEvent(t *testing.T, conn *sql.DB, e event) {
	t.Helper()
	if _, err := conn.Exec(`
INSERT INTO attendance_logs(log_id, user_id, user_name, device_id, device_name, device_ip,
  event_type, event_at_ms, event_status, terminal_serial)
VALUES (?, ?, ?, ?, ?, '10.0.0.1', ?, ?, ?, ?)`,
		e.id, e.user, "name-"+e.user, e.device, "name-"+e.device, e.typ, e.at.Millis(), e.status, "SN-"+e.device,
	); err != nil {
		t.Fatalf("seed attendance_logs %d: %v", e.id, err)
	}
	if _, err := conn.Exec(`
INSERT INTO access_events(log_id, user_id, device_id, event_type, event_at_ms, event_status, terminal_serial)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.id, e.user, e.device, e.typ, e.at.Millis(), e.status, "SN-"+e.device,
	); err != nil {
		t.Fatalf("seed access_events %d: %v", e.id, err)
	}
}
