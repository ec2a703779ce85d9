package db_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Rasheed893/biotime-live-view/internal/db"
)

func openMemDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:db_%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)", t.Name())
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	if err := db.Migrate(context.Background(), conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func count(t *testing.T, conn *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := conn.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

// ── Migrate ────────────────────────────────────────────────────────────────

func TestMigrate_Idempotent(t *testing.T) {
	conn := openMemDB(t)

	if err := db.Migrate(context.Background(), conn); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if n := count(t, conn, "schema_migrations"); n != 2 {
		t.Errorf("expected 2 applied migrations, got %d", n)
	}

	var name string
	if err := conn.QueryRow(`SELECT name FROM schema_migrations WHERE version = 2`).Scan(&name); err != nil {
		t.Fatalf("query: %v", err)
	}
	if name != "0002_remote_messages.sql" {
		t.Errorf("expected recorded name, got %q", name)
	}
}

// ── SeedDev ────────────────────────────────────────────────────────────────

func TestSeedDev_ReferenceDataAndHistory(t *testing.T) {
	conn := openMemDB(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	opt := db.SeedDevOptions{HistoryEvents: 50, HistoryDays: 7, Now: now, Seed: 1}
	if err := db.SeedDev(ctx, conn, opt); err != nil {
		t.Fatalf("SeedDev: %v", err)
	}
	if n := count(t, conn, "users"); n != len(db.DevUsers) {
		t.Errorf("expected %d users, got %d", len(db.DevUsers), n)
	}
	if n := count(t, conn, "devices"); n != len(db.DevDevices) {
		t.Errorf("expected %d devices, got %d", len(db.DevDevices), n)
	}
	if n := count(t, conn, "attendance_logs"); n != 50 {
		t.Errorf("expected 50 attendance_logs, got %d", n)
	}
	if n := count(t, conn, "access_events"); n != 50 {
		t.Errorf("expected 50 access_events, got %d", n)
	}

	// Re-seeding leaves history alone.
	if err := db.SeedDev(ctx, conn, opt); err != nil {
		t.Fatalf("SeedDev again: %v", err)
	}
	if n := count(t, conn, "attendance_logs"); n != 50 {
		t.Errorf("expected history untouched, got %d", n)
	}

	var inactive int
	if err := conn.QueryRow(`
SELECT COUNT(*) FROM attendance_logs l JOIN users u ON u.user_id = l.user_id
WHERE u.status = 'Inactive'`).Scan(&inactive); err != nil {
		t.Fatalf("query: %v", err)
	}
	if inactive != 0 {
		t.Errorf("expected only active users in history, got %d inactive", inactive)
	}
}

// ── Worker ─────────────────────────────────────────────────────────────────

func TestWorker_CommitsAndRollsBack(t *testing.T) {
	conn := openMemDB(t)
	w := db.NewWorker(conn)
	defer w.Close()
	ctx := context.Background()

	err := w.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO users(user_id, user_name) VALUES ('U1', 'A')`)
		return err
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}

	boom := errors.New("boom")
	err = w.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO users(user_id, user_name) VALUES ('U2', 'B')`); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	if n := count(t, conn, "users"); n != 1 {
		t.Errorf("expected 1 committed user, got %d", n)
	}
}

func TestWorker_CancelledContext(t *testing.T) {
	conn := openMemDB(t)
	w := db.NewWorker(conn)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.Do(ctx, func(ctx context.Context, tx *sql.Tx) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestWorker_DoAfterClose(t *testing.T) {
	conn := openMemDB(t)
	w := db.NewWorker(conn)
	w.Close()
	w.Close()

	err := w.Do(context.Background(), func(ctx context.Context, tx *sql.Tx) error { return nil })
	if !errors.Is(err, db.ErrWorkerClosed) {
		t.Errorf("expected ErrWorkerClosed, got %v", err)
	}
}

// ── Dialector ──────────────────────────────────────────────────────────────

func TestDialector_UnknownDriver(t *testing.T) {
	if _, err := db.Dialector(db.GormConfig{Driver: "oracle"}); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
	for _, d := range []string{"postgres", "mysql", "sqlserver"} {
		dl, err := db.Dialector(db.GormConfig{Driver: d, DSN: "x"})
		if err != nil || dl == nil {
			t.Errorf("%s: expected dialector, got %v", d, err)
		}
	}
}
