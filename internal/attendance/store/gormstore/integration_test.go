//go:build integration

package gormstore_test

import (
	"context"
	"fmt"
	"os/exec"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Rasheed893/biotime-live-view/internal/attendance/filter"
	"github.com/Rasheed893/biotime-live-view/internal/attendance/store"
	"github.com/Rasheed893/biotime-live-view/internal/attendance/store/gormstore"
	"github.com/Rasheed893/biotime-live-view/internal/attendance/types"
	"github.com/Rasheed893/biotime-live-view/internal/db"
)

func skipIfNoDocker(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if exec.CommandContext(ctx, "docker", "info").Run() != nil {
		t.Skip("Skipping test: Docker not available")
	}
}

func startPostgres(t *testing.T) string {
	t.Helper()
	skipIfNoDocker(t)
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "biotime",
				"POSTGRES_PASSWORD": "biotime",
				"POSTGRES_DB":       "biotime",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			).WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() {
		if err := c.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := c.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	return fmt.Sprintf("host=%s port=%s user=biotime password=biotime dbname=biotime sslmode=disable", host, port.Port())
}

func TestGormStore_Postgres_EndToEnd(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()

	gdb, err := db.OpenGorm(ctx, db.GormConfig{Driver: "postgres", DSN: dsn})
	if err != nil {
		t.Fatalf("OpenGorm: %v", err)
	}
	t.Cleanup(func() { _ = db.CloseGorm(gdb) })

	if err := gormstore.AutoMigrate(gdb); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	if err := gormstore.SeedDirectory(ctx, gdb); err != nil {
		t.Fatalf("SeedDirectory: %v", err)
	}

	for _, schema := range []store.Schema{store.Denormalized, store.Joined} {
		w := gormstore.NewEventWriter(gdb, schema)
		for i, at := range []types.WallTime{
			types.Wall(2024, 3, 15, 8, 0, 0, 0),
			types.Wall(2024, 3, 15, 23, 59, 59, 0),
			types.Wall(2024, 3, 16, 0, 0, 0, 0),
		} {
			if _, err := w.AppendEvent(ctx, store.EventRecord{
				UserID:    "U001",
				DeviceID:  "D001",
				EventType: types.EventAttendance,
				EventAt:   at,
			}); err != nil {
				t.Fatalf("%s AppendEvent %d: %v", schema, i, err)
			}
		}

		q, _ := filter.NewCompiler(filter.Lenient, time.UTC).Compile(
			filter.Criteria{From: "2024-03-15", To: "2024-03-15"}, filter.LogsProfile)
		logs, err := gormstore.NewLogStore(gdb, schema).QueryLogs(ctx, q)
		if err != nil {
			t.Fatalf("%s QueryLogs: %v", schema, err)
		}
		if len(logs) != 2 {
			t.Fatalf("%s: expected 2 logs on the day, got %d", schema, len(logs))
		}
		if logs[0].EventDateTime.Hour() != 23 || logs[0].UserName != "Ahmed Al-Farsi" {
			t.Errorf("%s: unexpected first row %+v", schema, logs[0])
		}
	}

	if err := gormstore.NewDirectoryStore(gdb).Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
