package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Rasheed893/biotime-live-view/internal/attendance/filter"
	"github.com/Rasheed893/biotime-live-view/internal/attendance/store"
	"github.com/Rasheed893/biotime-live-view/internal/attendance/store/memory"
	"github.com/Rasheed893/biotime-live-view/internal/attendance/types"
)

func TestStore_QueryMatchesSQLSemantics(t *testing.T) {
	s := memory.New()
	s.AddLogs(
		types.AttendanceLog{LogID: "1", UserID: "U1", EventDateTime: types.Wall(2024, 3, 15, 8, 0, 0, 0)},
		types.AttendanceLog{LogID: "2", UserID: "U2", EventDateTime: types.Wall(2024, 3, 15, 9, 0, 0, 0)},
		types.AttendanceLog{LogID: "10", UserID: "U1", EventDateTime: types.Wall(2024, 3, 15, 9, 0, 0, 0)},
		types.AttendanceLog{LogID: "11", UserID: "U1", EventDateTime: types.Wall(2024, 3, 16, 0, 0, 0, 0)},
	)

	q, _ := filter.NewCompiler(filter.Lenient, time.UTC).Compile(
		filter.Criteria{From: "2024-03-15", To: "2024-03-15", Limit: "2"}, filter.LogsProfile)
	logs, err := s.QueryLogs(context.Background(), q)
	if err != nil {
		t.Fatalf("QueryLogs: %v", err)
	}
	if len(logs) != 2 || logs[0].LogID != "10" || logs[1].LogID != "2" {
		t.Errorf("unexpected result %+v", logs)
	}

	n, _ := s.CountLogs(context.Background(), q)
	if n != 3 {
		t.Errorf("expected 3 matching, got %d", n)
	}
}

func TestStore_AppendEventResolvesNames(t *testing.T) {
	s := memory.New()
	s.AddUsers(types.User{UserID: "U1", UserName: "Amy"})
	s.AddDevices(types.Device{DeviceID: "D1", DeviceName: "Gate", SerialNumber: "SN1", Status: types.DeviceOffline})
	s.AddLogs(types.AttendanceLog{LogID: "41"})

	id, err := s.AppendEvent(context.Background(), store.EventRecord{UserID: "U1", DeviceID: "D1", EventType: types.EventAttendance})
	if err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}
	if id != "42" {
		t.Errorf("expected next id 42, got %s", id)
	}

	devices, _ := s.ListDevices(context.Background())
	if devices[0].Status != types.DeviceOnline || devices[0].LastSeen == nil {
		t.Errorf("expected device marked seen, got %+v", devices[0])
	}
}

func TestStore_Down(t *testing.T) {
	s := memory.New()
	s.SetDown(true)
	if _, err := s.QueryLogs(context.Background(), filter.Query{}); !errors.Is(err, memory.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
	if err := s.Ping(context.Background()); !errors.Is(err, memory.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}
