package normalize_test

import (
	"database/sql"
	"math"
	"testing"

	"github.com/Rasheed893/biotime-live-view/internal/attendance/normalize"
	"github.com/Rasheed893/biotime-live-view/internal/attendance/types"
)

func valid(s string) sql.NullString { return sql.NullString{String: s, Valid: true} }

// ═══════════════════════════════════════════════════════════════════════════
// Row shapes
// ═══════════════════════════════════════════════════════════════════════════

func TestNormalize_SchemaShapesAgree(t *testing.T) {
	at := types.Wall(2024, 3, 15, 9, 0, 0, 0)

	denorm := normalize.DenormalizedRow{
		LogID:          int64(42),
		UserID:         "U001",
		UserName:       "Ahmed Al-Farsi",
		DeviceID:       "D001",
		DeviceName:     "Main Entrance",
		DeviceIP:       "192.168.1.101",
		EventType:      "Attendance",
		EventDateTime:  at,
		EventStatus:    valid("Real-time"),
		TerminalSerial: valid("BT-SN-4001"),
	}
	joined := normalize.JoinedRow{
		LogID:          []byte("42"),
		UserID:         "U001",
		UserName:       valid("Ahmed Al-Farsi"),
		DeviceID:       "D001",
		DeviceName:     valid("Main Entrance"),
		DeviceIP:       valid("192.168.1.101"),
		DeviceSerial:   valid("BT-SN-4001"),
		EventType:      "Attendance",
		EventDateTime:  at,
		EventStatus:    valid("Real-time"),
	}

	a := normalize.Normalize(denorm)
	b := normalize.Normalize(joined)
	if a != b {
		t.Errorf("shapes disagree:\n denorm=%+v\n joined=%+v", a, b)
	}
	if a.LogID != "42" {
		t.Errorf("expected logID 42, got %q", a.LogID)
	}
}

func TestNormalize_NullStatusDefaultsOffline(t *testing.T) {
	got := normalize.Normalize(normalize.DenormalizedRow{LogID: int64(1)})
	if got.EventStatus != types.StatusOffline {
		t.Errorf("expected %q, got %q", types.StatusOffline, got.EventStatus)
	}
}

func TestNormalize_UnknownEventTypePassesThrough(t *testing.T) {
	got := normalize.Normalize(normalize.DenormalizedRow{LogID: int64(1), EventType: "Tamper"})
	if got.EventType != "Tamper" {
		t.Errorf("expected pass-through, got %q", got.EventType)
	}
}

func TestNormalize_DenormalizedNamesTrusted(t *testing.T) {
	got := normalize.Normalize(normalize.DenormalizedRow{
		LogID:    int64(1),
		UserID:   "U001",
		UserName: "Name At Write Time",
	})
	if got.UserName != "Name At Write Time" {
		t.Errorf("expected embedded name, got %q", got.UserName)
	}
}

func TestNormalize_JoinedMissingReferenceKeepsID(t *testing.T) {
	got := normalize.Normalize(normalize.JoinedRow{LogID: int64(7), UserID: "U404", DeviceID: "D404"})
	if got.UserID != "U404" || got.UserName != "" {
		t.Errorf("unexpected user fields %q/%q", got.UserID, got.UserName)
	}
	if got.DeviceID != "D404" || got.DeviceName != "" {
		t.Errorf("unexpected device fields %q/%q", got.DeviceID, got.DeviceName)
	}
}

func TestNormalize_JoinedPrefersRowSerial(t *testing.T) {
	got := normalize.Normalize(normalize.JoinedRow{
		LogID:          int64(7),
		DeviceSerial:   valid("BT-SN-4001"),
		TerminalSerial: valid("BT-SN-9999"),
	})
	if got.TerminalSerial != "BT-SN-9999" {
		t.Errorf("expected row serial, got %q", got.TerminalSerial)
	}
}

func TestNormalizeUserAndDeviceDefaults(t *testing.T) {
	u := normalize.NormalizeUser(normalize.UserRow{UserID: "U1", UserName: "A"})
	if u.Status != types.UserInactive {
		t.Errorf("expected Inactive, got %q", u.Status)
	}
	d := normalize.NormalizeDevice(normalize.DeviceRow{DeviceID: "D1", DeviceName: "Gate"})
	if d.Status != types.DeviceOffline {
		t.Errorf("expected Offline, got %q", d.Status)
	}
	d = normalize.NormalizeDevice(normalize.DeviceRow{DeviceID: "D1", Status: valid("Online")})
	if d.Status != types.DeviceOnline {
		t.Errorf("expected Online, got %q", d.Status)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Keys and ordering
// ═══════════════════════════════════════════════════════════════════════════

func TestKeyString(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{int64(12), "12"},
		{uint64(math.MaxUint64), "18446744073709551615"},
		{int64(1) << 60, "1152921504606846976"},
		{[]byte("99"), "99"},
		{"L000001", "L000001"},
		{float64(1e15), "1000000000000000"},
		{nil, ""},
	}
	for _, tc := range cases {
		if got := normalize.KeyString(tc.in); got != tc.want {
			t.Errorf("KeyString(%v): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestCompareKeys_Numeric(t *testing.T) {
	if normalize.CompareKeys("9", "10") >= 0 {
		t.Error("expected 9 < 10")
	}
	if normalize.CompareKeys("10", "10") != 0 {
		t.Error("expected equal")
	}
}

func TestSortCanonical_TimeThenKeyDescending(t *testing.T) {
	t1 := types.Wall(2024, 3, 15, 9, 0, 0, 0)
	t2 := types.Wall(2024, 3, 15, 10, 0, 0, 0)
	logs := []types.AttendanceLog{
		{LogID: "9", EventDateTime: t1},
		{LogID: "10", EventDateTime: t1},
		{LogID: "1", EventDateTime: t2},
	}
	normalize.SortCanonical(logs)

	want := []string{"1", "10", "9"}
	for i, id := range want {
		if logs[i].LogID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, logs[i].LogID)
		}
	}
	if !normalize.Before(logs[0], logs[1]) {
		t.Error("expected logs[0] before logs[1]")
	}
}
