package types_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Rasheed893/biotime-live-view/internal/attendance/types"
)

func TestWallTime_JSONHasNoZoneSuffix(t *testing.T) {
	w := types.Wall(2024, 3, 15, 9, 1, 2, 0)

	b, err := json.Marshal(w)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"2024-03-15 09:01:02"` {
		t.Errorf("unexpected encoding %s", b)
	}

	var back types.WallTime
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(w.Time) {
		t.Errorf("expected %v, got %v", w, back)
	}
}

func TestWallTime_AsWallKeepsCalendarFields(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	in := time.Date(2024, 3, 15, 23, 30, 0, 0, loc)

	w := types.AsWall(in)
	if w.Hour() != 23 || w.Day() != 15 {
		t.Errorf("expected 15th 23h, got %s", w)
	}
	if w.Location() != time.UTC {
		t.Errorf("expected UTC location, got %v", w.Location())
	}
}

func TestWallTime_MillisRoundTrip(t *testing.T) {
	w := types.Wall(2024, 3, 15, 23, 59, 59, 999_000_000)
	if got := types.WallFromMillis(w.Millis()); !got.Equal(w.Time) {
		t.Errorf("expected %v, got %v", w, got)
	}
}

func TestWallTime_SameDay(t *testing.T) {
	a := types.Wall(2024, 3, 15, 0, 0, 0, 0)
	b := types.Wall(2024, 3, 15, 23, 59, 59, 0)
	c := types.Wall(2024, 3, 16, 0, 0, 0, 0)
	if !a.SameDay(b) {
		t.Error("expected same day")
	}
	if a.SameDay(c) {
		t.Error("expected different days")
	}
}
