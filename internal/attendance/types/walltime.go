package types

import (
	"fmt"
	"strconv"
	"time"
)

// WallTimeLayout is the wire form of a wall-clock instant: no zone suffix.
const WallTimeLayout = "2006-01-02 15:04:05"

// WallTime is a naive wall-clock instant as recorded by a terminal.
// The underlying time.Time is always located in UTC and is never
// converted between zones; only its calendar fields are meaningful.
type WallTime struct {
	time.Time
}

// Wall builds a WallTime from calendar fields.
func Wall(year int, month time.Month, day, hour, min, sec, nsec int) WallTime {
	return WallTime{time.Date(year, month, day, hour, min, sec, nsec, time.UTC)}
}

// AsWall keeps the calendar fields of t and drops its zone.
func AsWall(t time.Time) WallTime {
	return Wall(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond())
}

// WallFromMillis decodes the storage form (milliseconds of the wall clock
// read as if it were UTC).
func WallFromMillis(ms int64) WallTime {
	return WallTime{time.UnixMilli(ms).UTC()}
}

// Millis is the storage form of w.
func (w WallTime) Millis() int64 {
	return w.Time.UnixMilli()
}

func (w WallTime) String() string {
	return w.Time.Format(WallTimeLayout)
}

// Clock renders the time-of-day part as HH:MM:SS.
func (w WallTime) Clock() string {
	return w.Time.Format("15:04:05")
}

// SameDay reports whether w falls on the calendar day of d.
func (w WallTime) SameDay(d WallTime) bool {
	y1, m1, d1 := w.Date()
	y2, m2, d2 := d.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func (w WallTime) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(w.String())), nil
}

func (w *WallTime) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return fmt.Errorf("wall time: %w", err)
	}
	t, err := time.ParseInLocation(WallTimeLayout, s, time.UTC)
	if err != nil {
		return fmt.Errorf("wall time: %w", err)
	}
	w.Time = t
	return nil
}
