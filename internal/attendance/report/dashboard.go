package report

import (
	"time"

	"github.com/Rasheed893/biotime-live-view/internal/attendance/filter"
	"github.com/Rasheed893/biotime-live-view/internal/attendance/types"
)

type HourBucket struct {
	Hour   string `json:"hour"`
	Events int    `json:"events"`
}

type Summary struct {
	EventsToday   int             `json:"eventsToday"`
	ActiveDevices int             `json:"activeDevices"`
	TotalDevices  int             `json:"totalDevices"`
	LastEvent     *types.WallTime `json:"lastEvent"`
	TotalUsers    int             `json:"totalUsers"`
	Hourly        []HourBucket    `json:"hourly"`
	Truncated     bool            `json:"truncated,omitempty"`
}

// DashboardWindow is the earliest event time Dashboard looks at for now:
// the start of the oldest hourly bucket or the start of today, whichever
// is earlier.
func DashboardWindow(now time.Time) time.Time {
	first := now.Add(-23 * time.Hour).Truncate(time.Hour)
	if today := filter.StartOfDay(now); today.Before(first) {
		return today
	}
	return first
}

// Dashboard summarises logs as seen at now, a wall-clock instant.
// EventsToday counts the given logs; callers holding a store-side count
// for the whole day should overwrite it.
func Dashboard(now time.Time, logs []types.AttendanceLog, devices []types.Device, users []types.User) Summary {
	today := filter.StartOfDay(now)
	s := Summary{TotalDevices: len(devices), TotalUsers: len(users), Hourly: make([]HourBucket, 24)}

	for _, d := range devices {
		if d.Status == types.DeviceOnline {
			s.ActiveDevices++
		}
	}

	first := now.Add(-23 * time.Hour).Truncate(time.Hour)
	for i := range s.Hourly {
		s.Hourly[i].Hour = first.Add(time.Duration(i) * time.Hour).Format("15:04")
	}

	for _, l := range logs {
		at := l.EventDateTime.Time
		if !at.Before(today) {
			s.EventsToday++
		}
		if s.LastEvent == nil || at.After(s.LastEvent.Time) {
			last := l.EventDateTime
			s.LastEvent = &last
		}
		if at.Before(first) {
			continue
		}
		if i := int(at.Sub(first) / time.Hour); i < len(s.Hourly) {
			s.Hourly[i].Events++
		}
	}
	return s
}
