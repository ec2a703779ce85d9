// Package memory is an in-process store used by tests and demos.
package memory

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Rasheed893/biotime-live-view/internal/attendance/filter"
	"github.com/Rasheed893/biotime-live-view/internal/attendance/normalize"
	"github.com/Rasheed893/biotime-live-view/internal/attendance/store"
	"github.com/Rasheed893/biotime-live-view/internal/attendance/types"
)

// ErrUnavailable is returned by every call while the store is marked down.
var ErrUnavailable = errors.New("memory store unavailable")

// Store implements every storage contract over slices.
type Store struct {
	mu       sync.RWMutex
	users    []types.User
	devices  []types.Device
	logs     []types.AttendanceLog
	messages []types.RemoteMessage
	nextID   int64
	down     bool
}

func New() *Store {
	return &Store{nextID: 1}
}

// SetDown makes subsequent calls fail with ErrUnavailable.
func (s *Store) SetDown(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.down = down
}

func (s *Store) AddUsers(us ...types.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, us...)
}

func (s *Store) AddDevices(ds ...types.Device) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices = append(s.devices, ds...)
}

// AddLogs inserts canonical records as-is. Records without an id get the
// next sequence number.
func (s *Store) AddLogs(ls ...types.AttendanceLog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range ls {
		if l.LogID == "" {
			l.LogID = strconv.FormatInt(s.nextID, 10)
		}
		if n, err := strconv.ParseInt(l.LogID, 10, 64); err == nil && n >= s.nextID {
			s.nextID = n + 1
		}
		s.logs = append(s.logs, l)
	}
}

func (s *Store) AddMessages(ms ...types.RemoteMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, ms...)
}

func (s *Store) QueryLogs(_ context.Context, q filter.Query) ([]types.AttendanceLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.down {
		return nil, ErrUnavailable
	}

	matched := s.match(q)
	if q.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[q.Offset:]
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

func (s *Store) CountLogs(_ context.Context, q filter.Query) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.down {
		return 0, ErrUnavailable
	}
	return len(s.match(q)), nil
}

func (s *Store) match(q filter.Query) []types.AttendanceLog {
	var out []types.AttendanceLog
	for _, l := range s.logs {
		if q.Match(l) {
			out = append(out, l)
		}
	}
	normalize.SortCanonical(out)
	return out
}

func (s *Store) ListUsers(context.Context) ([]types.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.down {
		return nil, ErrUnavailable
	}
	out := slices.Clone(s.users)
	slices.SortStableFunc(out, func(a, b types.User) int { return strings.Compare(a.UserName, b.UserName) })
	if out == nil {
		out = []types.User{}
	}
	return out, nil
}

func (s *Store) ListDevices(context.Context) ([]types.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.down {
		return nil, ErrUnavailable
	}
	out := slices.Clone(s.devices)
	slices.SortStableFunc(out, func(a, b types.Device) int { return strings.Compare(a.DeviceName, b.DeviceName) })
	if out == nil {
		out = []types.Device{}
	}
	return out, nil
}

func (s *Store) RecentMessages(_ context.Context, limit int) ([]types.RemoteMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.down {
		return nil, ErrUnavailable
	}
	out := slices.Clone(s.messages)
	slices.SortStableFunc(out, func(a, b types.RemoteMessage) int {
		if c := b.ReceivedAtUTC.Compare(a.ReceivedAtUTC); c != 0 {
			return c
		}
		return normalize.CompareKeys(b.MessageID, a.MessageID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []types.RemoteMessage{}
	}
	return out, nil
}

func (s *Store) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.down {
		return ErrUnavailable
	}
	return nil
}

// AppendEvent resolves names from the directory, like the denormalized
// SQL schema does.
func (s *Store) AppendEvent(_ context.Context, rec store.EventRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return "", ErrUnavailable
	}
	if rec.ReceivedAt.IsZero() {
		rec.ReceivedAt = time.Now()
	}
	if rec.EventAt.IsZero() {
		rec.EventAt = types.AsWall(rec.ReceivedAt)
	}
	if rec.EventStatus == "" {
		rec.EventStatus = types.StatusRealtime
	}

	l := types.AttendanceLog{
		LogID:          strconv.FormatInt(s.nextID, 10),
		UserID:         rec.UserID,
		DeviceID:       rec.DeviceID,
		EventType:      rec.EventType,
		EventDateTime:  rec.EventAt,
		EventStatus:    rec.EventStatus,
		TerminalSerial: rec.TerminalSerial,
	}
	received := types.AsWall(rec.ReceivedAt)
	l.ReceivedAt = &received
	s.nextID++

	for _, u := range s.users {
		if u.UserID == rec.UserID {
			l.UserName = u.UserName
		}
	}
	for i, d := range s.devices {
		if d.DeviceID == rec.DeviceID {
			l.DeviceName = d.DeviceName
			l.DeviceIP = d.IPAddress
			if l.TerminalSerial == "" {
				l.TerminalSerial = d.SerialNumber
			}
			seen := rec.EventAt
			s.devices[i].LastSeen = &seen
			s.devices[i].Status = types.DeviceOnline
		}
	}

	s.logs = append(s.logs, l)
	return l.LogID, nil
}
