package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/Rasheed893/biotime-live-view/internal/attendance/store"
	"github.com/Rasheed893/biotime-live-view/internal/attendance/types"
	"github.com/Rasheed893/biotime-live-view/internal/logging"
)

var simulatedTypes = []types.EventType{
	types.EventAccessGranted,
	types.EventAccessDenied,
	types.EventAttendance,
}

// Simulator appends one random event per interval, picking an active
// user and a device from the directory. It only runs in development so
// the live feed has something to show.
type Simulator struct {
	dir      store.DirectoryStore
	out      store.EventAppender
	interval time.Duration
	loc      *time.Location
	now      func() time.Time
	rng      *rand.Rand
}

type SimulatorConfig struct {
	// Interval defaults to 3s.
	Interval time.Duration
	// Location is the wall-clock zone events are stamped in. Defaults to Local.
	Location *time.Location
	Seed     uint64
	Now      func() time.Time
}

func NewSimulator(dir store.DirectoryStore, out store.EventAppender, cfg SimulatorConfig) *Simulator {
	if cfg.Interval <= 0 {
		cfg.Interval = 3 * time.Second
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano())
	}
	return &Simulator{
		dir:      dir,
		out:      out,
		interval: cfg.Interval,
		loc:      cfg.Location,
		now:      cfg.Now,
		rng:      rand.New(rand.NewPCG(cfg.Seed, cfg.Seed>>1|1)),
	}
}

// Serve runs until ctx is cancelled.
func (s *Simulator) Serve(ctx context.Context) error {
	logging.Info().Dur("interval", s.interval).Msg("event simulator started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("event simulator stopped")
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.Tick(ctx); err != nil {
				logging.Warn().Err(err).Msg("simulated event not written")
			}
		}
	}
}

func (s *Simulator) String() string { return "event-simulator" }

// Tick appends a single event and returns its log id.
func (s *Simulator) Tick(ctx context.Context) (string, error) {
	users, err := s.dir.ListUsers(ctx)
	if err != nil {
		return "", fmt.Errorf("Simulator.Tick: list users: %w", err)
	}
	devices, err := s.dir.ListDevices(ctx)
	if err != nil {
		return "", fmt.Errorf("Simulator.Tick: list devices: %w", err)
	}

	active := users[:0:0]
	for _, u := range users {
		if u.Status == types.UserActive {
			active = append(active, u)
		}
	}
	if len(active) == 0 || len(devices) == 0 {
		return "", nil
	}

	u := active[s.rng.IntN(len(active))]
	d := devices[s.rng.IntN(len(devices))]
	now := s.now()

	id, err := s.out.AppendEvent(ctx, store.EventRecord{
		UserID:         u.UserID,
		DeviceID:       d.DeviceID,
		EventType:      simulatedTypes[s.rng.IntN(len(simulatedTypes))],
		EventAt:        types.AsWall(now.In(s.loc)),
		EventStatus:    types.StatusRealtime,
		TerminalSerial: d.SerialNumber,
		ReceivedAt:     now.UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("Simulator.Tick: %w", err)
	}
	return id, nil
}
