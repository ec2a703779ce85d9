// Package supervisor runs the long-lived services under a suture tree:
//
//	biotime
//	├── data-layer  (dev event simulator)
//	├── live-layer  (live reconciler, websocket hub)
//	└── api-layer   (HTTP server, gRPC health server)
//
// A service that returns or panics is restarted with backoff; the tree
// stops every service when its context is cancelled.
package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

type TreeConfig struct {
	// FailureThreshold is the decayed failure count that triggers backoff.
	FailureThreshold float64
	// FailureDecay is the decay half-life in seconds.
	FailureDecay   float64
	FailureBackoff time.Duration
	// ShutdownTimeout bounds how long each service gets to stop.
	ShutdownTimeout time.Duration
}

func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

type Tree struct {
	root *suture.Supervisor
	data *suture.Supervisor
	live *suture.Supervisor
	api  *suture.Supervisor
}

func NewTree(logger *slog.Logger, cfg TreeConfig) *Tree {
	def := DefaultTreeConfig()
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.FailureDecay == 0 {
		cfg.FailureDecay = def.FailureDecay
	}
	if cfg.FailureBackoff == 0 {
		cfg.FailureBackoff = def.FailureBackoff
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = def.ShutdownTimeout
	}

	child := suture.Spec{
		FailureThreshold: cfg.FailureThreshold,
		FailureDecay:     cfg.FailureDecay,
		FailureBackoff:   cfg.FailureBackoff,
		Timeout:          cfg.ShutdownTimeout,
	}
	rootSpec := child
	rootSpec.EventHook = (&sutureslog.Handler{Logger: logger}).MustHook()

	t := &Tree{
		root: suture.New("biotime", rootSpec),
		data: suture.New("data-layer", child),
		live: suture.New("live-layer", child),
		api:  suture.New("api-layer", child),
	}
	t.root.Add(t.data)
	t.root.Add(t.live)
	t.root.Add(t.api)
	return t
}

func (t *Tree) AddDataService(svc suture.Service) suture.ServiceToken { return t.data.Add(svc) }
func (t *Tree) AddLiveService(svc suture.Service) suture.ServiceToken { return t.live.Add(svc) }
func (t *Tree) AddAPIService(svc suture.Service) suture.ServiceToken  { return t.api.Add(svc) }

// Serve blocks until ctx is cancelled and every service has stopped.
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

func (t *Tree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services that missed the shutdown timeout.
func (t *Tree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}
