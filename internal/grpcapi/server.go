// Package grpcapi serves the standard gRPC health service, reporting
// SERVING while the attendance store answers pings.
package grpcapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/Rasheed893/biotime-live-view/internal/logging"
)

// ServiceName is the health service name reported next to the empty
// overall name.
const ServiceName = "biotime.Attendance"

// Checker is satisfied by service.Health.
type Checker interface {
	Check(ctx context.Context) error
}

type Config struct {
	Addr string
	// ProbeInterval defaults to 10s.
	ProbeInterval time.Duration
	// ShutdownTimeout bounds GracefulStop. Defaults to 5s.
	ShutdownTimeout time.Duration
}

type Server struct {
	grpc     *grpc.Server
	health   *health.Server
	checker  Checker
	addr     string
	interval time.Duration
	shutdown time.Duration
}

func New(cfg Config, checker Checker) *Server {
	if cfg.ProbeInterval <= 0 {
		cfg.ProbeInterval = 10 * time.Second
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(unaryLogger))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	return &Server{
		grpc:     srv,
		health:   hs,
		checker:  checker,
		addr:     cfg.Addr,
		interval: cfg.ProbeInterval,
		shutdown: cfg.ShutdownTimeout,
	}
}

func (s *Server) String() string { return "grpc-health" }

// Serve listens on the configured address until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("grpcapi: listen %s: %w", s.addr, err)
	}
	return s.ServeListener(ctx, lis)
}

// ServeListener serves on lis until ctx is cancelled, probing the store
// on every interval.
func (s *Server) ServeListener(ctx context.Context, lis net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", lis.Addr().String()).Msg("gRPC health server listening")
		errCh <- s.grpc.Serve(lis)
	}()

	s.Probe(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.stop()
			return ctx.Err()
		case err := <-errCh:
			if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("grpcapi: serve: %w", err)
			}
			return nil
		case <-ticker.C:
			s.Probe(ctx)
		}
	}
}

// Probe checks the store once and updates the reported status.
func (s *Server) Probe(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	if err := s.checker.Check(ctx); err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		logging.Warn().Err(err).Msg("health probe failed")
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

func (s *Server) stop() {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(s.shutdown):
		s.grpc.Stop()
	}
	logging.Info().Msg("gRPC health server stopped")
}

func unaryLogger(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	logging.Debug().Str("method", info.FullMethod).Dur("duration", time.Since(start)).Err(err).Msg("gRPC request processed")
	return resp, err
}
