package supervisor_test

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Rasheed893/biotime-live-view/internal/logging"
	"github.com/Rasheed893/biotime-live-view/internal/supervisor"
)

// flaky fails its first run and then blocks until cancelled.
type flaky struct {
	runs atomic.Int32
}

func (f *flaky) Serve(ctx context.Context) error {
	if f.runs.Add(1) == 1 {
		return errors.New("first run fails")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *flaky) String() string { return "flaky" }

func TestTree_RestartsFailedService(t *testing.T) {
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureBackoff:  10 * time.Millisecond,
		ShutdownTimeout: time.Second,
	})
	svc := &flaky{}
	tree.AddLiveService(svc)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for svc.runs.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if svc.runs.Load() < 2 {
		t.Fatalf("expected a restart, got %d runs", svc.runs.Load())
	}

	cancel()
	select {
	case <-errCh:
	case <-time.After(3 * time.Second):
		t.Fatal("tree did not stop")
	}
}

type fakeHTTP struct {
	stop     chan struct{}
	shutdown atomic.Bool
	failWith error
}

func (f *fakeHTTP) ListenAndServe() error {
	if f.failWith != nil {
		return f.failWith
	}
	<-f.stop
	return http.ErrServerClosed
}

func (f *fakeHTTP) Shutdown(context.Context) error {
	f.shutdown.Store(true)
	close(f.stop)
	return nil
}

func TestHTTPServerService_GracefulShutdown(t *testing.T) {
	srv := &fakeHTTP{stop: make(chan struct{})}
	svc := supervisor.NewHTTPServerService(srv, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if !srv.shutdown.Load() {
		t.Error("expected Shutdown to be called")
	}
}

func TestHTTPServerService_ListenFailure(t *testing.T) {
	svc := supervisor.NewHTTPServerService(&fakeHTTP{failWith: errors.New("address in use")}, 0)

	err := svc.Serve(context.Background())
	if err == nil || svc.String() != "http-server" {
		t.Errorf("expected listen failure, got %v", err)
	}
}
