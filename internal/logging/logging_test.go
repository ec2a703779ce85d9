package logging_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Rasheed893/biotime-live-view/internal/logging"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := logging.Logger()
	prevLevel := zerolog.GlobalLevel()
	logging.SetLogger(logging.NewTestLogger(&buf))
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	t.Cleanup(func() {
		logging.SetLogger(prev)
		zerolog.SetGlobalLevel(prevLevel)
	})
	return &buf
}

func TestCtx_AddsRequestID(t *testing.T) {
	buf := capture(t)

	ctx := logging.ContextWithRequestID(context.Background(), "req-123")
	logging.Ctx(ctx).Info().Msg("hello")

	if !strings.Contains(buf.String(), `"request_id":"req-123"`) {
		t.Errorf("expected request id in %s", buf.String())
	}
}

func TestSlogHandler_ForwardsAttrsAndGroups(t *testing.T) {
	buf := capture(t)

	l := logging.NewSlogLogger().WithGroup("svc").With("name", "live")
	l.Warn("restarting", "attempt", 2)

	out := buf.String()
	for _, want := range []string{`"level":"warn"`, `"svc.name":"live"`, `"svc.attempt":2`, `"message":"restarting"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
}

func TestInit_ConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	prev := logging.Logger()
	t.Cleanup(func() { logging.SetLogger(prev) })

	logging.Init(logging.Config{Level: "debug", Format: "console", Output: &buf})
	logging.Debug().Msg("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("expected debug line, got %q", buf.String())
	}
	logging.Init(logging.Config{Level: "info"})
}
