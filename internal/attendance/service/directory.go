package service

import (
	"context"

	"github.com/Rasheed893/biotime-live-view/internal/attendance/store"
	"github.com/Rasheed893/biotime-live-view/internal/attendance/types"
)

// Directory serves the reference lists and the raw message feed.
type Directory struct {
	dir   store.DirectoryStore
	msgs  store.MessageStore
	guard *Guard
}

func NewDirectory(dir store.DirectoryStore, msgs store.MessageStore, g *Guard) *Directory {
	return &Directory{dir: dir, msgs: msgs, guard: g}
}

func (d *Directory) Users(ctx context.Context) ([]types.User, error) {
	return call(ctx, d.guard, "list_users", d.dir.ListUsers)
}

func (d *Directory) Devices(ctx context.Context) ([]types.Device, error) {
	return call(ctx, d.guard, "list_devices", d.dir.ListDevices)
}

// RemoteMessages returns the newest limit messages.
func (d *Directory) RemoteMessages(ctx context.Context, limit int) ([]types.RemoteMessage, error) {
	return call(ctx, d.guard, "recent_messages", func(ctx context.Context) ([]types.RemoteMessage, error) {
		return d.msgs.RecentMessages(ctx, limit)
	})
}

// Health checks store connectivity.
type Health struct {
	pinger store.Pinger
	guard  *Guard
}

func NewHealth(p store.Pinger, g *Guard) *Health {
	return &Health{pinger: p, guard: g}
}

func (h *Health) Check(ctx context.Context) error {
	_, err := call(ctx, h.guard, "ping", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, h.pinger.Ping(ctx)
	})
	return err
}
