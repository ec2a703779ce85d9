// Package store declares the storage contracts for attendance data.
// Implementations live in the sqlite, gormstore and memory subpackages.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Rasheed893/biotime-live-view/internal/attendance/filter"
	"github.com/Rasheed893/biotime-live-view/internal/attendance/types"
)

// Schema selects how event rows are laid out in the store.
type Schema string

const (
	// Denormalized event rows carry user and device names.
	Denormalized Schema = "denormalized"
	// Joined event rows carry ids; names come from users and devices.
	Joined Schema = "joined"
)

func ParseSchema(s string) (Schema, error) {
	switch Schema(s) {
	case "", Denormalized:
		return Denormalized, nil
	case Joined:
		return Joined, nil
	default:
		return "", fmt.Errorf("unknown schema %q", s)
	}
}

// LogStore answers compiled log queries. Results are in canonical order
// and never exceed q.Limit rows.
type LogStore interface {
	QueryLogs(ctx context.Context, q filter.Query) ([]types.AttendanceLog, error)
	CountLogs(ctx context.Context, q filter.Query) (int, error)
}

// DirectoryStore lists reference data ordered by display name.
type DirectoryStore interface {
	ListUsers(ctx context.Context) ([]types.User, error)
	ListDevices(ctx context.Context) ([]types.Device, error)
}

// MessageStore lists raw ingestion messages, newest first.
type MessageStore interface {
	RecentMessages(ctx context.Context, limit int) ([]types.RemoteMessage, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// EventRecord is a new event to append. Names are resolved by the store.
type EventRecord struct {
	UserID         string
	DeviceID       string
	EventType      types.EventType
	EventAt        types.WallTime
	EventStatus    string
	TerminalSerial string
	ReceivedAt     time.Time
}

// EventAppender appends events. Only development tooling writes through it.
type EventAppender interface {
	AppendEvent(ctx context.Context, rec EventRecord) (string, error)
}

// MessageRecord is a raw message to append.
type MessageRecord struct {
	ReceivedAt       time.Time
	SourceIP         string
	SourcePort       int
	Protocol         string
	Identifier       string
	RawLength        int
	TerminalSerial   string
	EventAt          *types.WallTime
	EventStatus      string
	UserID           string
	AttendanceStatus string
	Notes            string
}
