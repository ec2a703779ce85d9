package filter

import (
	"time"

	"github.com/Rasheed893/biotime-live-view/internal/attendance/types"
)

// Query is a compiled, bounded filter. From and To are wall-clock
// instants; To is already widened to the end of its day.
type Query struct {
	From      *time.Time
	To        *time.Time
	UserID    string
	DeviceID  string
	EventType string
	Limit     int
	Offset    int
}

// Order is the fixed result ordering for every log query.
const Order = "event time DESC, log id DESC"

// Columns names the storage columns a Query's predicates bind to.
type Columns struct {
	EventTime string
	UserID    string
	DeviceID  string
	EventType string

	// TimeArg converts a bound to the column's parameter form.
	// Nil passes the time.Time through.
	TimeArg func(time.Time) any
}

// Conditions renders the predicates as "col op ?" fragments with their
// positional arguments, in a stable order.
func (q Query) Conditions(c Columns) ([]string, []any) {
	arg := c.TimeArg
	if arg == nil {
		arg = func(t time.Time) any { return t }
	}

	var (
		conds []string
		args  []any
	)
	if q.From != nil {
		conds = append(conds, c.EventTime+" >= ?")
		args = append(args, arg(*q.From))
	}
	if q.To != nil {
		conds = append(conds, c.EventTime+" <= ?")
		args = append(args, arg(*q.To))
	}
	if q.UserID != "" {
		conds = append(conds, c.UserID+" = ?")
		args = append(args, q.UserID)
	}
	if q.DeviceID != "" {
		conds = append(conds, c.DeviceID+" = ?")
		args = append(args, q.DeviceID)
	}
	if q.EventType != "" {
		conds = append(conds, c.EventType+" = ?")
		args = append(args, q.EventType)
	}
	return conds, args
}

// Match applies the predicates to an in-memory record. Limit and Offset
// are not considered.
func (q Query) Match(l types.AttendanceLog) bool {
	at := l.EventDateTime.Time
	if q.From != nil && at.Before(*q.From) {
		return false
	}
	if q.To != nil && at.After(*q.To) {
		return false
	}
	if q.UserID != "" && l.UserID != q.UserID {
		return false
	}
	if q.DeviceID != "" && l.DeviceID != q.DeviceID {
		return false
	}
	if q.EventType != "" && string(l.EventType) != q.EventType {
		return false
	}
	return true
}

// WithoutPaging returns q with Limit and Offset cleared, for counting.
func (q Query) WithoutPaging() Query {
	q.Limit = 0
	q.Offset = 0
	return q
}
