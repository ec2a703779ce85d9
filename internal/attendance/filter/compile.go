// Package filter compiles loosely typed request criteria into a bounded,
// parameterized log query.
package filter

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// AllSentinel means "no constraint" for the exact-match dimensions.
const AllSentinel = "all"

// Criteria is the raw filter as received from a query string.
type Criteria struct {
	Limit     string `validate:"omitempty,number"`
	From      string `validate:"omitempty,walldate"`
	To        string `validate:"omitempty,walldate"`
	UserID    string
	DeviceID  string
	EventType string
}

// Policy selects how malformed input is treated.
type Policy int

const (
	// Lenient drops malformed dates and falls back to the default limit.
	Lenient Policy = iota
	// Strict rejects malformed dates and limits with a *ValidationError.
	Strict
)

// ParsePolicy maps a config flag to a Policy.
func ParsePolicy(strict bool) Policy {
	if strict {
		return Strict
	}
	return Lenient
}

// ValidationError is returned by a Strict compiler for malformed criteria.
type ValidationError struct {
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Field, e.Value)
}

var ErrInvalidCriteria = errors.New("invalid filter criteria")

func (e *ValidationError) Unwrap() error { return ErrInvalidCriteria }

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Compiler turns Criteria into a Query.
type Compiler struct {
	policy   Policy
	loc      *time.Location
	validate *validator.Validate
}

// NewCompiler builds a compiler. Inputs carrying a zone offset are moved
// into loc before their wall clock is taken; a nil loc means UTC.
func NewCompiler(policy Policy, loc *time.Location) *Compiler {
	if loc == nil {
		loc = time.UTC
	}
	v := validator.New()
	_ = v.RegisterValidation("walldate", func(fl validator.FieldLevel) bool {
		_, ok := parseDate(fl.Field().String(), loc)
		return ok
	})
	return &Compiler{policy: policy, loc: loc, validate: v}
}

func (c *Compiler) Policy() Policy { return c.policy }

// Location is the zone used to read offset-carrying inputs.
func (c *Compiler) Location() *time.Location { return c.loc }

// Compile produces a Query. Only a Strict compiler returns an error.
func (c *Compiler) Compile(cr Criteria, p Profile) (Query, error) {
	if c.policy == Strict {
		if err := c.validate.Struct(cr); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) && len(verrs) > 0 {
				fe := verrs[0]
				return Query{}, &ValidationError{Field: strings.ToLower(fe.Field()), Value: fmt.Sprint(fe.Value())}
			}
			return Query{}, fmt.Errorf("validate criteria: %w", err)
		}
	}

	q := Query{
		UserID:    exact(cr.UserID),
		DeviceID:  exact(cr.DeviceID),
		EventType: exact(cr.EventType),
		Limit:     p.Clamp(parseLimit(cr.Limit)),
	}

	if t, ok := parseDate(cr.From, c.loc); ok {
		q.From = &t
	}
	if t, ok := parseDate(cr.To, c.loc); ok {
		t = EndOfDay(t)
		q.To = &t
	}
	return q, nil
}

// Now returns the current wall-clock instant in the compiler's zone.
func (c *Compiler) Now(now time.Time) time.Time {
	t := now.In(c.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// Day reads s as a calendar day, returning its midnight. An empty s means
// the day of now. A malformed s is an error under Strict and means the day
// of now under Lenient.
func (c *Compiler) Day(s string, now time.Time) (time.Time, error) {
	if t, ok := parseDate(s, c.loc); ok {
		return StartOfDay(t), nil
	}
	if c.policy == Strict && strings.TrimSpace(s) != "" {
		return time.Time{}, &ValidationError{Field: "date", Value: s}
	}
	return StartOfDay(c.Now(now)), nil
}

// EndOfDay widens t to 23:59:59.999 of its calendar day.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// StartOfDay truncates t to 00:00:00 of its calendar day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DayRange returns a Query bounding the calendar day of t.
func DayRange(t time.Time, limit int) Query {
	from, to := StartOfDay(t), EndOfDay(t)
	return Query{From: &from, To: &to, Limit: limit}
}

func exact(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, AllSentinel) {
		return ""
	}
	return s
}

func parseLimit(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err == nil {
		return n
	}
	if errors.Is(err, strconv.ErrRange) {
		if strings.HasPrefix(s, "-") {
			return -1
		}
		return math.MaxInt
	}

	// Values beyond int saturate so the profile ceiling still applies.
	f, err := strconv.ParseFloat(s, 64)
	switch {
	case err != nil && !errors.Is(err, strconv.ErrRange), math.IsNaN(f):
		return 0
	case f >= math.MaxInt:
		return math.MaxInt
	case f <= math.MinInt:
		return -1
	}
	return int(f)
}

// parseDate reads s as a wall-clock instant.
func parseDate(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if layout == time.RFC3339 || layout == time.RFC3339Nano {
			t, err := time.Parse(layout, s)
			if err != nil {
				continue
			}
			t = t.In(loc)
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC), true
		}
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
