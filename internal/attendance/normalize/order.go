package normalize

import (
	"slices"

	"github.com/Rasheed893/biotime-live-view/internal/attendance/types"
)

// Before reports whether a sorts ahead of b in canonical order:
// event time descending, then log id descending.
func Before(a, b types.AttendanceLog) bool {
	return compareCanonical(a, b) < 0
}

// SortCanonical sorts logs in place into canonical order.
func SortCanonical(logs []types.AttendanceLog) {
	slices.SortStableFunc(logs, compareCanonical)
}

func compareCanonical(a, b types.AttendanceLog) int {
	if c := b.EventDateTime.Compare(a.EventDateTime.Time); c != 0 {
		return c
	}
	return CompareKeys(b.LogID, a.LogID)
}
