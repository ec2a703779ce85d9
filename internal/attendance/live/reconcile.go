package live

import "github.com/Rasheed893/biotime-live-view/internal/attendance/types"

// Reconcile merges a fresh fetch into the displayed rows.
//
// An empty fetch while rows are displayed keeps the display as it is.
// Otherwise the display becomes next truncated to maxRows, and added lists
// the ids in the new display that were not in prev, in display order.
func Reconcile(prev, next []types.AttendanceLog, maxRows int) (rows []types.AttendanceLog, added []string) {
	if len(next) == 0 && len(prev) > 0 {
		return prev, nil
	}
	if maxRows > 0 && len(next) > maxRows {
		next = next[:maxRows]
	}
	rows = make([]types.AttendanceLog, len(next))
	copy(rows, next)

	seen := make(map[string]struct{}, len(prev))
	for _, l := range prev {
		seen[l.LogID] = struct{}{}
	}
	for _, l := range rows {
		if _, ok := seen[l.LogID]; !ok {
			added = append(added, l.LogID)
		}
	}
	return rows, added
}
