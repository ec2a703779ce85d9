// Package report aggregates canonical records into the daily and per-user
// attendance reports and the dashboard summary. Inputs are already
// filtered by the store; the functions here only shape them.
package report

import (
	"slices"
	"time"

	"github.com/Rasheed893/biotime-live-view/internal/attendance/filter"
	"github.com/Rasheed893/biotime-live-view/internal/attendance/normalize"
	"github.com/Rasheed893/biotime-live-view/internal/attendance/types"
)

// DisplayCap is how many rows the per-user report shows inline.
const DisplayCap = 50

type DailyRow struct {
	UserID      string `json:"UserID"`
	UserName    string `json:"UserName"`
	FirstIn     string `json:"FirstIn"`
	LastOut     string `json:"LastOut"`
	TotalEvents int    `json:"TotalEvents"`
}

// Daily groups the logs that fall on day by user. Users with no events
// on day get no row. Rows are ordered by user id.
func Daily(day time.Time, logs []types.AttendanceLog) []DailyRow {
	d := types.AsWall(day)
	groups := make(map[string][]types.AttendanceLog)
	for _, l := range logs {
		if l.EventDateTime.SameDay(d) {
			groups[l.UserID] = append(groups[l.UserID], l)
		}
	}

	rows := make([]DailyRow, 0, len(groups))
	for uid, ul := range groups {
		slices.SortStableFunc(ul, func(a, b types.AttendanceLog) int {
			return a.EventDateTime.Compare(b.EventDateTime.Time)
		})
		rows = append(rows, DailyRow{
			UserID:      uid,
			UserName:    ul[0].UserName,
			FirstIn:     ul[0].EventDateTime.Clock(),
			LastOut:     ul[len(ul)-1].EventDateTime.Clock(),
			TotalEvents: len(ul),
		})
	}
	slices.SortFunc(rows, func(a, b DailyRow) int { return normalize.CompareKeys(a.UserID, b.UserID) })
	return rows
}

type UserReport struct {
	Rows       []types.AttendanceLog `json:"rows"`
	Total      int                   `json:"total"`
	ExportRows []types.AttendanceLog `json:"-"`
}

// PerUser keeps the logs matching userID and the [from, to] range, with
// to widened to the end of its day. Empty userID or nil bounds match all.
func PerUser(logs []types.AttendanceLog, userID string, from, to *time.Time) UserReport {
	q := filter.Query{UserID: userID, From: from}
	if to != nil {
		end := filter.EndOfDay(*to)
		q.To = &end
	}

	matched := []types.AttendanceLog{}
	for _, l := range logs {
		if q.Match(l) {
			matched = append(matched, l)
		}
	}

	shown := matched
	if len(shown) > DisplayCap {
		shown = shown[:DisplayCap]
	}
	return UserReport{Rows: shown, Total: len(matched), ExportRows: matched}
}

// Paginate returns the 1-based page of items and the page count, which is
// at least 1.
func Paginate[T any](items []T, page, size int) ([]T, int) {
	if size <= 0 {
		size = filter.HistoryPageProfile.DefaultLimit
	}
	pages := max((len(items)+size-1)/size, 1)
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}, pages
	}
	end := min(start+size, len(items))
	return items[start:end], pages
}
