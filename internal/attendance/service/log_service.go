package service

import (
	"context"

	"github.com/Rasheed893/biotime-live-view/internal/attendance/filter"
	"github.com/Rasheed893/biotime-live-view/internal/attendance/store"
	"github.com/Rasheed893/biotime-live-view/internal/attendance/types"
)

// LogService answers attendance log queries. Filtering and the row limit
// are always pushed down to the store.
type LogService struct {
	store store.LogStore
	guard *Guard
}

func NewLogService(st store.LogStore, g *Guard) *LogService {
	return &LogService{store: st, guard: g}
}

// Logs returns at most q.Limit records in canonical order. An empty
// result is an empty slice, never nil.
func (s *LogService) Logs(ctx context.Context, q filter.Query) ([]types.AttendanceLog, error) {
	logs, err := call(ctx, s.guard, "query_logs", func(ctx context.Context) ([]types.AttendanceLog, error) {
		return s.store.QueryLogs(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	if q.Limit > 0 && len(logs) > q.Limit {
		logs = logs[:q.Limit]
	}
	if logs == nil {
		logs = []types.AttendanceLog{}
	}
	return logs, nil
}

// Collect pages through every record matching q, q.Limit rows per store
// call, until the store runs out or maxRows records are held. truncated
// reports that maxRows cut the result short. Records that shift across a page
// boundary while new events arrive are kept once.
func (s *LogService) Collect(ctx context.Context, q filter.Query, maxRows int) (logs []types.AttendanceLog, truncated bool, err error) {
	size := q.Limit
	if size <= 0 {
		size = filter.ReportProfile.Ceiling
	}
	q.Limit = size
	q.Offset = 0

	seen := make(map[string]struct{})
	logs = []types.AttendanceLog{}
	for {
		page, err := s.Logs(ctx, q)
		if err != nil {
			return nil, false, err
		}
		for _, l := range page {
			if _, dup := seen[l.LogID]; dup {
				continue
			}
			if maxRows > 0 && len(logs) == maxRows {
				return logs, true, nil
			}
			seen[l.LogID] = struct{}{}
			logs = append(logs, l)
		}
		if len(page) < size {
			return logs, false, nil
		}
		q.Offset += size
	}
}

// Count returns how many records match q, ignoring paging.
func (s *LogService) Count(ctx context.Context, q filter.Query) (int, error) {
	return call(ctx, s.guard, "count_logs", func(ctx context.Context) (int, error) {
		return s.store.CountLogs(ctx, q.WithoutPaging())
	})
}

type Page struct {
	Rows       []types.AttendanceLog `json:"rows"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"pageSize"`
	Total      int                   `json:"total"`
	TotalPages int                   `json:"totalPages"`
}

// History returns one page of q. q.Limit is the page size; page is
// 1-based; a page past the end comes back empty, numbered one past the
// last page.
func (s *LogService) History(ctx context.Context, q filter.Query, page int) (Page, error) {
	size := q.Limit
	if size <= 0 {
		size = filter.HistoryPageProfile.DefaultLimit
	}
	if page < 1 {
		page = 1
	}

	total, err := s.Count(ctx, q)
	if err != nil {
		return Page{}, err
	}

	pages := (total + size - 1) / size
	if pages < 1 {
		pages = 1
	}
	// Anything past the end is the first empty page; this also keeps the
	// offset from overflowing.
	if page > pages+1 {
		page = pages + 1
	}

	q.Limit = size
	q.Offset = (page - 1) * size
	rows, err := s.Logs(ctx, q)
	if err != nil {
		return Page{}, err
	}

	return Page{Rows: rows, Page: page, PageSize: size, Total: total, TotalPages: pages}, nil
}
