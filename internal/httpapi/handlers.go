package httpapi

import (
	"net/http"
	"strconv"

	"github.com/Rasheed893/biotime-live-view/internal/attendance/filter"
	"github.com/Rasheed893/biotime-live-view/internal/attendance/report"
	"github.com/Rasheed893/biotime-live-view/internal/logging"
)

type healthBody struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.health.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, healthBody{Status: "error", Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, healthBody{Status: "ok"})
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.dir.Users(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.dir.Devices(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, devices)
}

func (s *Server) handleRemoteMessages(w http.ResponseWriter, r *http.Request) {
	q, err := s.compiler.Compile(filter.Criteria{Limit: r.URL.Query().Get("limit")}, filter.MessagesProfile)
	if err != nil {
		fail(w, r, err)
		return
	}
	msgs, err := s.dir.RemoteMessages(r.Context(), q.Limit)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func criteriaFrom(r *http.Request) filter.Criteria {
	v := r.URL.Query()
	return filter.Criteria{
		Limit:     v.Get("limit"),
		From:      v.Get("from"),
		To:        v.Get("to"),
		UserID:    v.Get("userId"),
		DeviceID:  v.Get("deviceId"),
		EventType: v.Get("eventType"),
	}
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	q, err := s.compiler.Compile(criteriaFrom(r), filter.LogsProfile)
	if err != nil {
		fail(w, r, err)
		return
	}
	logs, err := s.logs.Logs(r.Context(), q)
	if err != nil {
		fail(w, r, err)
		return
	}

	if wantsProtobuf(r) {
		list, err := logsToProto(logs)
		if err != nil {
			fail(w, r, err)
			return
		}
		writeProto(w, http.StatusOK, list)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	cr := criteriaFrom(r)
	cr.Limit = r.URL.Query().Get("pageSize")
	q, err := s.compiler.Compile(cr, filter.HistoryPageProfile)
	if err != nil {
		fail(w, r, err)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	res, err := s.logs.History(r.Context(), q, page)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func wantsCSV(r *http.Request) bool {
	return r.URL.Query().Get("format") == "csv"
}

func writeCSVHeaders(w http.ResponseWriter, name string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`.csv"`)
}

// reportScanMax bounds how many events one report request aggregates.
const reportScanMax = 100_000

const truncatedHeader = "X-Report-Truncated"

func markTruncated(w http.ResponseWriter, r *http.Request, what string) {
	w.Header().Set(truncatedHeader, "true")
	logging.Ctx(r.Context()).Warn().Int("max_events", reportScanMax).Msg(what + " truncated")
}

func (s *Server) handleDailyReport(w http.ResponseWriter, r *http.Request) {
	day, err := s.compiler.Day(r.URL.Query().Get("date"), s.now())
	if err != nil {
		fail(w, r, err)
		return
	}
	logs, truncated, err := s.logs.Collect(r.Context(), filter.DayRange(day, filter.ReportProfile.Ceiling), reportScanMax)
	if err != nil {
		fail(w, r, err)
		return
	}
	if truncated {
		markTruncated(w, r, "daily report")
	}
	rows := report.Daily(day, logs)

	if wantsCSV(r) {
		writeCSVHeaders(w, "daily-report-"+day.Format("2006-01-02"))
		if err := report.WriteDailyCSV(w, rows); err != nil {
			fail(w, r, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleUserReport(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	q, err := s.compiler.Compile(filter.Criteria{
		UserID: v.Get("userId"),
		From:   v.Get("from"),
		To:     v.Get("to"),
	}, filter.ReportProfile)
	if err != nil {
		fail(w, r, err)
		return
	}
	logs, err := s.logs.Logs(r.Context(), q)
	if err != nil {
		fail(w, r, err)
		return
	}
	rep := report.PerUser(logs, q.UserID, q.From, q.To)

	switch {
	case wantsCSV(r):
		writeCSVHeaders(w, "user-report")
		if err := report.WriteLogsCSV(w, rep.ExportRows); err != nil {
			fail(w, r, err)
		}
	case v.Get("export") == "1":
		writeJSON(w, http.StatusOK, report.UserReport{Rows: rep.ExportRows, Total: rep.Total})
	default:
		writeJSON(w, http.StatusOK, rep)
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := s.compiler.Now(s.now())

	from := report.DashboardWindow(now)
	logs, truncated, err := s.logs.Collect(ctx, filter.Query{From: &from, Limit: filter.ReportProfile.Ceiling}, reportScanMax)
	if err != nil {
		fail(w, r, err)
		return
	}
	if truncated {
		markTruncated(w, r, "dashboard")
	}
	devices, err := s.dir.Devices(ctx)
	if err != nil {
		fail(w, r, err)
		return
	}
	users, err := s.dir.Users(ctx)
	if err != nil {
		fail(w, r, err)
		return
	}

	sum := report.Dashboard(now, logs, devices, users)
	sum.Truncated = truncated

	today := filter.StartOfDay(now)
	count, err := s.logs.Count(ctx, filter.Query{From: &today})
	if err != nil {
		fail(w, r, err)
		return
	}
	sum.EventsToday = count

	writeJSON(w, http.StatusOK, sum)
}
