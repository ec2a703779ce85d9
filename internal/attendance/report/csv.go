package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/Rasheed893/biotime-live-view/internal/attendance/types"
)

// WriteDailyCSV writes rows with a header line.
func WriteDailyCSV(w io.Writer, rows []DailyRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"UserID", "UserName", "FirstIn", "LastOut", "TotalEvents"}); err != nil {
		return fmt.Errorf("WriteDailyCSV: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.UserID, r.UserName, r.FirstIn, r.LastOut, strconv.Itoa(r.TotalEvents)}); err != nil {
			return fmt.Errorf("WriteDailyCSV: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteLogsCSV writes one line per log in the given order.
func WriteLogsCSV(w io.Writer, logs []types.AttendanceLog) error {
	cw := csv.NewWriter(w)
	header := []string{"logID", "userID", "userName", "deviceID", "deviceName", "deviceIP",
		"eventType", "eventDateTime", "eventStatus", "terminalSerial"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("WriteLogsCSV: %w", err)
	}
	for _, l := range logs {
		rec := []string{l.LogID, l.UserID, l.UserName, l.DeviceID, l.DeviceName, l.DeviceIP,
			string(l.EventType), l.EventDateTime.String(), l.EventStatus, l.TerminalSerial}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("WriteLogsCSV: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
