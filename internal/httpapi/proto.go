package httpapi

import (
	"fmt"
	"mime"
	"net/http"
	"strings"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Rasheed893/biotime-live-view/internal/attendance/types"
)

const protobufContentType = "application/x-protobuf"

// wantsProtobuf reports whether the client asked for a protobuf body via
// the Accept header.
func wantsProtobuf(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		if mt == protobufContentType || mt == "application/protobuf" {
			return true
		}
	}
	return false
}

// writeProto marshals msg and writes it with the given HTTP status.
func writeProto(w http.ResponseWriter, status int, msg proto.Message) {
	data, err := proto.Marshal(msg)
	if err != nil {
		// Fall back to a plain-text error if marshalling fails.
		http.Error(w, "proto marshal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", protobufContentType)
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// logsToProto encodes logs as a google.protobuf.ListValue of Structs with
// the same keys as the JSON form.
func logsToProto(logs []types.AttendanceLog) (*structpb.ListValue, error) {
	items := make([]any, 0, len(logs))
	for _, l := range logs {
		var received any
		if l.ReceivedAt != nil {
			received = l.ReceivedAt.String()
		}
		items = append(items, map[string]any{
			"logID":          l.LogID,
			"userID":         l.UserID,
			"userName":       l.UserName,
			"deviceID":       l.DeviceID,
			"deviceName":     l.DeviceName,
			"deviceIP":       l.DeviceIP,
			"eventType":      string(l.EventType),
			"eventDateTime":  l.EventDateTime.String(),
			"eventStatus":    l.EventStatus,
			"terminalSerial": l.TerminalSerial,
			"receivedAt":     received,
		})
	}
	list, err := structpb.NewList(items)
	if err != nil {
		return nil, fmt.Errorf("logsToProto: %w", err)
	}
	return list, nil
}
