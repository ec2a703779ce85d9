// Package types holds the canonical records served by the attendance API.
package types

import "time"

type EventType string

const (
	EventAccessGranted EventType = "Access Granted"
	EventAccessDenied  EventType = "Access Denied"
	EventAttendance    EventType = "Attendance"
)

const (
	StatusRealtime = "Real-time"
	StatusOffline  = "Offline"

	DeviceOnline  = "Online"
	DeviceOffline = "Offline"

	UserActive   = "Active"
	UserInactive = "Inactive"
)

type User struct {
	UserID     string `json:"userID"`
	UserName   string `json:"userName"`
	Department string `json:"department"`
	JobTitle   string `json:"jobTitle"`
	Status     string `json:"status"`
}

type Device struct {
	DeviceID     string    `json:"deviceID"`
	DeviceName   string    `json:"deviceName"`
	IPAddress    string    `json:"ipAddress"`
	SerialNumber string    `json:"serialNumber"`
	LastSeen     *WallTime `json:"lastSeen"`
	Status       string    `json:"status"`
}

// AttendanceLog is one badge or biometric event in canonical form.
// Records are immutable once stored.
type AttendanceLog struct {
	LogID          string    `json:"logID"`
	UserID         string    `json:"userID"`
	UserName       string    `json:"userName"`
	DeviceID       string    `json:"deviceID"`
	DeviceName     string    `json:"deviceName"`
	DeviceIP       string    `json:"deviceIP"`
	EventType      EventType `json:"eventType"`
	EventDateTime  WallTime  `json:"eventDateTime"`
	EventStatus    string    `json:"eventStatus"`
	TerminalSerial string    `json:"terminalSerial"`
	ReceivedAt     *WallTime `json:"receivedAt"`
}

// RemoteMessage is a raw message as received by the ingestion listener.
type RemoteMessage struct {
	MessageID        string    `json:"messageID"`
	ReceivedAtUTC    time.Time `json:"receivedAtUtc"`
	SourceIP         string    `json:"sourceIP"`
	SourcePort       int       `json:"sourcePort"`
	Protocol         string    `json:"protocol"`
	Identifier       string    `json:"identifier"`
	RawLength        int       `json:"rawLength"`
	TerminalSerial   string    `json:"terminalSerial"`
	EventDateTime    *WallTime `json:"eventDateTime"`
	EventStatus      string    `json:"eventStatus"`
	UserID           string    `json:"userID"`
	AttendanceStatus string    `json:"attendanceStatus"`
	Notes            string    `json:"notes"`
}
