// Package gormstore serves attendance data from Postgres or MySQL through
// gorm. Table and column names match the SQLite schema except that instants
// are native timestamp columns instead of *_at_ms integers.
package gormstore

import (
	"database/sql"
	"time"

	"gorm.io/gorm"
)

type userModel struct {
	UserID     string         `gorm:"column:user_id;primaryKey;size:64"`
	UserName   string         `gorm:"column:user_name;size:200;not null;index"`
	Department sql.NullString `gorm:"column:department;size:200"`
	JobTitle   sql.NullString `gorm:"column:job_title;size:200"`
	Status     sql.NullString `gorm:"column:status;size:32"`
}

func (userModel) TableName() string { return "users" }

type deviceModel struct {
	DeviceID     string         `gorm:"column:device_id;primaryKey;size:64"`
	DeviceName   string         `gorm:"column:device_name;size:200;not null;index"`
	IPAddress    sql.NullString `gorm:"column:ip_address;size:64"`
	SerialNumber sql.NullString `gorm:"column:serial_number;size:64"`
	LastSeen     sql.NullTime   `gorm:"column:last_seen"`
	Status       sql.NullString `gorm:"column:status;size:32"`
}

func (deviceModel) TableName() string { return "devices" }

type attendanceLogModel struct {
	LogID          int64          `gorm:"column:log_id;primaryKey;autoIncrement"`
	UserID         string         `gorm:"column:user_id;size:64;not null;index:idx_attendance_logs_user,priority:1"`
	UserName       string         `gorm:"column:user_name;size:200;not null;default:''"`
	DeviceID       string         `gorm:"column:device_id;size:64;not null;index:idx_attendance_logs_device,priority:1"`
	DeviceName     string         `gorm:"column:device_name;size:200;not null;default:''"`
	DeviceIP       string         `gorm:"column:device_ip;size:64;not null;default:''"`
	EventType      string         `gorm:"column:event_type;size:32;not null"`
	EventDateTime  time.Time      `gorm:"column:event_date_time;not null;index:idx_attendance_logs_order,priority:1,sort:desc;index:idx_attendance_logs_user,priority:2;index:idx_attendance_logs_device,priority:2"`
	EventStatus    sql.NullString `gorm:"column:event_status;size:32"`
	TerminalSerial sql.NullString `gorm:"column:terminal_serial;size:64"`
	ReceivedAt     sql.NullTime   `gorm:"column:received_at"`
}

func (attendanceLogModel) TableName() string { return "attendance_logs" }

type accessEventModel struct {
	LogID          int64          `gorm:"column:log_id;primaryKey;autoIncrement"`
	UserID         string         `gorm:"column:user_id;size:64;not null;index:idx_access_events_user,priority:1"`
	DeviceID       string         `gorm:"column:device_id;size:64;not null;index:idx_access_events_device,priority:1"`
	EventType      string         `gorm:"column:event_type;size:32;not null"`
	EventDateTime  time.Time      `gorm:"column:event_date_time;not null;index:idx_access_events_order,priority:1,sort:desc;index:idx_access_events_user,priority:2;index:idx_access_events_device,priority:2"`
	EventStatus    sql.NullString `gorm:"column:event_status;size:32"`
	TerminalSerial sql.NullString `gorm:"column:terminal_serial;size:64"`
	ReceivedAt     sql.NullTime   `gorm:"column:received_at"`
}

func (accessEventModel) TableName() string { return "access_events" }

type remoteMessageModel struct {
	MessageID        int64          `gorm:"column:message_id;primaryKey;autoIncrement"`
	ReceivedAtUTC    time.Time      `gorm:"column:received_at_utc;not null;index:idx_remote_messages_order,sort:desc"`
	SourceIP         sql.NullString `gorm:"column:source_ip;size:64"`
	SourcePort       sql.NullInt64  `gorm:"column:source_port"`
	Protocol         sql.NullString `gorm:"column:protocol;size:16"`
	Identifier       sql.NullString `gorm:"column:identifier;size:128"`
	RawLength        sql.NullInt64  `gorm:"column:raw_length"`
	TerminalSerial   sql.NullString `gorm:"column:terminal_serial;size:64"`
	EventDateTime    sql.NullTime   `gorm:"column:event_date_time"`
	EventStatus      sql.NullString `gorm:"column:event_status;size:32"`
	UserID           sql.NullString `gorm:"column:user_id;size:64"`
	AttendanceStatus sql.NullString `gorm:"column:attendance_status;size:32"`
	Notes            sql.NullString `gorm:"column:notes"`
}

func (remoteMessageModel) TableName() string { return "remote_messages" }

// AutoMigrate creates or extends the schema. Existing columns are never
// dropped.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&userModel{},
		&deviceModel{},
		&attendanceLogModel{},
		&accessEventModel{},
		&remoteMessageModel{},
	)
}
