package model

import "time"

// Notification types.
const (
	NotificationMissedAlert = "missed_alert"
)

// Notification is a stored alert shown to the user in reports.
type Notification struct {
	ID            uint   `gorm:"primaryKey"`
	UserID        uint   `gorm:"index"`
	Type          string
	Title         string
	Body          string
	TaskID        uint
	ScheduledDate string
	Read          bool `gorm:"default:false"`
	CreatedAt     time.Time
}
