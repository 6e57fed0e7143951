package model

import "time"

// Session outcomes.
const (
	OutcomeDone   = "done"
	OutcomeMissed = "missed"
)

// SessionEvent is an append-only record of a study session's outcome,
// kept for analytics and model training. The scheduler only ever reads these.
type SessionEvent struct {
	ID               uint `gorm:"primaryKey"`
	UserID           uint `gorm:"index"`
	TaskID           uint
	SubjectID        uint
	EstimatedMinutes int
	Difficulty       string
	Outcome          string `gorm:"index"`
	Minutes          int    // actual time spent, >= 0
	ScheduledDate    string `gorm:"index"` // YYYY-MM-DD the session was planned for
	CreatedAt        time.Time
}
