package model

import (
	"strings"
	"time"
)

// Difficulty levels a task can carry.
const (
	DifficultyLow    = "low"
	DifficultyMedium = "medium"
	DifficultyHigh   = "high"
)

// Task statuses.
const (
	StatusPending = "pending"
	StatusDone    = "done"
	StatusMissed  = "missed"
)

// Task represents a single unit of study work.
type Task struct {
	ID               uint `gorm:"primaryKey"`
	UserID           uint `gorm:"index"`
	SubjectID        uint `gorm:"index"`
	Topic            string
	Difficulty       string `gorm:"default:medium"`
	EstimatedMinutes int
	Deadline         string // YYYY-MM-DD, empty means no deadline
	Status           string `gorm:"default:pending;index"`
	MissedCount      int    `gorm:"default:0"`
	LastMissedAt     *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ValidDifficulty reports whether s is one of the allowed levels.
func ValidDifficulty(s string) bool {
	switch strings.ToLower(s) {
	case DifficultyLow, DifficultyMedium, DifficultyHigh:
		return true
	}
	return false
}

// ValidStatus reports whether s is one of the allowed task statuses.
func ValidStatus(s string) bool {
	switch strings.ToLower(s) {
	case StatusPending, StatusDone, StatusMissed:
		return true
	}
	return false
}

// DifficultyRank encodes difficulty as 1–3 for sorting and model features.
// Unknown values rank as medium.
func DifficultyRank(s string) int {
	switch strings.ToLower(s) {
	case DifficultyLow:
		return 1
	case DifficultyHigh:
		return 3
	default:
		return 2
	}
}
