package model

import (
	"time"

	"gorm.io/datatypes"
)

// Minutes provenance on a schedule item.
const (
	MinutesSourcePrediction = "ml_prediction"
	MinutesSourceEstimated  = "estimated"
)

// Schedule is one stored generation run. The day-by-day allocation is kept as a
// single JSON document; a schedule is written once and never updated.
type Schedule struct {
	ID                         uint `gorm:"primaryKey"`
	UserID                     uint `gorm:"index"`
	StartDate                  string
	DailyStudyMinutes          int
	EffectiveDailyStudyMinutes int
	Days                       datatypes.JSON
	CreatedAt                  time.Time `gorm:"index"`
}

// ScheduleDay holds the allocations of one calendar day.
type ScheduleDay struct {
	Date           string         `json:"date"`
	PlannedMinutes int            `json:"plannedMinutes"`
	Items          []ScheduleItem `json:"items"`
}

// ScheduleItem is one task allocation inside a day.
type ScheduleItem struct {
	TaskID        uint   `json:"taskId"`
	SubjectID     uint   `json:"subjectId"`
	Topic         string `json:"topic"`
	Difficulty    string `json:"difficulty"`
	Deadline      string `json:"deadline"`
	Minutes       int    `json:"minutes"`
	IsPartial     bool   `json:"isPartial"`
	SourceStatus  string `json:"sourceStatus"`
	MissedCount   int    `json:"missedCount"`
	MinutesSource string `json:"minutesSource"`
	MLExplain     string `json:"mlExplain,omitempty"`
}

// ScheduleResult is the caller-facing view of a stored schedule.
type ScheduleResult struct {
	ID                         uint          `json:"id"`
	StartDate                  string        `json:"startDate"`
	DailyStudyMinutes          int           `json:"dailyStudyMinutes"`
	EffectiveDailyStudyMinutes int           `json:"effectiveDailyStudyMinutes"`
	Days                       []ScheduleDay `json:"days"`
	CreatedAt                  time.Time     `json:"createdAt"`
}
