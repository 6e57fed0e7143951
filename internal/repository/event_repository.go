package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"study-scheduler/internal/model"
)

// EventRepository appends and reads session history records.
type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(ctx context.Context, event *model.SessionEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("create session event: %w", err)
	}
	return nil
}

// ListCompleted returns all of the user's done sessions, for model training.
func (r *EventRepository) ListCompleted(ctx context.Context, userID uint) ([]model.SessionEvent, error) {
	var events []model.SessionEvent
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND outcome = ?", userID, model.OutcomeDone).
		Order("id ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// SubjectMinutes is the all-time studied minutes of one subject.
type SubjectMinutes struct {
	SubjectID uint
	Minutes   int
}

// SumDoneMinutesBySubject totals done-session minutes per subject, most
// studied first, at most limit rows.
func (r *EventRepository) SumDoneMinutesBySubject(ctx context.Context, userID uint, limit int) ([]SubjectMinutes, error) {
	var rows []SubjectMinutes
	if err := r.db.WithContext(ctx).
		Model(&model.SessionEvent{}).
		Select("subject_id, SUM(minutes) AS minutes").
		Where("user_id = ? AND outcome = ?", userID, model.OutcomeDone).
		Group("subject_id").
		Order("minutes DESC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListCompletedBetween returns done sessions with scheduled dates in [from, to],
// both inclusive ISO dates.
func (r *EventRepository) ListCompletedBetween(ctx context.Context, userID uint, from, to string) ([]model.SessionEvent, error) {
	var events []model.SessionEvent
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND outcome = ? AND scheduled_date >= ? AND scheduled_date <= ?",
			userID, model.OutcomeDone, from, to).
		Order("scheduled_date ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
