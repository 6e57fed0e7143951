package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"study-scheduler/internal/model"
)

// ScheduleRepository stores generated schedules. Rows are write-once.
type ScheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) Insert(ctx context.Context, schedule *model.Schedule) error {
	if err := r.db.WithContext(ctx).Create(schedule).Error; err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}
	return nil
}

// Latest returns the most recently created schedule for the user, or nil when
// none has been generated yet.
func (r *ScheduleRepository) Latest(ctx context.Context, userID uint) (*model.Schedule, error) {
	var schedule model.Schedule
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		First(&schedule).Error
	switch {
	case err == nil:
		return &schedule, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("latest schedule: %w", err)
	}
}
