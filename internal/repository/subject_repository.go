package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"study-scheduler/internal/model"
)

// SubjectRepository manages study subjects.
type SubjectRepository struct {
	db *gorm.DB
}

func NewSubjectRepository(db *gorm.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

func (r *SubjectRepository) GetOrCreate(ctx context.Context, userID uint, name string) (*model.Subject, error) {
	if name == "" {
		return nil, fmt.Errorf("subject name is empty")
	}

	var subject model.Subject
	db := r.db.WithContext(ctx)
	err := db.Where("user_id = ? AND name = ?", userID, name).First(&subject).Error
	switch {
	case err == nil:
		return &subject, nil
	case err == gorm.ErrRecordNotFound:
		subject = model.Subject{UserID: userID, Name: name}
		if err := db.Create(&subject).Error; err != nil {
			return nil, fmt.Errorf("create subject: %w", err)
		}
		return &subject, nil
	default:
		return nil, fmt.Errorf("find subject: %w", err)
	}
}

func (r *SubjectRepository) ListByUser(ctx context.Context, userID uint) ([]model.Subject, error) {
	var subjects []model.Subject
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("name ASC").Find(&subjects).Error; err != nil {
		return nil, err
	}
	return subjects, nil
}

func (r *SubjectRepository) GetByID(ctx context.Context, userID, id uint) (*model.Subject, error) {
	var subject model.Subject
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).First(&subject).Error; err != nil {
		return nil, err
	}
	return &subject, nil
}
