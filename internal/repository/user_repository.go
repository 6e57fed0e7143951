package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"study-scheduler/internal/model"
)

// UserRepository manages the students known to the bot.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// UpsertFromTelegram finds or creates a user by TelegramID, refreshing the
// profile fields either way.
func (r *UserRepository) UpsertFromTelegram(ctx context.Context, telegramID int64, firstName, lastName, username string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where(&model.User{TelegramID: telegramID}).
		Assign(map[string]interface{}{
			"first_name": firstName,
			"last_name":  lastName,
			"username":   username,
		}).
		FirstOrCreate(&user).Error
	if err != nil {
		return nil, fmt.Errorf("upsert user %d: %w", telegramID, err)
	}
	return &user, nil
}

func (r *UserRepository) FindByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ListForDailyReports returns the users the daily report job should reach:
// only those who have created at least one study task.
func (r *UserRepository) ListForDailyReports(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("EXISTS (SELECT 1 FROM tasks WHERE tasks.user_id = users.id)").
		Order("id ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("list report recipients: %w", err)
	}
	return users, nil
}
