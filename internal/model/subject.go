package model

import "time"

// Subject groups tasks by study area (math, history, etc.).
type Subject struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"index:idx_user_subject_name,unique"`
	Name      string `gorm:"index:idx_user_subject_name,unique"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Tasks     []Task `gorm:"foreignKey:SubjectID"`
}
