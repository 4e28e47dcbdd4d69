package models

import (
	"time"

	"gorm.io/gorm"
)

// User maps a Telegram sender to an internal surrogate id.
// Created lazily the first time a sender stores an event, never mutated after.
type User struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	TelegramID int64     `gorm:"uniqueIndex;not null" json:"telegram_id"`
	Username   string    `gorm:"size:64" json:"username,omitempty"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`

	Events []Event `gorm:"foreignKey:UserID" json:"events,omitempty"`
}

// BeforeCreate hook is called before creating a new user
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	return nil
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}
