package models

import (
	"time"

	"gorm.io/gorm"
)

// Event delivery states
const (
	EventStatusPending   = "pending"
	EventStatusDelivered = "delivered"
)

// Event is a one-shot reminder owned by a single user. Text keeps the
// original message verbatim, marker included. EventTime is the resolved
// timestamp rendered as "DD.MM.YYYY HH:MM" and is immutable after creation;
// DueAt holds the same instant as a comparable value for the due scan.
// Status moves pending -> delivered exactly once and never back.
type Event struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	EventTime string    `gorm:"size:16;not null" json:"event_time"`
	DueAt     time.Time `gorm:"not null;index:idx_events_due_status" json:"due_at"`
	Status    string    `gorm:"size:10;not null;default:pending;index:idx_events_due_status" json:"status"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// BeforeCreate hook is called before creating a new event
func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if e.Status == "" {
		e.Status = EventStatusPending
	}
	return nil
}

// TableName specifies the table name for the Event model
func (Event) TableName() string {
	return "events"
}
