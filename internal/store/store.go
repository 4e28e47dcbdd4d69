// Package store owns all reads and writes of users and events. The inbound
// handler and the due-event scanner share one Store; a single mutex
// serializes store calls so concurrent message handling and scan ticks never
// interleave inside a read-modify-write sequence. The mutex is held for one
// store call at a time and is never held across a notification send.
package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/meehighlov/reventor/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrUnavailable reports a backend failure. Callers treat it as retryable:
// the handler answers with a generic failure reply, the scanner waits for
// the next tick.
var ErrUnavailable = errors.New("store unavailable")

// UserEvent is one row of a user's event listing.
type UserEvent struct {
	Text      string
	EventTime string
}

// DueEvent is an event whose scheduled time has arrived, joined with the
// Telegram id of its owner for notification delivery.
type DueEvent struct {
	TelegramID int64
	Text       string
	EventTime  string
}

type Store struct {
	db *gorm.DB
	mu sync.Mutex
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// EnsureUser returns the internal id for a Telegram sender, creating the
// user row on first contact. Idempotent: the unique index on telegram_id is
// the authority, so two concurrent calls for the same sender end up with a
// single row.
func (s *Store) EnsureUser(telegramID int64, username string) (uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := models.User{TelegramID: telegramID, Username: username}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "telegram_id"}},
		DoNothing: true,
	}).Create(&user).Error
	if err != nil {
		return 0, unavailable("ensure user", err)
	}
	if user.ID != 0 {
		return user.ID, nil
	}

	// Conflict path: the row already existed, read it back
	var existing models.User
	if err := s.db.Where("telegram_id = ?", telegramID).First(&existing).Error; err != nil {
		return 0, unavailable("ensure user", err)
	}
	return existing.ID, nil
}

// CreateEvent inserts a pending event for the given user. Duplicate
// text/time pairs are permitted.
func (s *Store) CreateEvent(userID uint, text, eventTime string, dueAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	event := models.Event{
		UserID:    userID,
		Text:      text,
		EventTime: eventTime,
		DueAt:     dueAt,
		Status:    models.EventStatusPending,
	}
	if err := s.db.Create(&event).Error; err != nil {
		return unavailable("create event", err)
	}
	return nil
}

// ListEvents returns a sender's pending events ascending by scheduled time.
// Delivered events are excluded from the listing.
func (s *Store) ListEvents(telegramID int64) ([]UserEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var events []UserEvent
	err := s.db.Model(&models.Event{}).
		Select("events.text, events.event_time").
		Joins("JOIN users ON users.id = events.user_id").
		Where("users.telegram_id = ? AND events.status = ?", telegramID, models.EventStatusPending).
		Order("events.due_at").
		Scan(&events).Error
	if err != nil {
		return nil, unavailable("list events", err)
	}
	return events, nil
}

// FindDue returns every pending event whose scheduled time is at or before
// now, so a scan tick delayed past an event's minute still picks it up.
func (s *Store) FindDue(now time.Time) ([]DueEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []DueEvent
	err := s.db.Model(&models.Event{}).
		Select("users.telegram_id, events.text, events.event_time").
		Joins("JOIN users ON users.id = events.user_id").
		Where("events.due_at <= ? AND events.status = ?", now, models.EventStatusPending).
		Order("events.due_at").
		Scan(&due).Error
	if err != nil {
		return nil, unavailable("find due events", err)
	}
	return due, nil
}

// MarkDelivered transitions every pending event of the sender with the given
// rendered timestamp to delivered. The transition is terminal: delivered
// events never match FindDue again. Matching zero rows is not an error, the
// events were already delivered.
func (s *Store) MarkDelivered(telegramID int64, eventTime string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner := s.db.Model(&models.User{}).Select("id").Where("telegram_id = ?", telegramID)
	err := s.db.Model(&models.Event{}).
		Where("user_id IN (?) AND event_time = ? AND status = ?",
			owner, eventTime, models.EventStatusPending).
		Update("status", models.EventStatusDelivered).Error
	if err != nil {
		return unavailable("mark delivered", err)
	}
	return nil
}

// CountByStatus reports how many events are pending and delivered overall.
func (s *Store) CountByStatus() (pending, delivered int64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.Model(&models.Event{}).
		Where("status = ?", models.EventStatusPending).
		Count(&pending).Error; err != nil {
		return 0, 0, unavailable("count events", err)
	}
	if err := s.db.Model(&models.Event{}).
		Where("status = ?", models.EventStatusDelivered).
		Count(&delivered).Error; err != nil {
		return 0, 0, unavailable("count events", err)
	}
	return pending, delivered, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
}
