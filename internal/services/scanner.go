package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/meehighlov/reventor/internal/store"
)

// Notifier delivers a due-event notification to a Telegram chat.
type Notifier interface {
	Send(chatID int64, text string) error
}

// DefaultScanInterval is how often the scanner polls for due events.
const DefaultScanInterval = 10 * time.Second

// Scanner is the background loop that finds events whose scheduled time has
// arrived, notifies their owners, and marks them delivered. Delivery is
// at-most-once: a failed send is logged and the event is still marked, so a
// dead recipient never accumulates a retry backlog.
type Scanner struct {
	store    *store.Store
	notifier Notifier
	interval time.Duration
	now      func() time.Time
}

func NewScanner(st *store.Store, notifier Notifier, interval time.Duration) *Scanner {
	if interval <= 0 {
		interval = DefaultScanInterval
	}
	return &Scanner{
		store:    st,
		notifier: notifier,
		interval: interval,
		now:      time.Now,
	}
}

// Start launches the scan loop. It runs until ctx is cancelled; an in-flight
// tick finishes before the loop exits.
func (s *Scanner) Start(ctx context.Context) {
	go s.run(ctx)
}

func (s *Scanner) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Printf("Due-event scanner running every %v", s.interval)

	for {
		select {
		case <-ctx.Done():
			log.Println("Due-event scanner stopped")
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Tick runs a single scan pass. The store's critical section is released
// between the due query and each markDelivered call, so notification sends
// never block inbound message handling.
func (s *Scanner) Tick() {
	now := s.now().Truncate(time.Minute)

	due, err := s.store.FindDue(now)
	if err != nil {
		// Retryable: the next tick will pick the events up again
		log.Printf("Error: due-event scan failed: %v", err)
		return
	}

	for _, ev := range due {
		text := fmt.Sprintf("🔔 Reminder!\n%s\nTime: %s", ev.Text, ev.EventTime)
		if err := s.notifier.Send(ev.TelegramID, text); err != nil {
			log.Printf("Warning: failed to notify %d for event at %s: %v", ev.TelegramID, ev.EventTime, err)
		}

		// Mark even after a failed send: at-most-once delivery
		if err := s.store.MarkDelivered(ev.TelegramID, ev.EventTime); err != nil {
			log.Printf("Error: failed to mark event delivered for %d at %s: %v", ev.TelegramID, ev.EventTime, err)
		}
	}
}
