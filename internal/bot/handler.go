package bot

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/meehighlov/reventor/internal/marker"
	"github.com/meehighlov/reventor/internal/store"
)

// Sender delivers outbound text to a Telegram chat.
type Sender interface {
	Send(chatID int64, text string) error
}

// listCommand triggers the event listing; it is the only recognized command.
const listCommand = "/events"

const (
	helpReply = "Hi! To create an event, use one of these formats:\n" +
		"@HH:MM - event today\n" +
		"@DD.MM HH:MM - event on a specific date\n" +
		"@DD.MM.YYYY HH:MM - event on a date with a year"
	noEventsReply     = "You have no planned events yet"
	badTimestampReply = "Could not understand that date and time, please check the marker"
	storeFailureReply = "Something went wrong, please try again later"
)

// Handler reacts to one incoming message at a time: it either lists the
// sender's events, stores a new one, or replies with usage help. It is
// stateless across messages.
type Handler struct {
	store  *store.Store
	sender Sender
	now    func() time.Time
}

func NewHandler(st *store.Store, sender Sender, now func() time.Time) *Handler {
	return &Handler{store: st, sender: sender, now: now}
}

// HandleMessage runs one transition of the per-message state machine.
// A message without text is a no-op.
func (h *Handler) HandleMessage(senderID int64, username, text string) {
	if text == "" {
		return
	}

	if text == listCommand {
		h.listEvents(senderID)
		return
	}

	if ev, ok := marker.Parse(text); ok {
		h.saveEvent(senderID, username, ev)
		return
	}

	h.reply(senderID, helpReply)
}

func (h *Handler) listEvents(senderID int64) {
	events, err := h.store.ListEvents(senderID)
	if err != nil {
		log.Printf("Error: failed to list events for %d: %v", senderID, err)
		h.reply(senderID, storeFailureReply)
		return
	}

	if len(events) == 0 {
		h.reply(senderID, noEventsReply)
		return
	}

	lines := make([]string, 0, len(events))
	for i, ev := range events {
		lines = append(lines, fmt.Sprintf("%d. %s - %s", i+1, ev.EventTime, ev.Text))
	}
	h.reply(senderID, "Your events:\n"+strings.Join(lines, "\n"))
}

func (h *Handler) saveEvent(senderID int64, username string, ev marker.Event) {
	userID, err := h.store.EnsureUser(senderID, username)
	if err != nil {
		log.Printf("Error: failed to ensure user %d: %v", senderID, err)
		h.reply(senderID, storeFailureReply)
		return
	}

	eventTime, dueAt, err := marker.Resolve(ev, h.now())
	if err != nil {
		// Grammar matched but the calendar date is invalid, e.g. 31.02
		log.Printf("Warning: unresolvable marker from %d: %v", senderID, err)
		h.reply(senderID, badTimestampReply)
		return
	}

	if err := h.store.CreateEvent(userID, ev.Text, eventTime, dueAt); err != nil {
		log.Printf("Error: failed to create event for %d: %v", senderID, err)
		h.reply(senderID, storeFailureReply)
		return
	}

	when := ev.Date
	if when == "" {
		when = "today"
	}
	h.reply(senderID, fmt.Sprintf("Saved event for %s at %s\nEvent text: %s", when, ev.Time, ev.Text))
}

func (h *Handler) reply(senderID int64, text string) {
	if err := h.sender.Send(senderID, text); err != nil {
		log.Printf("Warning: failed to reply to %d: %v", senderID, err)
	}
}
