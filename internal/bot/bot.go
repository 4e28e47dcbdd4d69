package bot

import (
	"context"
	"log"
	"time"

	"github.com/meehighlov/reventor/internal/store"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bot wraps the Telegram Bot API: it long-polls for incoming messages,
// dispatches each one to the inbound handler, and sends outbound text.
type Bot struct {
	api     *tgbotapi.BotAPI
	handler *Handler
}

func New(token string, st *store.Store) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	b := &Bot{api: api}
	b.handler = NewHandler(st, b, time.Now)
	return b, nil
}

// Username returns the bot account name Telegram reported at login.
func (b *Bot) Username() string {
	return b.api.Self.UserName
}

// Send delivers text to a Telegram chat. Satisfies the Sender interface of
// both the handler and the due-event scanner.
func (b *Bot) Send(chatID int64, text string) error {
	_, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// Run consumes the update stream until ctx is cancelled. Each message is
// handled in its own goroutine so a slow store call or reply does not stall
// the stream.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	log.Printf("Receiving updates for @%s", b.Username())

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			msg := update.Message
			if msg == nil || msg.From == nil {
				continue
			}
			go b.handler.HandleMessage(msg.From.ID, msg.From.UserName, msg.Text)
		}
	}
}
