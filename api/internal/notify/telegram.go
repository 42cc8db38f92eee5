// Package notify pushes violation alerts to an interviewer's Telegram chat.
package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"interview-proctor/api/internal/logger"
	"interview-proctor/api/internal/proctor"
)

// Telegram is a fire-and-forget alert sink. Sends happen on a dedicated
// goroutine; when its buffer is full the alert is dropped rather than
// blocking the analysis cycle.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	ch     chan proctor.ViolationEvent
	done   chan struct{}
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	t := &Telegram{
		bot:    bot,
		chatID: chatID,
		ch:     make(chan proctor.ViolationEvent, 32),
		done:   make(chan struct{}),
	}
	go t.sendLoop()
	return t, nil
}

func (t *Telegram) OnViolation(ev proctor.ViolationEvent) {
	select {
	case t.ch <- ev:
	default:
		logger.L().Warn("telegram alert buffer full, dropping",
			zap.String("type", ev.Type))
	}
}

func (t *Telegram) OnError(error) {} // only violations are worth paging on

func (t *Telegram) Close() {
	close(t.done)
}

func (t *Telegram) sendLoop() {
	for {
		select {
		case ev := <-t.ch:
			text := fmt.Sprintf("⚠️ Proctoring alert: %s\nsession: %s\nconfidence: %.2f\nat: %s",
				ev.Type, ev.SessionID, ev.Confidence, ev.Timestamp)
			if _, err := t.bot.Send(tgbotapi.NewMessage(t.chatID, text)); err != nil {
				logger.L().Error("telegram send", zap.Error(err))
			}
		case <-t.done:
			return
		}
	}
}
