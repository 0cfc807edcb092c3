// Package telegram is the outbound notification channel: a thin telebot
// wrapper that sends text to one configured chat.
package telegram

import (
	"context"
	"errors"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	logx "newswatch/pkg/logx"
)

type Config struct {
	Token     string
	ChatID    int64
	ParseMode string
}

type Adapter struct {
	cfg Config
	bot *tele.Bot
	log logx.Logger
}

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("telegram chat id is empty")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	// Send-only: no poller is configured and Start is never called.
	b, err := tele.NewBot(tele.Settings{
		Token: cfg.Token,
	})
	if err != nil {
		return nil, err
	}
	return &Adapter{cfg: cfg, bot: b, log: log}, nil
}

// SendText delivers one message to the configured chat. A non-2xx API
// response or transport error is returned as-is; the caller owns retry.
func (a *Adapter) SendText(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	done := make(chan error, 1)
	go func() {
		_, err := a.bot.Send(
			&tele.Chat{ID: a.cfg.ChatID},
			text,
			&tele.SendOptions{ParseMode: a.cfg.ParseMode},
		)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			a.log.Debug("telegram send failed", logx.Err(err))
		}
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(10 * time.Second):
		return errors.New("telegram send timed out")
	}
}
