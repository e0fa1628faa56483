// Package telegram connects the bot router to the Telegram Bot API over
// long polling.
package telegram

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/dmitrijs2005/keeperbot/internal/bot"
	"github.com/dmitrijs2005/keeperbot/internal/logging"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"
)

// botAPI is the subset of *tgbotapi.BotAPI the transport uses.
type botAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Handler produces replies for inbound units of work.
type Handler interface {
	HandleCommand(ctx context.Context, actor int64, name string) bot.Reply
	HandleText(ctx context.Context, actor int64, text string) bot.Reply
	HandleSelection(ctx context.Context, actor int64, data string) bot.Reply
}

// newBotAPI is swapped out in tests.
var newBotAPI = func(token string) (botAPI, error) {
	return tgbotapi.NewBotAPI(token)
}

// Transport polls for updates and dispatches each one to the handler on
// a bounded pool of goroutines.
type Transport struct {
	api         botAPI
	handler     Handler
	workers     int
	pollTimeout time.Duration
	logger      logging.Logger
}

func NewTransport(token string, handler Handler, workers int, pollTimeout time.Duration, logger logging.Logger) (*Transport, error) {
	api, err := newBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect to bot api: %w", err)
	}
	if workers <= 0 {
		workers = 1
	}
	return &Transport{
		api:         api,
		handler:     handler,
		workers:     workers,
		pollTimeout: pollTimeout,
		logger:      logger,
	}, nil
}

// Run receives updates until ctx is cancelled, then waits for in-flight
// updates to finish. In-flight updates are not cancelled.
func (t *Transport) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = int(t.pollTimeout / time.Second)
	updates := t.api.GetUpdatesChan(u)

	// Cancelling ctx stops intake only. An update already taken runs its
	// pull to push to the end.
	work := context.WithoutCancel(ctx)

	var g errgroup.Group
	g.SetLimit(t.workers)

	t.logger.Info(ctx, "polling for updates", "workers", t.workers)

loop:
	for {
		select {
		case <-ctx.Done():
			t.api.StopReceivingUpdates()
			break loop
		case upd, ok := <-updates:
			if !ok {
				break loop
			}
			g.Go(func() error {
				t.dispatch(work, upd)
				return nil
			})
		}
	}

	return g.Wait()
}

// dispatch handles one update. A panic is logged and confined to it.
func (t *Transport) dispatch(ctx context.Context, upd tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error(ctx, "update handler panicked", "update", upd.UpdateID, "panic", r, "stack", string(debug.Stack()))
		}
	}()

	switch {
	case upd.CallbackQuery != nil:
		t.handleCallback(ctx, upd.CallbackQuery)
	case upd.Message != nil:
		t.handleMessage(ctx, upd.Message)
	}
}

func (t *Transport) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Text == "" {
		return
	}

	var reply bot.Reply
	if msg.IsCommand() {
		reply = t.handler.HandleCommand(ctx, msg.From.ID, msg.Command())
	} else {
		reply = t.handler.HandleText(ctx, msg.From.ID, msg.Text)
	}
	t.send(ctx, msg.Chat.ID, reply)
}

func (t *Transport) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.From == nil {
		return
	}

	if _, err := t.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		t.logger.Warn(ctx, "answer callback failed", "error", err)
	}

	chatID := cq.From.ID
	if cq.Message != nil && cq.Message.Chat != nil {
		chatID = cq.Message.Chat.ID
	}
	t.send(ctx, chatID, t.handler.HandleSelection(ctx, cq.From.ID, cq.Data))
}

func (t *Transport) send(ctx context.Context, chatID int64, reply bot.Reply) {
	for _, c := range render(chatID, reply) {
		if _, err := t.api.Send(c); err != nil {
			t.logger.Error(ctx, "send failed", "chat", chatID, "error", err)
		}
	}
}
