// Package telegram connects the conversation engine to the Telegram Bot API
// using long polling.
package telegram

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"airbnb-bot/bot"
	"airbnb-bot/utils"
)

const pollTimeoutSeconds = 60

// Handler consumes inbound events. *bot.Engine satisfies it.
type Handler interface {
	Handle(ctx context.Context, ev bot.Event, out bot.Responder)
}

// Sender is the subset of *tgbotapi.BotAPI used to deliver replies.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Adapter turns Telegram updates into engine events. Updates from the same
// user are processed in arrival order, different users in parallel.
type Adapter struct {
	api        *tgbotapi.BotAPI
	sender     Sender
	handler    Handler
	dispatcher *utils.Dispatcher
	logger     *utils.Logger
}

// New authenticates with token. An invalid token is a startup failure.
func New(token string, handler Handler, maxConcurrency int, logger *utils.Logger) (*Adapter, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: connect: %w", err)
	}
	logger.Info("[telegram] authorized as @%s", api.Self.UserName)

	a := newAdapter(api, handler, maxConcurrency, logger)
	a.api = api
	return a, nil
}

func newAdapter(sender Sender, handler Handler, maxConcurrency int, logger *utils.Logger) *Adapter {
	return &Adapter{
		sender:     sender,
		handler:    handler,
		dispatcher: utils.NewDispatcher(utils.NewWorkerPool(maxConcurrency, 0)),
		logger:     logger,
	}
}

// Run polls for updates until ctx is done, then waits for in-flight events.
func (a *Adapter) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeoutSeconds
	updates := a.api.GetUpdatesChan(u)
	defer a.api.StopReceivingUpdates()

	a.logger.Info("[telegram] polling for updates")
	return a.serve(ctx, updates)
}

func (a *Adapter) serve(ctx context.Context, updates tgbotapi.UpdatesChannel) error {
	defer a.dispatcher.Wait()
	for {
		select {
		case <-ctx.Done():
			a.logger.Info("[telegram] stopping")
			return nil
		case update, ok := <-updates:
			if !ok {
				return fmt.Errorf("telegram: update channel closed")
			}
			a.dispatch(ctx, update)
		}
	}
}

func (a *Adapter) dispatch(ctx context.Context, update tgbotapi.Update) {
	in, ok := fromUpdate(update)
	if !ok {
		return
	}
	a.dispatcher.Submit(in.event.UserID, func() {
		out := &chatResponder{sender: a.sender, chatID: in.chatID, callbackID: in.callbackID}
		a.handler.Handle(ctx, in.event, out)
		if err := out.finish(); err != nil {
			a.logger.Warn("[telegram] answer callback for %s: %v", in.event.UserID, err)
		}
	})
}

type inbound struct {
	event      bot.Event
	chatID     int64
	callbackID string
}

func fromUpdate(update tgbotapi.Update) (inbound, bool) {
	switch {
	case update.CallbackQuery != nil:
		q := update.CallbackQuery
		if q.From == nil || q.Message == nil || q.Message.Chat == nil {
			return inbound{}, false
		}
		return inbound{
			event: bot.Event{
				Kind:      bot.EventCallback,
				UserID:    strconv.FormatInt(q.From.ID, 10),
				FirstName: q.From.FirstName,
				MessageID: q.Message.MessageID,
				Data:      q.Data,
			},
			chatID:     q.Message.Chat.ID,
			callbackID: q.ID,
		}, true

	case update.Message != nil:
		m := update.Message
		if m.From == nil || m.Chat == nil {
			return inbound{}, false
		}
		ev := bot.Event{
			Kind:      bot.EventText,
			UserID:    strconv.FormatInt(m.From.ID, 10),
			FirstName: m.From.FirstName,
			MessageID: m.MessageID,
			Text:      m.Text,
		}
		if m.IsCommand() {
			ev.Kind = bot.EventCommand
			ev.Text = m.Command()
		}
		return inbound{event: ev, chatID: m.Chat.ID}, true
	}
	return inbound{}, false
}

// chatResponder delivers the replies of one event. Callback queries must be
// answered exactly once, so finish answers silently if no Notify was sent.
type chatResponder struct {
	sender     Sender
	chatID     int64
	callbackID string
	answered   bool
}

func (r *chatResponder) Respond(_ context.Context, reply bot.Reply) error {
	if reply.Kind == bot.Notify {
		if r.callbackID == "" || r.answered {
			reply = bot.Reply{Kind: bot.SendMessage, Text: reply.Text}
		} else {
			r.answered = true
		}
	}

	c := toChattable(r.chatID, r.callbackID, reply)
	if reply.Kind == bot.SendMessage {
		_, err := r.sender.Send(c)
		return err
	}
	_, err := r.sender.Request(c)
	return err
}

func (r *chatResponder) finish() error {
	if r.callbackID == "" || r.answered {
		return nil
	}
	r.answered = true
	_, err := r.sender.Request(tgbotapi.NewCallback(r.callbackID, ""))
	return err
}

func toChattable(chatID int64, callbackID string, reply bot.Reply) tgbotapi.Chattable {
	switch reply.Kind {
	case bot.EditMessage:
		cfg := tgbotapi.NewEditMessageText(chatID, reply.MessageID, reply.Text)
		if reply.Keyboard != nil {
			markup := toMarkup(reply.Keyboard)
			cfg.ReplyMarkup = &markup
		}
		if reply.Markdown {
			cfg.ParseMode = tgbotapi.ModeMarkdown
		}
		return cfg

	case bot.EditKeyboard:
		return tgbotapi.NewEditMessageReplyMarkup(chatID, reply.MessageID, toMarkup(reply.Keyboard))

	case bot.Notify:
		if reply.Alert {
			return tgbotapi.NewCallbackWithAlert(callbackID, reply.Text)
		}
		return tgbotapi.NewCallback(callbackID, reply.Text)
	}

	msg := tgbotapi.NewMessage(chatID, reply.Text)
	msg.DisableWebPagePreview = true
	if reply.Markdown {
		msg.ParseMode = tgbotapi.ModeMarkdown
	}
	if reply.Keyboard != nil {
		msg.ReplyMarkup = toMarkup(reply.Keyboard)
	}
	return msg
}

// toMarkup converts a keyboard. A nil keyboard yields an empty markup, which
// Telegram treats as "remove the keyboard" on edits.
func toMarkup(kb bot.Keyboard) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb))
	for _, row := range kb {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Token))
		}
		rows = append(rows, buttons)
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}
