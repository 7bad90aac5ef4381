package telegram

import (
	"context"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airbnb-bot/bot"
	"airbnb-bot/utils"
)

type fakeSender struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
}

func (s *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, c)
	return tgbotapi.Message{}, nil
}

func (s *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// echoHandler records events and replies with their text.
type echoHandler struct {
	mu     sync.Mutex
	events []bot.Event
	notify bool
}

func (h *echoHandler) Handle(ctx context.Context, ev bot.Event, out bot.Responder) {
	h.mu.Lock()
	h.events = append(h.events, ev)
	h.mu.Unlock()

	if ev.Kind == bot.EventCallback && h.notify {
		_ = out.Respond(ctx, bot.Reply{Kind: bot.Notify, Text: "nope", Alert: true})
		return
	}
	_ = out.Respond(ctx, bot.Reply{Kind: bot.SendMessage, Text: ev.Text + ev.Data})
}

func textUpdate(userID int64, text string) tgbotapi.Update {
	m := &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: userID, FirstName: "Sam"},
		Chat:      &tgbotapi.Chat{ID: userID},
		Text:      text,
	}
	if len(text) > 0 && text[0] == '/' {
		m.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}}
	}
	return tgbotapi.Update{Message: m}
}

func callbackUpdate(userID int64, messageID int, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		From:    &tgbotapi.User{ID: userID},
		Message: &tgbotapi.Message{MessageID: messageID, Chat: &tgbotapi.Chat{ID: userID}},
		Data:    data,
	}}
}

func TestFromUpdate(t *testing.T) {
	in, ok := fromUpdate(textUpdate(7, "/search"))
	require.True(t, ok)
	assert.Equal(t, bot.EventCommand, in.event.Kind)
	assert.Equal(t, "search", in.event.Text)
	assert.Equal(t, "7", in.event.UserID)
	assert.Equal(t, int64(7), in.chatID)

	in, ok = fromUpdate(textUpdate(7, "Paris"))
	require.True(t, ok)
	assert.Equal(t, bot.EventText, in.event.Kind)
	assert.Equal(t, "Paris", in.event.Text)

	in, ok = fromUpdate(callbackUpdate(7, 99, "cal_2026-10-20"))
	require.True(t, ok)
	assert.Equal(t, bot.EventCallback, in.event.Kind)
	assert.Equal(t, 99, in.event.MessageID)
	assert.Equal(t, "cal_2026-10-20", in.event.Data)
	assert.Equal(t, "cb-1", in.callbackID)

	_, ok = fromUpdate(tgbotapi.Update{})
	assert.False(t, ok)
}

func TestToChattable(t *testing.T) {
	kb := bot.Keyboard{{{Label: "👍 Like", Token: "feedback_1_like"}}}

	msg, ok := toChattable(5, "", bot.Reply{Kind: bot.SendMessage, Text: "hi", Keyboard: kb, Markdown: true}).(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, "hi", msg.Text)
	assert.Equal(t, tgbotapi.ModeMarkdown, msg.ParseMode)
	markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.NotNil(t, markup.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "feedback_1_like", *markup.InlineKeyboard[0][0].CallbackData)

	editText, ok := toChattable(5, "", bot.Reply{Kind: bot.EditMessage, MessageID: 3, Text: "done"}).(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	assert.Equal(t, 3, editText.MessageID)
	assert.Nil(t, editText.ReplyMarkup)

	removal, ok := toChattable(5, "", bot.Reply{Kind: bot.EditKeyboard, MessageID: 3}).(tgbotapi.EditMessageReplyMarkupConfig)
	require.True(t, ok)
	require.NotNil(t, removal.ReplyMarkup)
	assert.Empty(t, removal.ReplyMarkup.InlineKeyboard)

	answer, ok := toChattable(5, "cb", bot.Reply{Kind: bot.Notify, Text: "after check-in", Alert: true}).(tgbotapi.CallbackConfig)
	require.True(t, ok)
	assert.True(t, answer.ShowAlert)
	assert.Equal(t, "cb", answer.CallbackQueryID)
}

func TestServeKeepsPerUserOrder(t *testing.T) {
	sender := &fakeSender{}
	handler := &echoHandler{}
	a := newAdapter(sender, handler, 4, utils.NewNopLogger())

	updates := make(chan tgbotapi.Update, 10)
	for _, text := range []string{"a1", "a2", "a3"} {
		updates <- textUpdate(1, text)
	}
	updates <- textUpdate(2, "b1")
	close(updates)

	err := a.serve(context.Background(), updates)
	require.Error(t, err)

	var fromA []string
	for _, ev := range handler.events {
		if ev.UserID == "1" {
			fromA = append(fromA, ev.Text)
		}
	}
	assert.Equal(t, []string{"a1", "a2", "a3"}, fromA)
	assert.Len(t, sender.sent, 4)
}

func TestCallbacksAreAnsweredOnce(t *testing.T) {
	sender := &fakeSender{}
	a := newAdapter(sender, &echoHandler{}, 1, utils.NewNopLogger())

	updates := make(chan tgbotapi.Update, 1)
	updates <- callbackUpdate(1, 9, "ignore")
	close(updates)
	_ = a.serve(context.Background(), updates)

	require.Len(t, sender.requests, 1)
	answer, ok := sender.requests[0].(tgbotapi.CallbackConfig)
	require.True(t, ok)
	assert.Empty(t, answer.Text)
}

func TestNotifyAnswersCallback(t *testing.T) {
	sender := &fakeSender{}
	a := newAdapter(sender, &echoHandler{notify: true}, 1, utils.NewNopLogger())

	updates := make(chan tgbotapi.Update, 1)
	updates <- callbackUpdate(1, 9, "cal_2026-10-01")
	close(updates)
	_ = a.serve(context.Background(), updates)

	require.Len(t, sender.requests, 1)
	answer := sender.requests[0].(tgbotapi.CallbackConfig)
	assert.True(t, answer.ShowAlert)
	assert.Equal(t, "nope", answer.Text)
	assert.Empty(t, sender.sent)
}
