package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"trade_ledger/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBot struct {
	sent       []tgbotapi.Chattable
	requests   []tgbotapi.Chattable
	requestErr error
	nextID     int
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests = append(f.requests, c)
	if f.requestErr != nil {
		return nil, f.requestErr
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeBot) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return make(chan tgbotapi.Update)
}

func (f *fakeBot) StopReceivingUpdates() {}

func TestTelegramSend(t *testing.T) {
	bot := &fakeBot{}
	tg := newWithBot(bot)

	ref, err := tg.Send(context.Background(), 42, models.Message{
		Text:      "*hi*",
		ParseMode: models.ParseModeMarkdown,
		Buttons:   [][]models.Button{{{Label: "Back", Action: "menu:back"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.MessageRef{ChatID: 42, MessageID: 1}, ref)

	require.Len(t, bot.sent, 1)
	cfg, ok := bot.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, "*hi*", cfg.Text)
	assert.Equal(t, "Markdown", cfg.ParseMode)

	kb, ok := cfg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, kb.InlineKeyboard, 1)
	require.NotNil(t, kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "menu:back", *kb.InlineKeyboard[0][0].CallbackData)
}

func TestTelegramSendWithoutButtons(t *testing.T) {
	bot := &fakeBot{}
	_, err := newWithBot(bot).Send(context.Background(), 1, models.Message{Text: "plain"})
	require.NoError(t, err)

	cfg := bot.sent[0].(tgbotapi.MessageConfig)
	assert.Nil(t, cfg.ReplyMarkup)
}

func TestTelegramEdit(t *testing.T) {
	bot := &fakeBot{}
	tg := newWithBot(bot)
	ref := models.MessageRef{ChatID: 5, MessageID: 9}

	require.NoError(t, tg.Edit(context.Background(), ref, models.Message{Text: "new"}))
	edit, ok := bot.requests[0].(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	assert.Equal(t, int64(5), edit.ChatID)
	assert.Equal(t, 9, edit.MessageID)
	assert.Equal(t, "new", edit.Text)
}

func TestTelegramEditNotModifiedIsNotAnError(t *testing.T) {
	bot := &fakeBot{requestErr: errors.New("Bad Request: message is not modified")}
	err := newWithBot(bot).Edit(context.Background(), models.MessageRef{ChatID: 1, MessageID: 1}, models.Message{Text: "same"})
	assert.NoError(t, err)

	bot.requestErr = errors.New("Bad Request: message to edit not found")
	err = newWithBot(bot).Edit(context.Background(), models.MessageRef{ChatID: 1, MessageID: 1}, models.Message{Text: "same"})
	assert.Error(t, err)
}

func TestTelegramRespectsCancelledContext(t *testing.T) {
	bot := &fakeBot{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newWithBot(bot).Send(ctx, 1, models.Message{Text: "x"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, bot.sent)
}

// blockingBot висит, пока не закроют release.
type blockingBot struct {
	fakeBot
	release chan struct{}
}

func (b *blockingBot) Send(tgbotapi.Chattable) (tgbotapi.Message, error) {
	<-b.release
	return tgbotapi.Message{MessageID: 1}, nil
}

func (b *blockingBot) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	<-b.release
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func TestTelegramHungAPIStopsAtDeadline(t *testing.T) {
	bot := &blockingBot{release: make(chan struct{})}
	defer close(bot.release)
	tg := newWithBot(bot)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := tg.Send(ctx, 1, models.Message{Text: "x"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)

	err = tg.Edit(ctx, models.MessageRef{ChatID: 1, MessageID: 1}, models.Message{Text: "x"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	err = tg.AnswerCallback(ctx, "cb", "")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
