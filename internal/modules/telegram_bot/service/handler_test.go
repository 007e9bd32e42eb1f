package service

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"trade_ledger/internal/menu"
	"trade_ledger/internal/models"
	"trade_ledger/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.UseNop()
	os.Exit(m.Run())
}

type sentMessage struct {
	chatID int64
	msg    models.Message
}

type fakeClient struct {
	mu       sync.Mutex
	sent     []sentMessage
	edits    []models.MessageRef
	answered []string
	nextID   int
}

func (f *fakeClient) Send(_ context.Context, chatID int64, msg models.Message) (models.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{chatID: chatID, msg: msg})
	f.nextID++
	return models.MessageRef{ChatID: chatID, MessageID: f.nextID}, nil
}

func (f *fakeClient) Edit(_ context.Context, ref models.MessageRef, _ models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, ref)
	return nil
}

func (f *fakeClient) AnswerCallback(_ context.Context, id, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answered = append(f.answered, id)
	return nil
}

type fakeViews struct {
	reportErr error
	reports   int
}

func (f *fakeViews) Reply(_ context.Context, v models.View) models.Message {
	return models.Message{Text: "view:" + string(v)}
}

func (f *fakeViews) Render(_ context.Context, v models.View) models.Message {
	return models.Message{Text: "menu:" + string(v)}
}

func (f *fakeViews) Welcome() models.Message { return models.Message{Text: "welcome"} }
func (f *fakeViews) Apology() models.Message { return models.Message{Text: "sorry"} }

func (f *fakeViews) DeliverReport(context.Context, int64, int, *models.MessageRef) error {
	f.reports++
	return f.reportErr
}

func newHandler() (*Handler, *fakeClient, *fakeViews, *menu.Machine) {
	client := &fakeClient{}
	views := &fakeViews{}
	machine := menu.NewMachine(menu.NewSessions(), views, client)
	return NewHandler(client, views, machine, 7), client, views, machine
}

func command(chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: chatID},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}},
	}}
}

func callback(chatID int64, messageID int, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb-1",
		Data: data,
		Message: &tgbotapi.Message{
			MessageID: messageID,
			Chat:      &tgbotapi.Chat{ID: chatID},
		},
	}}
}

func TestCommandsReplyWithViews(t *testing.T) {
	cases := map[string]string{
		"/stats":  "view:DAILY_STATS",
		"/trades": "view:OPEN_TRADES",
		"/pnl":    "view:REALTIME_PNL",
		"/wat":    "welcome",
	}
	for cmd, want := range cases {
		t.Run(cmd, func(t *testing.T) {
			h, client, _, _ := newHandler()
			h.HandleUpdate(context.Background(), command(10, cmd))

			require.Len(t, client.sent, 1)
			assert.Equal(t, int64(10), client.sent[0].chatID)
			assert.Equal(t, want, client.sent[0].msg.Text)
		})
	}
}

func TestStartSendsWelcomeAndMenu(t *testing.T) {
	h, client, _, machine := newHandler()
	h.HandleUpdate(context.Background(), command(10, "/start"))

	require.Len(t, client.sent, 2)
	assert.Equal(t, "welcome", client.sent[0].msg.Text)
	assert.Equal(t, "menu:MAIN", client.sent[1].msg.Text)
	assert.Equal(t, models.ViewMain, machine.View(models.MessageRef{ChatID: 10, MessageID: 2}))
}

func TestReportCommand(t *testing.T) {
	h, client, views, _ := newHandler()
	h.HandleUpdate(context.Background(), command(10, "/report"))
	assert.Equal(t, 1, views.reports)
	assert.Empty(t, client.sent)

	views.reportErr = errors.New("db is down")
	h.HandleUpdate(context.Background(), command(10, "/report"))
	require.Len(t, client.sent, 1)
	assert.Equal(t, "sorry", client.sent[0].msg.Text)
}

func TestCallbackEditsInPlace(t *testing.T) {
	h, client, _, machine := newHandler()
	ctx := context.Background()

	h.HandleUpdate(ctx, command(10, "/menu"))
	ref := models.MessageRef{ChatID: 10, MessageID: 1}

	h.HandleUpdate(ctx, callback(10, 1, menu.Open(models.ViewWeeklyStats).Data()))
	assert.Equal(t, models.ViewWeeklyStats, machine.View(ref))

	h.HandleUpdate(ctx, callback(10, 1, menu.Back().Data()))
	assert.Equal(t, models.ViewMain, machine.View(ref))

	// новых сообщений после /menu нет, только правки
	assert.Len(t, client.sent, 1)
	assert.Equal(t, []models.MessageRef{ref, ref}, client.edits)
	assert.Equal(t, []string{"cb-1", "cb-1"}, client.answered)
}

func TestForeignCallbackIsIgnored(t *testing.T) {
	h, client, _, _ := newHandler()
	h.HandleUpdate(context.Background(), callback(10, 1, "settings:toggle"))

	assert.Equal(t, []string{"cb-1"}, client.answered)
	assert.Empty(t, client.edits)
}

func TestPlainTextIsIgnored(t *testing.T) {
	h, client, _, _ := newHandler()
	h.HandleUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{
		Text: "hello",
		Chat: &tgbotapi.Chat{ID: 1},
	}})
	assert.Empty(t, client.sent)
}
