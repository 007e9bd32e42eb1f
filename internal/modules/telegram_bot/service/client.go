package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"trade_ledger/internal/models"
	"trade_ledger/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// botAPI — часть *tgbotapi.BotAPI, которой мы пользуемся.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Telegram — транспорт: шлёт и правит сообщения, читает апдейты long polling'ом.
type Telegram struct {
	bot botAPI
}

func NewTelegram(token string, timeout time.Duration) (*Telegram, error) {
	client := &http.Client{Timeout: timeout + 30*time.Second}
	b, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("telegram.NewTelegram: %w", err)
	}
	logger.Info("authorized on telegram account %s", b.Self.UserName)
	return &Telegram{bot: b}, nil
}

func newWithBot(b botAPI) *Telegram { return &Telegram{bot: b} }

// Send отправляет новое сообщение и возвращает его адрес.
func (t *Telegram) Send(ctx context.Context, chatID int64, msg models.Message) (models.MessageRef, error) {
	if err := ctx.Err(); err != nil {
		return models.MessageRef{}, err
	}

	cfg := tgbotapi.NewMessage(chatID, msg.Text)
	cfg.ParseMode = msg.ParseMode
	if kb := keyboard(msg.Buttons); kb != nil {
		cfg.ReplyMarkup = *kb
	}

	sent, err := withContext(ctx, func() (tgbotapi.Message, error) { return t.bot.Send(cfg) })
	if err != nil {
		return models.MessageRef{}, fmt.Errorf("telegram.Send chat=%d: %w", chatID, err)
	}
	return models.MessageRef{ChatID: chatID, MessageID: sent.MessageID}, nil
}

// Edit переписывает текст и кнопки существующего сообщения.
func (t *Telegram) Edit(ctx context.Context, ref models.MessageRef, msg models.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	edit := tgbotapi.NewEditMessageText(ref.ChatID, ref.MessageID, msg.Text)
	edit.ParseMode = msg.ParseMode
	edit.ReplyMarkup = keyboard(msg.Buttons)

	if _, err := withContext(ctx, func() (*tgbotapi.APIResponse, error) { return t.bot.Request(edit) }); err != nil {
		// refresh без изменений данных — для телеграма ошибка, для нас нет
		if isNotModified(err) {
			return nil
		}
		return fmt.Errorf("telegram.Edit chat=%d msg=%d: %w", ref.ChatID, ref.MessageID, err)
	}
	return nil
}

// AnswerCallback убирает «часики» на нажатой кнопке.
func (t *Telegram) AnswerCallback(ctx context.Context, callbackID, text string) error {
	_, err := withContext(ctx, func() (*tgbotapi.APIResponse, error) {
		return t.bot.Request(tgbotapi.NewCallback(callbackID, text))
	})
	return err
}

// Updates запускает long polling. Канал закрывается после Stop.
func (t *Telegram) Updates(timeoutSec int) tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeoutSec
	u.AllowedUpdates = []string{"message", "callback_query"}
	return t.bot.GetUpdatesChan(u)
}

func (t *Telegram) Stop() {
	t.bot.StopReceivingUpdates()
}

// withContext ограничивает вызов бота дедлайном ctx: tgbotapi контекст не принимает,
// а http-клиент общий с long polling'ом и живёт дольше. Зависший запрос
// дорабатывает в фоне, результат отбрасывается.
func withContext[T any](ctx context.Context, call func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := call()
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func keyboard(rows [][]models.Button) *tgbotapi.InlineKeyboardMarkup {
	if len(rows) == 0 {
		return nil
	}
	out := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Action))
		}
		out = append(out, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(out...)
	return &kb
}

func isNotModified(err error) bool {
	return strings.Contains(err.Error(), "message is not modified")
}
