package service

import (
	"context"

	"trade_ledger/internal/menu"
	"trade_ledger/internal/models"
	"trade_ledger/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Client — то, что обработчику нужно от транспорта.
type Client interface {
	Send(ctx context.Context, chatID int64, msg models.Message) (models.MessageRef, error)
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

// Views — данные для ответов на команды.
type Views interface {
	Reply(ctx context.Context, view models.View) models.Message
	Welcome() models.Message
	Apology() models.Message
	DeliverReport(ctx context.Context, chatID int64, windowDays int, surface *models.MessageRef) error
}

// Handler разбирает апдейты: команды отвечают новым сообщением,
// нажатия кнопок меню перерисовывают своё сообщение на месте.
type Handler struct {
	client     Client
	views      Views
	machine    *menu.Machine
	windowDays int
}

func NewHandler(client Client, views Views, machine *menu.Machine, windowDays int) *Handler {
	return &Handler{client: client, views: views, machine: machine, windowDays: windowDays}
}

// Команда -> вид, который она показывает.
var commandViews = map[string]models.View{
	"stats":  models.ViewDailyStats,
	"trades": models.ViewOpenTrades,
	"pnl":    models.ViewRealtimePnL,
}

func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	// 1) Команды
	if msg := update.Message; msg != nil && msg.Chat != nil {
		if msg.IsCommand() {
			h.handleCommand(ctx, msg.Chat.ID, msg.Command())
		}
		return
	}

	// 2) Inline-кнопки
	if cb := update.CallbackQuery; cb != nil {
		if cb.Message == nil || cb.Message.Chat == nil {
			return
		}
		h.handleCallback(ctx, cb)
	}

	// 3) Остальное игнорируем
}

func (h *Handler) handleCommand(ctx context.Context, chatID int64, command string) {
	switch command {
	case "start":
		h.send(ctx, chatID, h.views.Welcome())
		h.openMenu(ctx, chatID)

	case "menu":
		h.openMenu(ctx, chatID)

	case "report":
		if err := h.views.DeliverReport(ctx, chatID, h.windowDays, nil); err != nil {
			logger.Error("report for chat %d: %v", chatID, err)
			h.send(ctx, chatID, h.views.Apology())
		}

	default:
		view, ok := commandViews[command]
		if !ok {
			h.send(ctx, chatID, h.views.Welcome())
			return
		}
		h.send(ctx, chatID, h.views.Reply(ctx, view))
	}
}

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	// отвечаем ТГ, чтобы убрать "часики" на кнопке
	if err := h.client.AnswerCallback(ctx, cb.ID, ""); err != nil {
		logger.Warn("answer callback %s: %v", cb.ID, err)
	}

	action, ok := menu.ParseAction(cb.Data)
	if !ok {
		logger.Debug("unknown callback data %q", cb.Data)
		return
	}

	ref := models.MessageRef{ChatID: cb.Message.Chat.ID, MessageID: cb.Message.MessageID}
	if _, err := h.machine.Handle(ctx, ref, action); err != nil {
		logger.Error("menu action %s on chat=%d msg=%d: %v", action.Data(), ref.ChatID, ref.MessageID, err)
	}
}

func (h *Handler) openMenu(ctx context.Context, chatID int64) {
	if _, err := h.machine.Start(ctx, chatID); err != nil {
		logger.Error("open menu for chat %d: %v", chatID, err)
	}
}

func (h *Handler) send(ctx context.Context, chatID int64, msg models.Message) {
	if _, err := h.client.Send(ctx, chatID, msg); err != nil {
		logger.Error("reply to chat %d: %v", chatID, err)
	}
}

// Run читает апдейты до отмены ctx. Каждый апдейт в своей горутине,
// чтобы медленный запрос в леджер не держал очередь.
func Run(ctx context.Context, updates tgbotapi.UpdatesChannel, h *Handler) {
	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			go h.HandleUpdate(ctx, upd)
		}
	}
}
