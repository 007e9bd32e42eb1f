package notify

import (
	"context"
	"sync/atomic"
	"time"

	"trade_ledger/internal/models"
	"trade_ledger/pkg/logger"
)

// Stdout — заглушка транспорта: всё пишет в лог. Работает, когда Telegram выключен.
type Stdout struct {
	nextID atomic.Int64
}

func NewStdout() *Stdout { return &Stdout{} }

func (s *Stdout) Send(_ context.Context, chatID int64, msg models.Message) (models.MessageRef, error) {
	ref := models.MessageRef{ChatID: chatID, MessageID: int(s.nextID.Add(1))}
	logger.Info("SEND chat=%d msg=%d:\n%s", chatID, ref.MessageID, msg.Text)
	return ref, nil
}

func (s *Stdout) Edit(_ context.Context, ref models.MessageRef, msg models.Message) error {
	logger.Info("EDIT chat=%d msg=%d:\n%s", ref.ChatID, ref.MessageID, msg.Text)
	return nil
}

// Frame — то, что уходит в websocket-ленту.
type Frame struct {
	Kind string    `json:"kind"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}
