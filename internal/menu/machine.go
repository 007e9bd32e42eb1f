package menu

import (
	"context"
	"fmt"

	"trade_ledger/internal/metrics"
	"trade_ledger/internal/models"
)

// Renderer отдаёт готовое сообщение для вида, уже с кнопками навигации.
// Ошибки данных рендерер превращает в сообщение-извинение сам.
type Renderer interface {
	Render(ctx context.Context, view models.View) models.Message
}

// Surface — куда рисуем: новое сообщение или правка существующего.
type Surface interface {
	Send(ctx context.Context, chatID int64, msg models.Message) (models.MessageRef, error)
	Edit(ctx context.Context, ref models.MessageRef, msg models.Message) error
}

// Machine ведёт интерактивные поверхности: на каждое действие пересчитывает
// вид и перерисовывает то же сообщение, новых не шлёт.
type Machine struct {
	sessions *Sessions
	render   Renderer
	surface  Surface
}

func NewMachine(sessions *Sessions, render Renderer, surface Surface) *Machine {
	if sessions == nil {
		sessions = NewSessions()
	}
	return &Machine{sessions: sessions, render: render, surface: surface}
}

// Start открывает новую поверхность в MAIN.
func (m *Machine) Start(ctx context.Context, chatID int64) (models.MessageRef, error) {
	msg := m.render.Render(ctx, models.ViewMain)
	ref, err := m.surface.Send(ctx, chatID, msg)
	if err != nil {
		return models.MessageRef{}, fmt.Errorf("menu.Start: %w", err)
	}
	m.sessions.Set(ref, models.ViewMain)
	metrics.MenuTransitions.WithLabelValues(string(models.ViewMain)).Inc()
	return ref, nil
}

// Handle применяет действие к поверхности ref и правит её на месте.
// Состояние сдвигается только если правка прошла. Действия над одной
// поверхностью выполняются по очереди.
func (m *Machine) Handle(ctx context.Context, ref models.MessageRef, a Action) (models.View, error) {
	l := m.sessions.surfaceLock(ref)
	l.Lock()
	defer l.Unlock()

	current := m.sessions.Current(ref)
	next := Transition(current, a)

	msg := m.render.Render(ctx, next)
	if err := m.surface.Edit(ctx, ref, msg); err != nil {
		return current, fmt.Errorf("menu.Handle %s -> %s: %w", current, next, err)
	}

	m.sessions.Set(ref, next)
	metrics.MenuTransitions.WithLabelValues(string(next)).Inc()
	return next, nil
}

// View — текущее состояние поверхности.
func (m *Machine) View(ref models.MessageRef) models.View {
	return m.sessions.Current(ref)
}
