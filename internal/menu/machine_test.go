package menu

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"trade_ledger/internal/models"
	"trade_ledger/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type viewRenderer struct{}

func (viewRenderer) Render(_ context.Context, v models.View) models.Message {
	return models.Message{Text: string(v)}
}

func text(v models.View) models.Message { return models.Message{Text: string(v)} }

func TestMachineNavigation(t *testing.T) {
	ctrl := gomock.NewController(t)
	surface := mocks.NewMockSender(ctrl)
	ctx := context.Background()
	ref := models.MessageRef{ChatID: 42, MessageID: 7}

	gomock.InOrder(
		surface.EXPECT().Send(gomock.Any(), int64(42), text(models.ViewMain)).Return(ref, nil),
		surface.EXPECT().Edit(gomock.Any(), ref, text(models.ViewOpenTrades)).Return(nil),
		surface.EXPECT().Edit(gomock.Any(), ref, text(models.ViewOpenTrades)).Return(nil),
		surface.EXPECT().Edit(gomock.Any(), ref, text(models.ViewMain)).Return(nil),
	)

	m := NewMachine(NewSessions(), viewRenderer{}, surface)

	got, err := m.Start(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, ref, got)
	assert.Equal(t, models.ViewMain, m.View(ref))

	v, err := m.Handle(ctx, ref, Open(models.ViewOpenTrades))
	require.NoError(t, err)
	assert.Equal(t, models.ViewOpenTrades, v)

	v, err = m.Handle(ctx, ref, Refresh())
	require.NoError(t, err)
	assert.Equal(t, models.ViewOpenTrades, v)

	v, err = m.Handle(ctx, ref, Back())
	require.NoError(t, err)
	assert.Equal(t, models.ViewMain, v)
}

func TestMachineEditFailureKeepsState(t *testing.T) {
	ctrl := gomock.NewController(t)
	surface := mocks.NewMockSender(ctrl)
	ctx := context.Background()
	ref := models.MessageRef{ChatID: 1, MessageID: 1}

	sessions := NewSessions()
	sessions.Set(ref, models.ViewDailyStats)

	surface.EXPECT().Edit(gomock.Any(), ref, text(models.ViewAlgoStatus)).Return(errors.New("message to edit not found"))

	m := NewMachine(sessions, viewRenderer{}, surface)
	v, err := m.Handle(ctx, ref, Open(models.ViewAlgoStatus))
	require.Error(t, err)
	assert.Equal(t, models.ViewDailyStats, v)
	assert.Equal(t, models.ViewDailyStats, m.View(ref))
}

func TestMachineUnknownSurfaceStartsFromMain(t *testing.T) {
	ctrl := gomock.NewController(t)
	surface := mocks.NewMockSender(ctrl)
	ref := models.MessageRef{ChatID: 5, MessageID: 99}

	// после рестарта состояние потеряно, refresh рисует MAIN
	surface.EXPECT().Edit(gomock.Any(), ref, text(models.ViewMain)).Return(nil)

	m := NewMachine(nil, viewRenderer{}, surface)
	v, err := m.Handle(context.Background(), ref, Refresh())
	require.NoError(t, err)
	assert.Equal(t, models.ViewMain, v)
}

func TestMachineStartSendFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	surface := mocks.NewMockSender(ctrl)
	surface.EXPECT().Send(gomock.Any(), int64(3), gomock.Any()).Return(models.MessageRef{}, errors.New("forbidden"))

	sessions := NewSessions()
	m := NewMachine(sessions, viewRenderer{}, surface)
	_, err := m.Start(context.Background(), 3)
	require.Error(t, err)
	assert.Zero(t, sessions.Len())
}

// slowSurface запоминает, что сейчас показано, и тормозит правку,
// чтобы параллельные нажатия пересекались.
type slowSurface struct {
	mu    sync.Mutex
	shown map[models.MessageRef]string
}

func (s *slowSurface) Send(_ context.Context, chatID int64, msg models.Message) (models.MessageRef, error) {
	ref := models.MessageRef{ChatID: chatID, MessageID: 1}
	s.mu.Lock()
	s.shown[ref] = msg.Text
	s.mu.Unlock()
	return ref, nil
}

func (s *slowSurface) Edit(_ context.Context, ref models.MessageRef, msg models.Message) error {
	time.Sleep(time.Millisecond)
	s.mu.Lock()
	s.shown[ref] = msg.Text
	s.mu.Unlock()
	return nil
}

func TestMachineConcurrentTapsKeepStateInSync(t *testing.T) {
	surface := &slowSurface{shown: map[models.MessageRef]string{}}
	m := NewMachine(NewSessions(), viewRenderer{}, surface)
	ctx := context.Background()

	ref, err := m.Start(ctx, 42)
	require.NoError(t, err)

	actions := []Action{
		Open(models.ViewOpenTrades),
		Back(),
		Open(models.ViewDailyStats),
		Refresh(),
		Open(models.ViewAlgoStatus),
	}
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(a Action) {
			defer wg.Done()
			_, _ = m.Handle(ctx, ref, a)
		}(actions[i%len(actions)])
	}
	wg.Wait()

	surface.mu.Lock()
	defer surface.mu.Unlock()
	assert.Equal(t, surface.shown[ref], string(m.View(ref)))
}
