package service

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"trade_ledger/internal/format"
	"trade_ledger/internal/models"
	"trade_ledger/internal/modules/ledger/store"
	stats "trade_ledger/internal/modules/stats/service"
	"trade_ledger/mocks"
	"trade_ledger/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestMain(m *testing.M) {
	logger.UseNop()
	os.Exit(m.Run())
}

var fixedNow = time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)

type recorder struct {
	mu    sync.Mutex
	kinds []string
}

func (r *recorder) Publish(kind, _ string, _ time.Time) {
	r.mu.Lock()
	r.kinds = append(r.kinds, kind)
	r.mu.Unlock()
}

type brokenStats struct{}

func (brokenStats) Daily(context.Context, time.Time) (models.DailyStats, error) {
	return models.DailyStats{}, errors.New("db is down")
}

func (brokenStats) Window(context.Context, int, time.Time) (models.WindowStats, error) {
	return models.WindowStats{}, errors.New("db is down")
}

func newDispatcher(t *testing.T, sender Sender, broadcast int64, pub Publisher) (*Dispatcher, *store.Memory) {
	t.Helper()
	mem := store.NewMemory(time.UTC)
	var pubs []Publisher
	if pub != nil {
		pubs = append(pubs, pub)
	}
	return NewDispatcher(Params{
		Sender:          sender,
		Publishers:      pubs,
		Formatter:       format.New(time.UTC, models.AlgoInfo{Name: "Test algo"}),
		Trades:          mem,
		Stats:           stats.NewAggregator(mem, time.UTC),
		BroadcastChatID: broadcast,
		Now:             func() time.Time { return fixedNow },
	}), mem
}

func textContains(sub string) gomock.Matcher {
	return gomock.Cond(func(x any) bool {
		msg, ok := x.(models.Message)
		return ok && strings.Contains(msg.Text, sub)
	})
}

func TestNotifyOpenedSendsToBroadcast(t *testing.T) {
	ctrl := gomock.NewController(t)
	sender := mocks.NewMockSender(ctrl)
	pub := &recorder{}

	sender.EXPECT().Send(gomock.Any(), int64(-100), textContains("NEW ENTRY")).Return(models.MessageRef{}, nil)

	d, _ := newDispatcher(t, sender, -100, pub)
	d.NotifyOpened(context.Background(), models.NewOpenTrade("t1", "BTCUSD", models.SideLong, decimal.NewFromInt(1), decimal.NewFromInt(1), fixedNow))

	assert.Equal(t, []string{KindEntry}, pub.kinds)
}

func TestDeliveryFailureIsSwallowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	sender := mocks.NewMockSender(ctrl)
	sender.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).Return(models.MessageRef{}, errors.New("telegram is down"))

	d, _ := newDispatcher(t, sender, 1, nil)
	tr := models.NewOpenTrade("t1", "BTCUSD", models.SideLong, decimal.NewFromInt(1), decimal.NewFromInt(1), fixedNow).
		Close(decimal.NewFromInt(2), fixedNow, decimal.NewFromInt(1))

	assert.NotPanics(t, func() {
		d.NotifyClosed(context.Background(), tr, nil)
	})
}

func TestNoBroadcastChatSkipsSend(t *testing.T) {
	ctrl := gomock.NewController(t)
	sender := mocks.NewMockSender(ctrl)
	pub := &recorder{}

	d, _ := newDispatcher(t, sender, 0, pub)
	d.NotifyStarted(context.Background())

	// в ленту всё равно уходит
	assert.Equal(t, []string{KindStartup}, pub.kinds)
}

func TestDeliverReport(t *testing.T) {
	ctx := context.Background()

	t.Run("sends new message", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		sender := mocks.NewMockSender(ctrl)
		sender.EXPECT().Send(gomock.Any(), int64(7), textContains("DAILY REPORT")).Return(models.MessageRef{ChatID: 7, MessageID: 1}, nil)

		d, _ := newDispatcher(t, sender, 7, nil)
		require.NoError(t, d.DeliverReport(ctx, 7, 7, nil))
	})

	t.Run("edits surface in place", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		sender := mocks.NewMockSender(ctrl)
		ref := models.MessageRef{ChatID: 7, MessageID: 55}
		sender.EXPECT().Edit(gomock.Any(), ref, textContains("LAST 3 DAYS")).Return(nil)

		d, _ := newDispatcher(t, sender, 7, nil)
		require.NoError(t, d.DeliverReport(ctx, 7, 3, &ref))
	})

	t.Run("no chat", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		d, _ := newDispatcher(t, mocks.NewMockSender(ctrl), 0, nil)
		assert.Error(t, d.DeliverReport(ctx, 0, 7, nil))
	})

	t.Run("send error propagates", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		sender := mocks.NewMockSender(ctrl)
		sender.EXPECT().Send(gomock.Any(), int64(7), gomock.Any()).Return(models.MessageRef{}, errors.New("429"))

		d, _ := newDispatcher(t, sender, 7, nil)
		assert.Error(t, d.DeliverReport(ctx, 7, 7, nil))
	})
}

func TestReportReflectsLedger(t *testing.T) {
	ctrl := gomock.NewController(t)
	d, mem := newDispatcher(t, mocks.NewMockSender(ctrl), 1, nil)
	ctx := context.Background()

	_, err := mem.OpenTrade(ctx, models.NewOpenTrade("t1", "BTCUSD", models.SideLong, decimal.NewFromInt(100), decimal.NewFromInt(1), fixedNow.Add(-2*time.Hour)))
	require.NoError(t, err)
	_, err = mem.CloseTrade(ctx, "t1", decimal.NewFromInt(110), fixedNow.Add(-time.Hour), decimal.NewFromInt(10))
	require.NoError(t, err)

	msg, err := d.Report(ctx, 7)
	require.NoError(t, err)
	assert.Contains(t, msg.Text, "02/01/2024")
	assert.Contains(t, msg.Text, "• Trades: 1")
	assert.Contains(t, msg.Text, "• P&L: +10.00 USD")
}

func TestRenderViews(t *testing.T) {
	ctrl := gomock.NewController(t)
	d, _ := newDispatcher(t, mocks.NewMockSender(ctrl), 1, nil)
	ctx := context.Background()

	main := d.Render(ctx, models.ViewMain)
	assert.Len(t, main.Buttons, 3)

	for _, v := range models.AllViews[1:] {
		msg := d.Render(ctx, v)
		require.GreaterOrEqual(t, len(msg.Buttons), 2, v)
		assert.NotContains(t, msg.Text, "unavailable", v)
	}

	open := d.Reply(ctx, models.ViewOpenTrades)
	assert.Equal(t, "📊 No open trades right now", open.Text)
	assert.Empty(t, open.Buttons)
}

func TestRenderFallsBackToApology(t *testing.T) {
	ctrl := gomock.NewController(t)
	d := NewDispatcher(Params{
		Sender:    mocks.NewMockSender(ctrl),
		Formatter: format.New(time.UTC, models.AlgoInfo{}),
		Trades:    store.NewMemory(time.UTC),
		Stats:     brokenStats{},
		Now:       func() time.Time { return fixedNow },
	})

	msg := d.Render(context.Background(), models.ViewDailyStats)
	assert.Contains(t, msg.Text, "unavailable")
	assert.Len(t, msg.Buttons, 2)

	reply := d.Reply(context.Background(), models.ViewRealtimePnL)
	assert.Equal(t, d.Apology(), reply)

	_, err := d.Snapshot(context.Background(), models.View("BOGUS"))
	assert.Error(t, err)
}
