package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"trade_ledger/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type StoreTestSuite struct {
	suite.Suite
	newStore func(t *testing.T, loc *time.Location) Store
	store    Store
	ctx      context.Context
}

func (s *StoreTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.newStore(s.T(), time.UTC)
}

func (s *StoreTestSuite) TearDownTest() {
	s.Require().NoError(s.store.Close())
}

func TestMemoryStore(t *testing.T) {
	suite.Run(t, &StoreTestSuite{
		newStore: func(t *testing.T, loc *time.Location) Store { return NewMemory(loc) },
	})
}

func TestSQLiteStore(t *testing.T) {
	suite.Run(t, &StoreTestSuite{
		newStore: func(t *testing.T, loc *time.Location) Store {
			st, err := NewSQLite(filepath.Join(t.TempDir(), "ledger.db"), loc)
			if err != nil {
				t.Fatalf("open sqlite: %v", err)
			}
			return st
		},
	})
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func open(id, symbol string, price string, at time.Time) models.Trade {
	return models.NewOpenTrade(id, symbol, models.SideLong, dec(price), dec("0.01"), at)
}

func (s *StoreTestSuite) TestOpenThenClose() {
	entry := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	exit := entry.Add(time.Hour)

	_, err := s.store.OpenTrade(s.ctx, open("t1", "BTCUSD", "100", entry))
	s.Require().NoError(err)

	outcome, err := s.store.CloseTrade(s.ctx, "t1", dec("110"), exit, dec("10"))
	s.Require().NoError(err)
	s.Equal(models.CloseApplied, outcome)

	openTrades, err := s.store.ListOpen(s.ctx)
	s.Require().NoError(err)
	s.Empty(openTrades)

	closed, err := s.store.ClosedInRange(s.ctx, exit)
	s.Require().NoError(err)
	s.Require().Len(closed, 1)

	t := closed[0]
	s.Equal("t1", t.ID)
	s.Equal(models.StatusClosed, t.Status)
	s.True(t.ExitPrice.Equal(dec("110")))
	s.True(t.RealizedPnL.Equal(dec("10")))
	s.True(t.ExitTime.Equal(exit))
	s.True(t.EntryTime.Equal(entry))

	other, err := s.store.ClosedInRange(s.ctx, exit.AddDate(0, 0, 1))
	s.Require().NoError(err)
	s.Empty(other)
}

func (s *StoreTestSuite) TestCloseUnknownIsNoop() {
	outcome, err := s.store.CloseTrade(s.ctx, "ghost", dec("1"), time.Now().UTC(), dec("1"))
	s.Require().NoError(err)
	s.Equal(models.CloseNotFound, outcome)

	_, ok, err := s.store.Get(s.ctx, "ghost")
	s.Require().NoError(err)
	s.False(ok)

	recent, err := s.store.ListRecent(s.ctx, 10)
	s.Require().NoError(err)
	s.Empty(recent)
}

func (s *StoreTestSuite) TestCloseTwiceKeepsFirstExit() {
	at := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)
	_, err := s.store.OpenTrade(s.ctx, open("t1", "ETHUSD", "2000", at))
	s.Require().NoError(err)

	_, err = s.store.CloseTrade(s.ctx, "t1", dec("2100"), at.Add(time.Hour), dec("5"))
	s.Require().NoError(err)

	outcome, err := s.store.CloseTrade(s.ctx, "t1", dec("1900"), at.Add(2*time.Hour), dec("-5"))
	s.Require().NoError(err)
	s.Equal(models.CloseAlreadyClosed, outcome)

	t, ok, err := s.store.Get(s.ctx, "t1")
	s.Require().NoError(err)
	s.Require().True(ok)
	s.True(t.ExitPrice.Equal(dec("2100")))
	s.True(t.RealizedPnL.Equal(dec("5")))
}

func (s *StoreTestSuite) TestOpenReplacesSameID() {
	at := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	_, err := s.store.OpenTrade(s.ctx, open("a", "BTCUSD", "100", at))
	s.Require().NoError(err)
	_, err = s.store.OpenTrade(s.ctx, open("b", "ETHUSD", "50", at))
	s.Require().NoError(err)
	_, err = s.store.OpenTrade(s.ctx, open("a", "BTCUSD", "105", at.Add(time.Minute)))
	s.Require().NoError(err)

	t, ok, err := s.store.Get(s.ctx, "a")
	s.Require().NoError(err)
	s.Require().True(ok)
	s.True(t.EntryPrice.Equal(dec("105")))
	s.Equal(models.StatusOpen, t.Status)

	openTrades, err := s.store.ListOpen(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(openTrades, 2)
	s.Equal("b", openTrades[0].ID)
	s.Equal("a", openTrades[1].ID)

	recent, err := s.store.ListRecent(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(recent, 2)
	s.Equal("a", recent[0].ID)
}

func (s *StoreTestSuite) TestReopenClosedTradeClearsExit() {
	at := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	_, err := s.store.OpenTrade(s.ctx, open("a", "BTCUSD", "100", at))
	s.Require().NoError(err)
	_, err = s.store.CloseTrade(s.ctx, "a", dec("110"), at.Add(time.Hour), dec("10"))
	s.Require().NoError(err)

	_, err = s.store.OpenTrade(s.ctx, open("a", "BTCUSD", "120", at.Add(2*time.Hour)))
	s.Require().NoError(err)

	t, ok, err := s.store.Get(s.ctx, "a")
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Equal(models.StatusOpen, t.Status)
	s.Nil(t.ExitPrice)
	s.Nil(t.ExitTime)
	s.Nil(t.RealizedPnL)
}

func (s *StoreTestSuite) TestListRecentLimit() {
	at := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	for i := 1; i <= 3; i++ {
		_, err := s.store.OpenTrade(s.ctx, open(fmt.Sprintf("t%d", i), "BTCUSD", "100", at))
		s.Require().NoError(err)
	}

	recent, err := s.store.ListRecent(s.ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(recent, 2)
	s.Equal("t3", recent[0].ID)
	s.Equal("t2", recent[1].ID)
}

func (s *StoreTestSuite) TestDecimalsAreExact() {
	at := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	tr := models.NewOpenTrade("p", "BTCUSD", models.SideShort, dec("43125.123456789"), dec("0.00012345"), at)
	_, err := s.store.OpenTrade(s.ctx, tr)
	s.Require().NoError(err)

	got, ok, err := s.store.Get(s.ctx, "p")
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Equal(models.SideShort, got.Side)
	s.True(got.EntryPrice.Equal(dec("43125.123456789")))
	s.True(got.Quantity.Equal(dec("0.00012345")))
}

func (s *StoreTestSuite) TestClosedInRangeUsesReferenceTimezone() {
	ny, err := time.LoadLocation("America/New_York")
	s.Require().NoError(err)

	st := s.newStore(s.T(), ny)
	defer st.Close()

	entry := time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC)
	// 03:00 UTC 2 января = 22:00 1 января в Нью-Йорке
	exit := time.Date(2024, 1, 2, 3, 0, 0, 0, time.UTC)

	_, err = st.OpenTrade(s.ctx, open("tz", "BTCUSD", "100", entry))
	s.Require().NoError(err)
	_, err = st.CloseTrade(s.ctx, "tz", dec("101"), exit, dec("1"))
	s.Require().NoError(err)

	jan1, err := st.ClosedInRange(s.ctx, time.Date(2024, 1, 1, 12, 0, 0, 0, ny))
	s.Require().NoError(err)
	s.Len(jan1, 1)

	jan2, err := st.ClosedInRange(s.ctx, time.Date(2024, 1, 2, 12, 0, 0, 0, ny))
	s.Require().NoError(err)
	s.Empty(jan2)
}

func (s *StoreTestSuite) TestConcurrentWrites() {
	at := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("c%d", i)
			if _, err := s.store.OpenTrade(s.ctx, open(id, "BTCUSD", "100", at)); err != nil {
				errs <- err
				return
			}
			if _, err := s.store.CloseTrade(s.ctx, id, dec("101"), at.Add(time.Minute), dec("1")); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.Require().NoError(err)
	}

	closed, err := s.store.ClosedInRange(s.ctx, at)
	s.Require().NoError(err)
	s.Len(closed, 20)

	openTrades, err := s.store.ListOpen(s.ctx)
	s.Require().NoError(err)
	s.Empty(openTrades)
}

type marker interface {
	LastFired(ctx context.Context) (string, error)
	SetLastFired(ctx context.Context, day string) error
}

func (s *StoreTestSuite) TestReportMarker() {
	m, ok := s.store.(marker)
	s.Require().True(ok)

	day, err := m.LastFired(s.ctx)
	s.Require().NoError(err)
	s.Equal("", day)

	s.Require().NoError(m.SetLastFired(s.ctx, "2024-01-01"))
	s.Require().NoError(m.SetLastFired(s.ctx, "2024-01-02"))

	day, err = m.LastFired(s.ctx)
	s.Require().NoError(err)
	s.Equal("2024-01-02", day)
}

func TestNormalizeLimit(t *testing.T) {
	cases := map[int]int{
		-1:   DefaultRecentLimit,
		0:    DefaultRecentLimit,
		5:    5,
		200:  200,
		1000: MaxRecentLimit,
	}
	for in, want := range cases {
		if got := NormalizeLimit(in); got != want {
			t.Errorf("NormalizeLimit(%d) = %d, want %d", in, got, want)
		}
	}
}
