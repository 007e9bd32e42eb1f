package service

import (
	"testing"
	"time"

	"trade_ledger/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var arrival = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func TestDecodeEntry(t *testing.T) {
	ev, err := DecodeEvent([]byte(`{"action":"entry","symbol":"BTCUSD","side":"buy","price":"43000.5","quantity":0.02,"id":"abc"}`), arrival)
	require.NoError(t, err)

	e, ok := ev.(models.EntryEvent)
	require.True(t, ok)
	assert.Equal(t, "abc", e.ID)
	assert.Equal(t, models.SideLong, e.Side)
	assert.True(t, e.Price.Equal(decimal.RequireFromString("43000.5")))
	require.NotNil(t, e.Quantity)
	assert.True(t, e.Quantity.Equal(decimal.RequireFromString("0.02")))
	assert.Equal(t, arrival, e.At)
}

func TestDecodeExit(t *testing.T) {
	ev, err := DecodeEvent([]byte(`{"action":"exit","symbol":"BTCUSD","price":110,"id":"abc","entry_price":"100"}`), arrival)
	require.NoError(t, err)

	e, ok := ev.(models.ExitEvent)
	require.True(t, ok)
	assert.True(t, e.PnL.IsZero())
	require.NotNil(t, e.EntryPrice)
	assert.True(t, e.EntryPrice.Equal(decimal.NewFromInt(100)))
}

func TestDecodeRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":        `{"action":`,
		"missing action":  `{"symbol":"BTCUSD","price":1}`,
		"unknown action":  `{"action":"hold","symbol":"BTCUSD","price":1}`,
		"missing symbol":  `{"action":"entry","side":"buy","price":1}`,
		"missing price":   `{"action":"exit","symbol":"BTCUSD"}`,
		"negative price":  `{"action":"exit","symbol":"BTCUSD","price":-1}`,
		"bad side":        `{"action":"entry","symbol":"BTCUSD","side":"up","price":1}`,
		"missing side":    `{"action":"entry","symbol":"BTCUSD","price":1}`,
		"negative qty":    `{"action":"entry","symbol":"BTCUSD","side":"sell","price":1,"quantity":-2}`,
		"garbage decimal": `{"action":"entry","symbol":"BTCUSD","side":"sell","price":"abc"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeEvent([]byte(body), arrival)
			require.Error(t, err)
			assert.True(t, IsMalformed(err), err.Error())
		})
	}
}

// Цена и количество неотрицательные: ноль допустим, отсутствующее количество — nil.
func TestDecodeAcceptsZeroPriceAndQuantity(t *testing.T) {
	ev, err := DecodeEvent([]byte(`{"action":"entry","symbol":"BTCUSD","side":"buy","price":0,"quantity":0}`), arrival)
	require.NoError(t, err)
	e := ev.(models.EntryEvent)
	assert.True(t, e.Price.IsZero())
	require.NotNil(t, e.Quantity)
	assert.True(t, e.Quantity.IsZero())

	ev, err = DecodeEvent([]byte(`{"action":"entry","symbol":"BTCUSD","side":"buy","price":1}`), arrival)
	require.NoError(t, err)
	assert.Nil(t, ev.(models.EntryEvent).Quantity)

	ev, err = DecodeEvent([]byte(`{"action":"exit","symbol":"BTCUSD","price":0,"pnl":"-1"}`), arrival)
	require.NoError(t, err)
	assert.True(t, ev.(models.ExitEvent).Price.IsZero())
}
