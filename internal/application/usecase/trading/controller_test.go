package trading

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"spotarb/internal/application/service"
	"spotarb/internal/domain/model"
)

func TestNormalizeCommand(t *testing.T) {
	assert.Equal(t, "status", normalizeCommand("/Status"))
	assert.Equal(t, "stop", normalizeCommand("  /stop@spotarb_bot now "))
	assert.Equal(t, "balance", normalizeCommand("balance"))
	assert.Equal(t, "", normalizeCommand("   "))
}

func TestControllerStartStop(t *testing.T) {
	state := NewRunState(true)
	c := NewController(ControllerDeps{State: state, Stats: service.NewStatsService(nil)})
	ctx := context.Background()

	assert.Contains(t, c.Handle(ctx, "/stop"), "paused")
	assert.False(t, state.Active())
	assert.Contains(t, c.Handle(ctx, "/stop"), "already")

	assert.Contains(t, c.Handle(ctx, "/start"), "resumed")
	assert.True(t, state.Active())
}

func TestControllerStatus(t *testing.T) {
	stats := service.NewStatsService(nil)
	stats.Record(model.TradeOutcome{Profit: d("1.234")})
	c := NewController(ControllerDeps{
		State:     NewRunState(false),
		Stats:     stats,
		Positions: func() model.Snapshot { return openBTC() },
	})

	out := c.Handle(context.Background(), "/status")
	assert.Contains(t, out, "paused")
	assert.Contains(t, out, "Trades: 1")
	assert.Contains(t, out, "Profit: 1.23 USDT")
	assert.Contains(t, out, "Open positions: 1")
	assert.Contains(t, out, "BTCUSDT")
}

func TestControllerBalance(t *testing.T) {
	c := NewController(ControllerDeps{
		State:        NewRunState(true),
		Stats:        service.NewStatsService(nil),
		Balance:      &fakeBalance{amount: d("42.5")},
		BalanceVenue: "binance",
	})
	assert.Equal(t, "💰 Balance binance (USDT): 42.5", c.Handle(context.Background(), "/balance"))

	c.balance = &fakeBalance{err: errors.New("invalid api key")}
	assert.Contains(t, c.Handle(context.Background(), "/balance"), "invalid api key")

	c.balance = nil
	assert.Contains(t, c.Handle(context.Background(), "/balance"), "unavailable")
}

func TestControllerUnknownCommand(t *testing.T) {
	c := NewController(ControllerDeps{State: NewRunState(true), Stats: service.NewStatsService(nil)})
	out := c.Handle(context.Background(), "/moon")
	assert.Contains(t, out, "Unknown command: moon")
	assert.Contains(t, out, "/status")
}
