package trading

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"spotarb/internal/domain/model"
)

func TestFormatEventDailyReport(t *testing.T) {
	ev := model.NewEvent(model.EventDailyReport, "", time.Unix(0, 0))
	ev.Report = &model.Report{Trades: 3, Profit: d("1.234"), ROI: d("1.234")}
	assert.Equal(t, "📊 Daily report\nTrades: 3\nProfit: 1.23 USDT\nROI: 1.23%", FormatEvent(ev))
}

func TestFormatEventClosedStopLoss(t *testing.T) {
	pos := model.Position{Symbol: "BTCUSDT", SellSource: "bybit", Quantity: d("0.001"), EntryPrice: d("100")}
	ev := model.NewEvent(model.EventPositionClosed, "BTCUSDT", time.Unix(0, 0))
	ev.Outcome = &model.TradeOutcome{Position: pos, ExitPrice: d("98"), Change: d("-0.02"), Profit: d("-0.002"), Reason: model.CloseStopLoss}

	got := FormatEvent(ev)
	assert.True(t, strings.HasPrefix(got, "❌ Stop-loss BTCUSDT (bybit) @ 98"), got)
	assert.Contains(t, got, "-2.00%")
}

func TestFormatEventFallbacks(t *testing.T) {
	ev := model.NewEvent(model.EventLifecycle, "", time.Unix(0, 0))
	ev.Message = "🚀 spotarb started"
	assert.Equal(t, "🚀 spotarb started", FormatEvent(ev))

	ev = model.NewEvent(model.EventPositionOpened, "ETHUSDT", time.Unix(0, 0))
	assert.Equal(t, "position_opened ETHUSDT", FormatEvent(ev))
}

func TestFormatStatusListsPositions(t *testing.T) {
	open := model.Snapshot{"BTCUSDT": {Symbol: "BTCUSDT", BuySource: "binance", SellSource: "okx", EntryPrice: d("100")}}
	got := FormatStatus(false, model.Statistics{Trades: 2, Profit: d("0.5")}, open)
	assert.Contains(t, got, "Status: paused")
	assert.Contains(t, got, "Profit: 0.50 USDT")
	assert.Contains(t, got, "BTCUSDT binance @ 100 -> okx")
}
