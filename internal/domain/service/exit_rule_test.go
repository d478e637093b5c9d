package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"spotarb/internal/domain/model"
)

func TestQuantityRoundsToFivePlaces(t *testing.T) {
	assert.Equal(t, "0.1002", Quantity(d("10"), d("99.8"), DefaultQuantityPrecision).String())
	assert.Equal(t, "0.1", Quantity(d("10"), d("100"), DefaultQuantityPrecision).String())
	assert.Equal(t, "0.00015", Quantity(d("10"), d("67000"), DefaultQuantityPrecision).String())
	assert.Equal(t, "0.00013", Quantity(d("10"), d("80000"), DefaultQuantityPrecision).String())
	assert.True(t, Quantity(d("10"), d("0"), DefaultQuantityPrecision).IsZero())
}

func TestExitRuleEvaluate(t *testing.T) {
	rule := ExitRule{TakeProfit: d("0.02"), StopLoss: d("-0.01")}
	pos := model.Position{Symbol: "BTCUSDT", EntryPrice: d("100"), Quantity: d("0.1")}

	tests := []struct {
		name   string
		price  string
		hit    bool
		reason model.CloseReason
		change string
	}{
		{"take profit", "103", true, model.CloseTakeProfit, "0.03"},
		{"take profit boundary", "102", true, model.CloseTakeProfit, "0.02"},
		{"stop loss", "98.5", true, model.CloseStopLoss, "-0.015"},
		{"stop loss boundary", "99", true, model.CloseStopLoss, "-0.01"},
		{"hold", "101", false, "", "0.01"},
		{"hold below", "99.5", false, "", "-0.005"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			change, reason, hit := rule.Evaluate(pos, d(tt.price))
			assert.Equal(t, tt.hit, hit)
			assert.Equal(t, tt.reason, reason)
			assert.True(t, change.Equal(d(tt.change)), "change %s", change)
		})
	}
}

func TestProfitMatchesChangeTimesOrderSize(t *testing.T) {
	pos := model.Position{EntryPrice: d("100"), Quantity: d("0.1")}

	profit := Profit(pos, d("103"))
	assert.True(t, profit.Equal(d("0.3")))
	assert.True(t, profit.Equal(Change(pos.EntryPrice, d("103")).Mul(d("10"))))

	loss := Profit(pos, d("98.5"))
	assert.True(t, loss.Equal(d("-0.15")))
}
