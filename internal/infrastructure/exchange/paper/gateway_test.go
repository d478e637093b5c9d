package paper

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"spotarb/internal/domain/model"
)

func TestGatewayAlwaysSucceeds(t *testing.T) {
	g := NewGateway("bybit")
	res := g.PlaceOrder(context.Background(), "BTCUSDT", model.SideBuy, decimal.RequireFromString("0.1"))

	if !res.Success {
		t.Fatal("paper orders always succeed")
	}
	if res.Venue != "bybit" || !strings.HasPrefix(res.OrderID, "paper-") {
		t.Errorf("unexpected result %+v", res)
	}
}
