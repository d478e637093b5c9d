package paper

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"spotarb/internal/application/port"
	"spotarb/internal/domain/model"
)

// Gateway 模拟下单（execution.dry_run）：只记日志，总是成功
type Gateway struct {
	venue string
}

var _ port.OrderGateway = (*Gateway)(nil)

func NewGateway(venue string) *Gateway {
	return &Gateway{venue: venue}
}

func (g *Gateway) Name() string { return g.venue }

func (g *Gateway) PlaceOrder(ctx context.Context, symbol string, side model.Side, quantity decimal.Decimal) model.OrderResult {
	id := "paper-" + uuid.NewString()
	log.Info().
		Str("venue", g.venue).
		Str("symbol", symbol).
		Str("side", string(side)).
		Str("qty", quantity.String()).
		Str("order_id", id).
		Msg("paper order")
	return model.OrderResult{
		Venue:   g.venue,
		Symbol:  symbol,
		Side:    side,
		Qty:     quantity,
		Success: true,
		OrderID: id,
		Details: "dry run",
	}
}
