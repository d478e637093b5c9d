package kraken

import (
	"context"

	"spotarb/internal/infrastructure/exchange"
)

func init() {
	exchange.Register(Name, Open)
}

// Open Kraken 只接入行情，不提供下单
func Open(ctx context.Context, p exchange.Params) (*exchange.Venue, error) {
	return &exchange.Venue{Name: Name, Source: NewTickerClient(p.Config.RestURL, p.Timeout)}, nil
}
