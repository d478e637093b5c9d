package okx

import (
	"context"
	"errors"

	"spotarb/internal/infrastructure/exchange"
)

func init() {
	exchange.Register(Name, Open)
}

func Open(ctx context.Context, p exchange.Params) (*exchange.Venue, error) {
	cfg := p.Config
	client := NewAPIClient(cfg.APIKey, cfg.APISecret, cfg.Passphrase, cfg.RestURL, p.Timeout)
	mgr := NewSpotManager(client)

	v := &exchange.Venue{Name: Name, Source: mgr.Ticker}
	if !cfg.PriceOnly && cfg.APIKey != "" {
		if cfg.Passphrase == "" {
			return nil, errors.New("okx passphrase required for trading")
		}
		v.Gateway = mgr.Order
		v.Balance = mgr.Account
	}
	return v, nil
}
