package binance

import (
	"context"
	"net/url"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"spotarb/internal/application/port"
	"spotarb/internal/infrastructure/exchange"
)

var symbolConverter exchange.SymbolConverter = exchange.NewCommonSymbolConverter("", nil)

// TickerClient 现货最新成交价（GET /api/v3/ticker/price）
type TickerClient struct {
	*APIClient
}

var _ port.PriceSource = (*TickerClient)(nil)

func NewTickerClient(client *APIClient) *TickerClient {
	return &TickerClient{APIClient: client}
}

type tickerPriceResp struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

func (c *TickerClient) Name() string { return Name }

func (c *TickerClient) LastPrice(ctx context.Context, symbol string) (decimal.Decimal, bool) {
	endpoint, err := exchange.BuildQueryURL(c.baseURL, "/api/v3/ticker/price",
		url.Values{"symbol": {symbolConverter.VenueSymbol(symbol)}})
	if err != nil {
		log.Warn().Err(err).Str("exchange", Name).Msg("build ticker url failed")
		return decimal.Zero, false
	}

	var resp tickerPriceResp
	if err := exchange.GetJSON(ctx, c.httpClient, endpoint, &resp); err != nil {
		log.Warn().Err(err).Str("exchange", Name).Str("symbol", symbol).Msg("ticker request failed")
		return decimal.Zero, false
	}
	return exchange.ParsePrice(resp.Price)
}
