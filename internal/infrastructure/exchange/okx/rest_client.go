package okx

import (
	"context"
	"net/url"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"spotarb/internal/application/port"
	"spotarb/internal/infrastructure/exchange"
)

// OKX 现货 instId 形如 BTC-USDT
var symbolConverter exchange.SymbolConverter = exchange.NewCommonSymbolConverter("-", nil)

// TickerClient GET /api/v5/market/ticker?instId=BTC-USDT
type TickerClient struct {
	*APIClient
}

var _ port.PriceSource = (*TickerClient)(nil)

func NewTickerClient(client *APIClient) *TickerClient {
	return &TickerClient{APIClient: client}
}

type tickerResp struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data []struct {
		InstID string `json:"instId"`
		Last   string `json:"last"`
	} `json:"data"`
}

func (c *TickerClient) Name() string { return Name }

func (c *TickerClient) LastPrice(ctx context.Context, symbol string) (decimal.Decimal, bool) {
	endpoint, err := exchange.BuildQueryURL(c.baseURL, "/api/v5/market/ticker",
		url.Values{"instId": {symbolConverter.VenueSymbol(symbol)}})
	if err != nil {
		log.Warn().Err(err).Str("exchange", Name).Msg("build ticker url failed")
		return decimal.Zero, false
	}

	var resp tickerResp
	if err := exchange.GetJSON(ctx, c.httpClient, endpoint, &resp); err != nil {
		log.Warn().Err(err).Str("exchange", Name).Str("symbol", symbol).Msg("ticker request failed")
		return decimal.Zero, false
	}
	if resp.Code != "0" || len(resp.Data) == 0 {
		log.Warn().Str("code", resp.Code).Str("msg", resp.Msg).Str("symbol", symbol).Msg("okx ticker rejected")
		return decimal.Zero, false
	}
	return exchange.ParsePrice(resp.Data[0].Last)
}
