package bybit

import (
	"context"
	"net/url"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"spotarb/internal/application/port"
	"spotarb/internal/infrastructure/exchange"
)

var symbolConverter exchange.SymbolConverter = exchange.NewCommonSymbolConverter("", nil)

// TickerClient GET /v5/market/tickers?category=spot
type TickerClient struct {
	*APIClient
}

var _ port.PriceSource = (*TickerClient)(nil)

func NewTickerClient(client *APIClient) *TickerClient {
	return &TickerClient{APIClient: client}
}

type tickersResp struct {
	v5Envelope
	Result struct {
		Category string `json:"category"`
		List     []struct {
			Symbol    string `json:"symbol"`
			LastPrice string `json:"lastPrice"`
		} `json:"list"`
	} `json:"result"`
}

func (c *TickerClient) Name() string { return Name }

func (c *TickerClient) LastPrice(ctx context.Context, symbol string) (decimal.Decimal, bool) {
	venueSym := symbolConverter.VenueSymbol(symbol)
	endpoint, err := exchange.BuildQueryURL(c.baseURL, "/v5/market/tickers",
		url.Values{"category": {"spot"}, "symbol": {venueSym}})
	if err != nil {
		log.Warn().Err(err).Str("exchange", Name).Msg("build ticker url failed")
		return decimal.Zero, false
	}

	var resp tickersResp
	if err := exchange.GetJSON(ctx, c.httpClient, endpoint, &resp); err != nil {
		log.Warn().Err(err).Str("exchange", Name).Str("symbol", symbol).Msg("ticker request failed")
		return decimal.Zero, false
	}
	if resp.RetCode != 0 {
		log.Warn().Int("ret_code", resp.RetCode).Str("ret_msg", resp.RetMsg).Str("symbol", symbol).Msg("bybit ticker rejected")
		return decimal.Zero, false
	}
	for _, it := range resp.Result.List {
		if it.Symbol == venueSym {
			return exchange.ParsePrice(it.LastPrice)
		}
	}
	return decimal.Zero, false
}
