package bitget

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"spotarb/internal/application/port"
	"spotarb/internal/infrastructure/exchange"
)

const (
	Name           = "bitget"
	defaultRestURL = "https://api.bitget.com"
	codeOK         = "00000"
)

var symbolConverter exchange.SymbolConverter = exchange.NewCommonSymbolConverter("", nil)

// TickerClient GET /api/v2/spot/market/tickers?symbol=BTCUSDT
type TickerClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ port.PriceSource = (*TickerClient)(nil)

func NewTickerClient(baseURL string, timeout time.Duration) *TickerClient {
	if baseURL == "" {
		baseURL = defaultRestURL
	}
	return &TickerClient{baseURL: baseURL, httpClient: exchange.NewHTTPClient(timeout)}
}

type tickersResp struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data []struct {
		Symbol string `json:"symbol"`
		LastPr string `json:"lastPr"`
	} `json:"data"`
}

func (c *TickerClient) Name() string { return Name }

func (c *TickerClient) LastPrice(ctx context.Context, symbol string) (decimal.Decimal, bool) {
	venueSym := symbolConverter.VenueSymbol(symbol)
	endpoint, err := exchange.BuildQueryURL(c.baseURL, "/api/v2/spot/market/tickers", url.Values{"symbol": {venueSym}})
	if err != nil {
		log.Warn().Err(err).Str("exchange", Name).Msg("build ticker url failed")
		return decimal.Zero, false
	}

	var resp tickersResp
	if err := exchange.GetJSON(ctx, c.httpClient, endpoint, &resp); err != nil {
		log.Warn().Err(err).Str("exchange", Name).Str("symbol", symbol).Msg("ticker request failed")
		return decimal.Zero, false
	}
	if resp.Code != codeOK {
		log.Warn().Str("code", resp.Code).Str("msg", resp.Msg).Str("symbol", symbol).Msg("bitget ticker rejected")
		return decimal.Zero, false
	}
	for _, it := range resp.Data {
		if it.Symbol == venueSym {
			return exchange.ParsePrice(it.LastPr)
		}
	}
	return decimal.Zero, false
}
