package kraken

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"spotarb/internal/application/port"
	"spotarb/internal/infrastructure/exchange"
)

const (
	Name           = "kraken"
	defaultRestURL = "https://api.kraken.com"
)

// Kraken 用 XBT 表示 BTC
var symbolConverter exchange.SymbolConverter = exchange.NewCommonSymbolConverter("", map[string]string{"BTC": "XBT"})

// TickerClient GET /0/public/Ticker?pair=XBTUSDT，只做价格源
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

// result 的 key 是 Kraken 内部交易对名（可能与请求的 pair 不同，例如 XXBTZUSD），
// c[0] 为最新成交价
type tickerResp struct {
	Error  []string `json:"error"`
	Result map[string]struct {
		C []string `json:"c"`
	} `json:"result"`
}

func (c *TickerClient) Name() string { return Name }

func (c *TickerClient) LastPrice(ctx context.Context, symbol string) (decimal.Decimal, bool) {
	pair := symbolConverter.VenueSymbol(symbol)
	endpoint, err := exchange.BuildQueryURL(c.baseURL, "/0/public/Ticker", url.Values{"pair": {pair}})
	if err != nil {
		log.Warn().Err(err).Str("exchange", Name).Msg("build ticker url failed")
		return decimal.Zero, false
	}

	var resp tickerResp
	if err := exchange.GetJSON(ctx, c.httpClient, endpoint, &resp); err != nil {
		log.Warn().Err(err).Str("exchange", Name).Str("symbol", symbol).Msg("ticker request failed")
		return decimal.Zero, false
	}
	if len(resp.Error) > 0 {
		log.Warn().Str("error", strings.Join(resp.Error, "; ")).Str("symbol", symbol).Msg("kraken ticker rejected")
		return decimal.Zero, false
	}

	// 单交易对请求只会有一个结果；优先精确匹配
	if t, ok := resp.Result[pair]; ok && len(t.C) > 0 {
		return exchange.ParsePrice(t.C[0])
	}
	for _, t := range resp.Result {
		if len(t.C) > 0 {
			return exchange.ParsePrice(t.C[0])
		}
	}
	return decimal.Zero, false
}
