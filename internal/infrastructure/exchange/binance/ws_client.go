package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"spotarb/internal/application/port"
	"spotarb/internal/infrastructure/exchange"
)

type cachedPrice struct {
	price decimal.Decimal
	at    time.Time
}

// StreamSource 订阅 <symbol>@miniTicker 组合流并缓存最新价。
// 缓存超过 maxAge 或还没有数据时回退到 REST。
type StreamSource struct {
	wsURL    string
	symbols  []string
	maxAge   time.Duration
	fallback port.PriceSource

	mu   sync.RWMutex
	last map[string]cachedPrice
	now  func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

var _ port.PriceSource = (*StreamSource)(nil)

func NewStreamSource(wsURL string, symbols []string, maxAge time.Duration, fallback port.PriceSource) *StreamSource {
	if maxAge <= 0 {
		maxAge = 30 * time.Second
	}
	return &StreamSource{
		wsURL:    strings.TrimSpace(wsURL),
		symbols:  symbols,
		maxAge:   maxAge,
		fallback: fallback,
		last:     make(map[string]cachedPrice),
		now:      time.Now,
	}
}

func (s *StreamSource) Name() string { return Name }

type binanceCombined struct {
	Stream string         `json:"stream"`
	Data   binanceMiniMsg `json:"data"`
}

type binanceMiniMsg struct {
	Symbol string `json:"s"`
	Close  string `json:"c"`
}

// Start 后台维持连接，断线指数退避重连
func (s *StreamSource) Start(ctx context.Context) error {
	wsURL, err := buildCombinedURL(s.wsURL, s.symbols)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(ctx, wsURL)
	return nil
}

func (s *StreamSource) Close() error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	<-s.done
	return nil
}

func (s *StreamSource) LastPrice(ctx context.Context, symbol string) (decimal.Decimal, bool) {
	sym := symbolConverter.VenueSymbol(symbol)
	s.mu.RLock()
	c, ok := s.last[sym]
	s.mu.RUnlock()
	if ok && s.now().Sub(c.at) <= s.maxAge {
		return c.price, true
	}
	if s.fallback != nil {
		log.Debug().Str("exchange", Name).Str("symbol", symbol).Msg("stream price stale, using rest")
		return s.fallback.LastPrice(ctx, symbol)
	}
	return decimal.Zero, false
}

func buildCombinedURL(base string, symbols []string) (string, error) {
	if base == "" {
		return "", errors.New("binance ws_url empty")
	}

	streams := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToLower(symbolConverter.VenueSymbol(s))
		if s == "" {
			continue
		}
		streams = append(streams, fmt.Sprintf("%s@miniTicker", s))
	}
	if len(streams) == 0 {
		return "", errors.New("no valid symbols")
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	u.Path = "/stream"
	u.RawQuery = "streams=" + strings.Join(streams, "/")
	return u.String(), nil
}

func (s *StreamSource) apply(b []byte) {
	var msg binanceCombined
	if err := json.Unmarshal(b, &msg); err != nil {
		log.Error().Str("exchange", Name).Err(err).Msg("json unmarshal failed")
		return
	}
	sym := strings.ToUpper(strings.TrimSpace(msg.Data.Symbol))
	px, ok := exchange.ParsePrice(msg.Data.Close)
	if sym == "" || !ok {
		return
	}
	s.mu.Lock()
	s.last[sym] = cachedPrice{price: px, at: s.now()}
	s.mu.Unlock()
}

func (s *StreamSource) run(ctx context.Context, wsURL string) {
	defer close(s.done)

	backoff := 500 * time.Millisecond
	maxBackoff := 10 * time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		log.Info().Str("exchange", Name).Str("url", wsURL).Msg("ws connecting")
		cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		conn, _, err := websocket.DefaultDialer.DialContext(cctx, wsURL, nil)
		cancel()
		if err != nil {
			log.Error().Str("exchange", Name).Err(err).Msg("ws dial failed")
			if !sleepCtx(ctx, backoff) {
				return
			}
			backoff = exchange.MinDuration(backoff*2, maxBackoff)
			continue
		}

		backoff = 500 * time.Millisecond
		log.Info().Str("exchange", Name).Msg("ws connected")

		err = exchange.ReadLoop(ctx, conn, s.apply)
		_ = conn.Close()

		if ctx.Err() != nil {
			return
		}

		log.Warn().Str("exchange", Name).Err(err).Msg("ws disconnected, reconnecting")
		if !sleepCtx(ctx, backoff) {
			return
		}
		backoff = exchange.MinDuration(backoff*2, maxBackoff)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
