package bybit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
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

// StreamSource 订阅现货 tickers.<SYMBOL> 并缓存最新价，过期回退 REST
type StreamSource struct {
	wsURL    string // e.g. wss://stream.bybit.com/v5/public/spot
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

type bybitSubReq struct {
	Op   string   `json:"op"`
	Args []string `json:"args"`
}

type bybitTickerItem struct {
	Symbol    string `json:"symbol"`
	LastPrice string `json:"lastPrice"`
}

// data can be object OR array
type bybitDataList []bybitTickerItem

func (d *bybitDataList) UnmarshalJSON(b []byte) error {
	b = []byte(strings.TrimSpace(string(b)))
	if len(b) == 0 || string(b) == "null" {
		*d = nil
		return nil
	}
	switch b[0] {
	case '[':
		var arr []bybitTickerItem
		if err := json.Unmarshal(b, &arr); err != nil {
			return err
		}
		*d = arr
		return nil
	case '{':
		var one bybitTickerItem
		if err := json.Unmarshal(b, &one); err != nil {
			return err
		}
		*d = bybitDataList{one}
		return nil
	default:
		return fmt.Errorf("unexpected data json: %s", exchange.Truncate(string(b), 64))
	}
}

type bybitTickerMsg struct {
	Topic string        `json:"topic"`
	Type  string        `json:"type"`
	Ts    int64         `json:"ts"`
	Data  bybitDataList `json:"data"`

	Success *bool  `json:"success,omitempty"`
	RetMsg  string `json:"ret_msg,omitempty"`
	Op      string `json:"op,omitempty"`
}

func topicsFor(symbols []string) []string {
	topics := make([]string, 0, len(symbols))
	for _, s := range symbols {
		sym := strings.ToUpper(symbolConverter.VenueSymbol(strings.TrimSpace(s)))
		if sym == "" {
			continue
		}
		topics = append(topics, "tickers."+sym)
	}
	return topics
}

func (s *StreamSource) Start(ctx context.Context) error {
	if s.wsURL == "" {
		return errors.New("bybit ws_url empty")
	}
	topics := topicsFor(s.symbols)
	if len(topics) == 0 {
		return errors.New("no valid symbols for bybit topics")
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(ctx, topics)
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

func (s *StreamSource) apply(b []byte) {
	var msg bybitTickerMsg
	if err := json.Unmarshal(b, &msg); err != nil {
		log.Error().Str("exchange", Name).Err(err).Msg("json unmarshal failed")
		return
	}

	// ack
	if msg.Success != nil {
		if !*msg.Success {
			log.Error().Str("exchange", Name).Str("ret_msg", msg.RetMsg).Msg("subscribe not success")
		}
		return
	}

	for _, d := range msg.Data {
		sym := strings.ToUpper(strings.TrimSpace(d.Symbol))
		px, ok := exchange.ParsePrice(d.LastPrice)
		if sym == "" || !ok {
			continue
		}
		s.mu.Lock()
		s.last[sym] = cachedPrice{price: px, at: s.now()}
		s.mu.Unlock()
	}
}

func (s *StreamSource) run(ctx context.Context, topics []string) {
	defer close(s.done)

	backoff := 500 * time.Millisecond
	maxBackoff := 10 * time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		log.Info().Str("exchange", Name).Str("url", s.wsURL).Msg("ws connecting")
		cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		conn, _, err := websocket.DefaultDialer.DialContext(cctx, s.wsURL, nil)
		cancel()
		if err != nil {
			log.Error().Str("exchange", Name).Err(err).Msg("ws dial failed")
			if !sleepCtx(ctx, backoff) {
				return
			}
			backoff = exchange.MinDuration(backoff*2, maxBackoff)
			continue
		}

		// subscribe
		if err := conn.WriteJSON(bybitSubReq{Op: "subscribe", Args: topics}); err != nil {
			_ = conn.Close()
			log.Error().Str("exchange", Name).Err(err).Msg("subscribe failed")
			if !sleepCtx(ctx, backoff) {
				return
			}
			backoff = exchange.MinDuration(backoff*2, maxBackoff)
			continue
		}

		backoff = 500 * time.Millisecond
		log.Info().Str("exchange", Name).Int("topics", len(topics)).Msg("ws connected & subscribed")

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
