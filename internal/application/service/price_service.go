package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"spotarb/internal/application/port"
)

// PriceService 价格聚合器：并发查询所有交易所，丢弃不可用的报价
type PriceService struct {
	sources []port.PriceSource
	timeout time.Duration
}

func NewPriceService(sources []port.PriceSource, timeout time.Duration) *PriceService {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &PriceService{sources: sources, timeout: timeout}
}

// Sources 按注册顺序返回交易所名
func (s *PriceService) Sources() []string {
	names := make([]string, 0, len(s.sources))
	for _, src := range s.sources {
		names = append(names, src.Name())
	}
	return names
}

// Aggregate 返回 source -> price，只包含可用的正价格。所有交易所都失败时返回空 map。
// 每个交易所单独限时，一个慢交易所不会拖住整个周期。
func (s *PriceService) Aggregate(ctx context.Context, symbol string) map[string]decimal.Decimal {
	var (
		mu  sync.Mutex
		out = make(map[string]decimal.Decimal, len(s.sources))
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, src := range s.sources {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(gctx, s.timeout)
			defer cancel()

			px, ok := src.LastPrice(cctx, symbol)
			if !ok || !px.IsPositive() {
				log.Warn().Str("source", src.Name()).Str("symbol", symbol).Msg("price source unavailable")
				return nil
			}

			mu.Lock()
			out[src.Name()] = px
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return out
}
