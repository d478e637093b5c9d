package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"spotarb/internal/application/port"
	"spotarb/internal/domain/model"
)

// Repo 在 Redis 里维护一份实时视图：最新价格、当前持仓、最近成交、最近日报
type Repo struct {
	rdb          *redis.Client
	prefix       string
	ttl          time.Duration
	keyLatest    string // prefix + ":latest"
	keyPositions string // prefix + ":positions"
	keyTrades    string // prefix + ":trades"
	keyReport    string // prefix + ":report:latest"
	maxTrades    int64
}

type LatestPrice struct {
	Exchange string `json:"exchange"`
	Symbol   string `json:"symbol"`
	Price    string `json:"price"`
	Ts       int64  `json:"ts"`
}

func New(rdb *redis.Client, prefix string, ttl time.Duration) *Repo {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "spotarb"
	}
	return &Repo{
		rdb:          rdb,
		prefix:       prefix,
		ttl:          ttl,
		keyLatest:    prefix + ":latest",
		keyPositions: prefix + ":positions",
		keyTrades:    prefix + ":trades",
		keyReport:    prefix + ":report:latest",
		maxTrades:    500,
	}
}

// Close 连接由 ServiceContext 统一关闭
func (r *Repo) Close() error { return nil }

// priceField Hash field: "binance:BTCUSDT"
func priceField(venue, symbol string) string {
	return fmt.Sprintf("%s:%s", venue, symbol)
}

func (r *Repo) RecordPrices(ctx context.Context, symbol string, prices map[string]decimal.Decimal, ts time.Time) error {
	if len(prices) == 0 {
		return nil
	}
	pipe := r.rdb.Pipeline()
	for venue, px := range prices {
		if !px.IsPositive() {
			continue
		}
		b, _ := json.Marshal(LatestPrice{Exchange: venue, Symbol: symbol, Price: px.String(), Ts: ts.UnixMilli()})
		pipe.HSet(ctx, r.keyLatest, priceField(venue, symbol), string(b))
	}
	if r.ttl > 0 {
		pipe.Expire(ctx, r.keyLatest, r.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// RecordSignal 信号通过 Publisher 推送，这里不重复写
func (r *Repo) RecordSignal(ctx context.Context, sig model.Signal) error { return nil }

func (r *Repo) RecordOpen(ctx context.Context, pos model.Position) error {
	b, err := json.Marshal(pos)
	if err != nil {
		return err
	}
	return r.rdb.HSet(ctx, r.keyPositions, pos.Symbol, string(b)).Err()
}

func (r *Repo) RecordClose(ctx context.Context, out model.TradeOutcome) error {
	b, err := json.Marshal(out)
	if err != nil {
		return err
	}
	pipe := r.rdb.TxPipeline()
	pipe.HDel(ctx, r.keyPositions, out.Position.Symbol)
	pipe.LPush(ctx, r.keyTrades, string(b))
	pipe.LTrim(ctx, r.keyTrades, 0, r.maxTrades-1)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *Repo) RecordReport(ctx context.Context, rep model.Report) error {
	b, err := json.Marshal(rep)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, r.keyReport, string(b), 0).Err()
}

var _ port.TradeJournal = (*Repo)(nil)
