package service

import (
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"spotarb/internal/domain/model"
)

var (
	// ErrInsufficientData 少于两个交易所报价，无法计算价差
	ErrInsufficientData = errors.New("insufficient price data")
	// ErrNoSignal 价差低于阈值
	ErrNoSignal = errors.New("spread below threshold")
)

// Spread (max-min)/min. min must be positive.
func Spread(min, max decimal.Decimal) decimal.Decimal {
	return max.Sub(min).Div(min)
}

// EvaluateSpread 计算最低价/最高价交易所以及相对价差。
// 价格相同时按交易所名字典序取最小者，保证结果可复现。
// 所有报价相同时卖出方取字典序第二的交易所，买卖两边始终不同。
func EvaluateSpread(symbol string, prices map[string]decimal.Decimal, threshold decimal.Decimal, now time.Time) (model.Signal, error) {
	sources := make([]string, 0, len(prices))
	for src, px := range prices {
		if !px.IsPositive() {
			continue
		}
		sources = append(sources, src)
	}
	if len(sources) < 2 {
		return model.Signal{}, ErrInsufficientData
	}
	sort.Strings(sources)

	buy, sell := sources[0], sources[0]
	for _, src := range sources[1:] {
		if prices[src].LessThan(prices[buy]) {
			buy = src
		}
		if prices[src].GreaterThan(prices[sell]) {
			sell = src
		}
	}
	if buy == sell {
		sell = sources[1]
	}

	sig := model.Signal{
		Symbol:     symbol,
		BuySource:  buy,
		SellSource: sell,
		BuyPrice:   prices[buy],
		SellPrice:  prices[sell],
		Spread:     Spread(prices[buy], prices[sell]),
		DetectedAt: now,
	}
	if sig.Spread.LessThan(threshold) {
		return sig, ErrNoSignal
	}
	return sig, nil
}
