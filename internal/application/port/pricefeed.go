package port

import (
	"context"

	"github.com/shopspring/decimal"
)

// PriceSource 单个交易所的价格适配器。
// 任何传输或解析失败都返回 ok=false，不会返回零价格或 panic。
// symbol 使用统一格式（BTCUSDT），交易所差异由适配器内部处理。
type PriceSource interface {
	Name() string
	LastPrice(ctx context.Context, symbol string) (price decimal.Decimal, ok bool)
}
