package port

import (
	"context"

	"github.com/shopspring/decimal"

	"spotarb/internal/domain/model"
)

// OrderGateway 下单通道。签名/鉴权完全在实现内部，调用方只看 OrderResult
type OrderGateway interface {
	Name() string
	PlaceOrder(ctx context.Context, symbol string, side model.Side, quantity decimal.Decimal) model.OrderResult
}

// BalanceProvider 账户余额查询（/balance 命令）
type BalanceProvider interface {
	Balance(ctx context.Context, asset string) (decimal.Decimal, error)
}
