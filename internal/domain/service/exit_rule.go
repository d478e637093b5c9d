package service

import (
	"github.com/shopspring/decimal"

	"spotarb/internal/domain/model"
)

// DefaultQuantityPrecision 下单数量保留的小数位
const DefaultQuantityPrecision int32 = 5

// Quantity orderSize/buyPrice rounded half-up to precision places.
func Quantity(orderSize, buyPrice decimal.Decimal, precision int32) decimal.Decimal {
	if !buyPrice.IsPositive() {
		return decimal.Zero
	}
	return orderSize.Div(buyPrice).Round(precision)
}

// ExitRule 止盈/止损规则，阈值均为相对入场价的比例（止损为负数）
type ExitRule struct {
	TakeProfit decimal.Decimal
	StopLoss   decimal.Decimal
}

// Change (current-entry)/entry
func Change(entry, current decimal.Decimal) decimal.Decimal {
	return current.Sub(entry).Div(entry)
}

// Evaluate 判断持仓是否需要平仓。两个阈值都是闭区间
func (r ExitRule) Evaluate(pos model.Position, current decimal.Decimal) (change decimal.Decimal, reason model.CloseReason, hit bool) {
	change = Change(pos.EntryPrice, current)
	switch {
	case change.GreaterThanOrEqual(r.TakeProfit):
		return change, model.CloseTakeProfit, true
	case change.LessThanOrEqual(r.StopLoss):
		return change, model.CloseStopLoss, true
	default:
		return change, "", false
	}
}

// Profit realized pnl booked on close: (exit-entry)*qty.
func Profit(pos model.Position, exit decimal.Decimal) decimal.Decimal {
	return exit.Sub(pos.EntryPrice).Mul(pos.Quantity)
}
