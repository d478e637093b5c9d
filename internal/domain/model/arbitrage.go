package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote 单个交易所的最新成交价，只在一个周期内有效，不落盘
type Quote struct {
	Source string          `json:"source"`
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
}

// Signal 跨交易所价差信号：在 BuySource 买入，在 SellSource 卖出
type Signal struct {
	Symbol     string          `json:"symbol"`
	BuySource  string          `json:"buy_source"`
	SellSource string          `json:"sell_source"`
	BuyPrice   decimal.Decimal `json:"buy_price"`
	SellPrice  decimal.Decimal `json:"sell_price"`
	Spread     decimal.Decimal `json:"spread"` // (sell-buy)/buy
	DetectedAt time.Time       `json:"detected_at"`
}

// Side 订单方向
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderResult 下单结果。失败不会回滚账本，只作为独立信号暴露
type OrderResult struct {
	Venue   string          `json:"venue"`
	Symbol  string          `json:"symbol"`
	Side    Side            `json:"side"`
	Qty     decimal.Decimal `json:"qty"`
	Success bool            `json:"success"`
	OrderID string          `json:"order_id,omitempty"`
	Details string          `json:"details,omitempty"`
}

// CloseReason 平仓原因
type CloseReason string

const (
	CloseTakeProfit CloseReason = "take_profit"
	CloseStopLoss   CloseReason = "stop_loss"
)

// TradeOutcome 一笔已平仓交易的结果
type TradeOutcome struct {
	Position  Position        `json:"position"`
	ExitPrice decimal.Decimal `json:"exit_price"`
	Change    decimal.Decimal `json:"change"` // (exit-entry)/entry
	Profit    decimal.Decimal `json:"profit"` // (exit-entry)*qty
	Reason    CloseReason     `json:"reason"`
	ClosedAt  time.Time       `json:"closed_at"`
}
