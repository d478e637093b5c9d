package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Statistics 报告周期内的累计交易统计
type Statistics struct {
	Trades      int64           `json:"trades"`
	Profit      decimal.Decimal `json:"profit"`
	PeriodStart time.Time       `json:"period_start"`
}

func (s Statistics) Equal(o Statistics) bool {
	return s.Trades == o.Trades && s.Profit.Equal(o.Profit) && s.PeriodStart.Equal(o.PeriodStart)
}

// Report 日报
type Report struct {
	PeriodStart time.Time       `json:"period_start"`
	PeriodEnd   time.Time       `json:"period_end"`
	Trades      int64           `json:"trades"`
	Profit      decimal.Decimal `json:"profit"`
	ROI         decimal.Decimal `json:"roi"` // percent of configured capital
}
