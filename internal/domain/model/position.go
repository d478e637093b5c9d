package model

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Position 现货持仓。开仓后不可变，平仓即从账本移除
type Position struct {
	ID          string          `json:"id"`
	Symbol      string          `json:"symbol"`
	EntryPrice  decimal.Decimal `json:"entry_price"`
	Quantity    decimal.Decimal `json:"quantity"`
	BuySource   string          `json:"buy_source"`
	SellSource  string          `json:"sell_source"`
	EntrySpread decimal.Decimal `json:"entry_spread"`
	OpenedAt    time.Time       `json:"opened_at"`
}

// Valid reports whether p can live in a snapshot.
func (p Position) Valid() bool {
	return p.Symbol != "" &&
		p.BuySource != "" &&
		p.SellSource != "" &&
		p.EntryPrice.IsPositive() &&
		p.Quantity.IsPositive()
}

// Equal compares field by field; decimals by value and times by instant.
func (p Position) Equal(o Position) bool {
	return p.ID == o.ID &&
		p.Symbol == o.Symbol &&
		p.EntryPrice.Equal(o.EntryPrice) &&
		p.Quantity.Equal(o.Quantity) &&
		p.BuySource == o.BuySource &&
		p.SellSource == o.SellSource &&
		p.EntrySpread.Equal(o.EntrySpread) &&
		p.OpenedAt.Equal(o.OpenedAt)
}

// Snapshot symbol -> 持仓。map key 保证每个 symbol 至多一个持仓
type Snapshot map[string]Position

// Clone returns an independent copy; a nil snapshot clones to an empty one.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// ErrInvalidPosition 快照里的记录不完整，或 map key 与 Symbol 不一致
var ErrInvalidPosition = errors.New("invalid position")

// Check 校验每条记录，返回第一条不合法的（按 symbol 排序）
func (s Snapshot) Check() error {
	for _, k := range s.Symbols() {
		p := s[k]
		if p.Symbol != k {
			return fmt.Errorf("%w: key %q holds symbol %q", ErrInvalidPosition, k, p.Symbol)
		}
		if !p.Valid() {
			return fmt.Errorf("%w: %s", ErrInvalidPosition, k)
		}
	}
	return nil
}

// Symbols returns the held symbols in sorted order.
func (s Snapshot) Symbols() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (s Snapshot) Equal(o Snapshot) bool {
	if len(s) != len(o) {
		return false
	}
	for k, v := range s {
		w, ok := o[k]
		if !ok || !v.Equal(w) {
			return false
		}
	}
	return true
}
