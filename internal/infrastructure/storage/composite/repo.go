package composite

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"spotarb/internal/application/port"
	"spotarb/internal/domain/model"
)

// Repo 把流水写入扇出到所有启用的 journal，返回第一个错误。
// 没有任何 journal 时等价于 noop。
type Repo struct {
	repos []port.TradeJournal
}

func New(repos ...port.TradeJournal) *Repo {
	out := make([]port.TradeJournal, 0, len(repos))
	for _, r := range repos {
		if r != nil {
			out = append(out, r)
		}
	}
	return &Repo{repos: out}
}

func (r *Repo) Len() int { return len(r.repos) }

func (r *Repo) each(fn func(port.TradeJournal) error) error {
	var firstErr error
	for _, repo := range r.repos {
		if err := fn(repo); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Repo) RecordPrices(ctx context.Context, symbol string, prices map[string]decimal.Decimal, ts time.Time) error {
	return r.each(func(j port.TradeJournal) error { return j.RecordPrices(ctx, symbol, prices, ts) })
}

func (r *Repo) RecordSignal(ctx context.Context, sig model.Signal) error {
	return r.each(func(j port.TradeJournal) error { return j.RecordSignal(ctx, sig) })
}

func (r *Repo) RecordOpen(ctx context.Context, pos model.Position) error {
	return r.each(func(j port.TradeJournal) error { return j.RecordOpen(ctx, pos) })
}

func (r *Repo) RecordClose(ctx context.Context, out model.TradeOutcome) error {
	return r.each(func(j port.TradeJournal) error { return j.RecordClose(ctx, out) })
}

func (r *Repo) RecordReport(ctx context.Context, rep model.Report) error {
	return r.each(func(j port.TradeJournal) error { return j.RecordReport(ctx, rep) })
}

// Close 关闭全部 journal，错误合并返回
func (r *Repo) Close() error {
	var errs []error
	for _, repo := range r.repos {
		if err := repo.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ port.TradeJournal = (*Repo)(nil)
