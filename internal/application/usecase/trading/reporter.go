package trading

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"spotarb/internal/application/port"
	"spotarb/internal/application/service"
	"spotarb/internal/domain/model"
)

type ReporterDeps struct {
	Stats    *service.StatsService
	Journal  port.TradeJournal
	Archiver port.ReportArchiver
	Notifier port.Notifier

	Hour     int
	Minute   int
	Location *time.Location
	Capital  decimal.Decimal

	Now func() time.Time
}

// Reporter 报告周期定时器：到点生成日报并重置统计
type Reporter struct {
	deps ReporterDeps
}

func NewReporter(deps ReporterDeps) *Reporter {
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if !deps.Capital.IsPositive() {
		deps.Capital = decimal.NewFromInt(100)
	}
	return &Reporter{deps: deps}
}

// nextReport 下一个严格晚于 now 的 hour:minute（loc 时区）
func nextReport(now time.Time, hour, minute int, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, hour, minute, 0, 0, loc)
	}
	return next
}

// ROI 利润占本金的百分比，无交易时为 0
func ROI(trades int64, profit, capital decimal.Decimal) decimal.Decimal {
	if trades == 0 || !capital.IsPositive() {
		return decimal.Zero
	}
	return profit.Div(capital).Mul(decimal.NewFromInt(100))
}

func (r *Reporter) Run(ctx context.Context) error {
	for {
		now := r.deps.Now()
		next := nextReport(now, r.deps.Hour, r.deps.Minute, r.deps.Location)
		log.Info().Time("next", next).Msg("daily report scheduled")

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
			r.Report(context.WithoutCancel(ctx), next)
		}
	}
}

// Report 关闭当前报告周期：取出统计并重置，然后分发日报
func (r *Reporter) Report(ctx context.Context, at time.Time) model.Report {
	closed := r.deps.Stats.Reset(at)
	rep := model.Report{
		PeriodStart: closed.PeriodStart,
		PeriodEnd:   at,
		Trades:      closed.Trades,
		Profit:      closed.Profit,
		ROI:         ROI(closed.Trades, closed.Profit, r.deps.Capital),
	}
	if err := r.deps.Stats.Persist(ctx); err != nil {
		// 下一次交易周期会重试
		log.Error().Err(err).Msg("persist reset stats failed")
	}

	log.Info().
		Int64("trades", rep.Trades).
		Str("profit", rep.Profit.StringFixed(2)).
		Str("roi", rep.ROI.StringFixed(2)).
		Msg("daily report")

	if r.deps.Journal != nil {
		if err := r.deps.Journal.RecordReport(ctx, rep); err != nil {
			log.Warn().Err(err).Msg("journal report failed")
		}
	}
	if r.deps.Archiver != nil {
		if err := r.deps.Archiver.ArchiveReport(ctx, rep); err != nil {
			log.Warn().Err(err).Msg("archive report failed")
		}
	}
	if r.deps.Notifier != nil {
		ev := model.NewEvent(model.EventDailyReport, "", at)
		ev.Report = &rep
		if err := r.deps.Notifier.Notify(ctx, ev); err != nil {
			log.Warn().Err(err).Msg("notify report failed")
		}
	}
	return rep
}
