package port

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"spotarb/internal/domain/model"
)

// ErrCorruptSnapshot 持久化数据无法解析，不能当作"无持仓"处理
var ErrCorruptSnapshot = errors.New("corrupt snapshot")

// PositionStore 持仓账本的持久化。Save 必须是原子的：下次 Load 要么看到旧快照要么看到新快照。
// 存储不存在时 Load 返回空快照而不是错误。
type PositionStore interface {
	Load(ctx context.Context) (model.Snapshot, error)
	Save(ctx context.Context, snap model.Snapshot) error
}

// StatsStore 统计数据的持久化，与持仓独立读写
type StatsStore interface {
	LoadStats(ctx context.Context) (model.Statistics, error)
	SaveStats(ctx context.Context, stats model.Statistics) error
}

// TradeJournal 只追加的审计流水，不是系统的事实来源；写失败只记录日志
type TradeJournal interface {
	RecordPrices(ctx context.Context, symbol string, prices map[string]decimal.Decimal, ts time.Time) error
	RecordSignal(ctx context.Context, sig model.Signal) error
	RecordOpen(ctx context.Context, pos model.Position) error
	RecordClose(ctx context.Context, out model.TradeOutcome) error
	RecordReport(ctx context.Context, rep model.Report) error
	Close() error
}

// ReportArchiver 日报归档（对象存储）
type ReportArchiver interface {
	ArchiveReport(ctx context.Context, rep model.Report) error
}
