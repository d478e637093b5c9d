package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"spotarb/internal/application/port"
	"spotarb/internal/domain/model"
)

// StatsService 统计累加器。交易周期调用 Record，报告定时器调用 Reset，
// 两者在不同 goroutine，所有访问都经过 mu。
type StatsService struct {
	mu    sync.Mutex
	store port.StatsStore
	stats model.Statistics
	dirty bool
}

func NewStatsService(store port.StatsStore) *StatsService {
	return &StatsService{
		store: store,
		stats: model.Statistics{Profit: decimal.Zero, PeriodStart: time.Now().UTC()},
	}
}

// Restore 从存储恢复上一次持久化的统计
func (s *StatsService) Restore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	st, err := s.store.LoadStats(ctx)
	if err != nil {
		return fmt.Errorf("load stats: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if st.PeriodStart.IsZero() {
		st.PeriodStart = s.stats.PeriodStart
	}
	s.stats = st
	s.dirty = false
	return nil
}

// Record 累计一笔平仓。交易数只增不减
func (s *StatsService) Record(out model.TradeOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Trades++
	s.stats.Profit = s.stats.Profit.Add(out.Profit)
	s.dirty = true
}

func (s *StatsService) Snapshot() model.Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Reset 开始新的报告周期，返回被关闭的周期
func (s *StatsService) Reset(now time.Time) model.Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.stats
	s.stats = model.Statistics{Profit: decimal.Zero, PeriodStart: now}
	s.dirty = true
	return prev
}

// Persist 写入存储。失败时保留 dirty，下一次调用会重试
func (s *StatsService) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty || s.store == nil {
		return nil
	}
	if err := s.store.SaveStats(ctx, s.stats); err != nil {
		return fmt.Errorf("save stats: %w", err)
	}
	s.dirty = false
	return nil
}

func (s *StatsService) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}
