package trading

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

type CycleRunner interface {
	RunCycle(ctx context.Context) (CycleReport, error)
}

// Scheduler 串行驱动交易周期：启动后立即跑一次，之后每 interval 一次。
// 单 goroutine，周期之间不会重叠；暂停时跳过但不打断正在进行的周期。
type Scheduler struct {
	runner   CycleRunner
	state    *RunState
	interval time.Duration
}

func NewScheduler(runner CycleRunner, state *RunState, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 300 * time.Second
	}
	return &Scheduler{runner: runner, state: state, interval: interval}
}

func (s *Scheduler) Run(ctx context.Context) error {
	log.Info().Dur("interval", s.interval).Msg("scheduler started")

	s.Tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("scheduler stopped")
			return nil
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick 检查运行开关后执行一个周期。周期本身不随 ctx 取消，只受单次调用超时约束
func (s *Scheduler) Tick(ctx context.Context) bool {
	if !s.state.Active() {
		log.Debug().Msg("bot paused, cycle skipped")
		return false
	}

	rep, err := s.runner.RunCycle(context.WithoutCancel(ctx))
	ev := log.Info()
	if err != nil {
		ev = log.Error().Err(err)
	}
	ev.Dur("took", rep.Duration).
		Int("signals", len(rep.Signals)).
		Int("opened", len(rep.Opened)).
		Int("closed", len(rep.Closed)).
		Int("errors", len(rep.Errors)).
		Int("failed_orders", len(rep.FailedExecutions())).
		Msg("cycle done")
	return true
}
