package trading

import "sync/atomic"

// RunState 进程级的运行开关，只由控制通道修改，调度器每个周期读取一次
type RunState struct {
	active atomic.Bool
}

func NewRunState(active bool) *RunState {
	s := &RunState{}
	s.active.Store(active)
	return s
}

// Start 返回状态是否发生了变化
func (s *RunState) Start() bool { return s.active.CompareAndSwap(false, true) }

func (s *RunState) Stop() bool { return s.active.CompareAndSwap(true, false) }

func (s *RunState) Active() bool { return s.active.Load() }
