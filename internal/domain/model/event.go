package model

import (
	"time"

	"github.com/google/uuid"
)

type EventKind string

const (
	EventSignalDetected  EventKind = "signal_detected"
	EventPositionOpened  EventKind = "position_opened"
	EventPositionClosed  EventKind = "position_closed"
	EventSymbolError     EventKind = "symbol_error"
	EventExecutionFailed EventKind = "execution_failed"
	EventCycleFailed     EventKind = "cycle_failed"
	EventDailyReport     EventKind = "daily_report"
	EventLifecycle       EventKind = "lifecycle" // 启动 / 退出
)

// Event 推送给通知通道的结构化事件。只有与 Kind 对应的字段会被填充
type Event struct {
	ID       string        `json:"id"`
	Kind     EventKind     `json:"kind"`
	Symbol   string        `json:"symbol,omitempty"`
	Time     time.Time     `json:"time"`
	Signal   *Signal       `json:"signal,omitempty"`
	Position *Position     `json:"position,omitempty"`
	Outcome  *TradeOutcome `json:"outcome,omitempty"`
	Order    *OrderResult  `json:"order,omitempty"`
	Report   *Report       `json:"report,omitempty"`
	Error    string        `json:"error,omitempty"`
	Message  string        `json:"message,omitempty"`
}

// NewEvent stamps a fresh ID and time on an event of the given kind.
func NewEvent(kind EventKind, symbol string, at time.Time) Event {
	return Event{
		ID:     uuid.NewString(),
		Kind:   kind,
		Symbol: symbol,
		Time:   at,
	}
}
