package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"spotarb/internal/application/port"
	"spotarb/internal/domain/model"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

// Sink 把事件打印到终端，一行一条
type Sink struct {
	mu    sync.Mutex
	out   io.Writer
	color bool
}

func NewSink() *Sink { return &Sink{out: os.Stdout, color: true} }

// NewWriterSink 输出到任意 writer，不带颜色（测试 / 重定向到文件）
func NewWriterSink(w io.Writer) *Sink { return &Sink{out: w} }

func (s *Sink) Name() string { return "console" }

func (s *Sink) Send(ctx context.Context, ev model.Event, text string) error {
	ts := ev.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	line := fmt.Sprintf("%s %s", ts.Format("2006-01-02 15:04:05"), text)
	if s.color {
		if c := colorFor(ev.Kind); c != "" {
			line = c + line + colorReset
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintln(s.out, line)
	return err
}

func colorFor(kind model.EventKind) string {
	switch kind {
	case model.EventPositionOpened:
		return colorGreen
	case model.EventPositionClosed, model.EventDailyReport:
		return colorCyan
	case model.EventExecutionFailed, model.EventCycleFailed:
		return colorRed
	case model.EventSymbolError:
		return colorYellow
	}
	return ""
}

var _ port.Sender = (*Sink)(nil)
