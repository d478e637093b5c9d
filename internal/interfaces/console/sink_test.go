package console

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"spotarb/internal/domain/model"
)

func TestSinkWritesTimestampedLine(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriterSink(&buf)
	ev := model.NewEvent(model.EventPositionOpened, "BTCUSDT", time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC))

	if err := s.Send(context.Background(), ev, "opened BTCUSDT"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	got := buf.String()
	if got != "2026-03-01 09:30:00 opened BTCUSDT\n" {
		t.Errorf("unexpected line %q", got)
	}
}

func TestSinkColorsByKind(t *testing.T) {
	var buf bytes.Buffer
	s := &Sink{out: &buf, color: true}
	ev := model.NewEvent(model.EventExecutionFailed, "BTCUSDT", time.Now())

	if err := s.Send(context.Background(), ev, "boom"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if !strings.HasPrefix(buf.String(), colorRed) || !strings.Contains(buf.String(), colorReset) {
		t.Errorf("expected red line, got %q", buf.String())
	}
}
