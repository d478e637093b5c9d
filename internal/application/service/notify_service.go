package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"spotarb/internal/application/port"
	"spotarb/internal/domain/model"
)

// EventFormatter 把事件渲染成可读文本
type EventFormatter func(model.Event) string

// NotifyService 把事件分发给所有通道。配置了 events 时只转发列表内的事件类型，
// 单个通道失败不影响其余通道。
type NotifyService struct {
	senders []port.Sender
	events  map[model.EventKind]bool
	format  EventFormatter
}

var _ port.Notifier = (*NotifyService)(nil)

func NewNotifyService(senders []port.Sender, events []string, format EventFormatter) *NotifyService {
	allowed := make(map[model.EventKind]bool, len(events))
	for _, e := range events {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			allowed[model.EventKind(e)] = true
		}
	}
	if format == nil {
		format = func(ev model.Event) string { return string(ev.Kind) + " " + ev.Symbol }
	}
	return &NotifyService{senders: senders, events: allowed, format: format}
}

func (n *NotifyService) Senders() []string {
	out := make([]string, 0, len(n.senders))
	for _, s := range n.senders {
		out = append(out, s.Name())
	}
	return out
}

func (n *NotifyService) Notify(ctx context.Context, ev model.Event) error {
	if len(n.events) > 0 && !n.events[ev.Kind] {
		log.Debug().Str("kind", string(ev.Kind)).Msg("event filtered out")
		return nil
	}
	if len(n.senders) == 0 {
		return nil
	}

	text := n.format(ev)
	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, ev, text); err != nil {
			log.Error().Err(err).Str("sender", s.Name()).Str("kind", string(ev.Kind)).Msg("notification failed")
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}
