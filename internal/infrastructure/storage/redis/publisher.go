package redis

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/redis/go-redis/v9"

	"spotarb/internal/application/port"
	"spotarb/internal/domain/model"
)

// Publisher 把事件写入 Stream 并在 PubSub 频道广播，供外部消费者订阅
type Publisher struct {
	rdb     *redis.Client
	stream  string
	channel string
	maxLen  int64
}

func NewPublisher(rdb *redis.Client, prefix, stream, channel string) *Publisher {
	if strings.TrimSpace(prefix) == "" {
		prefix = "spotarb"
	}
	if strings.TrimSpace(stream) == "" {
		stream = prefix + ":events"
	}
	if strings.TrimSpace(channel) == "" {
		channel = prefix + ":events:pub"
	}
	return &Publisher{rdb: rdb, stream: stream, channel: channel, maxLen: 10000}
}

func (p *Publisher) Name() string { return "redis" }

func (p *Publisher) Send(ctx context.Context, ev model.Event, text string) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	// 1) Stream: XADD <stream> MAXLEN ~ n * id kind symbol payload
	if err := p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: streamValues(ev, payload, text),
	}).Err(); err != nil {
		return err
	}

	// 2) PubSub: PUBLISH <channel> json
	return p.rdb.Publish(ctx, p.channel, payload).Err()
}

func streamValues(ev model.Event, payload []byte, text string) map[string]any {
	return map[string]any{
		"id":      ev.ID,
		"kind":    string(ev.Kind),
		"symbol":  ev.Symbol,
		"ts_ms":   ev.Time.UnixMilli(),
		"text":    text,
		"payload": string(payload),
	}
}

var _ port.Sender = (*Publisher)(nil)
