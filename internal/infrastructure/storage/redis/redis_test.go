package redis

import (
	"encoding/json"
	"testing"
	"time"

	"spotarb/internal/domain/model"
)

func TestNewDefaults(t *testing.T) {
	r := New(nil, "", time.Minute)
	if r.keyLatest != "spotarb:latest" || r.keyPositions != "spotarb:positions" {
		t.Errorf("unexpected keys: %s %s", r.keyLatest, r.keyPositions)
	}

	p := NewPublisher(nil, "arb", "", "")
	if p.stream != "arb:events" || p.channel != "arb:events:pub" {
		t.Errorf("unexpected stream/channel: %s %s", p.stream, p.channel)
	}
	p = NewPublisher(nil, "arb", "custom:stream", "custom:chan")
	if p.stream != "custom:stream" || p.channel != "custom:chan" {
		t.Errorf("explicit names should win: %s %s", p.stream, p.channel)
	}
}

func TestPriceField(t *testing.T) {
	if got := priceField("binance", "BTCUSDT"); got != "binance:BTCUSDT" {
		t.Errorf("got %s", got)
	}
}

func TestStreamValues(t *testing.T) {
	ev := model.NewEvent(model.EventPositionOpened, "BTCUSDT", time.UnixMilli(1767225600000))
	payload, err := json.Marshal(ev)
	if err != nil {
		t.Fatal(err)
	}
	v := streamValues(ev, payload, "opened")
	if v["kind"] != "position_opened" || v["symbol"] != "BTCUSDT" || v["ts_ms"] != int64(1767225600000) {
		t.Errorf("unexpected values: %+v", v)
	}
	var back model.Event
	if err := json.Unmarshal([]byte(v["payload"].(string)), &back); err != nil {
		t.Fatalf("payload not json: %v", err)
	}
	if back.ID != ev.ID {
		t.Errorf("id mismatch: %s vs %s", back.ID, ev.ID)
	}
}
