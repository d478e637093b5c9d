package trading

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"spotarb/internal/domain/model"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var fixedNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

type fakePrices struct {
	bySymbol map[string]map[string]decimal.Decimal
	panicOn  string
}

func (f *fakePrices) set(symbol string, prices map[string]string) {
	if f.bySymbol == nil {
		f.bySymbol = map[string]map[string]decimal.Decimal{}
	}
	m := make(map[string]decimal.Decimal, len(prices))
	for src, px := range prices {
		m[src] = d(px)
	}
	f.bySymbol[symbol] = m
}

func (f *fakePrices) Aggregate(ctx context.Context, symbol string) map[string]decimal.Decimal {
	if symbol == f.panicOn {
		panic("adapter blew up")
	}
	out := map[string]decimal.Decimal{}
	for k, v := range f.bySymbol[symbol] {
		out[k] = v
	}
	return out
}

type fakeGateway struct {
	name   string
	fail   bool
	orders []model.OrderResult
}

func (g *fakeGateway) Name() string { return g.name }

func (g *fakeGateway) PlaceOrder(ctx context.Context, symbol string, side model.Side, qty decimal.Decimal) model.OrderResult {
	res := model.OrderResult{Symbol: symbol, Side: side, Qty: qty, Success: !g.fail, OrderID: "ord-1"}
	if g.fail {
		res.OrderID = ""
		res.Details = "insufficient balance"
	}
	g.orders = append(g.orders, res)
	return res
}

type memPositionStore struct {
	snap    model.Snapshot
	saves   int
	saveErr error
}

func (m *memPositionStore) Load(ctx context.Context) (model.Snapshot, error) {
	return m.snap.Clone(), nil
}

func (m *memPositionStore) Save(ctx context.Context, snap model.Snapshot) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.snap = snap.Clone()
	m.saves++
	return nil
}

type memStatsStore struct {
	stats model.Statistics
	saves int
}

func (m *memStatsStore) LoadStats(ctx context.Context) (model.Statistics, error) {
	return m.stats, nil
}

func (m *memStatsStore) SaveStats(ctx context.Context, st model.Statistics) error {
	m.stats = st
	m.saves++
	return nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []model.Event
}

func (r *recordingNotifier) Notify(ctx context.Context, ev model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingNotifier) kinds() []model.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.EventKind, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Kind)
	}
	return out
}

type fakeBalance struct {
	amount decimal.Decimal
	err    error
}

func (f *fakeBalance) Balance(ctx context.Context, asset string) (decimal.Decimal, error) {
	if f.err != nil {
		return decimal.Zero, f.err
	}
	return f.amount, nil
}

var errDiskFull = errors.New("disk full")
