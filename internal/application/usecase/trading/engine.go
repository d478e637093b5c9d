package trading

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"spotarb/internal/application/port"
	"spotarb/internal/application/service"
	"spotarb/internal/domain/model"
	dsvc "spotarb/internal/domain/service"
)

var (
	ErrNoGateway             = errors.New("no order gateway for venue")
	ErrSellSourceUnavailable = errors.New("sell source unavailable")
	ErrZeroQuantity          = errors.New("order quantity rounds to zero")
)

// PriceAggregator 单个币种的多交易所报价
type PriceAggregator interface {
	Aggregate(ctx context.Context, symbol string) map[string]decimal.Decimal
}

type EngineDeps struct {
	Symbols  []string
	Prices   PriceAggregator
	Stats    *service.StatsService
	Store    port.PositionStore
	Gateways map[string]port.OrderGateway // venue -> gateway
	Journal  port.TradeJournal
	Notifier port.Notifier

	OrderSize         decimal.Decimal
	SpreadThreshold   decimal.Decimal
	Exit              dsvc.ExitRule
	QuantityPrecision int32
	OrderTimeout      time.Duration

	Now func() time.Time
}

// CycleReport 一个交易周期的结果
type CycleReport struct {
	Started    time.Time
	Duration   time.Duration
	Signals    []model.Signal
	Opened     []model.Position
	Closed     []model.TradeOutcome
	Executions []model.OrderResult
	Errors     map[string]string // symbol -> error
}

// FailedExecutions 返回下单失败的结果
func (r CycleReport) FailedExecutions() []model.OrderResult {
	var out []model.OrderResult
	for _, ex := range r.Executions {
		if !ex.Success {
			out = append(out, ex)
		}
	}
	return out
}

// Engine 持仓生命周期管理：每个币种 FLAT -> OPEN -> FLAT。
// 账本常驻内存，周期结束时整体落盘；保存失败时账本保持 dirty，下个周期重试。
// view 是周期结束时的账本副本，查询不等待正在进行的周期
type Engine struct {
	deps EngineDeps

	mu    sync.Mutex
	book  model.Snapshot
	dirty bool

	viewMu sync.RWMutex
	view   model.Snapshot
}

func NewEngine(deps EngineDeps) *Engine {
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	if deps.QuantityPrecision <= 0 {
		deps.QuantityPrecision = dsvc.DefaultQuantityPrecision
	}
	if deps.OrderTimeout <= 0 {
		deps.OrderTimeout = 10 * time.Second
	}
	return &Engine{deps: deps, book: model.Snapshot{}, view: model.Snapshot{}}
}

// Restore 启动时加载持仓快照与统计。损坏的快照直接返回错误，由调用方决定是否恢复
func (e *Engine) Restore(ctx context.Context) error {
	snap, err := e.deps.Store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load positions: %w", err)
	}
	if err := snap.Check(); err != nil {
		return fmt.Errorf("load positions: %w: %v", port.ErrCorruptSnapshot, err)
	}
	if e.deps.Stats != nil {
		if err := e.deps.Stats.Restore(ctx); err != nil {
			return err
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.book = snap.Clone()
	e.dirty = false
	e.publish()

	log.Info().Int("open", len(e.book)).Strs("symbols", e.book.Symbols()).Msg("positions restored")
	return nil
}

// Positions 最近一个完成周期的账本副本
func (e *Engine) Positions() model.Snapshot {
	e.viewMu.RLock()
	defer e.viewMu.RUnlock()
	return e.view.Clone()
}

// publish 调用方持有 e.mu
func (e *Engine) publish() {
	v := e.book.Clone()
	e.viewMu.Lock()
	e.view = v
	e.viewMu.Unlock()
}

func (e *Engine) RunCycle(ctx context.Context) (CycleReport, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer e.publish()

	rep := CycleReport{Started: e.deps.Now(), Errors: map[string]string{}}
	for _, sym := range e.deps.Symbols {
		if err := e.processSymbol(ctx, sym, &rep); err != nil {
			rep.Errors[sym] = err.Error()
			log.Error().Err(err).Str("symbol", sym).Msg("symbol processing failed")

			ev := model.NewEvent(model.EventSymbolError, sym, e.deps.Now())
			ev.Error = err.Error()
			e.notify(ctx, ev)
		}
	}

	err := e.persist(ctx)
	rep.Duration = e.deps.Now().Sub(rep.Started)
	if err != nil {
		log.Error().Err(err).Msg("cycle persistence failed")
		ev := model.NewEvent(model.EventCycleFailed, "", e.deps.Now())
		ev.Error = err.Error()
		e.notify(ctx, ev)
		return rep, err
	}
	return rep, nil
}

// processSymbol 单个币种的处理，panic 也只影响当前币种
func (e *Engine) processSymbol(ctx context.Context, sym string, rep *CycleReport) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	prices := e.deps.Prices.Aggregate(ctx, sym)
	if e.deps.Journal != nil && len(prices) > 0 {
		if jerr := e.deps.Journal.RecordPrices(ctx, sym, prices, e.deps.Now()); jerr != nil {
			log.Warn().Err(jerr).Str("symbol", sym).Msg("journal prices failed")
		}
	}

	if pos, ok := e.book[sym]; ok {
		return e.evaluateExit(ctx, sym, pos, prices, rep)
	}
	return e.evaluateEntry(ctx, sym, prices, rep)
}

func (e *Engine) evaluateExit(ctx context.Context, sym string, pos model.Position, prices map[string]decimal.Decimal, rep *CycleReport) error {
	px, ok := prices[pos.SellSource]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSellSourceUnavailable, pos.SellSource)
	}

	change, reason, hit := e.deps.Exit.Evaluate(pos, px)
	if !hit {
		log.Debug().Str("symbol", pos.Symbol).Str("change", change.StringFixed(5)).Msg("position held")
		return nil
	}

	order := e.placeOrder(ctx, pos.SellSource, pos.Symbol, model.SideSell, pos.Quantity, rep)

	out := model.TradeOutcome{
		Position:  pos,
		ExitPrice: px,
		Change:    change,
		Profit:    dsvc.Profit(pos, px),
		Reason:    reason,
		ClosedAt:  e.deps.Now(),
	}
	delete(e.book, sym)
	e.dirty = true
	if e.deps.Stats != nil {
		e.deps.Stats.Record(out)
	}
	rep.Closed = append(rep.Closed, out)

	log.Info().
		Str("symbol", pos.Symbol).
		Str("reason", string(reason)).
		Str("entry", pos.EntryPrice.String()).
		Str("exit", px.String()).
		Str("profit", out.Profit.String()).
		Msg("position closed")

	if e.deps.Journal != nil {
		if err := e.deps.Journal.RecordClose(ctx, out); err != nil {
			log.Warn().Err(err).Str("symbol", pos.Symbol).Msg("journal close failed")
		}
	}
	ev := model.NewEvent(model.EventPositionClosed, pos.Symbol, out.ClosedAt)
	ev.Outcome = &out
	ev.Order = &order
	e.notify(ctx, ev)
	return nil
}

func (e *Engine) evaluateEntry(ctx context.Context, sym string, prices map[string]decimal.Decimal, rep *CycleReport) error {
	sig, err := dsvc.EvaluateSpread(sym, prices, e.deps.SpreadThreshold, e.deps.Now())
	switch {
	case errors.Is(err, dsvc.ErrInsufficientData):
		log.Debug().Str("symbol", sym).Int("sources", len(prices)).Msg("insufficient price data")
		return nil
	case errors.Is(err, dsvc.ErrNoSignal):
		return nil
	case err != nil:
		return err
	}

	rep.Signals = append(rep.Signals, sig)
	log.Info().
		Str("symbol", sym).
		Str("buy", sig.BuySource).
		Str("sell", sig.SellSource).
		Str("spread", sig.Spread.StringFixed(5)).
		Msg("spread signal")
	if e.deps.Journal != nil {
		if err := e.deps.Journal.RecordSignal(ctx, sig); err != nil {
			log.Warn().Err(err).Str("symbol", sym).Msg("journal signal failed")
		}
	}
	sev := model.NewEvent(model.EventSignalDetected, sym, sig.DetectedAt)
	sev.Signal = &sig
	e.notify(ctx, sev)

	qty := dsvc.Quantity(e.deps.OrderSize, sig.BuyPrice, e.deps.QuantityPrecision)
	if !qty.IsPositive() {
		return fmt.Errorf("%w: size %s at %s", ErrZeroQuantity, e.deps.OrderSize, sig.BuyPrice)
	}

	order := e.placeOrder(ctx, sig.BuySource, sym, model.SideBuy, qty, rep)

	pos := model.Position{
		ID:          uuid.NewString(),
		Symbol:      sym,
		EntryPrice:  sig.BuyPrice,
		Quantity:    qty,
		BuySource:   sig.BuySource,
		SellSource:  sig.SellSource,
		EntrySpread: sig.Spread,
		OpenedAt:    e.deps.Now(),
	}
	e.book[sym] = pos
	e.dirty = true
	rep.Opened = append(rep.Opened, pos)

	log.Info().
		Str("symbol", sym).
		Str("entry", pos.EntryPrice.String()).
		Str("qty", qty.String()).
		Str("buy", pos.BuySource).
		Str("sell", pos.SellSource).
		Msg("position opened")

	if e.deps.Journal != nil {
		if err := e.deps.Journal.RecordOpen(ctx, pos); err != nil {
			log.Warn().Err(err).Str("symbol", sym).Msg("journal open failed")
		}
	}
	ev := model.NewEvent(model.EventPositionOpened, sym, pos.OpenedAt)
	ev.Position = &pos
	ev.Order = &order
	e.notify(ctx, ev)
	return nil
}

// placeOrder 调用交易所下单。失败只产生 ExecutionFailed 事件，不影响账本
func (e *Engine) placeOrder(ctx context.Context, venue, sym string, side model.Side, qty decimal.Decimal, rep *CycleReport) model.OrderResult {
	var res model.OrderResult
	gw, ok := e.deps.Gateways[venue]
	if !ok || gw == nil {
		res = model.OrderResult{Success: false, Details: fmt.Sprintf("%v: %s", ErrNoGateway, venue)}
	} else {
		octx, cancel := context.WithTimeout(ctx, e.deps.OrderTimeout)
		res = gw.PlaceOrder(octx, sym, side, qty)
		cancel()
	}
	res.Venue, res.Symbol, res.Side, res.Qty = venue, sym, side, qty
	rep.Executions = append(rep.Executions, res)

	if !res.Success {
		log.Error().
			Str("venue", venue).
			Str("symbol", sym).
			Str("side", string(side)).
			Str("details", res.Details).
			Msg("order failed")
		ev := model.NewEvent(model.EventExecutionFailed, sym, e.deps.Now())
		ev.Order = &res
		ev.Error = res.Details
		e.notify(ctx, ev)
	}
	return res
}

func (e *Engine) persist(ctx context.Context) error {
	if e.dirty {
		if err := e.deps.Store.Save(ctx, e.book.Clone()); err != nil {
			return fmt.Errorf("save positions: %w", err)
		}
		e.dirty = false
	}
	if e.deps.Stats != nil {
		if err := e.deps.Stats.Persist(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) notify(ctx context.Context, ev model.Event) {
	if e.deps.Notifier == nil {
		return
	}
	if err := e.deps.Notifier.Notify(ctx, ev); err != nil {
		log.Warn().Err(err).Str("kind", string(ev.Kind)).Msg("notify failed")
	}
}
