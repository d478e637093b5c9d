package exchange

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"spotarb/internal/application/port"
	"spotarb/internal/infrastructure/config"
)

var ErrUnknownVenue = errors.New("unknown venue")

// Venue 一个交易所能提供的能力。Gateway / Balance 可以为空（只读价格源）
type Venue struct {
	Name    string
	Source  port.PriceSource
	Gateway port.OrderGateway
	Balance port.BalanceProvider

	closers []func() error
}

// OnClose 注册关闭时的清理函数（例如 websocket 连接）
func (v *Venue) OnClose(fn func() error) {
	v.closers = append(v.closers, fn)
}

func (v *Venue) Close() error {
	var errs []error
	for i := len(v.closers) - 1; i >= 0; i-- {
		if err := v.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Params struct {
	Name    string
	Config  config.ExchangeConfig
	Symbols []string
	Timeout time.Duration
}

// Factory 由各交易所包的 init() 注册
type Factory func(ctx context.Context, p Params) (*Venue, error)

var (
	mu       sync.RWMutex
	registry = make(map[string]Factory)
)

// Register 注册交易所工厂，重复注册会覆盖
func Register(name string, factory Factory) {
	if factory == nil {
		log.Warn().Str("exchange", name).Msg("invalid venue factory")
		return
	}
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[name]; exists {
		log.Warn().Str("exchange", name).Msg("venue factory already registered, overwriting")
	}
	registry[name] = factory
}

func Get(name string) (Factory, bool) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// Registered 已注册的交易所名，按字母序
func Registered() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Open 用注册的工厂创建交易所
func Open(ctx context.Context, p Params) (*Venue, error) {
	f, ok := Get(p.Name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVenue, p.Name)
	}
	v, err := f(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", p.Name, err)
	}
	if v.Name == "" {
		v.Name = p.Name
	}
	return v, nil
}
