package trading

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"spotarb/internal/application/port"
	"spotarb/internal/application/service"
	"spotarb/internal/domain/model"
)

// Controller 处理外部控制命令。只读写运行开关、统计快照和余额，不碰持仓存储
type Controller struct {
	state     *RunState
	stats     *service.StatsService
	positions func() model.Snapshot

	balance      port.BalanceProvider
	balanceVenue string
	balanceAsset string
	timeout      time.Duration
}

type ControllerDeps struct {
	State        *RunState
	Stats        *service.StatsService
	Positions    func() model.Snapshot // in-memory book, read only
	Balance      port.BalanceProvider
	BalanceVenue string
	BalanceAsset string
	Timeout      time.Duration
}

func NewController(deps ControllerDeps) *Controller {
	c := &Controller{
		state:        deps.State,
		stats:        deps.Stats,
		positions:    deps.Positions,
		balance:      deps.Balance,
		balanceVenue: deps.BalanceVenue,
		balanceAsset: deps.BalanceAsset,
		timeout:      deps.Timeout,
	}
	if c.balanceAsset == "" {
		c.balanceAsset = "USDT"
	}
	if c.timeout <= 0 {
		c.timeout = 8 * time.Second
	}
	return c
}

// normalizeCommand "/Status@my_bot extra" -> "status"
func normalizeCommand(raw string) string {
	fields := strings.Fields(strings.TrimSpace(raw))
	if len(fields) == 0 {
		return ""
	}
	cmd := strings.TrimPrefix(fields[0], "/")
	if i := strings.IndexByte(cmd, '@'); i >= 0 {
		cmd = cmd[:i]
	}
	return strings.ToLower(cmd)
}

// Handle 满足 port.CommandHandler
func (c *Controller) Handle(ctx context.Context, command string) string {
	cmd := normalizeCommand(command)
	log.Info().Str("command", cmd).Msg("control command")

	switch cmd {
	case "start":
		if c.state.Start() {
			return "▶️ Bot resumed."
		}
		return "▶️ Bot already running."
	case "stop":
		if c.state.Stop() {
			return "⛔ Bot paused."
		}
		return "⛔ Bot already paused."
	case "status":
		var open model.Snapshot
		if c.positions != nil {
			open = c.positions()
		}
		return FormatStatus(c.state.Active(), c.stats.Snapshot(), open)
	case "balance":
		if c.balance == nil {
			return "💰 Balance unavailable: no account configured."
		}
		bctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		amt, err := c.balance.Balance(bctx, c.balanceAsset)
		if err != nil {
			log.Warn().Err(err).Str("venue", c.balanceVenue).Msg("balance query failed")
			return "💰 Balance query failed: " + err.Error()
		}
		return FormatBalance(c.balanceVenue, c.balanceAsset, amt)
	case "help", "":
		return FormatHelp()
	default:
		return "Unknown command: " + cmd + "\n" + FormatHelp()
	}
}
