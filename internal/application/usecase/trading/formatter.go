package trading

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"spotarb/internal/domain/model"
)

func pct(d decimal.Decimal) string {
	return d.Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
}

// FormatEvent 把事件渲染成一段可读文本（console / telegram 共用）
func FormatEvent(ev model.Event) string {
	switch ev.Kind {
	case model.EventSignalDetected:
		if s := ev.Signal; s != nil {
			return fmt.Sprintf("🔎 Signal %s: buy %s @ %s, sell %s @ %s, spread %s",
				s.Symbol, s.BuySource, s.BuyPrice, s.SellSource, s.SellPrice, pct(s.Spread))
		}
	case model.EventPositionOpened:
		if p := ev.Position; p != nil {
			return fmt.Sprintf("🟢 Buy %s (%s) @ %s qty %s", p.Symbol, p.BuySource, p.EntryPrice, p.Quantity)
		}
	case model.EventPositionClosed:
		if o := ev.Outcome; o != nil {
			icon, label := "✅", "Take-profit"
			if o.Reason == model.CloseStopLoss {
				icon, label = "❌", "Stop-loss"
			}
			return fmt.Sprintf("%s %s %s (%s) @ %s, change %s, profit %s USDT",
				icon, label, o.Position.Symbol, o.Position.SellSource, o.ExitPrice, pct(o.Change), o.Profit.StringFixed(4))
		}
	case model.EventExecutionFailed:
		if o := ev.Order; o != nil {
			return fmt.Sprintf("🚫 Order failed %s %s %s qty %s: %s", o.Venue, o.Side, o.Symbol, o.Qty, o.Details)
		}
	case model.EventSymbolError:
		return fmt.Sprintf("[%s] ⚠️ Error: %s", ev.Symbol, ev.Error)
	case model.EventCycleFailed:
		return fmt.Sprintf("⚠️ Cycle failed: %s", ev.Error)
	case model.EventLifecycle:
		return ev.Message
	case model.EventDailyReport:
		if r := ev.Report; r != nil {
			return fmt.Sprintf("📊 Daily report\nTrades: %d\nProfit: %s USDT\nROI: %s%%",
				r.Trades, r.Profit.StringFixed(2), r.ROI.StringFixed(2))
		}
	}
	if ev.Error != "" {
		return fmt.Sprintf("%s %s: %s", ev.Kind, ev.Symbol, ev.Error)
	}
	return strings.TrimSpace(fmt.Sprintf("%s %s", ev.Kind, ev.Symbol))
}

func FormatStatus(active bool, st model.Statistics, open model.Snapshot) string {
	state := "active"
	if !active {
		state = "paused"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "🤖 Status: %s\nTrades: %d\nProfit: %s USDT\nOpen positions: %d",
		state, st.Trades, st.Profit.StringFixed(2), len(open))
	for _, sym := range open.Symbols() {
		p := open[sym]
		fmt.Fprintf(&sb, "\n  %s %s @ %s -> %s", sym, p.BuySource, p.EntryPrice, p.SellSource)
	}
	return sb.String()
}

func FormatBalance(venue, asset string, amount decimal.Decimal) string {
	return fmt.Sprintf("💰 Balance %s (%s): %s", venue, asset, amount)
}

func FormatHelp() string {
	return "Commands:\n/start resume trading\n/stop pause trading\n/status state and statistics\n/balance quote balance\n/help this message"
}
