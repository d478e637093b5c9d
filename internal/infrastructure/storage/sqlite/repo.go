package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"spotarb/internal/application/port"
	"spotarb/internal/domain/model"
)

type Repo struct {
	db *sql.DB
}

func New(path string) (*Repo, error) {
	// ensure directory exists
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	r := &Repo{db: db}
	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

// 金额一律 TEXT 存储，避免 REAL 精度损失
func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS open_positions (
  symbol TEXT PRIMARY KEY,
  id TEXT NOT NULL,
  entry_price TEXT NOT NULL,
  quantity TEXT NOT NULL,
  buy_source TEXT NOT NULL,
  sell_source TEXT NOT NULL,
  entry_spread TEXT NOT NULL,
  opened_at_ms INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS statistics (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  trades INTEGER NOT NULL,
  profit TEXT NOT NULL,
  period_start_ms INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS prices (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  exchange TEXT NOT NULL,
  symbol TEXT NOT NULL,
  price TEXT NOT NULL,
  ts_ms INTEGER NOT NULL,
  UNIQUE(exchange, symbol)
);
CREATE INDEX IF NOT EXISTS idx_prices_symbol ON prices(symbol);

CREATE TABLE IF NOT EXISTS signals (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  ts_ms INTEGER NOT NULL,
  symbol TEXT NOT NULL,
  buy_source TEXT NOT NULL,
  sell_source TEXT NOT NULL,
  spread TEXT NOT NULL,
  payload TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_signals_ts ON signals(ts_ms);

CREATE TABLE IF NOT EXISTS trades (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  position_id TEXT NOT NULL,
  symbol TEXT NOT NULL,
  action TEXT NOT NULL,
  price TEXT NOT NULL,
  quantity TEXT NOT NULL,
  profit TEXT,
  reason TEXT,
  ts_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);

CREATE TABLE IF NOT EXISTS reports (
  period_end_ms INTEGER PRIMARY KEY,
  period_start_ms INTEGER NOT NULL,
  trades INTEGER NOT NULL,
  profit TEXT NOT NULL,
  roi TEXT NOT NULL
);
`)
	return err
}

// ---- PositionStore ----

func (r *Repo) Load(ctx context.Context) (model.Snapshot, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT symbol, id, entry_price, quantity, buy_source, sell_source, entry_spread, opened_at_ms
FROM open_positions`)
	if err != nil {
		return nil, fmt.Errorf("query open_positions: %w", err)
	}
	defer rows.Close()

	snap := model.Snapshot{}
	for rows.Next() {
		var (
			p                  model.Position
			entry, qty, spread string
			openedMs           int64
		)
		if err := rows.Scan(&p.Symbol, &p.ID, &entry, &qty, &p.BuySource, &p.SellSource, &spread, &openedMs); err != nil {
			return nil, fmt.Errorf("scan open_positions: %w", err)
		}
		if p.EntryPrice, err = decimal.NewFromString(entry); err != nil {
			return nil, fmt.Errorf("%w: entry_price %q: %v", port.ErrCorruptSnapshot, entry, err)
		}
		if p.Quantity, err = decimal.NewFromString(qty); err != nil {
			return nil, fmt.Errorf("%w: quantity %q: %v", port.ErrCorruptSnapshot, qty, err)
		}
		if p.EntrySpread, err = decimal.NewFromString(spread); err != nil {
			return nil, fmt.Errorf("%w: entry_spread %q: %v", port.ErrCorruptSnapshot, spread, err)
		}
		p.OpenedAt = time.UnixMilli(openedMs).UTC()
		snap[p.Symbol] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate open_positions: %w", err)
	}
	if err := snap.Check(); err != nil {
		return nil, fmt.Errorf("%w: %v", port.ErrCorruptSnapshot, err)
	}
	return snap, nil
}

// Save 整表替换放在一个事务里，要么全部生效要么全部不生效
func (r *Repo) Save(ctx context.Context, snap model.Snapshot) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM open_positions`); err != nil {
		return fmt.Errorf("clear open_positions: %w", err)
	}
	for _, sym := range snap.Symbols() {
		p := snap[sym]
		if _, err = tx.ExecContext(ctx, `
INSERT INTO open_positions(symbol, id, entry_price, quantity, buy_source, sell_source, entry_spread, opened_at_ms)
VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
			sym, p.ID, p.EntryPrice.String(), p.Quantity.String(), p.BuySource, p.SellSource,
			p.EntrySpread.String(), p.OpenedAt.UnixMilli(),
		); err != nil {
			return fmt.Errorf("insert position %s: %w", sym, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ---- StatsStore ----

func (r *Repo) LoadStats(ctx context.Context) (model.Statistics, error) {
	var (
		st      model.Statistics
		profit  string
		startMs int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT trades, profit, period_start_ms FROM statistics WHERE id = 1`,
	).Scan(&st.Trades, &profit, &startMs)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Statistics{}, nil
	}
	if err != nil {
		return model.Statistics{}, fmt.Errorf("query statistics: %w", err)
	}
	if st.Profit, err = decimal.NewFromString(profit); err != nil {
		return model.Statistics{}, fmt.Errorf("%w: profit %q: %v", port.ErrCorruptSnapshot, profit, err)
	}
	if startMs > 0 {
		st.PeriodStart = time.UnixMilli(startMs).UTC()
	}
	return st, nil
}

func (r *Repo) SaveStats(ctx context.Context, st model.Statistics) error {
	var startMs int64
	if !st.PeriodStart.IsZero() {
		startMs = st.PeriodStart.UnixMilli()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO statistics(id, trades, profit, period_start_ms) VALUES(1, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET trades=excluded.trades, profit=excluded.profit, period_start_ms=excluded.period_start_ms`,
		st.Trades, st.Profit.String(), startMs)
	if err != nil {
		return fmt.Errorf("save statistics: %w", err)
	}
	return nil
}

// ---- TradeJournal ----

func (r *Repo) RecordPrices(ctx context.Context, symbol string, prices map[string]decimal.Decimal, ts time.Time) error {
	for venue, px := range prices {
		if _, err := r.db.ExecContext(ctx, `
INSERT INTO prices(exchange, symbol, price, ts_ms) VALUES(?, ?, ?, ?)
ON CONFLICT(exchange, symbol) DO UPDATE SET price=excluded.price, ts_ms=excluded.ts_ms`,
			venue, symbol, px.String(), ts.UnixMilli()); err != nil {
			return fmt.Errorf("upsert price %s/%s: %w", venue, symbol, err)
		}
	}
	return nil
}

func (r *Repo) RecordSignal(ctx context.Context, sig model.Signal) error {
	payload, err := json.Marshal(sig)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO signals(ts_ms, symbol, buy_source, sell_source, spread, payload) VALUES(?, ?, ?, ?, ?, ?)`,
		sig.DetectedAt.UnixMilli(), sig.Symbol, sig.BuySource, sig.SellSource, sig.Spread.String(), string(payload))
	return err
}

func (r *Repo) RecordOpen(ctx context.Context, pos model.Position) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO trades(position_id, symbol, action, price, quantity, ts_ms) VALUES(?, ?, 'open', ?, ?, ?)`,
		pos.ID, pos.Symbol, pos.EntryPrice.String(), pos.Quantity.String(), pos.OpenedAt.UnixMilli())
	return err
}

func (r *Repo) RecordClose(ctx context.Context, out model.TradeOutcome) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO trades(position_id, symbol, action, price, quantity, profit, reason, ts_ms) VALUES(?, ?, 'close', ?, ?, ?, ?, ?)`,
		out.Position.ID, out.Position.Symbol, out.ExitPrice.String(), out.Position.Quantity.String(),
		out.Profit.String(), string(out.Reason), out.ClosedAt.UnixMilli())
	return err
}

func (r *Repo) RecordReport(ctx context.Context, rep model.Report) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO reports(period_end_ms, period_start_ms, trades, profit, roi) VALUES(?, ?, ?, ?, ?)
ON CONFLICT(period_end_ms) DO UPDATE SET trades=excluded.trades, profit=excluded.profit, roi=excluded.roi`,
		rep.PeriodEnd.UnixMilli(), rep.PeriodStart.UnixMilli(), rep.Trades, rep.Profit.String(), rep.ROI.String())
	return err
}

var (
	_ port.PositionStore = (*Repo)(nil)
	_ port.StatsStore    = (*Repo)(nil)
	_ port.TradeJournal  = (*Repo)(nil)
)
