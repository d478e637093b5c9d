package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"spotarb/internal/application/port"
	"spotarb/internal/domain/model"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Repo 交易流水写入 Postgres，只追加
type Repo struct {
	db   *sql.DB
	exec execer
}

func New(dsn string) (*Repo, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	r := &Repo{db: db, exec: db}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres migrate: %w", err)
	}
	return r, nil
}

func (r *Repo) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.exec.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS latest_prices (
  exchange TEXT NOT NULL,
  symbol TEXT NOT NULL,
  price NUMERIC NOT NULL,
  ts TIMESTAMPTZ NOT NULL,
  PRIMARY KEY (exchange, symbol)
);

CREATE TABLE IF NOT EXISTS signals (
  id BIGSERIAL PRIMARY KEY,
  ts TIMESTAMPTZ NOT NULL,
  symbol TEXT NOT NULL,
  buy_source TEXT NOT NULL,
  sell_source TEXT NOT NULL,
  spread NUMERIC NOT NULL,
  payload JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_signals_ts ON signals(ts);

CREATE TABLE IF NOT EXISTS trades (
  id BIGSERIAL PRIMARY KEY,
  position_id TEXT NOT NULL,
  symbol TEXT NOT NULL,
  action TEXT NOT NULL,
  price NUMERIC NOT NULL,
  quantity NUMERIC NOT NULL,
  profit NUMERIC,
  reason TEXT,
  ts TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);

CREATE TABLE IF NOT EXISTS daily_reports (
  period_end TIMESTAMPTZ PRIMARY KEY,
  period_start TIMESTAMPTZ NOT NULL,
  trades BIGINT NOT NULL,
  profit NUMERIC NOT NULL,
  roi NUMERIC NOT NULL
);
`)
	return err
}

func (r *Repo) RecordPrices(ctx context.Context, symbol string, prices map[string]decimal.Decimal, ts time.Time) error {
	for venue, px := range prices {
		if _, err := r.exec.ExecContext(ctx, `
INSERT INTO latest_prices(exchange, symbol, price, ts) VALUES($1, $2, $3, $4)
ON CONFLICT (exchange, symbol) DO UPDATE SET price = EXCLUDED.price, ts = EXCLUDED.ts`,
			venue, symbol, px.String(), ts); err != nil {
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
	_, err = r.exec.ExecContext(ctx, `
INSERT INTO signals(ts, symbol, buy_source, sell_source, spread, payload) VALUES($1, $2, $3, $4, $5, $6)`,
		sig.DetectedAt, sig.Symbol, sig.BuySource, sig.SellSource, sig.Spread.String(), string(payload))
	return err
}

func (r *Repo) RecordOpen(ctx context.Context, pos model.Position) error {
	_, err := r.exec.ExecContext(ctx, `
INSERT INTO trades(position_id, symbol, action, price, quantity, ts) VALUES($1, $2, 'open', $3, $4, $5)`,
		pos.ID, pos.Symbol, pos.EntryPrice.String(), pos.Quantity.String(), pos.OpenedAt)
	return err
}

func (r *Repo) RecordClose(ctx context.Context, out model.TradeOutcome) error {
	_, err := r.exec.ExecContext(ctx, `
INSERT INTO trades(position_id, symbol, action, price, quantity, profit, reason, ts) VALUES($1, $2, 'close', $3, $4, $5, $6, $7)`,
		out.Position.ID, out.Position.Symbol, out.ExitPrice.String(), out.Position.Quantity.String(),
		out.Profit.String(), string(out.Reason), out.ClosedAt)
	return err
}

func (r *Repo) RecordReport(ctx context.Context, rep model.Report) error {
	_, err := r.exec.ExecContext(ctx, `
INSERT INTO daily_reports(period_end, period_start, trades, profit, roi) VALUES($1, $2, $3, $4, $5)
ON CONFLICT (period_end) DO UPDATE SET trades = EXCLUDED.trades, profit = EXCLUDED.profit, roi = EXCLUDED.roi`,
		rep.PeriodEnd, rep.PeriodStart, rep.Trades, rep.Profit.String(), rep.ROI.String())
	return err
}

var _ port.TradeJournal = (*Repo)(nil)
