package svc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spotarb/internal/infrastructure/config"
)

func priceServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, dir, exchanges string) *config.Config {
	t.Helper()
	toml := fmt.Sprintf(`
[symbols]
list = ["BTCUSDT"]

[strategy]
order_size = 10
spread_threshold = 0.005
take_profit = 0.02
stop_loss = -0.01

%s

[execution]
dry_run = true

[storage.file]
positions_path = %q
stats_path = %q

[notify]
console = false
`, exchanges, filepath.Join(dir, "positions.json"), filepath.Join(dir, "stats.json"))

	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(toml), 0o644))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	return cfg
}

func TestServiceContextDryRunCycle(t *testing.T) {
	bn := priceServer(t, `{"symbol":"BTCUSDT","price":"100.00"}`)
	bb := priceServer(t, `{"retCode":0,"retMsg":"OK","result":{"category":"spot","list":[{"symbol":"BTCUSDT","lastPrice":"101.00"}]}}`)
	dir := t.TempDir()
	cfg := writeConfig(t, dir, fmt.Sprintf(`
[exchange.binance]
enabled = true
rest_url = %q

[exchange.bybit]
enabled = true
rest_url = %q
`, bn.URL, bb.URL))

	ctx := context.Background()
	sc, err := New(ctx, cfg)
	require.NoError(t, err)

	rep, err := sc.Engine().RunCycle(ctx)
	require.NoError(t, err)
	require.Len(t, rep.Opened, 1)
	assert.Equal(t, "binance", rep.Opened[0].BuySource)
	assert.Equal(t, "bybit", rep.Opened[0].SellSource)
	require.NoError(t, sc.Close())

	// restart restores the open position from disk
	sc2, err := New(ctx, cfg)
	require.NoError(t, err)
	defer sc2.Close()
	_, ok := sc2.Engine().Positions()["BTCUSDT"]
	assert.True(t, ok)
	assert.NotNil(t, sc2.App().Scheduler)
}

func TestServiceContextNeedsTwoVenues(t *testing.T) {
	bn := priceServer(t, `{"symbol":"BTCUSDT","price":"100.00"}`)
	cfg := writeConfig(t, t.TempDir(), fmt.Sprintf(`
[exchange.binance]
enabled = true
rest_url = %q

[exchange.nosuchvenue]
enabled = true
`, bn.URL))

	_, err := New(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoSources))
}

func TestServiceContextCorruptStateRefusesStart(t *testing.T) {
	bn := priceServer(t, `{"symbol":"BTCUSDT","price":"100.00"}`)
	bb := priceServer(t, `{"retCode":0,"result":{"list":[]}}`)
	dir := t.TempDir()
	cfg := writeConfig(t, dir, fmt.Sprintf(`
[exchange.binance]
enabled = true
rest_url = %q

[exchange.bybit]
enabled = true
rest_url = %q
`, bn.URL, bb.URL))
	require.NoError(t, os.WriteFile(cfg.Storage.File.PositionsPath, []byte("{oops"), 0o644))

	_, err := New(context.Background(), cfg)
	require.Error(t, err)
}
