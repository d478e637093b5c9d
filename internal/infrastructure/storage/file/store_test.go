package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spotarb/internal/application/port"
	"spotarb/internal/domain/model"
)

func newStore(t *testing.T, recoverCorrupt bool) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	return New(filepath.Join(dir, "positions.json"), filepath.Join(dir, "stats.json"), recoverCorrupt), dir
}

func samplePosition() model.Position {
	return model.Position{
		ID:          "p-1",
		Symbol:      "BTCUSDT",
		EntryPrice:  decimal.RequireFromString("50000.12"),
		Quantity:    decimal.RequireFromString("0.002"),
		BuySource:   "binance",
		SellSource:  "okx",
		EntrySpread: decimal.RequireFromString("0.003"),
		OpenedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	s, _ := newStore(t, false)
	snap, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap)

	st, err := s.LoadStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), st.Trades)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, dir := newStore(t, false)

	snap := model.Snapshot{"BTCUSDT": samplePosition()}
	require.NoError(t, s.Save(ctx, snap))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.True(t, snap.Equal(got))

	stats := model.Statistics{Trades: 3, Profit: decimal.RequireFromString("1.25"), PeriodStart: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, s.SaveStats(ctx, stats))
	gotStats, err := s.LoadStats(ctx)
	require.NoError(t, err)
	assert.True(t, stats.Equal(gotStats))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.Contains(e.Name(), ".tmp-"), "temp file left behind: %s", e.Name())
	}
}

func TestSaveReplacesPreviousSnapshot(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t, false)

	require.NoError(t, s.Save(ctx, model.Snapshot{"BTCUSDT": samplePosition()}))
	require.NoError(t, s.Save(ctx, model.Snapshot{}))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCorruptFileFailsLoad(t *testing.T) {
	s, _ := newStore(t, false)
	require.NoError(t, os.WriteFile(s.positionsPath, []byte("{not json"), 0o644))

	_, err := s.Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, port.ErrCorruptSnapshot))

	_, statErr := os.Stat(s.positionsPath)
	assert.NoError(t, statErr, "corrupt file must stay in place")
}

func TestCorruptFileRecovered(t *testing.T) {
	s, dir := newStore(t, true)
	s.now = func() time.Time { return time.Unix(1700000000, 0) }
	require.NoError(t, os.WriteFile(s.positionsPath, []byte("{not json"), 0o644))

	snap, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap)

	_, err = os.Stat(filepath.Join(dir, "positions.json.corrupt-1700000000"))
	assert.NoError(t, err)
	_, err = os.Stat(s.positionsPath)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadRejectsInvalidRecords(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"key differs from symbol", `{"BTCUSDT":{"id":"p-1","symbol":"ETHUSDT","entry_price":"100","quantity":"0.1","buy_source":"binance","sell_source":"bybit"}}`},
		{"zero entry and quantity", `{"BTCUSDT":{"entry_price":"0","quantity":"0"}}`},
		{"missing sell source", `{"BTCUSDT":{"id":"p-1","entry_price":"100","quantity":"0.1","buy_source":"binance"}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, _ := newStore(t, false)
			require.NoError(t, os.WriteFile(s.positionsPath, []byte(tc.body), 0o644))

			snap, err := s.Load(context.Background())
			require.ErrorIs(t, err, port.ErrCorruptSnapshot)
			assert.ErrorIs(t, err, model.ErrInvalidPosition)
			assert.Nil(t, snap)
		})
	}
}

func TestLoadInvalidRecordRecovered(t *testing.T) {
	s, dir := newStore(t, true)
	s.now = func() time.Time { return time.Unix(1700000000, 0) }
	body := `{"BTCUSDT":{"id":"p-1","symbol":"ETHUSDT","entry_price":"100","quantity":"0.1","buy_source":"binance","sell_source":"bybit"}}`
	require.NoError(t, os.WriteFile(s.positionsPath, []byte(body), 0o644))

	snap, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap)

	_, err = os.Stat(filepath.Join(dir, "positions.json.corrupt-1700000000"))
	assert.NoError(t, err)
}

func TestLoadFillsBlankSymbolFromKey(t *testing.T) {
	s, _ := newStore(t, false)
	body := `{"BTCUSDT":{"id":"p-1","entry_price":"100","quantity":"0.1","buy_source":"binance","sell_source":"bybit"}}`
	require.NoError(t, os.WriteFile(s.positionsPath, []byte(body), 0o644))

	snap, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, snap, 1)
	assert.Equal(t, "BTCUSDT", snap["BTCUSDT"].Symbol)
}
