package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"spotarb/internal/domain/model"
)

func TestTickerClientLastPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/ticker/price" || r.URL.Query().Get("symbol") != "BTCUSDT" {
			t.Errorf("unexpected request %s", r.URL)
		}
		fmt.Fprint(w, `{"symbol":"BTCUSDT","price":"67012.34000000"}`)
	}))
	defer srv.Close()

	c := NewTickerClient(NewAPIClient("", "", srv.URL, time.Second))
	px, ok := c.LastPrice(context.Background(), "BTCUSDT")
	if !ok {
		t.Fatal("expected a price")
	}
	if !px.Equal(decimal.RequireFromString("67012.34")) {
		t.Errorf("unexpected price %s", px)
	}
}

func TestTickerClientUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":-1121,"msg":"Invalid symbol."}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewTickerClient(NewAPIClient("", "", srv.URL, time.Second))
	if _, ok := c.LastPrice(context.Background(), "NOPEUSDT"); ok {
		t.Error("expected unavailable price on http error")
	}
}

func TestSpotOrderClientSignsMarketOrder(t *testing.T) {
	const secret = "s3cret"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v3/order" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-MBX-APIKEY") != "key" {
			t.Errorf("missing api key header")
		}
		q := r.URL.Query()
		if q.Get("side") != "BUY" || q.Get("type") != "MARKET" || q.Get("quantity") != "0.1002" {
			t.Errorf("unexpected order params %v", q)
		}

		raw := r.URL.RawQuery
		idx := strings.LastIndex(raw, "&signature=")
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write([]byte(raw[:idx]))
		if want := hex.EncodeToString(mac.Sum(nil)); raw[idx+len("&signature="):] != want {
			t.Errorf("bad signature")
		}
		fmt.Fprint(w, `{"symbol":"BTCUSDT","orderId":28,"status":"FILLED","executedQty":"0.10020000"}`)
	}))
	defer srv.Close()

	c := NewSpotOrderClient(NewAPIClient("key", secret, srv.URL, time.Second))
	res := c.PlaceOrder(context.Background(), "BTCUSDT", model.SideBuy, decimal.RequireFromString("0.1002"))
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.OrderID != "28" || res.Details != "FILLED" {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestSpotOrderClientReportsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"code":-2010,"msg":"Account has insufficient balance for requested action."}`)
	}))
	defer srv.Close()

	c := NewSpotOrderClient(NewAPIClient("key", "secret", srv.URL, time.Second))
	res := c.PlaceOrder(context.Background(), "BTCUSDT", model.SideSell, decimal.RequireFromString("1"))
	if res.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(res.Details, "-2010") {
		t.Errorf("expected api error code in details, got %q", res.Details)
	}
}

func TestSpotAccountClientBalance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"canTrade":true,"balances":[{"asset":"BTC","free":"0.5","locked":"0"},{"asset":"USDT","free":"123.45000000","locked":"1.0"}]}`)
	}))
	defer srv.Close()

	c := NewSpotAccountClient(NewAPIClient("key", "secret", srv.URL, time.Second))
	bal, err := c.Balance(context.Background(), "usdt")
	if err != nil {
		t.Fatalf("Balance failed: %v", err)
	}
	if !bal.Equal(decimal.RequireFromString("123.45")) {
		t.Errorf("unexpected balance %s", bal)
	}

	missing, err := c.Balance(context.Background(), "ETH")
	if err != nil || !missing.IsZero() {
		t.Errorf("expected zero for missing asset, got %s, %v", missing, err)
	}
}

type staticSource struct{ calls int }

func (s *staticSource) Name() string { return Name }

func (s *staticSource) LastPrice(ctx context.Context, symbol string) (decimal.Decimal, bool) {
	s.calls++
	return decimal.RequireFromString("1"), true
}

func TestStreamSourceCacheAndFallback(t *testing.T) {
	fallback := &staticSource{}
	s := NewStreamSource("wss://example.invalid", []string{"BTCUSDT"}, 10*time.Second, fallback)
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.apply([]byte(`{"stream":"btcusdt@miniTicker","data":{"s":"BTCUSDT","c":"67000.5"}}`))

	px, ok := s.LastPrice(context.Background(), "BTCUSDT")
	if !ok || !px.Equal(decimal.RequireFromString("67000.5")) {
		t.Fatalf("expected cached price, got %s %v", px, ok)
	}
	if fallback.calls != 0 {
		t.Errorf("fresh cache must not hit rest")
	}

	now = now.Add(11 * time.Second)
	px, ok = s.LastPrice(context.Background(), "BTCUSDT")
	if !ok || !px.Equal(decimal.RequireFromString("1")) || fallback.calls != 1 {
		t.Errorf("expected rest fallback for stale cache, got %s %v", px, ok)
	}
}

func TestBuildCombinedURL(t *testing.T) {
	got, err := buildCombinedURL("wss://stream.binance.com:9443", []string{"BTCUSDT", "ethusdt"})
	if err != nil {
		t.Fatalf("buildCombinedURL failed: %v", err)
	}
	want := "wss://stream.binance.com:9443/stream?streams=btcusdt@miniTicker/ethusdt@miniTicker"
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
	if _, err := buildCombinedURL("", []string{"BTCUSDT"}); err == nil {
		t.Error("expected error for empty base")
	}
}
