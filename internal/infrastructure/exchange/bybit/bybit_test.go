package bybit

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
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
		q := r.URL.Query()
		if r.URL.Path != "/v5/market/tickers" || q.Get("category") != "spot" || q.Get("symbol") != "ETHUSDT" {
			t.Errorf("unexpected request %s", r.URL)
		}
		fmt.Fprint(w, `{"retCode":0,"retMsg":"OK","result":{"category":"spot","list":[{"symbol":"ETHUSDT","lastPrice":"2450.12"}]}}`)
	}))
	defer srv.Close()

	c := NewTickerClient(NewAPIClient("", "", srv.URL, time.Second))
	px, ok := c.LastPrice(context.Background(), "ETHUSDT")
	if !ok || !px.Equal(decimal.RequireFromString("2450.12")) {
		t.Fatalf("unexpected price %s %v", px, ok)
	}
}

func TestTickerClientRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"retCode":10001,"retMsg":"Not supported symbols","result":{}}`)
	}))
	defer srv.Close()

	c := NewTickerClient(NewAPIClient("", "", srv.URL, time.Second))
	if _, ok := c.LastPrice(context.Background(), "FOOUSDT"); ok {
		t.Error("expected unavailable price for non-zero retCode")
	}
}

func TestSpotOrderClientPlaceOrder(t *testing.T) {
	const secret = "s3cret"
	fixed := time.UnixMilli(1700000000000)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		var req createOrderReq
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("bad body: %v", err)
			return
		}
		if req.Category != "spot" || req.Side != "Sell" || req.OrderType != "Market" || req.Qty != "0.1" || req.MarketUnit != "baseCoin" {
			t.Errorf("unexpected order %+v", req)
		}

		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write([]byte("1700000000000" + "key" + "5000" + string(body)))
		if r.Header.Get("X-BAPI-SIGN") != hex.EncodeToString(mac.Sum(nil)) {
			t.Errorf("bad signature")
		}
		fmt.Fprint(w, `{"retCode":0,"retMsg":"OK","result":{"orderId":"1321003749386327552","orderLinkId":""}}`)
	}))
	defer srv.Close()

	client := NewAPIClient("key", secret, srv.URL, time.Second)
	client.now = func() time.Time { return fixed }

	res := NewSpotOrderClient(client).PlaceOrder(context.Background(), "BTCUSDT", model.SideSell, decimal.RequireFromString("0.1"))
	if !res.Success || res.OrderID != "1321003749386327552" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestSpotOrderClientRetCodeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"retCode":170131,"retMsg":"Insufficient balance.","result":{}}`)
	}))
	defer srv.Close()

	res := NewSpotOrderClient(NewAPIClient("key", "secret", srv.URL, time.Second)).
		PlaceOrder(context.Background(), "BTCUSDT", model.SideBuy, decimal.RequireFromString("0.1"))
	if res.Success || !strings.Contains(res.Details, "170131") {
		t.Errorf("expected ret code failure, got %+v", res)
	}
}

func TestSpotAccountClientBalance(t *testing.T) {
	now := time.UnixMilli(1767225600000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v5/account/wallet-balance" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL)
			return
		}
		qs := r.URL.RawQuery
		mac := hmac.New(sha256.New, []byte("secret"))
		mac.Write([]byte("1767225600000" + "key" + "5000" + qs))
		if got := r.Header.Get("X-BAPI-SIGN"); got != hex.EncodeToString(mac.Sum(nil)) {
			t.Errorf("bad signature %s", got)
		}
		fmt.Fprint(w, `{"retCode":0,"retMsg":"OK","result":{"list":[{"accountType":"UNIFIED","coin":[
			{"coin":"USDT","walletBalance":"120.5","locked":"20.5"}]}]}}`)
	}))
	defer srv.Close()

	client := NewAPIClient("key", "secret", srv.URL, time.Second)
	client.now = func() time.Time { return now }
	bal, err := NewSpotAccountClient(client).Balance(context.Background(), "usdt")
	if err != nil {
		t.Fatalf("Balance failed: %v", err)
	}
	if !bal.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected 100, got %s", bal)
	}
}

func TestStreamSourceApply(t *testing.T) {
	now := time.Unix(1767225600, 0)
	s := NewStreamSource("wss://example", []string{"BTCUSDT"}, 10*time.Second, nil)
	s.now = func() time.Time { return now }

	s.apply([]byte(`{"success":true,"op":"subscribe"}`))
	s.apply([]byte(`{"topic":"tickers.BTCUSDT","type":"snapshot","data":{"symbol":"BTCUSDT","lastPrice":"64000.5"}}`))
	s.apply([]byte(`{"topic":"tickers.ETHUSDT","type":"snapshot","data":[{"symbol":"ETHUSDT","lastPrice":"3100"}]}`))

	px, ok := s.LastPrice(context.Background(), "BTCUSDT")
	if !ok || !px.Equal(decimal.RequireFromString("64000.5")) {
		t.Fatalf("unexpected btc price %s %v", px, ok)
	}
	if px, ok := s.LastPrice(context.Background(), "ETHUSDT"); !ok || !px.Equal(decimal.NewFromInt(3100)) {
		t.Fatalf("unexpected eth price %s %v", px, ok)
	}

	now = now.Add(11 * time.Second)
	if _, ok := s.LastPrice(context.Background(), "BTCUSDT"); ok {
		t.Error("stale price without fallback should be unavailable")
	}
}

func TestTopicsFor(t *testing.T) {
	got := topicsFor([]string{"btcusdt", " ", "ETHUSDT"})
	if strings.Join(got, ",") != "tickers.BTCUSDT,tickers.ETHUSDT" {
		t.Errorf("unexpected topics %v", got)
	}
}
