package binance

import (
	"context"
	"time"

	"spotarb/internal/infrastructure/exchange"
)

const Name = "binance"

// init() 自注册，svc 只需要空白导入本包
func init() {
	exchange.Register(Name, Open)
}

// Open 行情走 REST（配置 ws_url 时优先用 websocket 缓存），下单与余额走签名 REST
func Open(ctx context.Context, p exchange.Params) (*exchange.Venue, error) {
	client := NewAPIClient(p.Config.APIKey, p.Config.APISecret, p.Config.RestURL, p.Timeout)
	mgr := NewSpotManager(client)

	v := &exchange.Venue{Name: Name, Source: mgr.Ticker}
	if !p.Config.PriceOnly && p.Config.APIKey != "" {
		v.Gateway = mgr.Order
		v.Balance = mgr.Account
	}

	if p.Config.WsURL != "" {
		stream := NewStreamSource(p.Config.WsURL, p.Symbols, time.Duration(p.Config.MaxAgeSec)*time.Second, mgr.Ticker)
		if err := stream.Start(ctx); err != nil {
			return nil, err
		}
		v.Source = stream
		v.OnClose(stream.Close)
	}
	return v, nil
}
