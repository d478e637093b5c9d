package bybit

import (
	"context"
	"time"

	"spotarb/internal/infrastructure/exchange"
)

func init() {
	exchange.Register(Name, Open)
}

// Open 行情走 REST（配置 ws_url 时优先用 websocket 缓存），下单与余额走 V5 签名接口
func Open(ctx context.Context, p exchange.Params) (*exchange.Venue, error) {
	client := NewAPIClient(p.Config.APIKey, p.Config.APISecret, p.Config.RestURL, p.Timeout)
	ticker := NewTickerClient(client)
	v := &exchange.Venue{Name: Name, Source: ticker}
	if !p.Config.PriceOnly && p.Config.APIKey != "" {
		v.Gateway = NewSpotOrderClient(client)
		v.Balance = NewSpotAccountClient(client)
	}

	if p.Config.WsURL != "" {
		stream := NewStreamSource(p.Config.WsURL, p.Symbols, time.Duration(p.Config.MaxAgeSec)*time.Second, ticker)
		if err := stream.Start(ctx); err != nil {
			return nil, err
		}
		v.Source = stream
		v.OnClose(stream.Close)
	}
	return v, nil
}
