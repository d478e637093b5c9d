package bitget

import (
	"context"

	"spotarb/internal/infrastructure/exchange"
)

// init() 自注册，svc 只需要空白导入本包
func init() {
	exchange.Register(Name, Open)
}

// Open Bitget 只接入现货行情
func Open(ctx context.Context, p exchange.Params) (*exchange.Venue, error) {
	return &exchange.Venue{Name: Name, Source: NewTickerClient(p.Config.RestURL, p.Timeout)}, nil
}
