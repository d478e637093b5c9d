package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"spotarb/internal/application/port"
)

// SpotAccountClient Binance 现货账户查询客户端
type SpotAccountClient struct {
	*APIClient
}

var _ port.BalanceProvider = (*SpotAccountClient)(nil)

// NewSpotAccountClient 创建现货账户客户端
func NewSpotAccountClient(client *APIClient) *SpotAccountClient {
	return &SpotAccountClient{APIClient: client}
}

// spotAccountResponse 现货账户响应结构
type spotAccountResponse struct {
	CanTrade   bool  `json:"canTrade"`
	UpdateTime int64 `json:"updateTime"`
	Balances   []struct {
		Asset  string `json:"asset"`
		Free   string `json:"free"`
		Locked string `json:"locked"`
	} `json:"balances"`
}

func (c *SpotAccountClient) fetchAccount(ctx context.Context) (*spotAccountResponse, error) {
	body, err := c.signedRequest(ctx, http.MethodGet, "/api/v3/account", nil)
	if err != nil {
		return nil, err
	}
	var resp spotAccountResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode account: %w", err)
	}
	return &resp, nil
}

// Balance 某个资产的可用余额（free），账户中没有该资产时返回 0
func (c *SpotAccountClient) Balance(ctx context.Context, asset string) (decimal.Decimal, error) {
	resp, err := c.fetchAccount(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	asset = strings.ToUpper(strings.TrimSpace(asset))
	for _, b := range resp.Balances {
		if strings.ToUpper(b.Asset) != asset {
			continue
		}
		free, err := decimal.NewFromString(b.Free)
		if err != nil {
			return decimal.Zero, fmt.Errorf("parse free balance for %s: %w", b.Asset, err)
		}
		return free, nil
	}
	return decimal.Zero, nil
}
