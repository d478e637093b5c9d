package okx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"spotarb/internal/application/port"
)

// SpotAccountClient OKX 账户余额
type SpotAccountClient struct {
	*APIClient
}

var _ port.BalanceProvider = (*SpotAccountClient)(nil)

// NewSpotAccountClient 创建现货账户客户端
func NewSpotAccountClient(client *APIClient) *SpotAccountClient {
	return &SpotAccountClient{APIClient: client}
}

// balanceResponse OKX 账户余额 API 响应结构
type balanceResponse struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data []struct {
		Details []struct {
			Ccy       string `json:"ccy"`       // 币种
			FrozenBal string `json:"frozenBal"` // 冻结余额
			AvailBal  string `json:"availBal"`  // 可用余额
		} `json:"details"`
	} `json:"data"`
}

// Balance GET /api/v5/account/balance?ccy=USDT，返回可用余额
func (c *SpotAccountClient) Balance(ctx context.Context, asset string) (decimal.Decimal, error) {
	asset = strings.ToUpper(strings.TrimSpace(asset))
	body, err := c.signedQueryRequest(ctx, http.MethodGet, "/api/v5/account/balance", url.Values{"ccy": {asset}})
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch okx balance: %w", err)
	}

	var resp balanceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return decimal.Zero, fmt.Errorf("decode okx balance: %w", err)
	}
	if resp.Code != "0" {
		return decimal.Zero, fmt.Errorf("okx %s: %s", resp.Code, resp.Msg)
	}

	for _, acct := range resp.Data {
		for _, d := range acct.Details {
			if strings.ToUpper(d.Ccy) != asset {
				continue
			}
			bal, err := decimal.NewFromString(d.AvailBal)
			if err != nil {
				return decimal.Zero, fmt.Errorf("parse okx balance %s: %w", d.Ccy, err)
			}
			return bal, nil
		}
	}
	return decimal.Zero, nil
}
