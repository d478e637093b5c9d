package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"spotarb/internal/application/port"
)

// SpotAccountClient Bybit 统一账户余额查询
type SpotAccountClient struct {
	*APIClient
	accountType string
}

var _ port.BalanceProvider = (*SpotAccountClient)(nil)

func NewSpotAccountClient(client *APIClient) *SpotAccountClient {
	return &SpotAccountClient{APIClient: client, accountType: "UNIFIED"}
}

// walletBalanceResponse Bybit wallet-balance API 响应结构
type walletBalanceResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		List []struct {
			AccountType string `json:"accountType"`
			Coin        []struct {
				Coin                string `json:"coin"`
				WalletBalance       string `json:"walletBalance"`
				Locked              string `json:"locked"`
				AvailableToWithdraw string `json:"availableToWithdraw"`
			} `json:"coin"`
		} `json:"list"`
	} `json:"result"`
}

// Balance 可用余额 = walletBalance - locked
func (c *SpotAccountClient) Balance(ctx context.Context, asset string) (decimal.Decimal, error) {
	asset = strings.ToUpper(asset)
	body, err := c.signedGetRequest(ctx, "/v5/account/wallet-balance", url.Values{
		"accountType": {c.accountType},
		"coin":        {asset},
	})
	if err != nil {
		return decimal.Zero, err
	}

	var resp walletBalanceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return decimal.Zero, fmt.Errorf("bybit wallet-balance decode: %w", err)
	}
	if resp.RetCode != 0 {
		return decimal.Zero, fmt.Errorf("bybit wallet-balance %d: %s", resp.RetCode, resp.RetMsg)
	}

	for _, account := range resp.Result.List {
		for _, coin := range account.Coin {
			if coin.Coin != asset {
				continue
			}
			total, err := decimal.NewFromString(coin.WalletBalance)
			if err != nil {
				return decimal.Zero, fmt.Errorf("bybit walletBalance %q: %w", coin.WalletBalance, err)
			}
			if locked, err := decimal.NewFromString(coin.Locked); err == nil {
				total = total.Sub(locked)
			}
			return total, nil
		}
	}
	return decimal.Zero, nil
}
