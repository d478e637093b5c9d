package okx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"spotarb/internal/application/port"
	"spotarb/internal/domain/model"
)

// SpotOrderClient OKX 现货市价单
type SpotOrderClient struct {
	*APIClient
}

var _ port.OrderGateway = (*SpotOrderClient)(nil)

func NewSpotOrderClient(client *APIClient) *SpotOrderClient {
	return &SpotOrderClient{APIClient: client}
}

type placeOrderReq struct {
	InstID  string `json:"instId"`
	TdMode  string `json:"tdMode"`
	Side    string `json:"side"`
	OrdType string `json:"ordType"`
	Sz      string `json:"sz"`
	TgtCcy  string `json:"tgtCcy"`
}

type placeOrderResp struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data []struct {
		OrdID string `json:"ordId"`
		SCode string `json:"sCode"`
		SMsg  string `json:"sMsg"`
	} `json:"data"`
}

func (c *SpotOrderClient) Name() string { return Name }

// PlaceOrder POST /api/v5/trade/order：现货 cash 模式，sz 以基础币计（tgtCcy=base_ccy）
func (c *SpotOrderClient) PlaceOrder(ctx context.Context, symbol string, side model.Side, quantity decimal.Decimal) model.OrderResult {
	res := model.OrderResult{Venue: Name, Symbol: symbol, Side: side, Qty: quantity}

	body, err := c.signedJSONRequest(ctx, http.MethodPost, "/api/v5/trade/order", placeOrderReq{
		InstID:  symbolConverter.VenueSymbol(symbol),
		TdMode:  "cash",
		Side:    strings.ToLower(string(side)),
		OrdType: "market",
		Sz:      quantity.String(),
		TgtCcy:  "base_ccy",
	})
	if err != nil {
		res.Details = err.Error()
		return res
	}

	var resp placeOrderResp
	if err := json.Unmarshal(body, &resp); err != nil {
		res.Details = "decode order response: " + err.Error()
		return res
	}
	if resp.Code != "0" || len(resp.Data) == 0 || resp.Data[0].SCode != "0" {
		msg := resp.Msg
		if len(resp.Data) > 0 && resp.Data[0].SMsg != "" {
			msg = resp.Data[0].SMsg
		}
		res.Details = fmt.Sprintf("okx %s: %s", resp.Code, msg)
		return res
	}
	res.Success = true
	res.OrderID = resp.Data[0].OrdID
	return res
}
