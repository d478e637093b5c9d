package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"spotarb/internal/application/port"
	"spotarb/internal/domain/model"
)

// SpotOrderClient Bybit 现货市价单
type SpotOrderClient struct {
	*APIClient
}

var _ port.OrderGateway = (*SpotOrderClient)(nil)

// NewSpotOrderClient 创建现货订单客户端
func NewSpotOrderClient(client *APIClient) *SpotOrderClient {
	return &SpotOrderClient{APIClient: client}
}

type createOrderReq struct {
	Category   string `json:"category"`
	Symbol     string `json:"symbol"`
	Side       string `json:"side"`
	OrderType  string `json:"orderType"`
	Qty        string `json:"qty"`
	MarketUnit string `json:"marketUnit"`
}

type createOrderResp struct {
	v5Envelope
	Result struct {
		OrderID     string `json:"orderId"`
		OrderLinkID string `json:"orderLinkId"`
	} `json:"result"`
}

func (c *SpotOrderClient) Name() string { return Name }

// PlaceOrder POST /v5/order/create，市价单数量按基础币计（marketUnit=baseCoin）
func (c *SpotOrderClient) PlaceOrder(ctx context.Context, symbol string, side model.Side, quantity decimal.Decimal) model.OrderResult {
	res := model.OrderResult{Venue: Name, Symbol: symbol, Side: side, Qty: quantity}

	s := "Buy"
	if side == model.SideSell {
		s = "Sell"
	}
	body, err := c.signedJSONRequest(ctx, http.MethodPost, "/v5/order/create", createOrderReq{
		Category:   "spot",
		Symbol:     symbolConverter.VenueSymbol(symbol),
		Side:       s,
		OrderType:  "Market",
		Qty:        quantity.String(),
		MarketUnit: "baseCoin",
	})
	if err != nil {
		res.Details = err.Error()
		return res
	}

	var resp createOrderResp
	if err := json.Unmarshal(body, &resp); err != nil {
		res.Details = "decode order response: " + err.Error()
		return res
	}
	if resp.RetCode != 0 {
		res.Details = fmt.Sprintf("bybit %d: %s", resp.RetCode, resp.RetMsg)
		return res
	}
	res.Success = true
	res.OrderID = resp.Result.OrderID
	res.Details = resp.RetMsg
	return res
}
