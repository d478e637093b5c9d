package binance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"spotarb/internal/application/port"
	"spotarb/internal/domain/model"
)

// SpotOrderClient Binance 现货市价单
type SpotOrderClient struct {
	*APIClient
}

var _ port.OrderGateway = (*SpotOrderClient)(nil)

func NewSpotOrderClient(client *APIClient) *SpotOrderClient {
	return &SpotOrderClient{APIClient: client}
}

type orderResp struct {
	Symbol      string `json:"symbol"`
	OrderID     int64  `json:"orderId"`
	Status      string `json:"status"`
	ExecutedQty string `json:"executedQty"`
}

func (c *SpotOrderClient) Name() string { return Name }

// PlaceOrder POST /api/v3/order type=MARKET，数量按基础币计
func (c *SpotOrderClient) PlaceOrder(ctx context.Context, symbol string, side model.Side, quantity decimal.Decimal) model.OrderResult {
	res := model.OrderResult{Venue: Name, Symbol: symbol, Side: side, Qty: quantity}

	params := url.Values{}
	params.Set("symbol", symbolConverter.VenueSymbol(symbol))
	params.Set("side", strings.ToUpper(string(side)))
	params.Set("type", "MARKET")
	params.Set("quantity", quantity.String())
	params.Set("newOrderRespType", "RESULT")

	body, err := c.signedRequest(ctx, http.MethodPost, "/api/v3/order", params)
	if err != nil {
		res.Details = err.Error()
		return res
	}

	var resp orderResp
	if err := json.Unmarshal(body, &resp); err != nil {
		res.Details = "decode order response: " + err.Error()
		return res
	}
	res.Success = true
	res.OrderID = strconv.FormatInt(resp.OrderID, 10)
	res.Details = resp.Status
	return res
}
