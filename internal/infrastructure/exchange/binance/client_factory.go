package binance

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"spotarb/internal/infrastructure/exchange"
)

const (
	defaultRestURL = "https://api.binance.com"
)

// ===== Credentials 凭证 =====

// Credentials 包含 API 凭证和签名方法
type Credentials struct {
	apiKey    string
	apiSecret string
}

// NewCredentials 创建凭证对象
func NewCredentials(apiKey, apiSecret string) *Credentials {
	return &Credentials{
		apiKey:    apiKey,
		apiSecret: apiSecret,
	}
}

// Sign 生成 HMAC-SHA256 签名（hex）
func (c *Credentials) Sign(data string) string {
	h := hmac.New(sha256.New, []byte(c.apiSecret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

// APIKey 返回 API Key
func (c *Credentials) APIKey() string {
	return c.apiKey
}

// APIClient 现货 REST 客户端，行情、下单、账户共用一个连接池
type APIClient struct {
	credentials *Credentials
	httpClient  *http.Client
	baseURL     string
	now         func() time.Time
}

func NewAPIClient(apiKey, apiSecret, baseURL string, timeout time.Duration) *APIClient {
	if baseURL == "" {
		baseURL = defaultRestURL
	}
	return &APIClient{
		credentials: NewCredentials(apiKey, apiSecret),
		httpClient:  exchange.NewHTTPClient(timeout),
		baseURL:     baseURL,
		now:         time.Now,
	}
}

// SpotManager Binance 现货统一管理器
type SpotManager struct {
	Ticker  *TickerClient
	Order   *SpotOrderClient
	Account *SpotAccountClient
}

func NewSpotManager(client *APIClient) *SpotManager {
	return &SpotManager{
		Ticker:  NewTickerClient(client),
		Order:   NewSpotOrderClient(client),
		Account: NewSpotAccountClient(client),
	}
}
