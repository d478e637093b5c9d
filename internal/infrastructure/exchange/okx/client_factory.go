package okx

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"time"

	"spotarb/internal/infrastructure/exchange"
)

const (
	Name           = "okx"
	defaultRestURL = "https://www.okx.com"
)

// ===== Credentials 凭证 =====

// Credentials 包含 OKX API 凭证和签名方法
type Credentials struct {
	apiKey     string
	apiSecret  string
	passphrase string
}

// NewCredentials 创建凭证对象
func NewCredentials(apiKey, apiSecret, passphrase string) *Credentials {
	return &Credentials{
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		passphrase: passphrase,
	}
}

// Sign 生成 OKX HMAC-SHA256 签名
// OKX 签名: BASE64(HMAC-SHA256(timestamp + method + requestPath + body, secretKey))
func (c *Credentials) Sign(data string) string {
	h := hmac.New(sha256.New, []byte(c.apiSecret))
	h.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// APIKey 返回 API Key
func (c *Credentials) APIKey() string {
	return c.apiKey
}

// Passphrase 返回 Passphrase
func (c *Credentials) Passphrase() string {
	return c.passphrase
}

// APIClient 封装访问 OKX REST API 所需的共享依赖
type APIClient struct {
	credentials *Credentials
	httpClient  *http.Client
	baseURL     string
	now         func() time.Time
}

func NewAPIClient(apiKey, apiSecret, passphrase, baseURL string, timeout time.Duration) *APIClient {
	if baseURL == "" {
		baseURL = defaultRestURL
	}
	return &APIClient{
		credentials: NewCredentials(apiKey, apiSecret, passphrase),
		httpClient:  exchange.NewHTTPClient(timeout),
		baseURL:     baseURL,
		now:         time.Now,
	}
}

// SpotManager OKX 现货统一管理器
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
