package bybit

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"spotarb/internal/infrastructure/exchange"
)

const (
	Name           = "bybit"
	defaultRestURL = "https://api.bybit.com"
)

// Credentials Bybit V5 凭证
type Credentials struct {
	apiKey    string
	apiSecret string
}

func NewCredentials(apiKey, apiSecret string) *Credentials {
	return &Credentials{apiKey: apiKey, apiSecret: apiSecret}
}

// Sign HMAC-SHA256（hex）
func (c *Credentials) Sign(data string) string {
	h := hmac.New(sha256.New, []byte(c.apiSecret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

func (c *Credentials) APIKey() string { return c.apiKey }

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

// v5Envelope 所有 V5 接口的外层结构
type v5Envelope struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
}
