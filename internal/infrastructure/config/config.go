package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const envPrefix = "SPOTARB_"

type Config struct {
	App struct {
		CycleIntervalSec  int    `toml:"cycle_interval_sec"`
		RequestTimeoutSec int    `toml:"request_timeout_sec"`
		LogLevel          string `toml:"log_level"`
		LogFile           string `toml:"log_file"`
	} `toml:"app"`

	Symbols struct {
		List []string `toml:"list"`
	} `toml:"symbols"`

	Strategy StrategyConfig `toml:"strategy"`

	// venue -> 配置，例如 [exchange.binance]
	Exchange map[string]ExchangeConfig `toml:"exchange"`

	Execution struct {
		DryRun       bool   `toml:"dry_run"`
		BalanceVenue string `toml:"balance_venue"`
		BalanceAsset string `toml:"balance_asset"`
	} `toml:"execution"`

	Report ReportConfig `toml:"report"`

	Storage StorageConfig `toml:"storage"`

	Notify struct {
		Console bool     `toml:"console"`
		Events  []string `toml:"events"`
	} `toml:"notify"`

	Telegram TelegramConfig `toml:"telegram"`

	S3 S3Config `toml:"s3"`
}

type StrategyConfig struct {
	OrderSize         float64 `toml:"order_size"`
	SpreadThreshold   float64 `toml:"spread_threshold"`
	TakeProfit        float64 `toml:"take_profit"`
	StopLoss          float64 `toml:"stop_loss"`
	QuantityPrecision int32   `toml:"quantity_precision"`
}

type ExchangeConfig struct {
	Enabled    bool   `toml:"enabled"`
	PriceOnly  bool   `toml:"price_only"` // 只做价格源，不下单
	RestURL    string `toml:"rest_url"`
	WsURL      string `toml:"ws_url"`
	MaxAgeSec  int    `toml:"max_age_sec"` // ws 缓存价格的最大有效期
	APIKey     string `toml:"api_key"`
	APISecret  string `toml:"api_secret"`
	Passphrase string `toml:"passphrase"`
}

type ReportConfig struct {
	Hour     int     `toml:"hour"`
	Minute   int     `toml:"minute"`
	Timezone string  `toml:"timezone"`
	Capital  float64 `toml:"capital"`
}

type StorageConfig struct {
	Backend string `toml:"backend"` // file | sqlite

	File struct {
		PositionsPath  string `toml:"positions_path"`
		StatsPath      string `toml:"stats_path"`
		RecoverCorrupt bool   `toml:"recover_corrupt"`
	} `toml:"file"`

	SQLite struct {
		Enabled bool   `toml:"enabled"`
		Path    string `toml:"path"`
	} `toml:"sqlite"`

	Postgres struct {
		Enabled bool   `toml:"enabled"`
		DSN     string `toml:"dsn"`
	} `toml:"postgres"`

	Redis RedisConfig `toml:"redis"`
}

type RedisConfig struct {
	Enabled       bool   `toml:"enabled"`
	Addr          string `toml:"addr"`
	Password      string `toml:"password"`
	DB            int    `toml:"db"`
	Prefix        string `toml:"prefix"`
	TTLSec        int    `toml:"ttl_sec"`
	SignalStream  string `toml:"signal_stream"`
	SignalChannel string `toml:"signal_channel"`
}

type TelegramConfig struct {
	Enabled bool   `toml:"enabled"`
	Token   string `toml:"token"`
	ChatID  string `toml:"chat_id"`
	PollSec int    `toml:"poll_sec"`
	BaseURL string `toml:"base_url"`
}

type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	Prefix         string `toml:"prefix"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// Load 读取 toml，合并 .env / 环境变量中的密钥，然后补默认值并校验
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	// .env 不存在时忽略
	_ = godotenv.Load()

	normalizeExchanges(&cfg)
	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func normalizeExchanges(cfg *Config) {
	out := make(map[string]ExchangeConfig, len(cfg.Exchange))
	for name, ex := range cfg.Exchange {
		out[strings.ToLower(strings.TrimSpace(name))] = ex
	}
	cfg.Exchange = out
}

func applyEnvOverrides(cfg *Config) {
	for name, ex := range cfg.Exchange {
		p := envPrefix + strings.ToUpper(name) + "_"
		setStr(&ex.APIKey, p+"API_KEY")
		setStr(&ex.APISecret, p+"API_SECRET")
		setStr(&ex.Passphrase, p+"PASSPHRASE")
		cfg.Exchange[name] = ex
	}

	setBool(&cfg.Execution.DryRun, envPrefix+"DRY_RUN")
	setStr(&cfg.App.LogLevel, envPrefix+"LOG_LEVEL")

	setStr(&cfg.Telegram.Token, envPrefix+"TELEGRAM_TOKEN")
	setStr(&cfg.Telegram.ChatID, envPrefix+"TELEGRAM_CHAT_ID")

	setStr(&cfg.Storage.Postgres.DSN, envPrefix+"POSTGRES_DSN")
	setStr(&cfg.Storage.Redis.Addr, envPrefix+"REDIS_ADDR")
	setStr(&cfg.Storage.Redis.Password, envPrefix+"REDIS_PASSWORD")

	setStr(&cfg.S3.AccessKey, envPrefix+"S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, envPrefix+"S3_SECRET_KEY")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.CycleIntervalSec <= 0 {
		cfg.App.CycleIntervalSec = 300
	}
	if cfg.App.RequestTimeoutSec <= 0 {
		cfg.App.RequestTimeoutSec = 8
	}
	if cfg.App.LogLevel == "" {
		cfg.App.LogLevel = "info"
	}

	if cfg.Strategy.OrderSize <= 0 {
		cfg.Strategy.OrderSize = 10
	}
	if cfg.Strategy.SpreadThreshold == 0 {
		cfg.Strategy.SpreadThreshold = 0.005
	}
	if cfg.Strategy.TakeProfit == 0 {
		cfg.Strategy.TakeProfit = 0.02
	}
	if cfg.Strategy.StopLoss == 0 {
		cfg.Strategy.StopLoss = -0.01
	}
	if cfg.Strategy.QuantityPrecision <= 0 {
		cfg.Strategy.QuantityPrecision = 5
	}

	if cfg.Execution.BalanceVenue == "" {
		cfg.Execution.BalanceVenue = "binance"
	}
	if cfg.Execution.BalanceAsset == "" {
		cfg.Execution.BalanceAsset = "USDT"
	}

	if cfg.Report.Timezone == "" {
		cfg.Report.Timezone = "UTC"
	}
	if cfg.Report.Capital <= 0 {
		cfg.Report.Capital = 100
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "file"
	}
	if cfg.Storage.File.PositionsPath == "" {
		cfg.Storage.File.PositionsPath = "data/positions.json"
	}
	if cfg.Storage.File.StatsPath == "" {
		cfg.Storage.File.StatsPath = "data/stats.json"
	}
	if cfg.Storage.SQLite.Path == "" {
		cfg.Storage.SQLite.Path = "data/spotarb.db"
	}
	r := &cfg.Storage.Redis
	if r.Addr == "" {
		r.Addr = "127.0.0.1:6379"
	}
	if r.Prefix == "" {
		r.Prefix = "spotarb"
	}
	if r.TTLSec <= 0 {
		r.TTLSec = 3600
	}
	if r.SignalStream == "" {
		r.SignalStream = r.Prefix + ":events"
	}
	if r.SignalChannel == "" {
		r.SignalChannel = r.Prefix + ":events"
	}

	if cfg.Telegram.PollSec <= 0 {
		cfg.Telegram.PollSec = 5
	}
	if cfg.Telegram.BaseURL == "" {
		cfg.Telegram.BaseURL = "https://api.telegram.org"
	}

	if cfg.S3.Region == "" {
		cfg.S3.Region = "us-east-1"
	}
	if cfg.S3.Prefix == "" {
		cfg.S3.Prefix = "spotarb"
	}
}

func validate(cfg *Config) error {
	cfg.Symbols.List = normalizeSymbols(cfg.Symbols.List)
	if len(cfg.Symbols.List) == 0 {
		return errors.New("symbols.list is empty")
	}

	s := cfg.Strategy
	if s.SpreadThreshold <= 0 {
		return errors.New("strategy.spread_threshold must be > 0")
	}
	if s.TakeProfit <= 0 {
		return errors.New("strategy.take_profit must be > 0")
	}
	if s.StopLoss >= 0 {
		return errors.New("strategy.stop_loss must be < 0")
	}

	enabled := cfg.GetEnabledExchanges()
	if len(enabled) < 2 {
		return fmt.Errorf("at least two exchanges must be enabled, got %d", len(enabled))
	}
	for _, name := range enabled {
		ex := cfg.Exchange[name]
		if cfg.Execution.DryRun || ex.PriceOnly {
			continue
		}
		if strings.TrimSpace(ex.APIKey) == "" || strings.TrimSpace(ex.APISecret) == "" {
			return fmt.Errorf("exchange.%s: api_key/api_secret required for live trading (set %s%s_API_KEY or execution.dry_run)",
				name, envPrefix, strings.ToUpper(name))
		}
	}

	switch cfg.Storage.Backend {
	case "file":
	case "sqlite":
		cfg.Storage.SQLite.Enabled = true
	default:
		return fmt.Errorf("storage.backend %q not supported (file|sqlite)", cfg.Storage.Backend)
	}
	if cfg.Storage.Postgres.Enabled && cfg.Storage.Postgres.DSN == "" {
		return errors.New("storage.postgres.dsn empty but enabled")
	}

	if cfg.Report.Hour < 0 || cfg.Report.Hour > 23 || cfg.Report.Minute < 0 || cfg.Report.Minute > 59 {
		return fmt.Errorf("report time %02d:%02d out of range", cfg.Report.Hour, cfg.Report.Minute)
	}
	if _, err := time.LoadLocation(cfg.Report.Timezone); err != nil {
		return fmt.Errorf("report.timezone: %w", err)
	}

	if cfg.Telegram.Enabled && (cfg.Telegram.Token == "" || cfg.Telegram.ChatID == "") {
		return errors.New("telegram enabled but token/chat_id missing")
	}
	if cfg.S3.Enabled && cfg.S3.Bucket == "" {
		return errors.New("s3.bucket empty but enabled")
	}
	return nil
}

func normalizeSymbols(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, s := range in {
		u := strings.ToUpper(strings.TrimSpace(s))
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// GetEnabledExchanges 启用的交易所名，按字母序
func (c *Config) GetEnabledExchanges() []string {
	out := make([]string, 0, len(c.Exchange))
	for name, ex := range c.Exchange {
		if ex.Enabled {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func (c *Config) CycleInterval() time.Duration {
	return time.Duration(c.App.CycleIntervalSec) * time.Second
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.App.RequestTimeoutSec) * time.Second
}

func (c *Config) ReportLocation() *time.Location {
	loc, err := time.LoadLocation(c.Report.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (s StrategyConfig) OrderSizeDec() decimal.Decimal { return decimal.NewFromFloat(s.OrderSize) }

func (s StrategyConfig) SpreadThresholdDec() decimal.Decimal {
	return decimal.NewFromFloat(s.SpreadThreshold)
}

func (s StrategyConfig) TakeProfitDec() decimal.Decimal { return decimal.NewFromFloat(s.TakeProfit) }

func (s StrategyConfig) StopLossDec() decimal.Decimal { return decimal.NewFromFloat(s.StopLoss) }

func (r ReportConfig) CapitalDec() decimal.Decimal { return decimal.NewFromFloat(r.Capital) }
