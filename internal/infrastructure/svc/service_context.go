package svc

import (
	"context"
	"fmt"
	"time"

	redisclient "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"spotarb/internal/application/port"
	"spotarb/internal/application/service"
	"spotarb/internal/application/usecase/trading"
	dsvc "spotarb/internal/domain/service"
	s3blob "spotarb/internal/infrastructure/blob/s3"
	"spotarb/internal/infrastructure/config"
	"spotarb/internal/infrastructure/exchange"
	"spotarb/internal/infrastructure/exchange/paper"
	"spotarb/internal/infrastructure/storage/composite"
	filestore "spotarb/internal/infrastructure/storage/file"
	pgrepo "spotarb/internal/infrastructure/storage/postgres"
	redisrepo "spotarb/internal/infrastructure/storage/redis"
	sqliterepo "spotarb/internal/infrastructure/storage/sqlite"
	"spotarb/internal/interfaces/console"
	"spotarb/internal/interfaces/telegram"

	// 交易所通过 init() 自注册
	_ "spotarb/internal/infrastructure/exchange/binance"
	_ "spotarb/internal/infrastructure/exchange/bitget"
	_ "spotarb/internal/infrastructure/exchange/bybit"
	_ "spotarb/internal/infrastructure/exchange/kraken"
	_ "spotarb/internal/infrastructure/exchange/okx"
)

type ServiceContext struct {
	Ctx    context.Context
	Config *config.Config

	// 基础设施层（第一层初始化）
	venues      []*exchange.Venue
	redisClient *redisclient.Client
	sqliteRepo  *sqliterepo.Repo
	store       port.PositionStore
	statsStore  port.StatsStore
	journal     *composite.Repo
	archiver    port.ReportArchiver
	senders     []port.Sender
	control     port.ControlChannel

	// 应用业务组件（依赖基础设施）
	state      *trading.RunState
	stats      *service.StatsService
	notifier   *service.NotifyService
	engine     *trading.Engine
	scheduler  *trading.Scheduler
	reporter   *trading.Reporter
	controller *trading.Controller

	// 资源管理
	closerChain []func() error
}

// New 创建并初始化 ServiceContext
// 这是应用启动的唯一入口点，所有依赖初始化都在这里完成
func New(ctx context.Context, cfg *config.Config) (*ServiceContext, error) {
	sc := &ServiceContext{
		Ctx:         ctx,
		Config:      cfg,
		state:       trading.NewRunState(true),
		closerChain: make([]func() error, 0),
	}

	if err := sc.initializeComponents(); err != nil {
		// 清理已初始化的资源
		_ = sc.Close()
		return nil, err
	}
	return sc, nil
}

// initializeComponents 按依赖顺序初始化，存储最先，交易引擎最后
func (sc *ServiceContext) initializeComponents() error {
	if err := sc.initializeStorage(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageInitFailed, err)
	}
	if err := sc.initVenues(); err != nil {
		return err
	}
	if err := sc.initNotify(); err != nil {
		return err
	}
	if err := sc.initArchiver(); err != nil {
		return err
	}
	if err := sc.initTrading(); err != nil {
		return err
	}

	log.Info().
		Int("venues", len(sc.venues)).
		Strs("symbols", sc.Config.Symbols.List).
		Strs("senders", sc.notifier.Senders()).
		Bool("dry_run", sc.Config.Execution.DryRun).
		Msg("✓ All components initialized")
	return nil
}

// initializeStorage 持仓/统计存储 + 流水（SQLite、Postgres、Redis）
func (sc *ServiceContext) initializeStorage() error {
	st := sc.Config.Storage
	var journals []port.TradeJournal

	if st.SQLite.Enabled {
		if err := sc.initSQLite(); err != nil {
			return fmt.Errorf("sqlite initialization failed: %w", err)
		}
		journals = append(journals, sc.sqliteRepo)
	}

	switch st.Backend {
	case "sqlite":
		sc.store = sc.sqliteRepo
		sc.statsStore = sc.sqliteRepo
	default:
		fs := filestore.New(st.File.PositionsPath, st.File.StatsPath, st.File.RecoverCorrupt)
		sc.store = fs
		sc.statsStore = fs
	}
	log.Info().Str("backend", st.Backend).Msg("✓ Position store selected")

	if st.Postgres.Enabled {
		repo, err := pgrepo.New(st.Postgres.DSN)
		if err != nil {
			return fmt.Errorf("postgres initialization failed: %w", err)
		}
		journals = append(journals, repo)
		sc.closerChain = append(sc.closerChain, func() error {
			log.Info().Msg("closing postgres connection")
			return repo.Close()
		})
		log.Info().Msg("✓ Postgres initialized")
	}

	if st.Redis.Enabled {
		if err := sc.initRedis(); err != nil {
			return fmt.Errorf("redis initialization failed: %w", err)
		}
		ttl := time.Duration(st.Redis.TTLSec) * time.Second
		journals = append(journals, redisrepo.New(sc.redisClient, st.Redis.Prefix, ttl))
	}

	// journal 不拥有连接，连接由 closerChain 关闭
	sc.journal = composite.New(journals...)
	return nil
}

// initRedis 初始化 Redis 连接
func (sc *ServiceContext) initRedis() error {
	cfg := sc.Config.Storage.Redis
	rdb := redisclient.NewClient(&redisclient.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(sc.Ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return fmt.Errorf("redis ping failed: %w", err)
	}

	sc.redisClient = rdb
	sc.closerChain = append(sc.closerChain, func() error {
		log.Info().Msg("closing redis connection")
		return rdb.Close()
	})

	log.Info().
		Str("addr", cfg.Addr).
		Int("db", cfg.DB).
		Msg("✓ Redis initialized")
	return nil
}

// initSQLite 初始化 SQLite 数据库
func (sc *ServiceContext) initSQLite() error {
	repo, err := sqliterepo.New(sc.Config.Storage.SQLite.Path)
	if err != nil {
		return fmt.Errorf("sqlite repo creation failed: %w", err)
	}
	sc.sqliteRepo = repo
	sc.closerChain = append(sc.closerChain, func() error {
		log.Info().Msg("closing sqlite connection")
		return repo.Close()
	})

	log.Info().
		Str("path", sc.Config.Storage.SQLite.Path).
		Msg("✓ SQLite initialized")
	return nil
}

// initVenues 通过注册表打开所有启用的交易所；打不开的交易所跳过，但至少要剩两个
func (sc *ServiceContext) initVenues() error {
	timeout := sc.Config.RequestTimeout()
	for _, name := range sc.Config.GetEnabledExchanges() {
		v, err := exchange.Open(sc.Ctx, exchange.Params{
			Name:    name,
			Config:  sc.Config.Exchange[name],
			Symbols: sc.Config.Symbols.List,
			Timeout: timeout,
		})
		if err != nil {
			log.Error().Err(err).Str("exchange", name).Msg("exchange initialization failed, skipped")
			continue
		}
		if sc.Config.Execution.DryRun && !sc.Config.Exchange[name].PriceOnly {
			v.Gateway = paper.NewGateway(name)
		}
		sc.venues = append(sc.venues, v)
		sc.closerChain = append(sc.closerChain, v.Close)

		log.Info().
			Str("exchange", name).
			Bool("trading", v.Gateway != nil).
			Bool("balance", v.Balance != nil).
			Msg("✓ Exchange initialized")
	}
	if len(sc.venues) < 2 {
		return fmt.Errorf("%w: got %d (registered: %v)", ErrNoSources, len(sc.venues), exchange.Registered())
	}
	return nil
}

func (sc *ServiceContext) initNotify() error {
	if sc.Config.Notify.Console {
		sc.senders = append(sc.senders, console.NewSink())
	}
	if tg := sc.Config.Telegram; tg.Enabled {
		bot := telegram.New(tg.BaseURL, tg.Token, tg.ChatID, time.Duration(tg.PollSec)*time.Second)
		sc.senders = append(sc.senders, bot)
		sc.control = bot
		log.Info().Str("chat", tg.ChatID).Msg("✓ Telegram initialized")
	}
	if sc.redisClient != nil {
		r := sc.Config.Storage.Redis
		sc.senders = append(sc.senders, redisrepo.NewPublisher(sc.redisClient, r.Prefix, r.SignalStream, r.SignalChannel))
	}
	sc.notifier = service.NewNotifyService(sc.senders, sc.Config.Notify.Events, trading.FormatEvent)
	return nil
}

func (sc *ServiceContext) initArchiver() error {
	c := sc.Config.S3
	if !c.Enabled {
		return nil
	}
	a, err := s3blob.New(sc.Ctx, s3blob.Config{
		Endpoint:       c.Endpoint,
		Region:         c.Region,
		Bucket:         c.Bucket,
		Prefix:         c.Prefix,
		AccessKey:      c.AccessKey,
		SecretKey:      c.SecretKey,
		ForcePathStyle: c.ForcePathStyle,
	})
	if err != nil {
		return fmt.Errorf("s3 initialization failed: %w", err)
	}
	sc.archiver = a
	log.Info().Str("bucket", c.Bucket).Msg("✓ S3 archiver initialized")
	return nil
}

func (sc *ServiceContext) initTrading() error {
	cfg := sc.Config
	sources := make([]port.PriceSource, 0, len(sc.venues))
	gateways := make(map[string]port.OrderGateway, len(sc.venues))
	var balance port.BalanceProvider
	for _, v := range sc.venues {
		sources = append(sources, v.Source)
		if v.Gateway != nil {
			gateways[v.Name] = v.Gateway
		}
		if v.Name == cfg.Execution.BalanceVenue {
			balance = v.Balance
		}
	}

	prices := service.NewPriceService(sources, cfg.RequestTimeout())
	log.Info().Strs("sources", prices.Sources()).Msg("✓ Price sources ready")

	sc.stats = service.NewStatsService(sc.statsStore)
	sc.engine = trading.NewEngine(trading.EngineDeps{
		Symbols:           cfg.Symbols.List,
		Prices:            prices,
		Stats:             sc.stats,
		Store:             sc.store,
		Gateways:          gateways,
		Journal:           sc.journal,
		Notifier:          sc.notifier,
		OrderSize:         cfg.Strategy.OrderSizeDec(),
		SpreadThreshold:   cfg.Strategy.SpreadThresholdDec(),
		Exit:              dsvc.ExitRule{TakeProfit: cfg.Strategy.TakeProfitDec(), StopLoss: cfg.Strategy.StopLossDec()},
		QuantityPrecision: cfg.Strategy.QuantityPrecision,
		OrderTimeout:      cfg.RequestTimeout(),
	})
	// 持仓或统计读不出来时拒绝启动，避免重复开仓
	if err := sc.engine.Restore(sc.Ctx); err != nil {
		return fmt.Errorf("restore state: %w", err)
	}

	sc.scheduler = trading.NewScheduler(sc.engine, sc.state, cfg.CycleInterval())
	sc.reporter = trading.NewReporter(trading.ReporterDeps{
		Stats:    sc.stats,
		Journal:  sc.journal,
		Archiver: sc.archiver,
		Notifier: sc.notifier,
		Hour:     cfg.Report.Hour,
		Minute:   cfg.Report.Minute,
		Location: cfg.ReportLocation(),
		Capital:  cfg.Report.CapitalDec(),
	})
	sc.controller = trading.NewController(trading.ControllerDeps{
		State:        sc.state,
		Stats:        sc.stats,
		Positions:    sc.engine.Positions,
		Balance:      balance,
		BalanceVenue: cfg.Execution.BalanceVenue,
		BalanceAsset: cfg.Execution.BalanceAsset,
		Timeout:      cfg.RequestTimeout(),
	})
	return nil
}

// App 组装好的长期运行应用
func (sc *ServiceContext) App() *trading.App {
	return &trading.App{
		Scheduler:  sc.scheduler,
		Reporter:   sc.reporter,
		Controller: sc.controller,
		Control:    sc.control,
	}
}

// Engine 交易引擎（-once 模式直接跑一个周期）
func (sc *ServiceContext) Engine() *trading.Engine {
	return sc.engine
}

// Notifier 启动 / 退出通知
func (sc *ServiceContext) Notifier() port.Notifier {
	return sc.notifier
}

// Close 关闭 ServiceContext 中的所有资源
// 按照相反的顺序关闭，连接最后关闭
func (sc *ServiceContext) Close() error {
	if sc.stats != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := sc.stats.Persist(ctx); err != nil {
			log.Error().Err(err).Msg("final statistics persist failed")
		}
		cancel()
	}

	for i := len(sc.closerChain) - 1; i >= 0; i-- {
		if err := sc.closerChain[i](); err != nil {
			log.Error().Err(err).Msg("error closing resource")
		}
	}
	sc.closerChain = nil
	return nil
}
