package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"spotarb/internal/application/usecase/trading"
	"spotarb/internal/domain/model"
	"spotarb/internal/infrastructure/config"
	"spotarb/internal/infrastructure/logger"
	"spotarb/internal/infrastructure/svc"

	// 容器里可能没有系统时区库
	_ "time/tzdata"
)

func main() {
	configPath := flag.String("config", "configs/config.toml", "path to config.toml")
	once := flag.Bool("once", false, "run a single trading cycle and exit")
	flag.Parse()

	// 配置加载前先用默认 logger，出错也能打印
	if _, err := logger.Setup("info", ""); err != nil {
		log.Fatal().Err(err).Msg("logger setup failed")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("load config failed")
	}

	closeLog, err := logger.Setup(cfg.App.LogLevel, cfg.App.LogFile)
	if err != nil {
		log.Fatal().Err(err).Str("log_file", cfg.App.LogFile).Msg("logger setup failed")
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sc, err := svc.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("service initialization failed")
	}
	defer sc.Close()

	log.Info().
		Str("config", *configPath).
		Int("symbols", len(cfg.Symbols.List)).
		Strs("exchanges", cfg.GetEnabledExchanges()).
		Float64("spread_threshold", cfg.Strategy.SpreadThreshold).
		Dur("interval", cfg.CycleInterval()).
		Bool("once", *once).
		Msg("spotarb started")

	if *once {
		runOnce(ctx, sc.Engine())
		return
	}

	notifyLifecycle(ctx, sc, "🚀 spotarb started")
	if err := sc.App().Run(ctx); err != nil {
		log.Error().Err(err).Msg("app exited")
	}
	notifyLifecycle(context.Background(), sc, "👋 spotarb stopped")
}

func notifyLifecycle(ctx context.Context, sc *svc.ServiceContext, text string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	ev := model.NewEvent(model.EventLifecycle, "", time.Now())
	ev.Message = text
	if err := sc.Notifier().Notify(ctx, ev); err != nil {
		log.Warn().Err(err).Msg("lifecycle notification failed")
	}
}

// runOnce 下单后必须落盘，信号不打断周期
func runOnce(ctx context.Context, r trading.CycleRunner) trading.CycleReport {
	rep, err := r.RunCycle(context.WithoutCancel(ctx))
	if err != nil {
		log.Error().Err(err).Msg("cycle failed")
	}
	log.Info().
		Int("signals", len(rep.Signals)).
		Int("opened", len(rep.Opened)).
		Int("closed", len(rep.Closed)).
		Int("errors", len(rep.Errors)).
		Msg("single cycle done")
	return rep
}
