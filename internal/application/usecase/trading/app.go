package trading

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"spotarb/internal/application/port"
)

// App 把调度器、日报定时器和控制通道跑在同一个 errgroup 里
type App struct {
	Scheduler  *Scheduler
	Reporter   *Reporter
	Controller *Controller
	Control    port.ControlChannel // optional
}

func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.Scheduler.Run(gctx) })
	if a.Reporter != nil {
		g.Go(func() error { return a.Reporter.Run(gctx) })
	}
	if a.Control != nil && a.Controller != nil {
		g.Go(func() error { return a.Control.Listen(gctx, a.Controller.Handle) })
	}

	err := g.Wait()
	log.Info().Msg("app stopped")
	return err
}
