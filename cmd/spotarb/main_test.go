package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"spotarb/internal/application/usecase/trading"
	"spotarb/internal/domain/model"
)

type ctxCheckingRunner struct {
	ctxErr error
}

func (r *ctxCheckingRunner) RunCycle(ctx context.Context) (trading.CycleReport, error) {
	r.ctxErr = ctx.Err()
	return trading.CycleReport{Opened: []model.Position{{Symbol: "BTCUSDT"}}}, nil
}

func TestRunOnceIgnoresSignalCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &ctxCheckingRunner{}
	rep := runOnce(ctx, r)

	assert.NoError(t, r.ctxErr)
	assert.Len(t, rep.Opened, 1)
}
