package trading

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spotarb/internal/application/service"
	"spotarb/internal/domain/model"
)

func TestNextReport(t *testing.T) {
	paris := time.FixedZone("CEST", 2*60*60)

	tests := []struct {
		name string
		now  time.Time
		loc  *time.Location
		h, m int
		want time.Time
	}{
		{"before midnight", time.Date(2026, 10, 19, 23, 59, 0, 0, time.UTC), time.UTC, 0, 0, time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)},
		{"exactly on boundary", time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC), time.UTC, 0, 0, time.Date(2026, 10, 21, 0, 0, 0, 0, time.UTC)},
		{"later today", time.Date(2026, 10, 19, 6, 0, 0, 0, time.UTC), time.UTC, 8, 30, time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)},
		{"timezone", time.Date(2026, 10, 19, 21, 0, 0, 0, time.UTC), paris, 0, 0, time.Date(2026, 10, 20, 0, 0, 0, 0, paris)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nextReport(tt.now, tt.h, tt.m, tt.loc)
			assert.True(t, got.Equal(tt.want), "got %v want %v", got, tt.want)
		})
	}
}

func TestROI(t *testing.T) {
	assert.True(t, ROI(3, d("2.5"), d("100")).Equal(d("2.5")))
	assert.True(t, ROI(1, d("-1"), d("50")).Equal(d("-2")))
	assert.True(t, ROI(0, d("0"), d("100")).IsZero())
}

type memJournalReports struct {
	reports []model.Report
}

func (m *memJournalReports) ArchiveReport(ctx context.Context, rep model.Report) error {
	m.reports = append(m.reports, rep)
	return nil
}

func TestReporterReportResetsStats(t *testing.T) {
	store := &memStatsStore{}
	stats := service.NewStatsService(store)
	stats.Record(model.TradeOutcome{Profit: d("0.3")})
	stats.Record(model.TradeOutcome{Profit: d("-0.1")})

	notifier := &recordingNotifier{}
	archive := &memJournalReports{}
	r := NewReporter(ReporterDeps{Stats: stats, Notifier: notifier, Archiver: archive})

	boundary := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
	rep := r.Report(context.Background(), boundary)

	assert.Equal(t, int64(2), rep.Trades)
	assert.True(t, rep.Profit.Equal(d("0.2")))
	assert.True(t, rep.ROI.Equal(d("0.2")))
	assert.True(t, rep.PeriodEnd.Equal(boundary))

	st := stats.Snapshot()
	assert.Equal(t, int64(0), st.Trades)
	assert.True(t, st.PeriodStart.Equal(boundary))
	assert.Equal(t, int64(0), store.stats.Trades, "reset is persisted")

	assert.Equal(t, []model.EventKind{model.EventDailyReport}, notifier.kinds())
	require.Len(t, archive.reports, 1)
}
