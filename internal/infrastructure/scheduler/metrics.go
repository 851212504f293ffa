package scheduler

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"

	appreconciliation "github.com/pharmaops/backend/internal/application/reconciliation"
	"github.com/pharmaops/backend/internal/infrastructure/telemetry"
)

// SweepMetrics publishes reconciliation sweep outcomes to OpenTelemetry.
type SweepMetrics struct {
	sweepTotal    *telemetry.Counter
	restoredTotal *telemetry.Counter
	sweepDuration *telemetry.Histogram
	restoredValue *telemetry.FloatGauge
}

// NewSweepMetrics registers the sweep instruments on the given meter.
func NewSweepMetrics(meter metric.Meter) (*SweepMetrics, error) {
	sweepTotal, err := telemetry.NewCounter(meter,
		"reconciliation.sweeps.total", "Completed reconciliation sweeps", "{sweep}")
	if err != nil {
		return nil, err
	}
	restoredTotal, err := telemetry.NewCounter(meter,
		"reconciliation.transactions.restored.total", "Transactions reclaimed by sweeps", "{transaction}")
	if err != nil {
		return nil, err
	}
	sweepDuration, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "reconciliation.sweep.duration",
		Description: "Duration of one reconciliation sweep",
		Unit:        "s",
		Boundaries:  telemetry.HTTPDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	restoredValue, err := telemetry.NewFloatGauge(meter,
		"reconciliation.sweep.restored_value", "Monetary value released by the most recent sweep", "1")
	if err != nil {
		return nil, err
	}

	return &SweepMetrics{
		sweepTotal:    sweepTotal,
		restoredTotal: restoredTotal,
		sweepDuration: sweepDuration,
		restoredValue: restoredValue,
	}, nil
}

// RecordSweep records one completed sweep. Nil-safe so callers can leave
// metrics unwired.
func (m *SweepMetrics) RecordSweep(ctx context.Context, mode string, summary *appreconciliation.RunSummary, elapsed time.Duration) {
	if m == nil || summary == nil {
		return
	}

	modeAttr := telemetry.AttrRunMode.String(mode)
	m.sweepTotal.Inc(ctx, modeAttr)
	m.restoredTotal.Add(ctx, int64(summary.RestoredCount), modeAttr)
	m.sweepDuration.RecordDuration(ctx, elapsed, modeAttr)

	value, _ := summary.TotalValue.Float64()
	m.restoredValue.Record(ctx, value, modeAttr)
}
