package persistence

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/pharmaops/backend/internal/infrastructure/telemetry"
)

// PoolMetrics periodically samples the connection pool onto OpenTelemetry
// instruments: a gauge of connections by state and a histogram of average
// wait time per acquisition.
type PoolMetrics struct {
	db       *Database
	logger   *zap.Logger
	interval time.Duration

	connections *telemetry.Gauge
	waitTime    *telemetry.Histogram

	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoolMetrics registers the pool instruments on the given meter.
func NewPoolMetrics(db *Database, meter metric.Meter, interval time.Duration, logger *zap.Logger) (*PoolMetrics, error) {
	connections, err := telemetry.NewGauge(meter,
		"db.pool.connections", "Connection pool occupancy by state", "{connection}")
	if err != nil {
		return nil, err
	}
	waitTime, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "db.pool.wait_time",
		Description: "Average time spent waiting for a connection, per sampling window",
		Unit:        "s",
		Boundaries:  telemetry.DBDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	if interval <= 0 {
		interval = 15 * time.Second
	}

	return &PoolMetrics{
		db:          db,
		logger:      logger,
		interval:    interval,
		connections: connections,
		waitTime:    waitTime,
	}, nil
}

// Start launches the sampling loop. Call Stop to end it.
func (p *PoolMetrics) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		var prev ConnectionStats
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				prev = p.sample(ctx, prev)
			}
		}
	}()
}

// Stop ends the sampling loop and waits for it to exit.
func (p *PoolMetrics) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
}

func (p *PoolMetrics) sample(ctx context.Context, prev ConnectionStats) ConnectionStats {
	stats, err := p.db.Stats()
	if err != nil {
		p.logger.Warn("Failed to sample connection pool stats", zap.Error(err))
		return prev
	}

	p.connections.Record(ctx, int64(stats.InUse), telemetry.AttrDBState.String("in_use"))
	p.connections.Record(ctx, int64(stats.Idle), telemetry.AttrDBState.String("idle"))
	p.connections.Record(ctx, int64(stats.OpenConnections), telemetry.AttrDBState.String("open"))
	p.connections.Record(ctx, int64(stats.MaxOpenConnections), telemetry.AttrDBState.String("max_open"))

	// WaitCount and WaitDuration are cumulative, so the window delta gives
	// the average wait for acquisitions since the previous sample.
	if waits := stats.WaitCount - prev.WaitCount; waits > 0 {
		avg := (stats.WaitDuration - prev.WaitDuration) / time.Duration(waits)
		p.waitTime.RecordDuration(ctx, avg)
	}

	return stats
}
