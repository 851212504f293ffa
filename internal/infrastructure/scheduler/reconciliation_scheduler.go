package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	appreconciliation "github.com/pharmaops/backend/internal/application/reconciliation"
	"github.com/pharmaops/backend/internal/domain/reconciliation"
)

// ReconciliationScheduler runs the expired-transaction cleanup sweep on a
// fixed interval. Each firing is an automatic, unrestricted sweep.
//
// If a sweep is still running when the interval fires again, the firing is
// skipped rather than queued: the next sweep picks up whatever the slow one
// left behind.
type ReconciliationScheduler struct {
	service   *appreconciliation.CleanupService
	logger    *zap.Logger
	config    ReconciliationSchedulerConfig
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	sweeping  bool
}

// ReconciliationSchedulerConfig holds configuration for the reconciliation scheduler
type ReconciliationSchedulerConfig struct {
	// Enabled determines if the scheduler is active
	Enabled bool

	// CheckInterval is how often the sweep fires
	CheckInterval time.Duration

	// RunTimeout is the maximum time for a single sweep
	RunTimeout time.Duration

	// Metrics records sweep outcomes; nil disables recording
	Metrics *SweepMetrics
}

// DefaultReconciliationSchedulerConfig returns default configuration
func DefaultReconciliationSchedulerConfig() ReconciliationSchedulerConfig {
	return ReconciliationSchedulerConfig{
		Enabled:       true,
		CheckInterval: 5 * time.Minute,
		RunTimeout:    2 * time.Minute,
	}
}

// NewReconciliationScheduler creates a new reconciliation scheduler
func NewReconciliationScheduler(
	service *appreconciliation.CleanupService,
	logger *zap.Logger,
	config ReconciliationSchedulerConfig,
) *ReconciliationScheduler {
	return &ReconciliationScheduler{
		service: service,
		logger:  logger,
		config:  config,
	}
}

// Start starts the periodic sweep loop
func (s *ReconciliationScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Reconciliation scheduler is disabled")
		return nil
	}
	if s.config.CheckInterval <= 0 {
		s.mu.Unlock()
		return ErrInvalidConfig
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("Reconciliation scheduler started",
		zap.Duration("check_interval", s.config.CheckInterval),
		zap.Duration("run_timeout", s.config.RunTimeout),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *ReconciliationScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	// Wait for an in-flight sweep to finish with timeout
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Reconciliation scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Reconciliation scheduler stop timed out")
		return ctx.Err()
	}
}

// run fires the sweep on every tick until the context is cancelled
func (s *ReconciliationScheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Reconciliation sweep loop stopping")
			return
		case <-ticker.C:
			s.executeSweep(ctx)
		}
	}
}

// executeSweep runs one automatic sweep, skipping if one is already in flight
func (s *ReconciliationScheduler) executeSweep(ctx context.Context) {
	s.mu.Lock()
	if s.sweeping {
		s.mu.Unlock()
		s.logger.Warn("Skipping reconciliation sweep, previous sweep still running")
		return
	}
	s.sweeping = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.sweeping = false
		s.mu.Unlock()
	}()

	sweepCtx, cancel := context.WithTimeout(ctx, s.config.RunTimeout)
	defer cancel()

	startTime := time.Now()
	summary, err := s.service.Run(sweepCtx, appreconciliation.RunInput{
		Mode: reconciliation.RunModeAutomatic,
	})
	duration := time.Since(startTime)

	if err != nil {
		s.logger.Error("Scheduled reconciliation sweep failed",
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return
	}

	s.config.Metrics.RecordSweep(sweepCtx, string(reconciliation.RunModeAutomatic), summary, duration)

	s.logger.Info("Scheduled reconciliation sweep completed",
		zap.Duration("duration", duration),
		zap.Int("restored", summary.RestoredCount),
		zap.Int("skipped", summary.SkippedCount),
		zap.String("total_value", summary.TotalValue.String()),
	)
}

// TriggerImmediateSweep runs a sweep now instead of waiting for the next tick
func (s *ReconciliationScheduler) TriggerImmediateSweep(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.wg.Add(1)
	s.mu.Unlock()

	s.logger.Info("Triggering immediate reconciliation sweep")

	go func() {
		defer s.wg.Done()
		s.executeSweep(ctx)
	}()

	return nil
}

// IsRunning returns whether the scheduler is running
func (s *ReconciliationScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}
