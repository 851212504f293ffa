package telemetry

import (
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/grafana/pyroscope-go"
	"go.uber.org/zap"
)

// ProfilerConfig controls Pyroscope continuous profiling. Profile types are
// grouped: Memory covers alloc and in-use heap profiles, Sync covers mutex
// and block profiles.
type ProfilerConfig struct {
	Enabled         bool
	ServerAddress   string // e.g. "http://pyroscope:4040"
	ApplicationName string

	// Basic auth, only needed for hosted Pyroscope
	BasicAuthUser     string
	BasicAuthPassword string

	CPU        bool
	Memory     bool
	Goroutines bool
	Sync       bool

	MutexProfileFraction int // runtime.SetMutexProfileFraction, default 5
	BlockProfileRate     int // runtime.SetBlockProfileRate, default 5
	DisableGCRuns        bool
}

func (c ProfilerConfig) validate() error {
	if c.ServerAddress == "" {
		return fmt.Errorf("profiler server address is required when profiling is enabled")
	}
	if c.ApplicationName == "" {
		return fmt.Errorf("profiler application name is required when profiling is enabled")
	}
	return nil
}

// profileTypes expands the config groups into Pyroscope profile types.
func (c ProfilerConfig) profileTypes() []pyroscope.ProfileType {
	var types []pyroscope.ProfileType
	if c.CPU {
		types = append(types, pyroscope.ProfileCPU)
	}
	if c.Memory {
		types = append(types,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
		)
	}
	if c.Goroutines {
		types = append(types, pyroscope.ProfileGoroutines)
	}
	if c.Sync {
		types = append(types,
			pyroscope.ProfileMutexCount,
			pyroscope.ProfileMutexDuration,
			pyroscope.ProfileBlockCount,
			pyroscope.ProfileBlockDuration,
		)
	}
	return types
}

// Profiler owns the Pyroscope session lifecycle. A disabled config yields a
// no-op profiler whose Stop does nothing.
type Profiler struct {
	session *pyroscope.Profiler
	logger  *zap.Logger
	config  ProfilerConfig

	mu      sync.Mutex
	stopped bool
}

// NewProfiler validates the config and starts a Pyroscope session.
func NewProfiler(cfg ProfilerConfig, logger *zap.Logger) (*Profiler, error) {
	p := &Profiler{logger: logger, config: cfg}

	if !cfg.Enabled {
		logger.Info("Continuous profiling disabled")
		return p, nil
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.Sync {
		applySyncProfileRates(cfg, logger)
	}

	types := cfg.profileTypes()
	if len(types) == 0 {
		logger.Warn("No profile types enabled, profiler will not collect any data")
	}

	session, err := pyroscope.Start(pyroscope.Config{
		ApplicationName:   cfg.ApplicationName,
		ServerAddress:     cfg.ServerAddress,
		BasicAuthUser:     cfg.BasicAuthUser,
		BasicAuthPassword: cfg.BasicAuthPassword,
		Logger:            zapPyroscopeLogger{logger.Named("pyroscope").Sugar()},
		Tags:              hostTags(),
		ProfileTypes:      types,
		DisableGCRuns:     cfg.DisableGCRuns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start Pyroscope profiler: %w", err)
	}
	p.session = session

	logger.Info("Pyroscope profiler started",
		zap.String("server_address", cfg.ServerAddress),
		zap.String("application_name", cfg.ApplicationName),
		zap.Int("profile_types", len(types)),
	)
	return p, nil
}

// applySyncProfileRates configures the runtime sampling rates that mutex and
// block profiles depend on.
func applySyncProfileRates(cfg ProfilerConfig, logger *zap.Logger) {
	fraction := cfg.MutexProfileFraction
	if fraction <= 0 {
		fraction = 5
	}
	rate := cfg.BlockProfileRate
	if rate <= 0 {
		rate = 5
	}
	runtime.SetMutexProfileFraction(fraction)
	runtime.SetBlockProfileRate(rate)
	logger.Debug("Sync profiling enabled",
		zap.Int("mutex_fraction", fraction),
		zap.Int("block_rate", rate),
	)
}

// hostTags labels profiles with where they came from.
func hostTags() map[string]string {
	tags := map[string]string{}
	if hostname := os.Getenv("HOSTNAME"); hostname != "" {
		tags["hostname"] = hostname
	}
	if pod := os.Getenv("POD_NAME"); pod != "" {
		tags["pod"] = pod
	}
	return tags
}

// Stop flushes pending profiles and ends the session. Safe to call more than
// once. The Pyroscope SDK's Stop takes no context, so a hung server can delay
// shutdown up to the SDK's internal timeouts.
func (p *Profiler) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped || p.session == nil {
		p.stopped = true
		return nil
	}
	p.stopped = true

	if err := p.session.Stop(); err != nil {
		p.logger.Error("Error stopping profiler", zap.Error(err))
		return fmt.Errorf("failed to stop profiler: %w", err)
	}
	p.logger.Info("Pyroscope profiler stopped")
	return nil
}

// IsEnabled reports whether a Pyroscope session is running.
func (p *Profiler) IsEnabled() bool {
	return p.config.Enabled && p.session != nil
}

// GetConfig returns a copy of the profiler configuration.
func (p *Profiler) GetConfig() ProfilerConfig {
	return p.config
}

// zapPyroscopeLogger adapts zap to the pyroscope.Logger interface.
type zapPyroscopeLogger struct {
	sugar *zap.SugaredLogger
}

func (l zapPyroscopeLogger) Infof(format string, args ...any)  { l.sugar.Infof(format, args...) }
func (l zapPyroscopeLogger) Debugf(format string, args ...any) { l.sugar.Debugf(format, args...) }
func (l zapPyroscopeLogger) Errorf(format string, args ...any) { l.sugar.Errorf(format, args...) }
