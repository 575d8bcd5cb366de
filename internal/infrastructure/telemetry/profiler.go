package telemetry

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"slices"
	"sync"

	"github.com/grafana/pyroscope-go"
	"go.uber.org/zap"
)

// DefaultProfileTypes are collected when ProfilerConfig.ProfileTypes is empty
var DefaultProfileTypes = []pyroscope.ProfileType{
	pyroscope.ProfileCPU,
	pyroscope.ProfileAllocSpace,
	pyroscope.ProfileInuseSpace,
	pyroscope.ProfileGoroutines,
}

// contentionSampleRate is used for mutex and block profiles
const contentionSampleRate = 5

// ProfilerConfig configures continuous profiling
type ProfilerConfig struct {
	Enabled         bool
	ServerAddress   string
	ApplicationName string
	// BasicAuth is used by hosted Pyroscope; both fields must be set
	BasicAuthUser     string
	BasicAuthPassword string
	ProfileTypes      []pyroscope.ProfileType
	// Tags are attached to every profile in addition to hostname and version
	Tags map[string]string
}

// Profiler owns the running Pyroscope session
type Profiler struct {
	session *pyroscope.Profiler
	logger  *zap.Logger
	mu      sync.Mutex
	stopped bool
}

// NewProfiler starts pushing profiles to Pyroscope. Disabled profiling
// returns a profiler whose Stop does nothing.
func NewProfiler(cfg ProfilerConfig, logger *zap.Logger) (*Profiler, error) {
	p := &Profiler{logger: logger}
	if !cfg.Enabled {
		logger.Info("Continuous profiling disabled")
		return p, nil
	}
	if cfg.ServerAddress == "" {
		return nil, errors.New("profiler server address is required")
	}
	if cfg.ApplicationName == "" {
		return nil, errors.New("profiler application name is required")
	}

	types := cfg.ProfileTypes
	if len(types) == 0 {
		types = DefaultProfileTypes
	}
	if slices.Contains(types, pyroscope.ProfileMutexCount) || slices.Contains(types, pyroscope.ProfileMutexDuration) {
		runtime.SetMutexProfileFraction(contentionSampleRate)
	}
	if slices.Contains(types, pyroscope.ProfileBlockCount) || slices.Contains(types, pyroscope.ProfileBlockDuration) {
		runtime.SetBlockProfileRate(contentionSampleRate)
	}

	session, err := pyroscope.Start(pyroscope.Config{
		ApplicationName:   cfg.ApplicationName,
		ServerAddress:     cfg.ServerAddress,
		BasicAuthUser:     cfg.BasicAuthUser,
		BasicAuthPassword: cfg.BasicAuthPassword,
		Logger:            logger.Named("pyroscope").Sugar(),
		Tags:              profileTags(cfg.Tags),
		ProfileTypes:      types,
	})
	if err != nil {
		return nil, fmt.Errorf("start pyroscope profiler: %w", err)
	}
	p.session = session

	logger.Info("Continuous profiling enabled",
		zap.String("server_address", cfg.ServerAddress),
		zap.String("application_name", cfg.ApplicationName),
		zap.Int("profile_types", len(types)),
	)
	return p, nil
}

func profileTags(extra map[string]string) map[string]string {
	tags := map[string]string{"version": Version}
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		tags["hostname"] = hostname
	}
	for k, v := range extra {
		tags[k] = v
	}
	return tags
}

// IsEnabled reports whether profiles are being pushed
func (p *Profiler) IsEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session != nil && !p.stopped
}

// Stop flushes and stops the session. Pyroscope's Stop takes no context;
// the SDK bounds the final upload itself. Calling Stop again is a no-op.
func (p *Profiler) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped || p.session == nil {
		p.stopped = true
		return nil
	}
	p.stopped = true

	if err := p.session.Stop(); err != nil {
		return fmt.Errorf("stop pyroscope profiler: %w", err)
	}
	p.logger.Info("Continuous profiling stopped")
	return nil
}
