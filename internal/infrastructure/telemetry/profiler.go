package telemetry

import (
	"context"
	"fmt"
	"maps"
	"os"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/grafana/pyroscope-go"
	"go.uber.org/zap"
)

// Profiling label keys attached to request goroutines.
const (
	ProfilingLabelRoute          = "route"
	ProfilingLabelMethod         = "method"
	ProfilingLabelResource       = "resource"
	ProfilingLabelOrganizationID = "organization_id"
	ProfilingLabelProcedure      = "procedure"
)

// MaxLabelValueLength caps label values to keep profile cardinality bounded.
const MaxLabelValueLength = 128

// highCardinalityLabels are dropped from profiling labels.
var highCardinalityLabels = map[string]bool{
	"actor_id":       true,
	"request_id":     true,
	"entity_id":      true,
	"transaction_id": true,
	"trace_id":       true,
	"span_id":        true,
}

// ProfilerConfig holds Pyroscope continuous profiling configuration.
type ProfilerConfig struct {
	Enabled           bool
	ServerAddress     string
	ApplicationName   string
	BasicAuthUser     string
	BasicAuthPassword string
	// MutexProfileFraction and BlockProfileRate default to 5 when zero.
	MutexProfileFraction int
	BlockProfileRate     int
}

// Profiler wraps the Pyroscope profiler with lifecycle management.
type Profiler struct {
	profiler *pyroscope.Profiler
	logger   *zap.Logger
	config   ProfilerConfig
	mu       sync.Mutex
	stopped  bool
}

// NewProfiler starts a Pyroscope profiler. When disabled it returns a no-op profiler.
func NewProfiler(cfg ProfilerConfig, logger *zap.Logger) (*Profiler, error) {
	p := &Profiler{logger: logger, config: cfg}
	if !cfg.Enabled {
		logger.Info("Continuous profiling disabled, using no-op profiler")
		return p, nil
	}
	if cfg.ServerAddress == "" {
		return nil, fmt.Errorf("profiler server address is required when profiling is enabled")
	}
	if cfg.ApplicationName == "" {
		return nil, fmt.Errorf("profiler application name is required when profiling is enabled")
	}

	fraction := cfg.MutexProfileFraction
	if fraction <= 0 {
		fraction = 5
	}
	runtime.SetMutexProfileFraction(fraction)
	rate := cfg.BlockProfileRate
	if rate <= 0 {
		rate = 5
	}
	runtime.SetBlockProfileRate(rate)

	tags := map[string]string{}
	if hostname := os.Getenv("HOSTNAME"); hostname != "" {
		tags["hostname"] = hostname
	}
	if podName := os.Getenv("POD_NAME"); podName != "" {
		tags["pod"] = podName
	}

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName:   cfg.ApplicationName,
		ServerAddress:     cfg.ServerAddress,
		BasicAuthUser:     cfg.BasicAuthUser,
		BasicAuthPassword: cfg.BasicAuthPassword,
		Logger:            &pyroscopeLogger{logger: logger.Named("pyroscope")},
		Tags:              tags,
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
			pyroscope.ProfileMutexCount,
			pyroscope.ProfileMutexDuration,
			pyroscope.ProfileBlockCount,
			pyroscope.ProfileBlockDuration,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start Pyroscope profiler: %w", err)
	}
	p.profiler = profiler

	logger.Info("Pyroscope profiler started",
		zap.String("server_address", cfg.ServerAddress),
		zap.String("application_name", cfg.ApplicationName),
	)
	return p, nil
}

// Stop flushes pending profiles. Safe to call more than once.
func (p *Profiler) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped || p.profiler == nil {
		p.stopped = true
		return nil
	}
	p.stopped = true

	if err := p.profiler.Stop(); err != nil {
		p.logger.Error("Error stopping profiler", zap.Error(err))
		return fmt.Errorf("failed to stop profiler: %w", err)
	}
	p.logger.Info("Pyroscope profiler stopped")
	return nil
}

// IsEnabled returns whether profiles are being collected.
func (p *Profiler) IsEnabled() bool {
	return p.config.Enabled && p.profiler != nil
}

// WithProfilingLabels runs fn with the given pprof labels attached to the goroutine.
// High-cardinality keys and empty values are dropped; long values are truncated.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := sanitizeLabels(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

func sanitizeLabels(labels map[string]string) []string {
	clean := make(map[string]string, len(labels))
	for key, value := range labels {
		key = sanitizeLabelKey(key)
		if key == "" || value == "" || highCardinalityLabels[key] {
			continue
		}
		if len(value) > MaxLabelValueLength {
			value = value[:MaxLabelValueLength]
		}
		clean[key] = value
	}
	pairs := make([]string, 0, len(clean)*2)
	for _, key := range slices.Sorted(maps.Keys(clean)) {
		pairs = append(pairs, key, clean[key])
	}
	return pairs
}

func sanitizeLabelKey(key string) string {
	key = strings.ToLower(key)
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return -1
	}, key)
}

// pyroscopeLogger adapts zap to the pyroscope.Logger interface.
type pyroscopeLogger struct {
	logger *zap.Logger
}

func (l *pyroscopeLogger) Infof(format string, args ...any) {
	l.logger.Sugar().Infof(format, args...)
}

func (l *pyroscopeLogger) Debugf(format string, args ...any) {
	l.logger.Sugar().Debugf(format, args...)
}

func (l *pyroscopeLogger) Errorf(format string, args ...any) {
	l.logger.Sugar().Errorf(format, args...)
}
