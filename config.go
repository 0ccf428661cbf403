package dispatcher

import (
	"github.com/go-playground/validator/v10"
	"github.com/ygrebnov/errorc"
	"go.uber.org/zap"

	"github.com/ygrebnov/dispatcher/metrics"
)

// config holds Dispatcher and Pool configuration.
type config struct {
	// Name is attached to every log line and defaults to a random UUID.
	Name string `validate:"max=128"`

	// Logger receives lifecycle and failure events.
	// Default: zap.NewNop()
	Logger *zap.Logger `validate:"required"`

	// Metrics receives task counters and durations.
	// Default: metrics.NoopProvider
	Metrics metrics.Provider `validate:"required"`

	// StartImmediately calls Start once construction succeeds.
	// Default: false
	StartImmediately bool

	// LockOSThread dedicates an OS thread to every worker goroutine.
	// Default: false
	LockOSThread bool

	// CPUs pins worker i to CPUs[i%len(CPUs)]. Implies LockOSThread.
	// Default: nil (no pinning)
	CPUs []int `validate:"omitempty,dive,min=0"`

	// bootstrap runs on each worker goroutine before it starts serving. A non-nil
	// error aborts construction. Only tests set it.
	bootstrap func(index int) error
}

func defaultConfig() config {
	return config{
		Logger:  zap.NewNop(),
		Metrics: metrics.NewNoopProvider(),
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func validateConfig(cfg *config) error {
	if err := validate.Struct(cfg); err != nil {
		return errorc.With(ErrInvalidConfig, errorc.String("", err.Error()))
	}
	return nil
}

// buildConfig applies opts over the defaults and validates the result.
func buildConfig(opts []Option) (*config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Option configures a Dispatcher or a Pool.
type Option func(*config) error

// WithName sets the name used in log lines. Names longer than 128 bytes are rejected.
func WithName(name string) Option {
	return func(cfg *config) error { cfg.Name = name; return nil }
}

// WithLogger sets the logger. A nil logger is rejected.
func WithLogger(l *zap.Logger) Option {
	return func(cfg *config) error {
		if l == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithLogger requires a non-nil logger"))
		}
		cfg.Logger = l
		return nil
	}
}

// WithMetrics sets the metrics provider. A nil provider is rejected.
func WithMetrics(p metrics.Provider) Option {
	return func(cfg *config) error {
		if p == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithMetrics requires a non-nil provider"))
		}
		cfg.Metrics = p
		return nil
	}
}

// WithStartImmediately starts the workers as soon as construction succeeds.
func WithStartImmediately() Option {
	return func(cfg *config) error { cfg.StartImmediately = true; return nil }
}

// WithLockOSThread runs every worker on a dedicated OS thread.
func WithLockOSThread() Option {
	return func(cfg *config) error { cfg.LockOSThread = true; return nil }
}

// WithCPUAffinity pins worker i to cpus[i%len(cpus)] (Linux only).
// On other platforms construction fails with ErrAffinityUnsupported.
func WithCPUAffinity(cpus ...int) Option {
	return func(cfg *config) error {
		if len(cpus) == 0 {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithCPUAffinity requires at least one cpu"))
		}
		cfg.CPUs = append([]int(nil), cpus...)
		cfg.LockOSThread = true
		return nil
	}
}
