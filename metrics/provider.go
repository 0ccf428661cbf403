// Package metrics defines the instruments the dispatcher and the pool record into,
// plus an in-memory provider and a no-op provider.
package metrics

// Provider constructs instruments used to record metrics.
// Implementations must be safe for concurrent use.
//
// Keep this interface minimal and stable. If you need new capabilities later,
// introduce separate optional interfaces rather than expanding this surface.
type Provider interface {
	Counter(name string, opts ...InstrumentOption) Counter
	UpDownCounter(name string, opts ...InstrumentOption) UpDownCounter
	Histogram(name string, opts ...InstrumentOption) Histogram
}

// Counter records monotonic counts (tasks pushed, executed, discarded).
type Counter interface {
	Add(n int64)
}

// UpDownCounter records values that move both ways (tasks currently queued).
type UpDownCounter interface {
	Add(n int64)
}

// Histogram records a distribution of float64 measurements (task duration in seconds).
type Histogram interface {
	Record(v float64)
}

// InstrumentConfig carries optional instrument metadata. It's advisory only.
type InstrumentConfig struct {
	Description string
	Unit        string
}

// InstrumentOption mutates InstrumentConfig.
type InstrumentOption func(*InstrumentConfig)

// WithDescription sets an advisory description for the instrument.
func WithDescription(desc string) InstrumentOption {
	return func(c *InstrumentConfig) { c.Description = desc }
}

// WithUnit sets an advisory unit for the instrument (e.g., "1", "seconds").
func WithUnit(unit string) InstrumentOption {
	return func(c *InstrumentConfig) { c.Unit = unit }
}

func applyOptions(opts []InstrumentOption) InstrumentConfig {
	var cfg InstrumentConfig
	for _, o := range opts {
		if o != nil {
			o(&cfg)
		}
	}
	return cfg
}
