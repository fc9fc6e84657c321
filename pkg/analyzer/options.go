package analyzer

import (
	"io"

	"github.com/aaronchenweb/apiscan/internal/logger"
	"github.com/aaronchenweb/apiscan/internal/metrics"
)

// Option is a functional option for configuring the Analyzer.
type Option func(*Analyzer) error

// WithConfig replaces the entire configuration.
func WithConfig(cfg *Config) Option {
	return func(a *Analyzer) error {
		if cfg != nil {
			a.config = cfg
		}
		return nil
	}
}

// WithRoot sets the analysis root directory.
func WithRoot(root string) Option {
	return func(a *Analyzer) error {
		a.config.Root = root
		return nil
	}
}

// WithWorkers sets the number of concurrent scan workers.
func WithWorkers(n int) Option {
	return func(a *Analyzer) error {
		if n < 1 {
			n = 1
		}
		a.config.Workers = n
		return nil
	}
}

// WithFramework sets a framework hint, skipping auto-detection.
func WithFramework(name string) Option {
	return func(a *Analyzer) error {
		a.config.Framework = name
		return nil
	}
}

// WithOutput sets the destination the report is written to after a run.
func WithOutput(w io.Writer) Option {
	return func(a *Analyzer) error {
		a.outputWriter = w
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *logger.Logger) Option {
	return func(a *Analyzer) error {
		a.logger = l
		return nil
	}
}

// WithMetrics sets a custom metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(a *Analyzer) error {
		a.metrics = m
		return nil
	}
}

// WithDedupDisabled turns off duplicate-content filtering.
func WithDedupDisabled() Option {
	return func(a *Analyzer) error {
		a.config.NoDedup = true
		return nil
	}
}
