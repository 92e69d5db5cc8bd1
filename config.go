package feedq

import (
	"log/slog"
	"strings"
)

type Option = func(*config)

// WithName sets the queue name used in log records and metric labels.
// [NewDuplex] and [NewRegistry] derive the names of the queues they create
// from it.
func WithName(name string) Option {
	name = strings.TrimSpace(name)
	if name == "" {
		panic("name can't be blank")
	}
	return func(c *config) {
		c.name = name
	}
}

// WithLogger makes the queue log its events to log at debug level.
func WithLogger(log *slog.Logger) Option {
	if log == nil {
		panic("logger can't be nil")
	}
	return func(c *config) {
		c.slog = log
	}
}

// WithPrometheus makes the queue report through the metrics described by
// p, see [Prometheus]. One config can be shared by any number of queues;
// each queue reports under its own name label.
func WithPrometheus(p *PrometheusConfig) Option {
	if p == nil {
		panic("prometheus config can't be nil")
	}
	return func(c *config) {
		c.prometheus = p
	}
}

type config struct {
	name       string
	slog       *slog.Logger
	prometheus *PrometheusConfig
}

func newConfig(options ...Option) *config {
	options = append([]Option{
		WithName("queue"),
	}, options...)

	cfg := config{}
	for _, opt := range options {
		opt(&cfg)
	}

	return &cfg
}
