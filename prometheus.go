package feedq

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusConfig is a config of the Prometheus metrics provided by a queue.
//
// An instance can be created only by the [Prometheus] function. The zero
// value is invalid. A single config can back any number of queues: the
// collectors are created and registered once, and every queue reports
// through them under its own "queue" label.
type PrometheusConfig struct {
	// Namespace of the metrics.
	Namespace string
	// Subsystem of the metrics.
	Subsystem string
	// Options for the pending buffers gauge.
	Pending prometheus.GaugeOpts
	// Options for the checked-out gauge.
	CheckedOut prometheus.GaugeOpts
	// Options for the enqueued buffers counter.
	Enqueued prometheus.CounterOpts
	// Options for the notified buffers counter.
	Notified prometheus.CounterOpts
	// Options for the dequeue wait histogram.
	DequeueWait prometheus.HistogramOpts

	registerer prometheus.Registerer

	once sync.Once
	inst *instruments
}

// Prometheus returns a [PrometheusConfig] with the provided registerer. If
// registerer is nil, metrics will not be registered. Many default
// parameters can be configured by passing configuration functions.
func Prometheus(
	registerer prometheus.Registerer,
	configFuncs ...func(c *PrometheusConfig),
) *PrometheusConfig {
	const (
		namespace = "feedq"
		subsystem = ""
	)

	c := PrometheusConfig{
		registerer: registerer,
		Namespace:  namespace,
		Subsystem:  subsystem,
		Pending: prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "pending",
			Help:      "Number of buffers waiting in the queue",
		},
		CheckedOut: prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "checked_out",
			Help:      "Whether a buffer is checked out to the consumer (0 or 1)",
		},
		Enqueued: prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "enqueued_total",
			Help:      "Number of buffers enqueued",
		},
		Notified: prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "notified_total",
			Help:      "Number of buffer completion notifications, by cause",
		},
		DequeueWait: prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "dequeue_wait_seconds",
			Help:      "Time the consumer spent blocked waiting for a buffer",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
	}

	for _, cf := range configFuncs {
		if cf != nil {
			cf(&c)
		}
	}

	return &c
}

// queue returns the per-queue view of the instruments, creating and
// registering the collectors on first use.
func (c *PrometheusConfig) queue(name string) *queueMetrics {
	if c == nil {
		return nil
	}

	c.once.Do(func() {
		c.inst = &instruments{
			pending:     prometheus.NewGaugeVec(c.Pending, []string{"queue"}),
			checkedOut:  prometheus.NewGaugeVec(c.CheckedOut, []string{"queue"}),
			enqueued:    prometheus.NewCounterVec(c.Enqueued, []string{"queue"}),
			notified:    prometheus.NewCounterVec(c.Notified, []string{"queue", "cause"}),
			dequeueWait: prometheus.NewHistogramVec(c.DequeueWait, []string{"queue"}),
		}

		if c.registerer != nil {
			c.registerer.MustRegister(
				c.inst.pending,
				c.inst.checkedOut,
				c.inst.enqueued,
				c.inst.notified,
				c.inst.dequeueWait,
			)
		}
	})

	return &queueMetrics{
		pending:     c.inst.pending.WithLabelValues(name),
		checkedOut:  c.inst.checkedOut.WithLabelValues(name),
		enqueued:    c.inst.enqueued.WithLabelValues(name),
		released:    c.inst.notified.WithLabelValues(name, "released"),
		drained:     c.inst.notified.WithLabelValues(name, "drained"),
		dequeueWait: c.inst.dequeueWait.WithLabelValues(name),
	}
}

type instruments struct {
	pending     *prometheus.GaugeVec
	checkedOut  *prometheus.GaugeVec
	enqueued    *prometheus.CounterVec
	notified    *prometheus.CounterVec
	dequeueWait *prometheus.HistogramVec
}

// queueMetrics is the label-curried slice of the instruments one queue
// reports through.
type queueMetrics struct {
	pending     prometheus.Gauge
	checkedOut  prometheus.Gauge
	enqueued    prometheus.Counter
	released    prometheus.Counter
	drained     prometheus.Counter
	dequeueWait prometheus.Observer
}
