package logger

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	logEvents     *prometheus.CounterVec //nolint:gochecknoglobals
	logEventsOnce sync.Once              //nolint:gochecknoglobals
)

// MetricsHook counts emitted log events per level on the shared /metrics registry.
// A spike of warn events usually means authorization store errors or ledger write conflicts.
type MetricsHook struct{}

// Run implements zerolog.Hook.
func (MetricsHook) Run(_ *zerolog.Event, level zerolog.Level, _ string) {
	if level == zerolog.NoLevel || level == zerolog.Disabled {
		return
	}

	logEvents.WithLabelValues(level.String()).Inc()
}

// NewMetricsHook registers legaldesk_log_events_total on first use.
// Later calls reuse the collector and keep the first service label.
func NewMetricsHook(service string) MetricsHook {
	logEventsOnce.Do(func() {
		logEvents = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   "legaldesk",
				Name:        "log_events_total",
				Help:        "Log events written, by level.",
				ConstLabels: prometheus.Labels{"service": service},
			},
			[]string{"level"},
		)
	})

	return MetricsHook{}
}
