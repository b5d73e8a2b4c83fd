package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legaldesk_ledger_operations_total",
			Help: "Ledger operations by name and result.",
		},
		[]string{"op", "result"},
	)

	conflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "legaldesk_ledger_update_conflicts_total",
		Help: "Optimistic version conflicts on earnings summary rows.",
	})
)

func observe(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}

	operationsTotal.WithLabelValues(op, result).Inc()
}
