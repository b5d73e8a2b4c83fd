package rbac

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var decisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "legaldesk_authz_decisions_total",
		Help: "Authorization decisions by outcome and reason.",
	},
	[]string{"decision", "reason"},
)

func observe(d Decision) {
	decisionsTotal.WithLabelValues(d.String(), string(d.Reason)).Inc()
}
