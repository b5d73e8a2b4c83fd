package handler

const (
	// APIPrefix is the path prefix of every versioned API route.
	APIPrefix = "/api/v1"

	// MetricsPath exposes the prometheus registry.
	MetricsPath = "/metrics"

	// ErrNilDepsFatalLogMsg is used if router or a required dependency is nil.
	ErrNilDepsFatalLogMsg = "router or handler dependencies are nil"
)
