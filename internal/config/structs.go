package config

import (
	"time"

	"github.com/legaldesk/legaldesk/internal/logger"
)

const (
	// DefaultCheckAliveURI is the liveness endpoint used when none is configured.
	DefaultCheckAliveURI = "/checkalive"

	// DefaultTolerance is the accepted rounding gap between amount and fee plus earnings.
	DefaultTolerance = "0.01"

	// DefaultMaxRetries bounds optimistic retries on the earnings summary row.
	DefaultMaxRetries = 5

	// DefaultRetryBackoff is the first wait between two optimistic retries.
	DefaultRetryBackoff = 10 * time.Millisecond
)

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	RBAC      RBAC
	Ledger    Ledger
}

// Webserver implement webserver settings.
type Webserver struct {
	DisableRecover bool   // disable recover middleware
	Port           int    // listening port for the webserver
	ShutDownTime   int    // wait time for shutdown
	URL            string // base url for the webserver
	CheckAliveURI  string // liveness endpoint, excluded from access logs when Log.DisableCheckAlive is set
}

// RBAC holds the authorization vocabulary and the roles seeded at start-up.
type RBAC struct {
	// Vocabulary maps a resource to the actions that may be granted on it.
	Vocabulary map[string][]string
	Roles      []RoleSeed
}

// RoleSeed describes a role and its permissions in resource.action form.
type RoleSeed struct {
	Name        string
	Level       int
	Description string
	Permissions []string
}

// Ledger holds the earnings ledger settings.
type Ledger struct {
	Tolerance    string        // decimal string, e.g. "0.01"
	MaxRetries   int           // optimistic retries on summary update conflicts
	RetryBackoff time.Duration // first backoff, doubled on every retry
}
