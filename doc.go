// Package main is the legaldesk command. It serves the marketplace's
// authorization engine and earnings ledger over HTTP and exposes one-shot
// maintenance commands for migration, access checks and ledger reconciliation.
package main
