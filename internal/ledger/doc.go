// Package ledger is the earnings ledger: an append-only transaction log per
// lawyer and the summary row derived from it.
//
// Every write to a summary is checked against the row version and retried on
// conflict, so concurrent appends for one lawyer never lose an update.
// Reconcile compares the stored summary with the log without writing;
// Repair is the explicit correction.
package ledger
