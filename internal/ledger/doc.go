// Package ledger keeps a SQLite history of report runs so operators can see
// which patients were reported, when, and which runs failed.
package ledger
