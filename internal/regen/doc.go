// Package regen decides whether a rendered artifact can be reused or must be
// recomputed. On-disk presence at the canonical artifact path is the only
// source of truth; the in-memory progress ledger is a cache rebuilt by
// scanning the session, and the SQLite generation ledger records every
// attempt for later inspection without ever gating regeneration.
package regen
