// Package history records a summary row per organize or undo run in a local
// SQLite database, so `shelf history` can show what ran, when, and how it
// went. It is bookkeeping only; the undo log, not this database, is the source
// of truth for reversal.
package history
