// Package undolog persists completed moves and reverses them.
//
// The Log is an append-only JSON Lines file: one entry per completed move, in
// execution order, flushed before the next move starts. That ordering is the
// package's central invariant, because the Engine undoes entries strictly
// last-first so that moves which depended on earlier filesystem state (such as
// collision-suffixed names) unwind correctly.
//
// Reversal is best-effort per entry: failures are retained in the log for a
// later retry while successes are pruned, so running undo twice in a row is
// harmless. An unparsable log aborts the whole run instead, since a partial
// read could replay entries in the wrong order.
package undolog
