package undolog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"log/slog"

	"shelf/internal/fileutil"
	"shelf/internal/logging"
)

// EntryStatus is the terminal state of one undo attempt.
type EntryStatus string

const (
	// StatusPending marks an entry that was only previewed (dry-run).
	StatusPending EntryStatus = "pending"
	// StatusReversed marks an entry whose move was undone; it is removed from the log.
	StatusReversed EntryStatus = "reversed"
	// StatusFailed marks an entry that could not be reversed; it stays in the
	// log so a later run can retry.
	StatusFailed EntryStatus = "failed"
)

// EntryOutcome reports what happened to one log entry, in processing order
// (reverse of recorded order).
type EntryOutcome struct {
	Entry  Entry       `json:"entry"`
	Status EntryStatus `json:"status"`
	Err    error       `json:"-"`
}

// Result is the outcome of one undo pass plus summary counts.
type Result struct {
	DryRun   bool           `json:"dry_run"`
	Outcomes []EntryOutcome `json:"outcomes"`
	Reversed int            `json:"reversed"`
	Failed   int            `json:"failed"`
}

// Engine replays a persisted undo log in reverse to restore original file
// locations.
type Engine struct {
	log    *Log
	logger *slog.Logger
}

// NewEngine constructs an undo engine for the given log.
func NewEngine(log *Log, logger *slog.Logger) *Engine {
	return &Engine{log: log, logger: logging.NewComponentLogger(logger, "undo")}
}

// Undo reads the full log and processes entries strictly last-recorded-first,
// since later moves may depend on filesystem state left by earlier ones (for
// example collision-suffixed names). Each entry is reversed independently: a
// missing moved file or an occupied original location fails that entry and the
// pass continues with the next one. Afterwards the log is rewritten to retain
// only the failed entries in their recorded order, which makes undo idempotent
// and retryable. A log that cannot be parsed fails the whole run.
//
// In dry-run mode the reversal plan is reported without touching the
// filesystem or the log.
func (e *Engine) Undo(ctx context.Context, dryRun bool) (*Result, error) {
	logger := logging.WithContext(ctx, e.logger)

	if dryRun {
		entries, err := e.log.Entries()
		if err != nil {
			return nil, err
		}
		result := &Result{DryRun: true, Outcomes: make([]EntryOutcome, 0, len(entries))}
		for i := len(entries) - 1; i >= 0; i-- {
			result.Outcomes = append(result.Outcomes, EntryOutcome{Entry: entries[i], Status: StatusPending})
		}
		return result, nil
	}

	// The lock must be held before the log is read: an append landing between
	// read and lock would be dropped by the rewrite below.
	if err := e.log.Lock(); err != nil {
		return nil, err
	}
	defer e.log.Unlock()

	entries, err := e.log.Entries()
	if err != nil {
		return nil, err
	}

	result := &Result{Outcomes: make([]EntryOutcome, 0, len(entries))}
	if len(entries) == 0 {
		logger.Info("undo log empty, nothing to reverse", logging.String("undo_log", e.log.Path()))
		return result, nil
	}

	reversed := make(map[int]bool, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		entry := entries[i]
		if err := e.reverse(entry); err != nil {
			logger.Warn(
				"undo entry failed",
				logging.String("moved", entry.Moved),
				logging.String("original", entry.Original),
				logging.Error(err),
			)
			result.Outcomes = append(result.Outcomes, EntryOutcome{Entry: entry, Status: StatusFailed, Err: err})
			result.Failed++
			continue
		}

		reversed[i] = true
		result.Outcomes = append(result.Outcomes, EntryOutcome{Entry: entry, Status: StatusReversed})
		result.Reversed++
		logger.Debug("reversed move", logging.String("moved", entry.Moved), logging.String("original", entry.Original))
	}

	retained := make([]Entry, 0, result.Failed)
	for i, entry := range entries {
		if !reversed[i] {
			retained = append(retained, entry)
		}
	}
	if err := e.log.Rewrite(retained); err != nil {
		return result, err
	}

	logger.Info(
		"undo complete",
		logging.Int("reversed", result.Reversed),
		logging.Int("failed", result.Failed),
		logging.String("undo_log", e.log.Path()),
	)
	return result, nil
}

// reverse moves an entry's file back to its original location. It refuses to
// clobber: a file already present at the original path fails the entry.
func (e *Engine) reverse(entry Entry) error {
	if _, err := os.Lstat(entry.Moved); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("moved file %s no longer exists", entry.Moved)
		}
		return fmt.Errorf("inspect %s: %w", entry.Moved, err)
	}

	if _, err := os.Lstat(entry.Original); err == nil {
		return fmt.Errorf("original location %s is occupied", entry.Original)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("inspect %s: %w", entry.Original, err)
	}

	if err := os.MkdirAll(filepath.Dir(entry.Original), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", entry.Original, err)
	}
	if err := fileutil.MoveFile(entry.Moved, entry.Original); err != nil {
		return fmt.Errorf("move %s back to %s: %w", entry.Moved, entry.Original, err)
	}
	return nil
}
