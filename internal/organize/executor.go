package organize

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"log/slog"

	"shelf/internal/fileutil"
	"shelf/internal/logging"
	"shelf/internal/undolog"
)

// MoveStatus is the terminal state of one planned move.
type MoveStatus string

const (
	// StatusPlanned marks a move that was only previewed (dry-run).
	StatusPlanned MoveStatus = "planned"
	// StatusMoved marks a completed and recorded move.
	StatusMoved MoveStatus = "moved"
	// StatusFailed marks a move that could not be performed.
	StatusFailed MoveStatus = "failed"
)

// MoveOutcome reports what happened to one planned move.
type MoveOutcome struct {
	Move   PlannedMove `json:"move"`
	Status MoveStatus  `json:"status"`
	Err    error       `json:"-"`
}

// Result is the ordered outcome of one execute pass plus summary counts.
type Result struct {
	DryRun   bool          `json:"dry_run"`
	Outcomes []MoveOutcome `json:"outcomes"`
	Moved    int           `json:"moved"`
	Failed   int           `json:"failed"`
}

// Executor applies planned moves to the filesystem and records each completed
// move in the undo log before touching the next one.
type Executor struct {
	log    *undolog.Log
	logger *slog.Logger
}

// NewExecutor constructs an executor bound to an undo log.
func NewExecutor(log *undolog.Log, logger *slog.Logger) *Executor {
	return &Executor{log: log, logger: logging.NewComponentLogger(logger, "executor")}
}

// Execute performs the planned moves. In dry-run mode nothing is touched: no
// directories are created, no files move, and the undo log is not written.
// Otherwise each move creates its destination parent, relocates the file, and
// appends an undo entry; a failed move is reported in the result and the pass
// continues with the next one. Only a failure to append to the undo log aborts
// the pass, since continuing would leave completed moves unrecorded.
func (e *Executor) Execute(ctx context.Context, moves []PlannedMove, dryRun bool) (*Result, error) {
	logger := logging.WithContext(ctx, e.logger)
	result := &Result{DryRun: dryRun, Outcomes: make([]MoveOutcome, 0, len(moves))}

	if dryRun {
		for _, move := range moves {
			result.Outcomes = append(result.Outcomes, MoveOutcome{Move: move, Status: StatusPlanned})
		}
		logger.Info("dry run complete", logging.Int("planned", len(moves)))
		return result, nil
	}

	if err := e.log.Lock(); err != nil {
		return nil, Wrap(ErrFilesystem, "lock undo log", e.log.Path(), err)
	}
	defer e.log.Unlock()

	for _, move := range moves {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if err := os.MkdirAll(filepath.Dir(move.Dest), 0o755); err != nil {
			e.recordFailure(logger, result, move, Wrap(ErrFilesystem, "create destination directory", filepath.Dir(move.Dest), err))
			continue
		}

		if err := fileutil.MoveFile(move.Source, move.Dest); err != nil {
			e.recordFailure(logger, result, move, Wrap(ErrFilesystem, "move file", move.Source, err))
			continue
		}

		entry := undolog.Entry{Original: move.Source, Moved: move.Dest, RecordedAt: time.Now()}
		if err := e.log.Append(entry); err != nil {
			// The move itself succeeded but is now unrecorded; stop before
			// compounding the damage.
			result.Outcomes = append(result.Outcomes, MoveOutcome{Move: move, Status: StatusMoved})
			result.Moved++
			return result, Wrap(ErrFilesystem, "record move", e.log.Path(), err)
		}

		result.Outcomes = append(result.Outcomes, MoveOutcome{Move: move, Status: StatusMoved})
		result.Moved++
		logger.Debug("moved file", logging.String("source", move.Source), logging.String("dest", move.Dest))
	}

	logger.Info(
		"execute complete",
		logging.Int("moved", result.Moved),
		logging.Int("failed", result.Failed),
		logging.String("undo_log", e.log.Path()),
	)
	return result, nil
}

func (e *Executor) recordFailure(logger *slog.Logger, result *Result, move PlannedMove, err error) {
	logger.Warn(
		"move failed",
		logging.String("source", move.Source),
		logging.String("dest", move.Dest),
		logging.Error(err),
	)
	result.Outcomes = append(result.Outcomes, MoveOutcome{Move: move, Status: StatusFailed, Err: err})
	result.Failed++
}
