package organize

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"log/slog"

	"shelf/internal/config"
	"shelf/internal/logging"
)

// PlannedMove is a single source to destination relocation. Destinations are
// unique within a plan; collisions are resolved before execution.
type PlannedMove struct {
	Source string `json:"source"`
	Dest   string `json:"dest"`
}

// PlanFailure records a file that could not be planned, without aborting the
// rest of the plan.
type PlanFailure struct {
	Path string `json:"path"`
	Err  error  `json:"-"`
}

// Plan is the ordered set of moves produced for one source directory.
type Plan struct {
	Mode      Mode          `json:"mode"`
	SourceDir string        `json:"source_dir"`
	TargetDir string        `json:"target_dir"`
	Moves     []PlannedMove `json:"moves"`
	Failures  []PlanFailure `json:"failures,omitempty"`
}

// Planner enumerates a source directory and produces collision-free moves.
type Planner struct {
	maxSuffixAttempts int
	logger            *slog.Logger
}

// NewPlanner constructs a planner using the configured collision bounds.
func NewPlanner(cfg *config.Config, logger *slog.Logger) *Planner {
	attempts := 0
	if cfg != nil {
		attempts = cfg.Organize.MaxSuffixAttempts
	}
	if attempts <= 0 {
		attempts = 10000
	}
	return &Planner{
		maxSuffixAttempts: attempts,
		logger:            logging.NewComponentLogger(logger, "planner"),
	}
}

// Plan lists the immediate files of sourceDir and assigns each a destination
// under targetDir according to mode. Subdirectories are not descended into, so
// already-organized output is never reorganized. Enumeration order is the
// sorted directory listing, making the plan reproducible for a given
// directory state.
func (p *Planner) Plan(ctx context.Context, sourceDir, targetDir string, mode Mode) (*Plan, error) {
	logger := logging.WithContext(ctx, p.logger)

	sourceDir, err := filepath.Abs(sourceDir)
	if err != nil {
		return nil, Wrap(ErrFilesystem, "resolve source", sourceDir, err)
	}
	if strings.TrimSpace(targetDir) == "" {
		targetDir = sourceDir
	}
	targetDir, err = filepath.Abs(targetDir)
	if err != nil {
		return nil, Wrap(ErrFilesystem, "resolve target", targetDir, err)
	}

	info, err := os.Stat(sourceDir)
	if err != nil {
		return nil, Wrap(ErrFilesystem, "inspect source", sourceDir, err)
	}
	if !info.IsDir() {
		return nil, Wrap(ErrFilesystem, "inspect source", fmt.Sprintf("%s is not a directory", sourceDir), nil)
	}

	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return nil, Wrap(ErrFilesystem, "list source", sourceDir, err)
	}

	plan := &Plan{Mode: mode, SourceDir: sourceDir, TargetDir: targetDir}
	claimed := make(map[string]struct{}, len(entries))

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		source := filepath.Join(sourceDir, name)

		fileInfo, err := entry.Info()
		if err != nil {
			logger.Warn("skipping unreadable file", logging.String("path", source), logging.Error(err))
			plan.Failures = append(plan.Failures, PlanFailure{
				Path: source,
				Err:  Wrap(ErrClassification, "read metadata", source, err),
			})
			continue
		}

		subdir := Classify(name, fileInfo.ModTime(), mode)
		dest := filepath.Join(targetDir, subdir, name)
		if dest == source {
			continue
		}

		resolved, err := p.resolveCollision(dest, claimed)
		if err != nil {
			logger.Warn("skipping move with unresolved collision", logging.String("path", source), logging.Error(err))
			plan.Failures = append(plan.Failures, PlanFailure{Path: source, Err: err})
			continue
		}

		claimed[resolved] = struct{}{}
		plan.Moves = append(plan.Moves, PlannedMove{Source: source, Dest: resolved})
	}

	logger.Debug(
		"plan complete",
		logging.String(logging.FieldMode, string(mode)),
		logging.String("source_dir", sourceDir),
		logging.Int("moves", len(plan.Moves)),
		logging.Int("failures", len(plan.Failures)),
	)
	return plan, nil
}

// resolveCollision returns dest unchanged when it is free, otherwise probes
// " (n)" suffixed candidates with n counting up from 1. A candidate is taken
// only when it is absent both from the plan so far and from disk.
func (p *Planner) resolveCollision(dest string, claimed map[string]struct{}) (string, error) {
	if free, err := p.destinationFree(dest, claimed); err != nil {
		return "", err
	} else if free {
		return dest, nil
	}

	dir := filepath.Dir(dest)
	stem, ext := splitExt(filepath.Base(dest))

	for attempt := 1; attempt <= p.maxSuffixAttempts; attempt++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, attempt, ext))
		free, err := p.destinationFree(candidate, claimed)
		if err != nil {
			return "", err
		}
		if free {
			return candidate, nil
		}
	}
	return "", Wrap(ErrCollision, "resolve collision", fmt.Sprintf("exhausted %d suffix attempts for %s", p.maxSuffixAttempts, dest), nil)
}

func (p *Planner) destinationFree(dest string, claimed map[string]struct{}) (bool, error) {
	if _, taken := claimed[dest]; taken {
		return false, nil
	}
	if _, err := os.Lstat(dest); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return true, nil
		}
		return false, Wrap(ErrFilesystem, "probe destination", dest, err)
	}
	return false, nil
}
