package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"shelf/internal/history"
	"shelf/internal/logging"
	"shelf/internal/organize"
)

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	var modeFlag string
	var targetFlag string
	var dryRun bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "organize <source-dir>",
		Short: "Move a directory's files into subdirectories by extension or date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			modeValue := modeFlag
			if modeValue == "" {
				modeValue = cfg.Organize.DefaultMode
			}
			mode, err := organize.ParseMode(modeValue)
			if err != nil {
				return err
			}

			log, err := ctx.undoLog()
			if err != nil {
				return err
			}

			runID := uuid.NewString()
			runCtx := logging.WithRunID(cmd.Context(), runID)
			logger := ctx.loggerValue()
			started := time.Now().UTC()

			planner := organize.NewPlanner(cfg, logger)
			plan, err := planner.Plan(runCtx, args[0], targetFlag, mode)
			if err != nil {
				return err
			}

			executor := organize.NewExecutor(log, logger)
			result, execErr := executor.Execute(runCtx, plan.Moves, dryRun)
			if result != nil {
				ctx.recordRun(runCtx, history.Run{
					ID:         runID,
					Kind:       history.KindOrganize,
					Mode:       string(mode),
					SourceDir:  plan.SourceDir,
					TargetDir:  plan.TargetDir,
					DryRun:     dryRun,
					StartedAt:  started,
					FinishedAt: time.Now().UTC(),
					Planned:    len(plan.Moves) + len(plan.Failures),
					Completed:  result.Moved,
					Failed:     result.Failed + len(plan.Failures),
				})
			}
			if execErr != nil {
				return execErr
			}

			if jsonOut {
				if err := writeJSON(cmd, organizeReport(plan, result)); err != nil {
					return err
				}
			} else {
				printOrganizeResult(cmd, plan, result)
			}

			if failed := result.Failed + len(plan.Failures); failed > 0 {
				return fmt.Errorf("%d file(s) could not be organized", failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&modeFlag, "mode", "m", "", "Grouping mode: ext or date (default from config)")
	cmd.Flags().StringVarP(&targetFlag, "target", "t", "", "Destination root (default: the source directory)")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Preview moves without touching any files")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the result as JSON")
	return cmd
}

type organizePayload struct {
	Mode      string                 `json:"mode"`
	SourceDir string                 `json:"source_dir"`
	TargetDir string                 `json:"target_dir"`
	DryRun    bool                   `json:"dry_run"`
	Outcomes  []organize.MoveOutcome `json:"outcomes"`
	Unplanned []unplannedFile        `json:"unplanned,omitempty"`
	Moved     int                    `json:"moved"`
	Failed    int                    `json:"failed"`
}

type unplannedFile struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

func organizeReport(plan *organize.Plan, result *organize.Result) organizePayload {
	payload := organizePayload{
		Mode:      string(plan.Mode),
		SourceDir: plan.SourceDir,
		TargetDir: plan.TargetDir,
		DryRun:    result.DryRun,
		Outcomes:  result.Outcomes,
		Moved:     result.Moved,
		Failed:    result.Failed + len(plan.Failures),
	}
	for _, failure := range plan.Failures {
		payload.Unplanned = append(payload.Unplanned, unplannedFile{Path: failure.Path, Error: failure.Err.Error()})
	}
	return payload
}

func printOrganizeResult(cmd *cobra.Command, plan *organize.Plan, result *organize.Result) {
	out := cmd.OutOrStdout()

	if len(result.Outcomes) == 0 && len(plan.Failures) == 0 {
		fmt.Fprintf(out, "Nothing to organize in %s\n", plan.SourceDir)
		return
	}

	rows := make([][]string, 0, len(result.Outcomes))
	for _, outcome := range result.Outcomes {
		detail := ""
		if outcome.Err != nil {
			detail = outcome.Err.Error()
		}
		rows = append(rows, []string{
			string(outcome.Status),
			relativeTo(plan.SourceDir, outcome.Move.Source),
			relativeTo(plan.TargetDir, outcome.Move.Dest),
			detail,
		})
	}
	printRows(out, []string{"STATUS", "FROM", "TO", "DETAIL"}, rows)

	for _, failure := range plan.Failures {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: %v\n", failure.Path, failure.Err)
	}

	if result.DryRun {
		fmt.Fprintf(out, "Dry run: %d move(s) planned, nothing was changed\n", len(result.Outcomes))
		return
	}
	fmt.Fprintf(out, "Moved %d file(s), %d failed\n", result.Moved, result.Failed+len(plan.Failures))
}
