package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"shelf/internal/history"
	"shelf/internal/logging"
	"shelf/internal/undolog"
)

func newUndoCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "undo",
		Short: "Reverse previously organized moves, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := ctx.undoLog()
			if err != nil {
				return err
			}

			runID := uuid.NewString()
			runCtx := logging.WithRunID(cmd.Context(), runID)
			started := time.Now().UTC()

			engine := undolog.NewEngine(log, ctx.loggerValue())
			result, err := engine.Undo(runCtx, dryRun)
			if err != nil {
				return err
			}

			ctx.recordRun(runCtx, history.Run{
				ID:         runID,
				Kind:       history.KindUndo,
				DryRun:     dryRun,
				StartedAt:  started,
				FinishedAt: time.Now().UTC(),
				Planned:    len(result.Outcomes),
				Completed:  result.Reversed,
				Failed:     result.Failed,
			})

			if jsonOut {
				if err := writeJSON(cmd, result); err != nil {
					return err
				}
			} else {
				printUndoResult(cmd, log, result)
			}

			if result.Failed > 0 {
				return fmt.Errorf("%d move(s) could not be reversed", result.Failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Preview reversals without touching any files")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the result as JSON")
	return cmd
}

func printUndoResult(cmd *cobra.Command, log *undolog.Log, result *undolog.Result) {
	out := cmd.OutOrStdout()

	if len(result.Outcomes) == 0 {
		fmt.Fprintf(out, "Undo log %s is empty, nothing to reverse\n", log.Path())
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
			outcome.Entry.Moved,
			outcome.Entry.Original,
			detail,
		})
	}
	printRows(out, []string{"STATUS", "FROM", "TO", "DETAIL"}, rows)

	if result.DryRun {
		fmt.Fprintf(out, "Dry run: %d move(s) would be reversed, nothing was changed\n", len(result.Outcomes))
		return
	}
	fmt.Fprintf(out, "Reversed %d move(s), %d failed\n", result.Reversed, result.Failed)
}
