package main

import (
	"context"
	"strings"
	"sync"

	"log/slog"

	"github.com/spf13/cobra"

	"shelf/internal/config"
	"shelf/internal/history"
	"shelf/internal/logging"
	"shelf/internal/undolog"
)

type commandContext struct {
	configFlag  *string
	undoLogFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag, undoLogFlag *string) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		undoLogFlag: undoLogFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// loggerValue returns the process logger, falling back to a no-op logger when
// configuration or log files are unavailable so commands never fail just
// because logging does.
func (c *commandContext) loggerValue() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger
}

// undoLog resolves the undo log location, preferring the --undo-log flag over
// the configured data directory.
func (c *commandContext) undoLog() (*undolog.Log, error) {
	if c.undoLogFlag != nil && strings.TrimSpace(*c.undoLogFlag) != "" {
		path, err := config.ExpandPath(strings.TrimSpace(*c.undoLogFlag))
		if err != nil {
			return nil, err
		}
		return undolog.New(path), nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return undolog.New(cfg.UndoLogPath()), nil
}

// recordRun persists a run summary when history is enabled. Recording is best
// effort: a history failure is logged but never fails the command, since the
// filesystem work already happened.
func (c *commandContext) recordRun(ctx context.Context, run history.Run) {
	cfg, err := c.ensureConfig()
	if err != nil || !cfg.History.Enabled {
		return
	}

	store, err := history.Open(cfg)
	if err != nil {
		c.loggerValue().Warn("open history store", logging.Error(err))
		return
	}
	defer store.Close()

	if _, err := store.Record(ctx, run); err != nil {
		c.loggerValue().Warn("record run history", logging.Error(err))
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
