package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateOrganize(); err != nil {
		return err
	}
	if err := c.validatePaths(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateOrganize() error {
	switch c.Organize.DefaultMode {
	case "ext", "date":
	default:
		return fmt.Errorf("organize.default_mode must be %q or %q, got %q", "ext", "date", c.Organize.DefaultMode)
	}
	if c.Organize.MaxSuffixAttempts < 1 {
		return errors.New("organize.max_suffix_attempts must be at least 1")
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}
