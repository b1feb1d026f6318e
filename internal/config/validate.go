package config

import (
	"errors"
	"fmt"
	"os"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEncoder(); err != nil {
		return err
	}
	if err := c.validateFetch(); err != nil {
		return err
	}
	if err := c.validateText(); err != nil {
		return err
	}
	if err := c.validateJobs(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateEncoder() error {
	if c.Encoder.TimeoutSeconds < 0 {
		return errors.New("encoder.timeout_seconds must be positive")
	}
	if c.Encoder.CRF < 0 || c.Encoder.CRF > 63 {
		return fmt.Errorf("encoder.crf must be between 0 and 63, got %d", c.Encoder.CRF)
	}
	if c.Encoder.DiagnosticBytes < 0 {
		return errors.New("encoder.diagnostic_bytes must be positive")
	}
	return nil
}

func (c *Config) validateFetch() error {
	if c.Fetch.TimeoutSeconds < 0 {
		return errors.New("fetch.timeout_seconds must be positive")
	}
	if c.Fetch.MaxConcurrency < 0 {
		return errors.New("fetch.max_concurrency must be positive")
	}
	return nil
}

func (c *Config) validateText() error {
	if c.Text.NormalEm <= 0 || c.Text.NormalEm > 2 {
		return fmt.Errorf("text.normal_em must be in (0, 2], got %v", c.Text.NormalEm)
	}
	if c.Text.BoldEm <= 0 || c.Text.BoldEm > 2 {
		return fmt.Errorf("text.bold_em must be in (0, 2], got %v", c.Text.BoldEm)
	}
	if c.Text.OutlinePx < 0 {
		return errors.New("text.outline_px must not be negative")
	}
	if c.Text.FontFile != "" {
		info, err := os.Stat(c.Text.FontFile)
		if err != nil {
			return fmt.Errorf("text.font_file: %w", err)
		}
		if info.IsDir() {
			return fmt.Errorf("text.font_file %q is a directory", c.Text.FontFile)
		}
	}
	return nil
}

func (c *Config) validateJobs() error {
	if c.Jobs.Shards < 1 || c.Jobs.Shards > 1024 {
		return fmt.Errorf("jobs.shards must be between 1 and 1024, got %d", c.Jobs.Shards)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
