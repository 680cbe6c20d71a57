package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateInference(); err != nil {
		return err
	}
	if err := c.validateScheduler(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateInference() error {
	parsed, err := url.Parse(c.Inference.Host)
	if err != nil || parsed.Host == "" {
		return fmt.Errorf("inference.host %q is not a valid URL", c.Inference.Host)
	}
	if c.Inference.Model == "" {
		return errors.New("inference.model must be set")
	}
	if c.Inference.TimeoutSeconds <= 0 {
		return errors.New("inference.timeout_seconds must be positive")
	}
	if c.Inference.MaxAttempts <= 0 {
		return errors.New("inference.max_attempts must be positive")
	}
	return nil
}

func (c *Config) validateScheduler() error {
	if c.Scheduler.LookaheadHours <= 0 {
		return errors.New("scheduler.lookahead_hours must be positive")
	}
	if c.Scheduler.PollIntervalSeconds <= 0 {
		return errors.New("scheduler.poll_interval_seconds must be positive")
	}
	if c.Scheduler.DefaultUser == "" {
		return errors.New("scheduler.default_user must be set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q is not supported (use console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not supported", c.Logging.Level)
	}
	return nil
}
