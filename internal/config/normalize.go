package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeInference()
	c.normalizeScheduler()
	c.normalizeContent()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeInference() {
	c.Inference.Host = strings.TrimSpace(c.Inference.Host)
	if c.Inference.Host == "" {
		if value, ok := os.LookupEnv("CADENCE_INFERENCE_HOST"); ok {
			c.Inference.Host = strings.TrimSpace(value)
		}
	}
	if c.Inference.Host == "" {
		c.Inference.Host = defaultInferenceHost
	}
	if !strings.HasPrefix(c.Inference.Host, "http://") && !strings.HasPrefix(c.Inference.Host, "https://") {
		c.Inference.Host = "http://" + c.Inference.Host
	}
	c.Inference.Host = strings.TrimRight(c.Inference.Host, "/")

	c.Inference.Model = strings.TrimSpace(c.Inference.Model)
	if c.Inference.Model == "" {
		c.Inference.Model = defaultInferenceModel
	}
	if c.Inference.TimeoutSeconds <= 0 {
		c.Inference.TimeoutSeconds = defaultInferenceTimeout
	}
	if c.Inference.MaxAttempts <= 0 {
		c.Inference.MaxAttempts = defaultInferenceAttempts
	}
}

func (c *Config) normalizeScheduler() {
	if c.Scheduler.LookaheadHours <= 0 {
		c.Scheduler.LookaheadHours = defaultLookaheadHours
	}
	if c.Scheduler.PollIntervalSeconds <= 0 {
		c.Scheduler.PollIntervalSeconds = defaultPollIntervalSeconds
	}
	c.Scheduler.DefaultUser = strings.TrimSpace(c.Scheduler.DefaultUser)
	if c.Scheduler.DefaultUser == "" {
		c.Scheduler.DefaultUser = defaultUser
	}
}

func (c *Config) normalizeContent() {
	cleaned := make([]string, 0, len(c.Content.DefaultHashtags))
	for _, tag := range c.Content.DefaultHashtags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if !strings.HasPrefix(tag, "#") {
			tag = "#" + tag
		}
		cleaned = append(cleaned, tag)
	}
	if len(cleaned) == 0 {
		cleaned = append(cleaned, defaultHashtags...)
	}
	c.Content.DefaultHashtags = cleaned

	c.Content.ImageStyle = strings.TrimSpace(c.Content.ImageStyle)
	if c.Content.ImageStyle == "" {
		c.Content.ImageStyle = defaultImageStyle
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
