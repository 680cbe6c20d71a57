package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"cadence/internal/config"
	"cadence/internal/inference"
	"cadence/internal/logging"
	"cadence/internal/pipeline"
	"cadence/internal/scheduler"
	"cadence/internal/store"
)

type commandContext struct {
	configFlag *string
	userFlag   *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, userFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		userFlag:   userFlag,
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

// userID resolves the acting user: the --user flag when given, otherwise the
// configured default.
func (c *commandContext) userID() string {
	if c.userFlag != nil {
		if user := strings.TrimSpace(*c.userFlag); user != "" {
			return user
		}
	}
	if cfg, err := c.ensureConfig(); err == nil {
		return cfg.Scheduler.DefaultUser
	}
	return "default"
}

// runtime bundles the wired components a command needs.
type runtime struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *store.Store
	generator *pipeline.Orchestrator
	scheduler *scheduler.Scheduler
}

// withRuntime opens the store, wires the pipeline and scheduler, runs fn,
// and closes the store afterwards.
func (c *commandContext) withRuntime(fn func(*runtime) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	client := inference.NewClient(inference.Config{
		Host:              cfg.Inference.Host,
		Model:             cfg.Inference.Model,
		TimeoutSeconds:    cfg.Inference.TimeoutSeconds,
		MaxAttempts:       cfg.Inference.MaxAttempts,
		EmptyOnExhaustion: cfg.Inference.EmptyOnExhaustion,
	}, inference.WithLogger(logging.NewComponentLogger(logger, "inference")))

	defaults := pipeline.Defaults{
		Hashtags:   cfg.Content.DefaultHashtags,
		ImageStyle: cfg.Content.ImageStyle,
	}
	renderer := pipeline.FileRenderer{Dir: cfg.ImageDir()}
	orch := pipeline.NewOrchestrator(client, renderer, st, defaults, logging.NewComponentLogger(logger, "pipeline"))
	sched := scheduler.New(st, orch, logging.NewComponentLogger(logger, "scheduler"),
		scheduler.WithLookahead(cfg.Lookahead()))

	return fn(&runtime{
		cfg:       cfg,
		logger:    logger,
		store:     st,
		generator: orch,
		scheduler: sched,
	})
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
