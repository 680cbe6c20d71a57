package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"cadence/internal/config"
)

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}
	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand())
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			if overwrite {
				if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("remove existing config: %w", err)
				}
			}
			if err := config.WriteSample(target); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Edit the file to point inference.host at your model server before generating.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "show",
		Short:       "Show the resolved configuration",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load("")
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", path)
			if !exists {
				fmt.Fprintln(out, "Config file did not exist; defaults are shown")
			}

			rows := [][]string{
				{"data_dir", cfg.Paths.DataDir},
				{"log_dir", cfg.Paths.LogDir},
				{"inference.host", cfg.Inference.Host},
				{"inference.model", cfg.Inference.Model},
				{"inference.timeout_seconds", fmt.Sprintf("%d", cfg.Inference.TimeoutSeconds)},
				{"inference.max_attempts", fmt.Sprintf("%d", cfg.Inference.MaxAttempts)},
				{"inference.empty_on_exhaustion", yesNo(cfg.Inference.EmptyOnExhaustion)},
				{"scheduler.lookahead_hours", fmt.Sprintf("%d", cfg.Scheduler.LookaheadHours)},
				{"scheduler.poll_interval_seconds", fmt.Sprintf("%d", cfg.Scheduler.PollIntervalSeconds)},
				{"scheduler.default_user", cfg.Scheduler.DefaultUser},
				{"content.default_hashtags", strings.Join(cfg.Content.DefaultHashtags, " ")},
				{"content.include_images", yesNo(cfg.Content.IncludeImages)},
				{"content.image_style", cfg.Content.ImageStyle},
				{"logging.format", cfg.Logging.Format},
				{"logging.level", cfg.Logging.Level},
			}
			printRows(out, []string{"Key", "Value"}, rows, nil)
			return nil
		},
	}
}
