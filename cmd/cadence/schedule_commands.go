package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newScheduleCommand(ctx *commandContext) *cobra.Command {
	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage recurring generation schedules",
	}
	scheduleCmd.AddCommand(newScheduleSetupCommand(ctx))
	scheduleCmd.AddCommand(newScheduleListCommand(ctx))
	scheduleCmd.AddCommand(newScheduleRunCommand(ctx))
	scheduleCmd.AddCommand(newSchedulePauseCommand(ctx, "pause", false))
	scheduleCmd.AddCommand(newSchedulePauseCommand(ctx, "resume", true))
	return scheduleCmd
}

func newScheduleSetupCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Create schedules from the profile's posting strategy",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(func(rt *runtime) error {
				entries, err := rt.scheduler.SetupSchedules(context.Background(), ctx.userID(), time.Now().UTC())
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No enabled content types in the posting strategy")
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					rows = append(rows, []string{
						typeLabel(entry.ContentType),
						entry.Frequency.String(),
						formatTimestamp(entry.NextRunAt),
					})
				}
				printRows(cmd.OutOrStdout(), []string{"Content Type", "Frequency", "Next Run"}, rows, nil)
				return nil
			})
		},
	}
}

func newScheduleListCommand(ctx *commandContext) *cobra.Command {
	var horizonDays int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(func(rt *runtime) error {
				horizon := time.Duration(horizonDays) * 24 * time.Hour
				entries, err := rt.scheduler.Upcoming(context.Background(), ctx.userID(), horizon)
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No active schedules")
					return nil
				}
				now := time.Now().UTC()
				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					due := "due now"
					if entry.NextRunAt.After(now) {
						due = entry.NextRunAt.Sub(now).Round(time.Hour).String()
					}
					rows = append(rows, []string{
						typeLabel(entry.ContentType),
						entry.Frequency.String(),
						formatTimestamp(entry.NextRunAt),
						due,
					})
				}
				printRows(cmd.OutOrStdout(), []string{"Content Type", "Frequency", "Next Run", "In"}, rows, nil)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&horizonDays, "horizon", 0, "Only show entries due within this many days (0 shows all)")
	return cmd
}

func newScheduleRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one sweep over due schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(func(rt *runtime) error {
				summary, err := rt.scheduler.RunOnce(cmd.Context(), time.Now().UTC())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Sweep: %d due, %d generated, %d failed\n",
					summary.Due, summary.Generated, summary.Failed)
				return nil
			})
		},
	}
}

func newSchedulePauseCommand(ctx *commandContext, verb string, active bool) *cobra.Command {
	short := "Pause a schedule without deleting it"
	if active {
		short = "Resume a paused schedule"
	}
	return &cobra.Command{
		Use:   verb + " <content-type>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contentType, err := parseContentTypeArg(args[0])
			if err != nil {
				return err
			}
			return ctx.withRuntime(func(rt *runtime) error {
				if err := rt.store.SetCadenceActive(context.Background(), ctx.userID(), contentType, active); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%sd %s schedule for %s\n", verb, contentType, ctx.userID())
				return nil
			})
		},
	}
}
