package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"cadence/internal/daemon"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the background sweep process",
	}
	daemonCmd.AddCommand(newDaemonRunCommand(ctx))
	return daemonCmd
}

func newDaemonRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the daemon in the foreground until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(func(rt *runtime) error {
				d, err := daemon.New(rt.cfg, rt.store, rt.scheduler, rt.logger)
				if err != nil {
					return err
				}
				if err := d.Start(cmd.Context()); err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				status := d.Status()
				fmt.Fprintf(out, "cadence daemon running (db %s, poll %s)\n",
					status.DatabasePath, status.PollInterval)
				fmt.Fprintf(out, "logs: %s\n", d.LogPath())

				signals := make(chan os.Signal, 1)
				signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
				defer signal.Stop(signals)

				select {
				case sig := <-signals:
					fmt.Fprintf(out, "received %s, shutting down\n", sig)
				case <-cmd.Context().Done():
				}
				d.Stop()
				return nil
			})
		},
	}
}
