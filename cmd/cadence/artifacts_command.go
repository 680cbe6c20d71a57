package main

import (
	"context"

	"github.com/spf13/cobra"
)

func newArtifactsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "artifacts",
		Short: "List generated artifacts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(func(rt *runtime) error {
				artifacts, err := rt.store.ListArtifacts(context.Background(), ctx.userID(), limit)
				if err != nil {
					return err
				}
				if len(artifacts) == 0 {
					cmd.Println("No artifacts yet")
					return nil
				}
				rows := make([][]string, 0, len(artifacts))
				for _, artifact := range artifacts {
					scheduled := "-"
					if artifact.ScheduledFor != nil {
						scheduled = formatTimestamp(*artifact.ScheduledFor)
					}
					rows = append(rows, []string{
						artifact.ID[:8],
						typeLabel(artifact.ContentType),
						string(artifact.Status),
						truncate(artifact.Body, 48),
						scheduled,
						formatTimestamp(artifact.CreatedAt),
					})
				}
				printRows(cmd.OutOrStdout(),
					[]string{"ID", "Type", "Status", "Body", "Scheduled", "Created"},
					rows, nil)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum artifacts to show")
	return cmd
}
