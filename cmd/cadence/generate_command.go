package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cadence/internal/pipeline"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var (
		customPrompt string
		withImage    bool
		tone         string
	)

	cmd := &cobra.Command{
		Use:   "generate <content-type>",
		Short: "Generate a draft immediately",
		Long: "Generate runs the full pipeline once for the given content type and " +
			"stores the result as a draft. Scheduled runs happen through the daemon; " +
			"this command is the manual path.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contentType, err := parseContentTypeArg(args[0])
			if err != nil {
				return err
			}
			return ctx.withRuntime(func(rt *runtime) error {
				userID := ctx.userID()
				profile, err := rt.store.GetProfile(context.Background(), userID)
				if err != nil {
					return err
				}
				if profile == nil {
					return fmt.Errorf("no profile for %s; create one with `cadence profile set`", userID)
				}

				attrs := map[string]string{
					pipeline.AttrName:            profile.Name,
					pipeline.AttrIndustry:        profile.Industry,
					pipeline.AttrExperienceLevel: profile.ExperienceLevel,
					pipeline.AttrCurrentWork:     profile.CurrentWork,
					pipeline.AttrSkills:          strings.Join(profile.Skills, ", "),
					pipeline.AttrCareerGoals:     profile.CareerGoals,
				}
				if tone != "" {
					attrs[pipeline.AttrTone] = tone
				} else if profile.Preferences.Tone != "" {
					attrs[pipeline.AttrTone] = profile.Preferences.Tone
				}
				if customPrompt != "" {
					attrs[pipeline.AttrCustomPrompt] = customPrompt
				}
				if profile.Preferences.ImageStyle != "" {
					attrs[pipeline.AttrImageStyle] = profile.Preferences.ImageStyle
				}

				artifact, err := rt.generator.Generate(cmd.Context(), pipeline.Request{
					UserID:       userID,
					ContentType:  contentType,
					Attributes:   attrs,
					IncludeImage: withImage || profile.Preferences.IncludeImages,
				})
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Draft %s (%s)\n\n", artifact.ID, typeLabel(artifact.ContentType))
				fmt.Fprintln(out, artifact.Body)
				if len(artifact.Hashtags) > 0 {
					fmt.Fprintf(out, "\n%s\n", strings.Join(artifact.Hashtags, " "))
				}
				if artifact.CallToAction != "" {
					fmt.Fprintf(out, "\n%s\n", artifact.CallToAction)
				}
				if artifact.ImageRef != "" {
					fmt.Fprintf(out, "\nVisual concept: %s\n", artifact.ImageRef)
				}
				fmt.Fprintf(out, "\nEngagement estimate: %d (likes %d, comments %d, shares %d)\n",
					artifact.Engagement.Score,
					artifact.Engagement.PredictedLikes,
					artifact.Engagement.PredictedComments,
					artifact.Engagement.PredictedShares,
				)
				for _, suggestion := range artifact.Engagement.Suggestions {
					fmt.Fprintf(out, "  - %s\n", suggestion)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&customPrompt, "prompt", "", "Custom prompt (general content type only)")
	cmd.Flags().BoolVar(&withImage, "image", false, "Also produce a visual concept")
	cmd.Flags().StringVar(&tone, "tone", "", "Override the profile tone for this run")
	return cmd
}
