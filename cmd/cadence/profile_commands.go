package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cadence/internal/store"
)

func newProfileCommand(ctx *commandContext) *cobra.Command {
	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage the user profile content is generated from",
	}
	profileCmd.AddCommand(newProfileSetCommand(ctx))
	profileCmd.AddCommand(newProfileShowCommand(ctx))
	return profileCmd
}

func newProfileSetCommand(ctx *commandContext) *cobra.Command {
	var (
		name          string
		industry      string
		experience    string
		currentWork   string
		skills        []string
		careerGoals   string
		tone          string
		hashtags      []string
		imageStyle    string
		includeImages bool
		strategies    []string
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Create or update the profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(func(rt *runtime) error {
				userID := ctx.userID()
				profile, err := rt.store.GetProfile(context.Background(), userID)
				if err != nil {
					return err
				}
				if profile == nil {
					profile = &store.Profile{UserID: userID}
				}

				flags := cmd.Flags()
				if flags.Changed("name") {
					profile.Name = name
				}
				if flags.Changed("industry") {
					profile.Industry = industry
				}
				if flags.Changed("experience") {
					profile.ExperienceLevel = experience
				}
				if flags.Changed("work") {
					profile.CurrentWork = currentWork
				}
				if flags.Changed("skills") {
					profile.Skills = skills
				}
				if flags.Changed("goals") {
					profile.CareerGoals = careerGoals
				}
				if flags.Changed("tone") {
					profile.Preferences.Tone = tone
				}
				if flags.Changed("hashtags") {
					profile.Preferences.DefaultHashtags = hashtags
				}
				if flags.Changed("image-style") {
					profile.Preferences.ImageStyle = imageStyle
				}
				if flags.Changed("images") {
					profile.Preferences.IncludeImages = includeImages
				}
				if flags.Changed("strategy") {
					strategy, err := parseStrategyFlags(strategies)
					if err != nil {
						return err
					}
					profile.Preferences.PostingStrategy = strategy
				}

				if strings.TrimSpace(profile.Industry) == "" {
					return fmt.Errorf("profile for %s needs an industry (--industry)", userID)
				}
				if err := rt.store.SaveProfile(context.Background(), profile); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Profile saved for %s\n", userID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&industry, "industry", "", "Industry the user works in")
	cmd.Flags().StringVar(&experience, "experience", "", "Experience level (e.g. Senior)")
	cmd.Flags().StringVar(&currentWork, "work", "", "What the user is currently working on")
	cmd.Flags().StringSliceVar(&skills, "skills", nil, "Comma-separated skills")
	cmd.Flags().StringVar(&careerGoals, "goals", "", "Career goals")
	cmd.Flags().StringVar(&tone, "tone", "", "Preferred writing tone")
	cmd.Flags().StringSliceVar(&hashtags, "hashtags", nil, "Default hashtags")
	cmd.Flags().StringVar(&imageStyle, "image-style", "", "Preferred visual style")
	cmd.Flags().BoolVar(&includeImages, "images", false, "Generate visuals with each post")
	cmd.Flags().StringArrayVar(&strategies, "strategy", nil,
		"Posting strategy entry as type=frequency (e.g. mini_project=every_15_days); repeatable")
	return cmd
}

// parseStrategyFlags converts repeated type=frequency pairs into a strategy
// map with every listed type enabled.
func parseStrategyFlags(pairs []string) (map[store.ContentType]store.StrategyEntry, error) {
	strategy := make(map[store.ContentType]store.StrategyEntry, len(pairs))
	for _, pair := range pairs {
		name, value, found := strings.Cut(pair, "=")
		if !found {
			return nil, fmt.Errorf("strategy %q must be type=frequency", pair)
		}
		contentType, err := parseContentTypeArg(name)
		if err != nil {
			return nil, err
		}
		frequency, err := store.ParseFrequency(value)
		if err != nil {
			return nil, err
		}
		strategy[contentType] = store.StrategyEntry{Enabled: true, Frequency: frequency}
	}
	return strategy, nil
}

func newProfileShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the stored profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(func(rt *runtime) error {
				userID := ctx.userID()
				profile, err := rt.store.GetProfile(context.Background(), userID)
				if err != nil {
					return err
				}
				if profile == nil {
					return fmt.Errorf("no profile for %s; create one with `cadence profile set`", userID)
				}

				out := cmd.OutOrStdout()
				rows := [][]string{
					{"User", profile.UserID},
					{"Name", profile.Name},
					{"Industry", profile.Industry},
					{"Experience", profile.ExperienceLevel},
					{"Current work", profile.CurrentWork},
					{"Skills", strings.Join(profile.Skills, ", ")},
					{"Goals", profile.CareerGoals},
					{"Tone", profile.Preferences.Tone},
					{"Default hashtags", strings.Join(profile.Preferences.DefaultHashtags, " ")},
					{"Images", yesNo(profile.Preferences.IncludeImages)},
					{"Image style", profile.Preferences.ImageStyle},
				}
				printRows(out, []string{"Field", "Value"}, rows, nil)

				if len(profile.Preferences.PostingStrategy) > 0 {
					var strategyRows [][]string
					for _, contentType := range store.AllContentTypes {
						entry, ok := profile.Preferences.PostingStrategy[contentType]
						if !ok {
							continue
						}
						strategyRows = append(strategyRows, []string{
							typeLabel(contentType),
							entry.Frequency.String(),
							yesNo(entry.Enabled),
						})
					}
					printRows(out, []string{"Content Type", "Frequency", "Enabled"}, strategyRows, nil)
				}
				return nil
			})
		},
	}
}
