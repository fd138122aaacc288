package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/gerris/internal/model"
)

type settingsFlags struct {
	ai            string
	mode          string
	recipient     string
	categoryGoals []string
}

func addSettings(topLevel *cobra.Command, opts *options) {
	f := &settingsFlags{}
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change saved settings",
		Example: `
gerris settings --ai on --mode badges
gerris settings --category-goal job_search=3 --recipient me@example.com
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, opts, func(rt *runtime) error {
				if err := f.apply(cmd, rt); err != nil {
					return err
				}
				s := rt.tracker.Settings()
				ai := red("off")
				if s.AIEnabled {
					ai = green("on")
				}
				tbl := newTable()
				tbl.AddRow(bold("AI"), ai)
				tbl.AddRow(bold("Mode"), s.GamificationMode)
				tbl.AddRow(bold("Recipient"), s.ReminderRecipient)
				for _, c := range model.Categories {
					tbl.AddRow(bold(c.Label()), fmt.Sprintf("%d/day", s.CategoryGoals[c]))
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), tbl)
				return nil
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&f.ai, "ai", "", "turn AI suggestions on or off")
	flags.StringVar(&f.mode, "mode", "", "gamification mode: points, badges or avatar")
	flags.StringVar(&f.recipient, "recipient", "", "email address for reminders")
	flags.StringSliceVar(&f.categoryGoals, "category-goal", nil, "daily goal per category as category=n, repeatable")
	topLevel.AddCommand(cmd)
}

func (f *settingsFlags) apply(cmd *cobra.Command, rt *runtime) error {
	ctx := cmd.Context()
	switch strings.ToLower(f.ai) {
	case "":
	case "on":
		rt.tracker.SetAIEnabled(ctx, true)
	case "off":
		rt.tracker.SetAIEnabled(ctx, false)
	default:
		return fmt.Errorf("--ai takes on or off, got %q", f.ai)
	}
	if f.mode != "" {
		if err := rt.tracker.SetGamificationMode(ctx, model.GamificationMode(strings.ToLower(f.mode))); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("recipient") {
		rt.tracker.SetReminderRecipient(ctx, f.recipient)
	}
	for _, raw := range f.categoryGoals {
		name, value, ok := strings.Cut(raw, "=")
		if !ok {
			return fmt.Errorf("--category-goal takes category=n, got %q", raw)
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("--category-goal %s: %q is not a number", name, value)
		}
		category, err := model.ParseCategory(name)
		if err != nil {
			return err
		}
		if err := rt.tracker.SetCategoryGoal(ctx, category, n); err != nil {
			return err
		}
	}
	return nil
}
