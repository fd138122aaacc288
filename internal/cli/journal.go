package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/gerris/internal/model"
)

type journalFlags struct {
	date       string
	moods      []string
	gratitudes []string
	triggers   string
	thought    string
	response   string
	selfCare   string
	tomorrow   string
}

// day resolves --date, defaulting to today on the tracker clock.
func (f *journalFlags) day(rt *runtime) (model.Date, error) {
	if f.date == "" {
		return model.DateOf(rt.tracker.View().Now), nil
	}
	return model.ParseDate(f.date)
}

func addJournal(topLevel *cobra.Command, opts *options) {
	f := &journalFlags{}
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Write and review daily journal entries",
		Example: `
gerris journal write Sent two applications --mood calm --gratitude "sunny walk"
gerris journal show
gerris journal align --apply
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().StringVar(&f.date, "date", "", "entry date, YYYY-MM-DD (default today)")

	write := &cobra.Command{
		Use:   "write [NOTES...]",
		Short: "Create or extend an entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, opts, func(rt *runtime) error {
				date, err := f.day(rt)
				if err != nil {
					return err
				}
				entry, ok := rt.tracker.JournalEntry(date)
				if !ok {
					entry = model.JournalEntry{Date: date}
				}
				if notes := strings.TrimSpace(strings.Join(args, " ")); notes != "" {
					if entry.MoodNotes != "" {
						entry.MoodNotes += "\n"
					}
					entry.MoodNotes += notes
				}
				entry.Moods = append(entry.Moods, f.moods...)
				entry.Gratitudes = append(entry.Gratitudes, f.gratitudes...)
				setIfNotEmpty(&entry.TriggersAndReactions, f.triggers)
				setIfNotEmpty(&entry.NegativeThought, f.thought)
				setIfNotEmpty(&entry.RationalResponse, f.response)
				setIfNotEmpty(&entry.SelfCareToday, f.selfCare)
				setIfNotEmpty(&entry.SelfCareTomorrow, f.tomorrow)
				if _, err := rt.tracker.SaveJournal(cmd.Context(), entry); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "journal saved for %s\n", date)
				return nil
			})
		},
	}
	flags := write.Flags()
	flags.StringSliceVar(&f.moods, "mood", nil, "mood, repeatable")
	flags.StringSliceVar(&f.gratitudes, "gratitude", nil, "something you are grateful for, repeatable")
	flags.StringVar(&f.triggers, "triggers", "", "triggers and reactions")
	flags.StringVar(&f.thought, "thought", "", "negative thought")
	flags.StringVar(&f.response, "response", "", "rational response")
	flags.StringVar(&f.selfCare, "self-care", "", "self care today")
	flags.StringVar(&f.tomorrow, "tomorrow", "", "self care planned for tomorrow")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print an entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, opts, func(rt *runtime) error {
				date, err := f.day(rt)
				if err != nil {
					return err
				}
				entry, ok := rt.tracker.JournalEntry(date)
				if !ok {
					return fmt.Errorf("no journal entry for %s", date)
				}
				tbl := newTable()
				tbl.Wrap = true
				tbl.AddRow(bold("Date"), entry.Date)
				tbl.AddRow(bold("Moods"), strings.Join(entry.Moods, ", "))
				tbl.AddRow(bold("Notes"), entry.MoodNotes)
				tbl.AddRow(bold("Triggers"), entry.TriggersAndReactions)
				tbl.AddRow(bold("Thought"), entry.NegativeThought)
				tbl.AddRow(bold("Response"), entry.RationalResponse)
				tbl.AddRow(bold("Self care"), entry.SelfCareToday)
				tbl.AddRow(bold("Tomorrow"), entry.SelfCareTomorrow)
				tbl.AddRow(bold("Gratitude"), strings.Join(entry.Gratitudes, ", "))
				tbl.AddRow(bold("Linked"), len(entry.LinkedTodoIDs))
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintln(out, tbl)
				if ideas := rt.tracker.GratitudeSuggestions(date); len(ideas) > 0 {
					_, _ = fmt.Fprintln(out, faint("earlier gratitudes: "+strings.Join(ideas, ", ")))
				}
				return nil
			})
		},
	}

	var apply bool
	align := &cobra.Command{
		Use:   "align",
		Short: "Match an entry against open todos and optionally apply the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, opts, func(rt *runtime) error {
				date, err := f.day(rt)
				if err != nil {
					return err
				}
				s, err := rt.tracker.SuggestAlignment(cmd.Context(), date)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if s.Payload.Summary != "" {
					_, _ = fmt.Fprintln(out, s.Payload.Summary)
				}
				tbl := newTable()
				tbl.AddRow(bold("Todo"), bold("Points"), bold("Progress"), bold("Follow-up"))
				for _, act := range s.Payload.Actions {
					tbl.AddRow(act.TargetTitle, act.Points, fmt.Sprintf("%g%%", act.ProgressDeltaPercent), act.FollowUp)
				}
				_, _ = fmt.Fprintln(out, tbl)
				_, _ = fmt.Fprintln(out, faint("source: "+sourceName(s.FromAI)))
				if !apply {
					return nil
				}
				var errs []error
				points := 0
				for _, act := range s.Payload.Actions {
					applied, err := rt.tracker.ApplyAlignment(cmd.Context(), date, act)
					if err != nil {
						errs = append(errs, err)
						continue
					}
					points += applied.PointsGained
				}
				_, _ = fmt.Fprintf(out, "applied: +%d points\n", points)
				return errors.Join(errs...)
			})
		},
	}
	align.Flags().BoolVar(&apply, "apply", false, "apply the suggested actions")

	cmd.AddCommand(write, show, align)
	topLevel.AddCommand(cmd)
}

func setIfNotEmpty(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}
