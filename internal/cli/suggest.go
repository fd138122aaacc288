package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/gerris/internal/model"
)

func addSuggest(topLevel *cobra.Command, opts *options) {
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Ask for suggestions; falls back to built-in heuristics when AI is off",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	plan := &cobra.Command{
		Use:   "plan",
		Short: "Suggest a focus plan for today",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, opts, func(rt *runtime) error {
				s := rt.tracker.SuggestDailyPlan(cmd.Context())
				p := s.Payload
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintln(out, bold(p.Headline))
				if p.MoodAdvice != "" {
					_, _ = fmt.Fprintln(out, p.MoodAdvice)
				}
				tbl := newTable()
				tbl.AddRow(bold("Focus"), bold("Q"), bold("Due"), bold("Recommendation"))
				for _, item := range p.FocusItems {
					q := item.Quadrant
					if parsed, err := model.ParseQuadrant(item.Quadrant); err == nil {
						q = parsed.ShortLabel()
					}
					tbl.AddRow(item.Title, q, item.DueDate, item.Recommendation)
				}
				_, _ = fmt.Fprintln(out, tbl)
				if p.BufferTip != "" {
					_, _ = fmt.Fprintln(out, p.BufferTip)
				}
				_, _ = fmt.Fprintln(out, faint("source: "+sourceName(s.FromAI)))
				return nil
			})
		},
	}

	goals := &cobra.Command{
		Use:   "goals",
		Short: "Suggest a daily goal from recent completions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, opts, func(rt *runtime) error {
				s := rt.tracker.SuggestGoals(cmd.Context())
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(out, "%s %d\n", bold("daily goal:"), s.Payload.DailyGoal)
				if s.Payload.Focus != "" {
					_, _ = fmt.Fprintln(out, "focus: "+s.Payload.Focus)
				}
				for _, tip := range s.Payload.Tips {
					_, _ = fmt.Fprintln(out, "- "+tip)
				}
				_, _ = fmt.Fprintln(out, faint("source: "+sourceName(s.FromAI)))
				return nil
			})
		},
	}

	motivate := &cobra.Command{
		Use:   "motivate",
		Short: "A short motivational note",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, opts, func(rt *runtime) error {
				s := rt.tracker.Motivate(cmd.Context())
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), s.Payload)
				return nil
			})
		},
	}

	quadrant := &cobra.Command{
		Use:   "quadrant TITLE...",
		Short: "Classify a title into a quadrant",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, opts, func(rt *runtime) error {
				s := rt.tracker.SuggestQuadrant(cmd.Context(), strings.Join(args, " "))
				label := s.Payload.Quadrant
				if q, err := model.ParseQuadrant(label); err == nil {
					label = q.Label()
				}
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintln(out, bold(label))
				if s.Payload.Rationale != "" {
					_, _ = fmt.Fprintln(out, s.Payload.Rationale)
				}
				_, _ = fmt.Fprintln(out, faint("source: "+sourceName(s.FromAI)))
				return nil
			})
		},
	}

	cmd.AddCommand(plan, goals, motivate, quadrant)
	topLevel.AddCommand(cmd)
}
