package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/gerris/internal/kpi"
	"github.com/sandeepkv93/gerris/internal/model"
	"github.com/sandeepkv93/gerris/internal/views"
)

func addStats(topLevel *cobra.Command, opts *options) {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show KPIs, streaks and level",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, opts, func(rt *runtime) error {
				view := rt.tracker.Refresh(cmd.Context())
				s := view.Stats
				today := model.DateOf(view.Now)
				level := kpi.ProgressToNextLevel(view.Gamification)

				goal := red("open")
				if s.GoalHitToday {
					goal = green("hit")
				}
				tbl := newTable()
				tbl.AddRow(bold("Today"), fmt.Sprintf("%d/%d (%s)", s.DoneToday, s.GoalDaily, goal))
				tbl.AddRow(bold("Total"), s.DoneTotal)
				tbl.AddRow(bold("Streak"), s.Streak)
				tbl.AddRow(bold("This week"), kpi.WeeklyDone(s, today))
				tbl.AddRow(bold("Last 7 days"), views.Sparkline(kpi.WeeklyCompletionCounts(s, today)))
				switch view.Settings.GamificationMode {
				case model.GamificationBadges:
					tbl.AddRow(bold("Badges"), len(view.Gamification.Badges))
					for _, b := range view.Gamification.Badges {
						tbl.AddRow("", b)
					}
				default:
					tbl.AddRow(bold("Level"), fmt.Sprintf("%d (%d/%d to next)", view.Gamification.Level, level.Points, level.Required))
					tbl.AddRow(bold("Points"), view.Gamification.Points)
				}
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintln(out, tbl)

				cats := newTable()
				cats.AddRow(bold("Category"), bold("Open"), bold("Today"), bold("Streak"))
				for _, c := range kpi.TopCategories(kpi.CategoryKPIs(view.Todos, view.Settings.CategoryGoals, view.Now)) {
					cats.AddRow(c.Category.Label(), c.Open, fmt.Sprintf("%d/%d", c.DoneToday, c.DailyGoal), c.Streak)
				}
				_, _ = fmt.Fprintln(out)
				_, _ = fmt.Fprintln(out, cats)
				return nil
			})
		},
	}
	topLevel.AddCommand(cmd)

	goal := &cobra.Command{
		Use:   "goal N",
		Short: "Set the daily completion goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("goal must be a whole number, got %q", args[0])
			}
			return withRuntime(cmd, opts, func(rt *runtime) error {
				s := rt.tracker.SetDailyGoal(cmd.Context(), n)
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "daily goal: %d (%d done today)\n", s.GoalDaily, s.DoneToday)
				return nil
			})
		},
	}
	topLevel.AddCommand(goal)
}

func addCoach(topLevel *cobra.Command, opts *options) {
	cmd := &cobra.Command{
		Use:   "coach",
		Short: "Run coaching scans and show recent messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, opts, func(rt *runtime) error {
				msgs := rt.tracker.View().Coach
				if len(msgs) > 5 {
					msgs = msgs[len(msgs)-5:]
				}
				if len(msgs) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), faint("no coach messages yet"))
				}
				writeCoach(cmd.OutOrStdout(), msgs)
				return nil
			})
		},
	}

	scan := &cobra.Command{
		Use:   "scan",
		Short: "Check for overdue and due-soon todos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, opts, func(rt *runtime) error {
				msgs := rt.tracker.RunDailyScan(cmd.Context())
				if len(msgs) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), faint("nothing new"))
				}
				writeCoach(cmd.OutOrStdout(), msgs)
				return nil
			})
		},
	}

	weekly := &cobra.Command{
		Use:   "weekly",
		Short: "Deliver this week's review",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, opts, func(rt *runtime) error {
				msg, ok := rt.tracker.WeeklyReview(cmd.Context())
				if !ok {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), faint("weekly review already delivered this week"))
					return nil
				}
				writeCoach(cmd.OutOrStdout(), []model.CoachMessage{msg})
				return nil
			})
		},
	}

	cmd.AddCommand(scan, weekly)
	topLevel.AddCommand(cmd)
}
