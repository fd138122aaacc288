package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/gerris/internal/model"
	"github.com/sandeepkv93/gerris/internal/todos"
)

func addMilestone(topLevel *cobra.Command, opts *options) {
	cmd := &cobra.Command{
		Use:     "milestone",
		Aliases: []string{"ms"},
		Short:   "Manage a todo's milestone board",
		Example: `
gerris milestone add 3f2a Draft outline --size medium
gerris milestone move 3f2a 91c0
gerris milestone plan 3f2a
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	var size string
	add := &cobra.Command{
		Use:   "add TODO TITLE...",
		Short: "Add a milestone to the backlog",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, opts, func(rt *runtime) error {
				todo, err := resolveTodo(rt.tracker.Todos(), args[0])
				if err != nil {
					return err
				}
				added, err := rt.tracker.AddMilestone(cmd.Context(), todo.ID, model.Milestone{
					Title:      strings.Join(args[1:], " "),
					Complexity: model.MilestoneComplexity(size),
				})
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "milestone %s %s (%d pts)\n", shortID(added.ID), added.Title, added.Points)
				return nil
			})
		},
	}
	add.Flags().StringVar(&size, "size", string(model.ComplexitySmall), "complexity: small, medium or large")

	var back bool
	move := &cobra.Command{
		Use:   "move TODO MILESTONE",
		Short: "Move a milestone one column along the board",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := 1
			if back {
				dir = -1
			}
			return withRuntime(cmd, opts, func(rt *runtime) error {
				todo, ms, err := resolveMilestone(rt.tracker.Todos(), args[0], args[1])
				if err != nil {
					return err
				}
				moved, err := rt.tracker.MoveMilestone(cmd.Context(), todo.ID, ms.ID, dir)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", moved.Title, moved.Status)
				return nil
			})
		},
	}
	move.Flags().BoolVar(&back, "back", false, "move toward the backlog")

	finish := &cobra.Command{
		Use:   "done TODO MILESTONE",
		Short: "Mark a milestone done",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, opts, func(rt *runtime) error {
				todo, ms, err := resolveMilestone(rt.tracker.Todos(), args[0], args[1])
				if err != nil {
					return err
				}
				done := model.MilestoneDone
				updated, err := rt.tracker.UpdateMilestone(cmd.Context(), todo.ID, ms.ID, todos.MilestonePatch{Status: &done})
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", updated.Title, green(updated.Status))
				return nil
			})
		},
	}

	plan := &cobra.Command{
		Use:   "plan TODO",
		Short: "Suggest milestones for a todo and add them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, opts, func(rt *runtime) error {
				todo, err := resolveTodo(rt.tracker.Todos(), args[0])
				if err != nil {
					return err
				}
				planned, fromAI, err := rt.tracker.PlanMilestones(cmd.Context(), todo.ID)
				if err != nil {
					return err
				}
				tbl := newTable()
				tbl.AddRow(bold("ID"), bold("Milestone"), bold("Size"), bold("Points"))
				for _, ms := range planned {
					tbl.AddRow(shortID(ms.ID), ms.Title, ms.Complexity, ms.Points)
				}
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintln(out, tbl)
				_, _ = fmt.Fprintln(out, faint("source: "+sourceName(fromAI)))
				return nil
			})
		},
	}

	cmd.AddCommand(add, move, finish, plan)
	topLevel.AddCommand(cmd)
}

func resolveMilestone(list []model.Todo, todoPrefix, msPrefix string) (model.Todo, model.Milestone, error) {
	todo, err := resolveTodo(list, todoPrefix)
	if err != nil {
		return model.Todo{}, model.Milestone{}, err
	}
	var found []model.Milestone
	for _, ms := range todo.Milestones {
		if strings.HasPrefix(ms.ID, msPrefix) {
			found = append(found, ms)
		}
	}
	if len(found) != 1 {
		return model.Todo{}, model.Milestone{}, fmt.Errorf("%w: milestone %q matches %d", todos.ErrMilestoneNotFound, msPrefix, len(found))
	}
	return todo, found[0], nil
}

func sourceName(fromAI bool) string {
	if fromAI {
		return "ai"
	}
	return "fallback"
}
