package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/gerris/internal/model"
	"github.com/sandeepkv93/gerris/internal/todos"
)

func addCard(topLevel *cobra.Command, opts *options) {
	cmd := &cobra.Command{
		Use:     "card",
		Aliases: []string{"sub"},
		Short:   "Manage a todo's subtask board",
		Example: `
gerris card add 3f2a Call recruiter --notes "ask about salary band"
gerris card move 3f2a 7c1d
gerris card list 3f2a
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	var notes string
	add := &cobra.Command{
		Use:   "add TODO TITLE...",
		Short: "Add a subtask card to the backlog",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, opts, func(rt *runtime) error {
				todo, err := resolveTodo(rt.tracker.Todos(), args[0])
				if err != nil {
					return err
				}
				card, err := rt.tracker.AddKanbanCard(cmd.Context(), todo.ID, strings.Join(args[1:], " "), notes)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "card %s %s: %s\n", shortID(card.ID), card.Title, card.ColumnID)
				return nil
			})
		},
	}
	add.Flags().StringVar(&notes, "notes", "", "markdown description")

	var back bool
	move := &cobra.Command{
		Use:   "move TODO CARD",
		Short: "Move a card one column along the board",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := 1
			if back {
				dir = -1
			}
			return withRuntime(cmd, opts, func(rt *runtime) error {
				todo, card, err := resolveCard(rt.tracker.Todos(), args[0], args[1])
				if err != nil {
					return err
				}
				moved, err := rt.tracker.MoveKanbanCard(cmd.Context(), todo.ID, card.ID, dir)
				if err != nil {
					return err
				}
				line := fmt.Sprintf("%s: %s", moved.Title, moved.ColumnID)
				if moved.DoneAt != nil {
					line += " " + faint(moved.DoneAt.UTC().Format("2006-01-02 15:04"))
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), line)
				return nil
			})
		},
	}
	move.Flags().BoolVar(&back, "back", false, "move toward the backlog")

	list := &cobra.Command{
		Use:   "list TODO",
		Short: "Show a todo's subtask board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, opts, func(rt *runtime) error {
				todo, err := resolveTodo(rt.tracker.Todos(), args[0])
				if err != nil {
					return err
				}
				board := todo.Kanban.EnsureDefaultColumns()
				tbl := newTable()
				tbl.AddRow(bold("ID"), bold("Card"), bold("Column"), bold("Done"))
				for _, col := range board.Columns {
					for _, c := range board.Cards {
						if c.ColumnID != col.ID {
							continue
						}
						done := ""
						if c.DoneAt != nil {
							done = c.DoneAt.UTC().Format("2006-01-02 15:04")
						}
						tbl.AddRow(shortID(c.ID), c.Title, col.Title, done)
					}
				}
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintln(out, tbl)
				_, _ = fmt.Fprintln(out, faint(fmt.Sprintf("%d/%d done", board.DoneCount(), len(board.Cards))))
				return nil
			})
		},
	}

	cmd.AddCommand(add, move, list)
	topLevel.AddCommand(cmd)
}

func resolveCard(list []model.Todo, todoPrefix, cardPrefix string) (model.Todo, model.KanbanCard, error) {
	todo, err := resolveTodo(list, todoPrefix)
	if err != nil {
		return model.Todo{}, model.KanbanCard{}, err
	}
	var found []model.KanbanCard
	for _, c := range todo.Kanban.Cards {
		if strings.HasPrefix(c.ID, cardPrefix) {
			found = append(found, c)
		}
	}
	if len(found) != 1 {
		return model.Todo{}, model.KanbanCard{}, fmt.Errorf("%w: card %q matches %d", todos.ErrKanbanCardNotFound, cardPrefix, len(found))
	}
	return todo, found[0], nil
}
