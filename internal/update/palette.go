package update

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/gerris/internal/commands"
)

func (m Model) handlePaletteKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.Palette = PaletteState{}
		m.commandInput.Blur()
		m.Status = StatusBar{Text: "command palette closed"}
		return m, nil
	case "enter":
		raw := strings.TrimSpace(m.commandInput.Value())
		m.Palette = PaletteState{}
		m.commandInput.SetValue("")
		m.commandInput.Blur()
		return m.executePaletteCommand(raw)
	}
	if msg.Type == tea.KeyRunes {
		m.commandInput.SetValue(m.commandInput.Value() + string(msg.Runes))
	} else {
		m.commandInput, _ = m.commandInput.Update(msg)
	}
	m.Palette.Input = m.commandInput.Value()
	return m, nil
}

// executePaletteCommand runs a parsed palette command against the tracker.
// Commands that may call the model return a background tea.Cmd instead.
func (m Model) executePaletteCommand(raw string) (Model, tea.Cmd) {
	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}

	var async tea.Cmd
	next := m
	handlers := commands.Handlers{
		Add: func(a commands.AddArgs) (commands.Result, error) {
			next = next.addTodo(a)
			return commands.Result{}, nil
		},
		Done: func(a commands.TargetArgs) (commands.Result, error) {
			id, err := m.resolveTarget(a.Target)
			if err != nil {
				return commands.Result{}, err
			}
			next = next.toggle(id)
			return commands.Result{}, nil
		},
		Progress: func(a commands.ProgressArgs) (commands.Result, error) {
			id, err := m.resolveTarget(a.Target)
			if err != nil {
				return commands.Result{}, err
			}
			next = next.progress(id, a.Delta)
			return commands.Result{}, nil
		},
		Delete: func(a commands.TargetArgs) (commands.Result, error) {
			id, err := m.resolveTarget(a.Target)
			if err != nil {
				return commands.Result{}, err
			}
			if err := m.tracker.DeleteTodo(m.ctx, id); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: "deleted " + id}, nil
		},
		Duplicate: func(a commands.TargetArgs) (commands.Result, error) {
			id, err := m.resolveTarget(a.Target)
			if err != nil {
				return commands.Result{}, err
			}
			dup, err := m.tracker.DuplicateTodo(m.ctx, id)
			if err != nil {
				return commands.Result{}, err
			}
			next.SelectedID = dup.ID
			return commands.Result{Message: "duplicated: " + dup.Title}, nil
		},
		Plan: func(a commands.TargetArgs) (commands.Result, error) {
			id, err := m.resolveTarget(a.Target)
			if err != nil {
				return commands.Result{}, err
			}
			async = m.planCmd(id)
			return commands.Result{}, nil
		},
		Goal: func(a commands.GoalArgs) (commands.Result, error) {
			stats := m.tracker.SetDailyGoal(m.ctx, a.Daily)
			return commands.Result{Message: fmt.Sprintf("daily goal: %d", stats.GoalDaily)}, nil
		},
		Scan: func() (commands.Result, error) {
			msgs := m.tracker.RunDailyScan(m.ctx)
			next.showCoach(msgs)
			return commands.Result{Message: fmt.Sprintf("daily scan: %d new message(s)", len(msgs))}, nil
		},
		Weekly: func() (commands.Result, error) {
			async = m.weeklyCmd()
			return commands.Result{}, nil
		},
		AI: func(a commands.AIArgs) (commands.Result, error) {
			m.tracker.SetAIEnabled(m.ctx, a.Enabled)
			if a.Enabled {
				return commands.Result{Message: "ai suggestions on"}, nil
			}
			return commands.Result{Message: "ai suggestions off"}, nil
		},
		Journal: func(a commands.JournalArgs) (commands.Result, error) {
			if err := m.appendJournal(a.Text); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: "journal updated for " + m.Today().String()}, nil
		},
		Card: func(a commands.CardArgs) (commands.Result, error) {
			if m.SelectedID == "" {
				return commands.Result{}, errors.New("select a todo before adding a card")
			}
			card, err := m.tracker.AddKanbanCard(m.ctx, m.SelectedID, a.Title, "")
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: "card added: " + card.Title}, nil
		},
		Reload: func() (commands.Result, error) {
			changed, err := m.tracker.Reload(m.ctx)
			if err != nil {
				return commands.Result{}, err
			}
			if !changed {
				return commands.Result{Message: "state unchanged"}, nil
			}
			return commands.Result{Message: "state reloaded from storage"}, nil
		},
	}

	res, err := commands.Execute(cmd, handlers)
	if err != nil {
		return m.apply(err, ""), nil
	}
	if async != nil {
		return next.startBusy(async)
	}
	if res.Message == "" {
		return next, nil
	}
	return next.apply(nil, res.Message), nil
}
