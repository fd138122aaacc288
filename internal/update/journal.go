package update

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/gerris/internal/model"
)

func (m Model) handleJournalKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "e":
		entry, _ := m.tracker.JournalEntry(m.Today())
		m.Editing = true
		m.journalArea.SetValue(entry.MoodNotes)
		m.journalArea.Focus()
		m.Status = StatusBar{Text: "editing journal: ctrl+s to save, esc to cancel"}
	case "g":
		return m.startBusy(m.alignCmd(m.Today()))
	case "A":
		return m.applyAlignment(), nil
	}
	return m, nil
}

func (m Model) handleJournalEditKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "esc":
		m.Editing = false
		m.journalArea.Blur()
		m.Status = StatusBar{Text: "journal edit cancelled"}
		return m
	case "ctrl+s":
		m.Editing = false
		m.journalArea.Blur()
		entry, ok := m.tracker.JournalEntry(m.Today())
		if !ok {
			entry = model.JournalEntry{Date: m.Today()}
		}
		entry.MoodNotes = strings.TrimSpace(m.journalArea.Value())
		_, err := m.tracker.SaveJournal(m.ctx, entry)
		return m.apply(err, "journal saved for "+m.Today().String())
	case "enter":
		m.journalArea.InsertString("\n")
		return m
	}
	if msg.Type == tea.KeyRunes {
		m.journalArea.InsertString(string(msg.Runes))
		return m
	}
	m.journalArea, _ = m.journalArea.Update(msg)
	return m
}

// appendJournal adds a line to today's notes, creating the entry if needed.
func (m Model) appendJournal(text string) error {
	entry, ok := m.tracker.JournalEntry(m.Today())
	if !ok {
		entry = model.JournalEntry{Date: m.Today()}
	}
	if entry.MoodNotes != "" {
		entry.MoodNotes += "\n"
	}
	entry.MoodNotes += strings.TrimSpace(text)
	_, err := m.tracker.SaveJournal(m.ctx, entry)
	return err
}

// applyAlignment applies every pending action. Dedup keys in the tracker make
// a second apply of the same suggestion a no-op.
func (m Model) applyAlignment() Model {
	if m.Alignment == nil || len(m.Alignment.Actions) == 0 {
		m.Status = StatusBar{Text: "no alignment to apply; press g first"}
		return m
	}
	points, progressed := 0, 0
	var errs []string
	for _, act := range m.Alignment.Actions {
		applied, err := m.tracker.ApplyAlignment(m.ctx, m.Today(), act)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		points += applied.PointsGained
		if applied.ProgressDelta > 0 {
			progressed++
		}
	}
	m.Alignment = nil
	if len(errs) > 0 {
		return m.apply(fmt.Errorf("alignment: %s", strings.Join(errs, "; ")), "")
	}
	return m.apply(nil, fmt.Sprintf("alignment applied: +%d points, %d todo(s) progressed", points, progressed))
}

func (m Model) renderJournalView() string {
	today := m.Today()
	var b strings.Builder
	b.WriteString("journal " + today.String() + ":\n")
	if m.Editing {
		b.WriteString(m.journalArea.View())
		return b.String()
	}
	entry, ok := m.Data.Journal[today]
	if !ok {
		b.WriteString("(no entry yet; press e to write one)\n")
	} else {
		if len(entry.Moods) > 0 {
			b.WriteString("moods: " + strings.Join(entry.Moods, ", ") + "\n")
		}
		if entry.MoodNotes != "" {
			b.WriteString(entry.MoodNotes + "\n")
		}
		if len(entry.Gratitudes) > 0 {
			b.WriteString("grateful for: " + strings.Join(entry.Gratitudes, ", ") + "\n")
		}
		if len(entry.LinkedTodoIDs) > 0 {
			b.WriteString(fmt.Sprintf("linked todos: %d\n", len(entry.LinkedTodoIDs)))
		}
	}
	if ideas := m.tracker.GratitudeSuggestions(today); len(ideas) > 0 {
		b.WriteString("\nfrom earlier days: " + strings.Join(ideas, ", ") + "\n")
	}
	return strings.TrimSpace(b.String())
}

func (m Model) renderAlignmentPane() string {
	if m.Alignment == nil {
		return "alignment:\nkeys: [e] edit [g] suggest [A] apply"
	}
	var b strings.Builder
	b.WriteString("alignment:\n")
	if m.Alignment.Summary != "" {
		b.WriteString(m.Alignment.Summary + "\n")
	}
	for _, act := range m.Alignment.Actions {
		line := fmt.Sprintf("- %s +%d", act.TargetTitle, act.Points)
		if act.ProgressDeltaPercent > 0 {
			line += fmt.Sprintf(" (%g%%)", act.ProgressDeltaPercent)
		}
		b.WriteString(line + "\n")
		if act.FollowUp != "" {
			b.WriteString("  next: " + act.FollowUp + "\n")
		}
	}
	return strings.TrimSpace(b.String())
}
