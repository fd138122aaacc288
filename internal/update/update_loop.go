package update

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/gerris/internal/kpi"
	"github.com/sandeepkv93/gerris/internal/model"
	"github.com/sandeepkv93/gerris/internal/views"
)

const coachFeedLimit = 20

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForChangeCmd(m.changes), refreshTickCmd(m.refreshInterval))
}

func waitForChangeCmd(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return StateChangedMsg{}
	}
}

func refreshTickCmd(every time.Duration) tea.Cmd {
	return tea.Tick(every, func(time.Time) tea.Msg { return RefreshTickMsg{} })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(typed)
	case tea.WindowSizeMsg:
		m.Width = typed.Width
		return m, nil
	case SwitchViewMsg:
		if isKnownView(typed.View) {
			m.CurrentView = typed.View
		}
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
		}
		return m, nil
	case StateChangedMsg:
		changed, err := m.tracker.Reload(m.ctx)
		switch {
		case err != nil:
			m = m.apply(err, "")
		case changed:
			m = m.apply(nil, "state reloaded from storage")
		}
		return m, waitForChangeCmd(m.changes)
	case RefreshTickMsg:
		m.Data = m.tracker.Refresh(m.ctx)
		m.syncSelection()
		m.syncBubbleData()
		return m, refreshTickCmd(m.refreshInterval)
	case opDoneMsg:
		m.Busy = false
		if typed.Overlay != "" {
			m.Overlay = typed.Overlay
		}
		if typed.Alignment != nil {
			m.Alignment = typed.Alignment
		}
		return m.apply(typed.Err, typed.Status), nil
	case spinner.TickMsg:
		if m.Busy {
			var cmd tea.Cmd
			m.busySpinner, cmd = m.busySpinner.Update(typed)
			return m, cmd
		}
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keyStr := msg.String()
	if keyStr == "ctrl+c" {
		m.Quitting = true
		return m, tea.Quit
	}
	switch {
	case m.Palette.Active:
		return m.handlePaletteKey(msg)
	case m.Adding:
		return m.handleAddKey(msg), nil
	case m.Editing:
		return m.handleJournalEditKey(msg), nil
	}

	switch keyStr {
	case "/":
		m.Palette = PaletteState{Active: true}
		m.commandInput.SetValue("")
		m.commandInput.Focus()
		m.Status = StatusBar{Text: "command palette active"}
		return m, nil
	case m.Keys.Matrix:
		m.CurrentView = ViewMatrix
		return m, nil
	case m.Keys.Stats:
		m.CurrentView = ViewStats
		return m, nil
	case m.Keys.Coach:
		m.CurrentView = ViewCoach
		return m, nil
	case m.Keys.Journal:
		m.CurrentView = ViewJournal
		return m, nil
	case m.Keys.Help:
		m.HelpVisible = !m.HelpVisible
		return m, nil
	case "esc":
		m.Overlay = ""
		return m, nil
	case m.Keys.Quit:
		m.Quitting = true
		return m, tea.Quit
	}

	switch m.CurrentView {
	case ViewMatrix:
		return m.handleMatrixKey(msg)
	case ViewStats:
		if keyStr == "m" {
			return m.startBusy(m.motivateCmd())
		}
		if keyStr == "g" {
			return m.startBusy(m.goalCmd())
		}
	case ViewCoach:
		return m.handleCoachKey(msg)
	case ViewJournal:
		return m.handleJournalKey(msg)
	}
	return m, nil
}

func (m Model) handleCoachKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "s":
		msgs := m.tracker.RunDailyScan(m.ctx)
		m = m.apply(nil, fmt.Sprintf("daily scan: %d new message(s)", len(msgs)))
		return m, nil
	case "w":
		return m.startBusy(m.weeklyCmd())
	}
	var cmd tea.Cmd
	m.coachView, cmd = m.coachView.Update(msg)
	return m, cmd
}

// apply refreshes the tracker view after an operation and reports its
// outcome on the status bar.
func (m Model) apply(err error, text string) Model {
	m.Data = m.tracker.View()
	m.syncSelection()
	m.syncBubbleData()
	if err != nil {
		m.LastError = err
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m
	}
	if text != "" {
		m.Status = StatusBar{Text: text}
	}
	return m
}

// showCoach raises the newest accepted coach message as an overlay.
func (m *Model) showCoach(msgs []model.CoachMessage) {
	if len(msgs) == 0 {
		return
	}
	last := msgs[len(msgs)-1]
	m.Overlay = last.Title + "\n" + views.RenderMarkdown(last.Body)
}

func (m Model) startBusy(cmd tea.Cmd) (Model, tea.Cmd) {
	m.Busy = true
	m.Status = StatusBar{Text: "working..."}
	return m, tea.Batch(cmd, m.busySpinner.Tick)
}

func (m *Model) syncBubbleData() {
	rows := make([]table.Row, 0, len(model.Categories))
	kpis := kpi.CategoryKPIs(m.Data.Todos, m.Data.Settings.CategoryGoals, m.Data.Now)
	for _, c := range kpi.TopCategories(kpis) {
		rows = append(rows, table.Row{
			c.Category.Label(),
			fmt.Sprint(c.Open),
			fmt.Sprintf("%d/%d", c.DoneToday, c.DailyGoal),
			fmt.Sprint(c.Streak),
		})
	}
	m.categoryTable.SetRows(rows)
	m.coachView.SetContent(views.RenderCoachFeed(m.Data.Coach, coachFeedLimit))
}

func (m Model) View() string {
	status := ""
	switch {
	case m.Busy:
		status = "status: " + m.busySpinner.View() + " " + m.Status.Text
	case m.Status.Text != "" && m.Status.IsError:
		status = "status: error: " + m.Status.Text
	case m.Status.Text != "":
		status = "status: " + m.Status.Text
	}

	main := ""
	side := ""
	switch m.CurrentView {
	case ViewMatrix:
		main = m.renderMatrixView()
		side = m.renderDetailPane()
	case ViewStats:
		main = m.renderStatsView()
		side = m.renderCoachSummary()
	case ViewCoach:
		main = m.coachView.View()
		side = "keys: [s] daily scan [w] weekly review [j/k] scroll"
	case ViewJournal:
		main = m.renderJournalView()
		side = m.renderAlignmentPane()
	}

	overlay := strings.TrimSpace(strings.Join([]string{
		views.RenderCommandPalette(m.Palette.Active, m.commandInput.View()),
		m.Overlay,
		m.renderHelpIfVisible(),
	}, "\n"))

	warning := ""
	if m.Data.Warning != nil {
		warning = m.Data.Warning.Error()
	}
	ai := "off"
	if m.Data.Settings.AIEnabled {
		ai = "on"
	}
	return views.RenderApp(views.AppData{
		Header:      fmt.Sprintf("gerris | view: %s | %s | ai: %s | %s", m.CurrentView, m.Data.Backend, ai, m.Today()),
		Main:        main,
		Side:        side,
		StatusLine:  status,
		StatusError: m.Status.IsError,
		Warning:     warning,
		Overlay:     overlay,
		Footer: fmt.Sprintf("keys: %s matrix | %s stats | %s coach | %s journal | / cmd | %s help | %s quit",
			m.Keys.Matrix, m.Keys.Stats, m.Keys.Coach, m.Keys.Journal, m.Keys.Help, m.Keys.Quit),
		Width: m.Width,
	})
}

func (m Model) renderCoachSummary() string {
	if len(m.Data.Coach) == 0 {
		return "coach:\n(no messages yet)"
	}
	last := m.Data.Coach[len(m.Data.Coach)-1]
	return "latest coach message:\n" + last.Title
}

func isKnownView(v View) bool {
	switch v {
	case ViewMatrix, ViewStats, ViewCoach, ViewJournal:
		return true
	default:
		return false
	}
}
