package update

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/sandeepkv93/gerris/internal/journal"
	"github.com/sandeepkv93/gerris/internal/model"
	"github.com/sandeepkv93/gerris/internal/tracker"
)

type View string

const (
	ViewMatrix  View = "Matrix"
	ViewStats   View = "Stats"
	ViewCoach   View = "Coach"
	ViewJournal View = "Journal"
)

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Matrix  string
	Stats   string
	Coach   string
	Journal string
	Help    string
	Quit    string
}

type PaletteState struct {
	Active bool
	Input  string
}

const DefaultRefreshInterval = time.Minute

type Options struct {
	Context context.Context
	// Changes signals that the state file was replaced by another writer.
	Changes         <-chan struct{}
	RefreshInterval time.Duration
	Width           int
}

type Model struct {
	CurrentView View
	SelectedID  string
	ShowDone    bool
	Palette     PaletteState
	Adding      bool
	Editing     bool
	HelpVisible bool
	Overlay     string
	Alignment   *journal.Alignment
	Status      StatusBar
	Keys        GlobalKeyMap
	Quitting    bool
	LastError   error
	Busy        bool
	Data        tracker.View
	Width       int

	tracker         *tracker.Tracker
	ctx             context.Context
	changes         <-chan struct{}
	refreshInterval time.Duration

	addInput      textinput.Model
	commandInput  textinput.Model
	journalArea   textarea.Model
	todoProgress  progress.Model
	levelProgress progress.Model
	categoryTable table.Model
	coachView     viewport.Model
	busySpinner   spinner.Model
	helpModel     help.Model
}

func NewModel(tr *tracker.Tracker, opts Options) Model {
	m := Model{
		CurrentView: ViewMatrix,
		Keys: GlobalKeyMap{
			Matrix:  "1",
			Stats:   "2",
			Coach:   "3",
			Journal: "4",
			Help:    "?",
			Quit:    "q",
		},
		Width:           opts.Width,
		tracker:         tr,
		ctx:             opts.Context,
		changes:         opts.Changes,
		refreshInterval: opts.RefreshInterval,
	}
	if m.ctx == nil {
		m.ctx = context.Background()
	}
	if m.refreshInterval <= 0 {
		m.refreshInterval = DefaultRefreshInterval
	}
	if m.Width <= 0 {
		m.Width = 120
	}
	m.initBubbleComponents()
	m.Data = tr.View()
	m.syncSelection()
	m.syncBubbleData()
	return m
}

func (m *Model) initBubbleComponents() {
	m.addInput = textinput.New()
	m.addInput.Prompt = "add> "
	m.addInput.Placeholder = "title q:Q1 due:2025-01-31 cat:admin"
	m.addInput.CharLimit = 256
	m.addInput.Width = 56

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 56

	m.journalArea = textarea.New()
	m.journalArea.SetWidth(60)
	m.journalArea.SetHeight(8)
	m.journalArea.ShowLineNumbers = false
	m.journalArea.Placeholder = "How was today?"

	m.todoProgress = progress.New(progress.WithDefaultGradient(), progress.WithWidth(36))
	m.levelProgress = progress.New(progress.WithSolidFill("#F2C94C"), progress.WithWidth(36))

	m.categoryTable = table.New(
		table.WithColumns([]table.Column{
			{Title: "Category", Width: 18},
			{Title: "Open", Width: 5},
			{Title: "Today", Width: 7},
			{Title: "Streak", Width: 7},
		}),
		table.WithRows([]table.Row{}),
		table.WithHeight(len(model.Categories)+1),
	)

	m.coachView = viewport.New(72, 18)

	m.busySpinner = spinner.New()
	m.busySpinner.Spinner = spinner.Dot

	m.helpModel = help.New()
}

// Today is the UTC date the tracker clock reports.
func (m Model) Today() model.Date {
	return model.DateOf(m.Data.Now)
}

type SwitchViewMsg struct {
	View View
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

// StateChangedMsg is delivered when the watched state file changed.
type StateChangedMsg struct{}

type RefreshTickMsg struct{}

// opDoneMsg carries the outcome of a background tracker call.
type opDoneMsg struct {
	Status    string
	Overlay   string
	Alignment *journal.Alignment
	Err       error
}
