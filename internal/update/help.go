package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"

	"github.com/sandeepkv93/gerris/internal/commands"
	"github.com/sandeepkv93/gerris/internal/views"
)

type KeyBinding struct {
	Key    string
	Action string
}

type helpKeyMap struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k helpKeyMap) ShortHelp() []key.Binding  { return k.short }
func (k helpKeyMap) FullHelp() [][]key.Binding { return k.full }

func (m Model) renderHelpIfVisible() string {
	if !m.HelpVisible {
		return ""
	}
	global := toBindings(m.globalBindings())
	local := toBindings(m.viewBindings())
	var plain []string
	for _, kb := range m.viewBindings() {
		plain = append(plain, fmt.Sprintf("- %s: %s", kb.Key, kb.Action))
	}
	if m.CurrentView == ViewMatrix {
		cmds := make([]string, 0, len(commands.Types))
		for _, t := range commands.Types {
			cmds = append(cmds, string(t))
		}
		plain = append(plain, fmt.Sprintf("- /: %v", cmds))
	}
	m.helpModel.ShowAll = true
	return views.RenderHelpPanel(string(m.CurrentView), plain, m.helpModel.View(helpKeyMap{
		short: global,
		full:  [][]key.Binding{global, local},
	}))
}

func (m Model) globalBindings() []KeyBinding {
	return []KeyBinding{
		{Key: m.Keys.Matrix, Action: "matrix"},
		{Key: m.Keys.Stats, Action: "stats"},
		{Key: m.Keys.Coach, Action: "coach"},
		{Key: m.Keys.Journal, Action: "journal"},
		{Key: "/", Action: "command palette"},
		{Key: "esc", Action: "close overlay"},
		{Key: m.Keys.Help, Action: "toggle help"},
		{Key: m.Keys.Quit, Action: "quit"},
	}
}

func (m Model) viewBindings() []KeyBinding {
	switch m.CurrentView {
	case ViewMatrix:
		return []KeyBinding{
			{Key: "j/k", Action: "move selection"},
			{Key: "tab", Action: "next quadrant"},
			{Key: "a", Action: "add todo"},
			{Key: "space", Action: "toggle done"},
			{Key: "+/-", Action: "progress"},
			{Key: "x/d", Action: "delete / duplicate"},
			{Key: "h/l", Action: "move milestone"},
			{Key: "m", Action: "plan milestones"},
			{Key: "p", Action: "daily plan"},
			{Key: "c", Action: "show completed"},
		}
	case ViewStats:
		return []KeyBinding{
			{Key: "m", Action: "motivation"},
			{Key: "g", Action: "goal suggestion"},
		}
	case ViewCoach:
		return []KeyBinding{
			{Key: "s", Action: "daily scan"},
			{Key: "w", Action: "weekly review"},
			{Key: "j/k", Action: "scroll"},
		}
	case ViewJournal:
		return []KeyBinding{
			{Key: "e", Action: "edit today"},
			{Key: "ctrl+s", Action: "save entry"},
			{Key: "g", Action: "suggest alignment"},
			{Key: "A", Action: "apply alignment"},
		}
	default:
		return []KeyBinding{{Key: "-", Action: "no contextual bindings"}}
	}
}

func toBindings(list []KeyBinding) []key.Binding {
	out := make([]key.Binding, 0, len(list))
	for _, kb := range list {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	return out
}
