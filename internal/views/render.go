package views

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

type AppData struct {
	Header      string
	Main        string
	Side        string
	StatusLine  string
	StatusError bool
	Warning     string
	Overlay     string
	Footer      string
	Width       int
}

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

const (
	defaultWidth = 120
	sideWidth    = 44
)

func RenderApp(data AppData) string {
	width := data.Width
	if width <= 0 {
		width = defaultWidth
	}
	mainWidth := max(width-sideWidth-6, 40)
	main := lipgloss.NewStyle().Width(mainWidth).Render(data.Main)
	side := panelStyle.Width(sideWidth).Render(data.Side)
	row := lipgloss.JoinHorizontal(lipgloss.Top, main, side)

	status := statusStyle.Render(data.StatusLine)
	if data.StatusError {
		status = errorStyle.Render(data.StatusLine)
	}

	lines := []string{
		headerStyle.Render(data.Header),
		row,
		status,
	}
	// Storage trouble stays visible until a save succeeds.
	if data.Warning != "" {
		lines = append(lines, warningStyle.Render("storage: "+data.Warning))
	}
	if data.Overlay != "" {
		lines = append(lines, panelStyle.Render(data.Overlay))
	}
	if data.Footer != "" {
		lines = append(lines, footerStyle.Render(data.Footer))
	}
	return strings.Join(lines, "\n")
}

func RenderMarkdown(md string) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	out, err := glamour.Render(md, "dark")
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}
