package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Menu lets the user pick a named configuration before the live view starts.
type Menu struct {
	items    []string
	info     map[string]string
	cursor   int
	selected string
}

func NewMenu(items []string, info map[string]string) Menu {
	return Menu{items: items, info: info}
}

// Selected returns the chosen item, or "" if the user quit.
func (m Menu) Selected() string { return m.selected }

func (m Menu) Init() tea.Cmd { return nil }

func (m Menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		m.selected = ""
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "enter", " ":
		if len(m.items) > 0 {
			m.selected = m.items[m.cursor]
		}
		return m, tea.Quit
	}
	return m, nil
}

func (m Menu) View() string {
	var b strings.Builder
	h := lipgloss.NewStyle().Foreground(CurrentTheme.Title).Bold(true)
	sub := lipgloss.NewStyle().Foreground(CurrentTheme.Muted)
	b.WriteString("\n\n    " + h.Render("LIVEGRAPH") + "\n    " + sub.Render("live force-directed graph") + "\n    " + sub.Render("─────────────────────────") + "\n\n")

	for i, name := range m.items {
		desc := m.info[name]
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n",
				lipgloss.NewStyle().Foreground(CurrentTheme.Graph).Bold(true).Render("▸"),
				lipgloss.NewStyle().Foreground(CurrentTheme.Text).Bold(true).Render(fmt.Sprintf("%-10s", name)),
				lipgloss.NewStyle().Foreground(CurrentTheme.Accent).Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("    %s  %s\n", sub.Render(fmt.Sprintf("  %-10s", name)), sub.Render(desc)))
		}
	}

	key := lipgloss.NewStyle().Foreground(CurrentTheme.Graph).Bold(true)
	b.WriteString("\n    " + key.Render("j/k") + sub.Render(" navigate  ") + key.Render("enter") + sub.Render(" select  ") + key.Render("q") + sub.Render(" quit") + "\n")
	return b.String()
}

// Pick shows the menu and returns the chosen item, or "" if the user quit.
func Pick(items []string, info map[string]string) (string, error) {
	final, err := tea.NewProgram(NewMenu(items, info)).Run()
	if err != nil {
		return "", err
	}
	return final.(Menu).Selected(), nil
}
