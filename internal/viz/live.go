package viz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

const (
	DefaultCols = 80
	DefaultRows = 24

	requestTimeout = time.Second
)

// FrameSource is what the live view reads from. Session implements it.
type FrameSource interface {
	Frame(ctx context.Context) (Frame, error)
	Toggle(ctx context.Context) (bool, error)
}

type TickMsg time.Time

// Model is the Bubble Tea live view. It polls its source once per refresh
// interval; the layout itself runs on its own clock.
type Model struct {
	src      FrameSource
	title    string
	refresh  time.Duration
	frame    Frame
	err      error
	showHelp bool
}

func NewModel(src FrameSource, title string, refresh time.Duration) Model {
	if refresh <= 0 {
		refresh = time.Second / 30
	}
	return Model{src: src, title: title, refresh: refresh}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			_, m.err = m.src.Toggle(ctx)
			cancel()
		case "t":
			NextTheme()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		f, err := m.src.Frame(ctx)
		cancel()
		if err != nil {
			m.err = err
			return m, tea.Quit
		}
		m.frame, m.err = f, nil
		return m, m.tick()
	}
	return m, nil
}

func (m Model) View() string {
	st := m.frame.Stats
	canvasView := canvasStyle().Render(m.frame.Canvas)

	var s strings.Builder
	s.WriteString(headerStyle().Render(strings.ToUpper(m.title)) + "\n")
	status := "PAUSED"
	if st.Running {
		status = "RUNNING"
	}
	s.WriteString(statusStyle(st.Running).Render(status) + "\n\n")

	if len(st.Series) > 1 {
		chart := asciigraph.Plot(st.Series, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Kinetic energy"))
		s.WriteString(graphStyle().Render(chart) + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(labelStyle().Render(label) + valueStyle().Render(value) + "\n")
	}
	row("Frames", fmt.Sprintf("%d", st.Frames))
	row("Alpha", fmt.Sprintf("%.3f", st.Alpha))
	row("Energy", fmt.Sprintf("%.2f", st.Energy))
	row("Nodes", fmt.Sprintf("%d", st.Counts.Nodes))
	row("Links", fmt.Sprintf("%d", st.Counts.Links))
	row("Groups", fmt.Sprintf("%d", st.Counts.Groups))
	row("Drawn", fmt.Sprintf("%d", st.Drawable))
	row("Feed", fmt.Sprintf("%s (%d)", st.Feed, st.Emitted))
	if m.err != nil {
		s.WriteString("\n" + statusStyle(false).Render(m.err.Error()) + "\n")
	}
	s.WriteString(helpStyle().Render("\n─────────────────────\nSP:Pause T:Theme\n?:Help   Q:Quit"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle().Render(s.String()))
	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume layout      ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}

// Err returns the last error the view saw from its source.
func (m Model) Err() error { return m.err }

// Run shows the live view until the user quits or ctx is cancelled.
func Run(ctx context.Context, src FrameSource, title string, refresh time.Duration) error {
	_, err := tea.NewProgram(NewModel(src, title, refresh), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
