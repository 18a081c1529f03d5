// Package tui is the interactive chat screen: session sidebar, conversation
// pane and an input box.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/tusty-chat/internal"
	"github.com/iksnae/tusty-chat/internal/exchange"
	"github.com/iksnae/tusty-chat/internal/view"
)

const (
	sidebarWidth = 32
	inputHeight  = 3
)

// Status line values
const (
	StatusReady    = "Ready"
	StatusThinking = "Thinking…"
	StatusError    = "Error"
)

// Sender starts an exchange. exchange.Controller satisfies it.
type Sender interface {
	Send(ctx context.Context, question string) (*exchange.Exchange, error)
}

// EventMsg wraps an exchange event delivered to the program
type EventMsg exchange.Event

type sendErrMsg struct{ err error }

// Model is the chat screen
type Model struct {
	ctx      context.Context
	repo     *internal.Repository
	theme    *internal.ThemePreference
	sender   Sender
	renderer *view.Renderer

	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model

	inFlight int
	failed   bool
	lastErr  string
	width    int
	height   int
}

// NewModel creates the chat model. SetSender must be called before the
// program starts.
func NewModel(ctx context.Context, repo *internal.Repository, theme *internal.ThemePreference) (*Model, error) {
	ta := textarea.New()
	ta.Placeholder = "Ask about your documents…"
	ta.ShowLineNumbers = false
	ta.CharLimit = 4000
	ta.SetHeight(inputHeight)
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	m := &Model{
		ctx:      ctx,
		repo:     repo,
		theme:    theme,
		input:    ta,
		spinner:  sp,
		viewport: viewport.New(80, 20),
		width:    80 + sidebarWidth,
		height:   24,
	}
	if err := m.rebuildRenderer(); err != nil {
		return nil, err
	}
	m.refresh()
	return m, nil
}

// SetSender wires the exchange controller
func (m *Model) SetSender(s Sender) {
	m.sender = s
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick)
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			q := m.input.Value()
			m.input.Reset()
			return m, m.submit(q)
		case "ctrl+n":
			if _, err := m.repo.NewSession(); err != nil {
				m.setError(err)
			}
			m.refresh()
			return m, nil
		case "tab":
			m.cycle(1)
			return m, nil
		case "shift+tab":
			m.cycle(-1)
			return m, nil
		case "ctrl+t":
			if _, err := m.theme.Toggle(); err != nil {
				m.setError(err)
			} else if err := m.rebuildRenderer(); err != nil {
				m.setError(err)
			}
			m.refresh()
			return m, nil
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case EventMsg:
		switch msg.Phase {
		case exchange.PhasePending:
			m.inFlight++
			m.failed = false
		case exchange.PhaseResolved:
			m.inFlight--
		case exchange.PhaseFailed:
			m.inFlight--
			m.failed = true
		}
		if m.inFlight < 0 {
			m.inFlight = 0
		}
		m.refresh()
		return m, nil

	case sendErrMsg:
		m.setError(msg.err)
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View implements tea.Model
func (m *Model) View() string {
	sidebar := lipgloss.NewStyle().
		Width(sidebarWidth).
		Height(m.height - 1).
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		Render(m.renderer.Sidebar(view.Sidebar(m.repo.ListSessions(), m.repo.CurrentID(), m.repo.Now())))

	main := lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		m.statusLine(),
		m.input.View(),
	)
	return lipgloss.JoinHorizontal(lipgloss.Top, sidebar, main)
}

// Status returns the status line text without styling
func (m *Model) Status() string {
	switch {
	case m.inFlight > 0:
		return StatusThinking
	case m.failed:
		return StatusError
	default:
		return StatusReady
	}
}

func (m *Model) statusLine() string {
	status := m.Status()
	switch status {
	case StatusThinking:
		return m.spinner.View() + " " + status
	case StatusError:
		if m.lastErr != "" {
			return lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(status + ": " + m.lastErr)
		}
		return lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(status)
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render(status)
	}
}

func (m *Model) submit(q string) tea.Cmd {
	if strings.TrimSpace(q) == "" || m.sender == nil {
		return nil
	}
	m.lastErr = ""
	sender, ctx := m.sender, m.ctx
	// Send emits events through Program.Send, so it must not run on the
	// update goroutine.
	return func() tea.Msg {
		if _, err := sender.Send(ctx, q); err != nil {
			return sendErrMsg{err: err}
		}
		return nil
	}
}

func (m *Model) cycle(step int) {
	sessions := m.repo.ListSessions()
	if len(sessions) == 0 {
		return
	}
	current := m.repo.CurrentID()
	idx := 0
	for i, s := range sessions {
		if s.ID == current {
			idx = i
			break
		}
	}
	next := sessions[(idx+step+len(sessions))%len(sessions)]
	if err := m.repo.Select(next.ID); err != nil {
		m.setError(err)
	}
	m.refresh()
}

func (m *Model) setError(err error) {
	internal.LogError("%v", err)
	m.failed = true
	m.lastErr = err.Error()
}

// refresh re-reads the current session into the viewport
func (m *Model) refresh() {
	session, ok := m.repo.Session(m.repo.CurrentID())
	if !ok {
		session = internal.ChatSession{}
	}
	m.viewport.SetContent(m.renderer.Pane(view.Pane(session)))
	m.viewport.GotoBottom()
}

func (m *Model) paneWidth() int {
	w := m.width - sidebarWidth - 2
	if w < 20 {
		w = 20
	}
	return w
}

func (m *Model) resize() {
	w := m.paneWidth()
	m.viewport.Width = w
	m.viewport.Height = m.height - inputHeight - 2
	if m.viewport.Height < 3 {
		m.viewport.Height = 3
	}
	m.input.SetWidth(w)
	if err := m.rebuildRenderer(); err != nil {
		m.setError(err)
	}
	m.refresh()
}

func (m *Model) rebuildRenderer() error {
	r, err := view.NewRenderer(view.RendererOptions{
		Theme: m.theme.Get(),
		Width: m.paneWidth() - 2,
	})
	if err != nil {
		return fmt.Errorf("failed to build renderer: %w", err)
	}
	m.renderer = r
	return nil
}
