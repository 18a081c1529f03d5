package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/tusty-chat/internal"
)

// RendererOptions configures a Renderer
type RendererOptions struct {
	Theme string // internal.ThemeDark or internal.ThemeLight
	Width int
	// Plain disables colors, for output that isn't a terminal.
	Plain bool
}

// Renderer draws sidebar and pane lists as terminal text
type Renderer struct {
	width    int
	markdown *glamour.TermRenderer

	active  lipgloss.Style
	muted   lipgloss.Style
	user    lipgloss.Style
	bot     lipgloss.Style
	pending lipgloss.Style
	failed  lipgloss.Style
}

// NewRenderer builds a renderer for the given theme
func NewRenderer(opts RendererOptions) (*Renderer, error) {
	if opts.Width <= 0 {
		opts.Width = 80
	}

	md, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(glamourStyle(opts)),
		glamour.WithWordWrap(opts.Width),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}

	accent := lipgloss.Color("62")
	fg := lipgloss.Color("252")
	faint := lipgloss.Color("244")
	if opts.Theme == internal.ThemeLight {
		accent = lipgloss.Color("25")
		fg = lipgloss.Color("235")
		faint = lipgloss.Color("245")
	}

	r := &Renderer{
		width:    opts.Width,
		markdown: md,
		active:   lipgloss.NewStyle().Foreground(accent).Bold(true),
		muted:    lipgloss.NewStyle().Foreground(faint),
		user:     lipgloss.NewStyle().Foreground(fg).Bold(true),
		bot:      lipgloss.NewStyle().Foreground(accent).Bold(true),
		pending:  lipgloss.NewStyle().Foreground(faint).Italic(true),
		failed:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
	if opts.Plain {
		plain := lipgloss.NewStyle()
		r.active, r.muted, r.user, r.bot, r.pending, r.failed = plain, plain, plain, plain, plain, plain
	}
	return r, nil
}

func glamourStyle(opts RendererOptions) string {
	switch {
	case opts.Plain:
		return "notty"
	case opts.Theme == internal.ThemeLight:
		return "light"
	default:
		return "dark"
	}
}

// Sidebar renders the session list, one line per session
func (r *Renderer) Sidebar(items []SidebarItem) string {
	var b strings.Builder
	for _, it := range items {
		marker := "  "
		title := it.Title
		if it.Active {
			marker = "▸ "
			title = r.active.Render(title)
		}
		fmt.Fprintf(&b, "%s%s  %s\n", marker, title, r.muted.Render(it.Recency))
	}
	return b.String()
}

// Pane renders a conversation. Bot text goes through markdown, user text is
// printed as typed.
func (r *Renderer) Pane(items []PaneItem) string {
	var b strings.Builder
	for i, it := range items {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(r.header(it))
		b.WriteString("\n")
		b.WriteString(r.body(it))
		if !strings.HasSuffix(b.String(), "\n") {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (r *Renderer) header(it PaneItem) string {
	label := r.bot.Render("Tusty")
	if it.Role == internal.RoleUser {
		label = r.user.Render("You")
	}
	if it.Time == "" {
		return label
	}
	return label + " " + r.muted.Render(it.Time)
}

func (r *Renderer) body(it PaneItem) string {
	switch {
	case it.Pending:
		return r.pending.Render(it.Text)
	case it.Role == internal.RoleUser:
		return it.Text
	case strings.HasPrefix(it.Text, "Error: "):
		return r.failed.Render(it.Text)
	default:
		return r.Markdown(it.Text)
	}
}

// Markdown renders text for the terminal, falling back to the raw text when
// glamour rejects it.
func (r *Renderer) Markdown(text string) string {
	out, err := r.markdown.Render(text)
	if err != nil {
		internal.LogDebug("markdown render failed: %v", err)
		return text
	}
	return strings.Trim(out, "\n")
}
