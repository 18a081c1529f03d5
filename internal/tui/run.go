package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/iksnae/tusty-chat/internal"
	"github.com/iksnae/tusty-chat/internal/exchange"
)

// Run starts the chat screen and blocks until the user quits. Exchanges still
// in flight are allowed to finish so their answers are persisted.
func Run(ctx context.Context, repo *internal.Repository, asker exchange.Asker, theme *internal.ThemePreference, opts ...exchange.Option) error {
	m, err := NewModel(ctx, repo, theme)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	opts = append(opts, exchange.WithListener(func(ev exchange.Event) {
		p.Send(EventMsg(ev))
	}))
	ctrl := exchange.New(repo, asker, opts...)
	m.SetSender(ctrl)

	_, err = p.Run()
	ctrl.Drain()
	return err
}
