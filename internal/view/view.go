// Package view turns repository state into display lists and styled
// terminal output.
package view

import (
	"time"

	"github.com/iksnae/tusty-chat/internal"
)

// Greeting is shown in place of an empty conversation. It is never persisted.
const Greeting = "Hi! Upload documents from Admin, then ask me anything about them."

// SidebarItem is one row of the session list
type SidebarItem struct {
	ID      string
	Title   string
	Recency string
	Active  bool
}

// PaneItem is one rendered message
type PaneItem struct {
	Role    string
	Text    string
	Time    string
	Pending bool
}

// Sidebar builds the session list in the order given. Repository.ListSessions
// already returns most recently updated first.
func Sidebar(sessions []internal.ChatSession, currentID string, now time.Time) []SidebarItem {
	items := make([]SidebarItem, 0, len(sessions))
	for _, s := range sessions {
		title := s.Title
		if title == "" {
			title = internal.DefaultTitle
		}
		items = append(items, SidebarItem{
			ID:      s.ID,
			Title:   title,
			Recency: RecencyLabel(s.GetUpdatedAt(), now),
			Active:  s.ID == currentID,
		})
	}
	return items
}

// Pane builds the message list for s. An empty session yields the greeting.
func Pane(s internal.ChatSession) []PaneItem {
	if len(s.Messages) == 0 {
		return []PaneItem{{Role: internal.RoleBot, Text: Greeting}}
	}
	items := make([]PaneItem, len(s.Messages))
	for i, m := range s.Messages {
		items[i] = PaneItem{
			Role:    m.Role,
			Text:    m.Text,
			Time:    m.Time,
			Pending: m.IsPending(),
		}
	}
	return items
}

// RecencyLabel formats updated relative to now, in now's location.
func RecencyLabel(updated, now time.Time) string {
	updated = updated.In(now.Location())
	age := now.Sub(updated)
	switch {
	case age < 24*time.Hour:
		return "Today " + updated.Format("15:04")
	case age < 7*24*time.Hour:
		return updated.Format("Mon 15:04")
	case age < 365*24*time.Hour:
		return updated.Format("Jan 02 15:04")
	default:
		return updated.Format("2006-01-02")
	}
}
