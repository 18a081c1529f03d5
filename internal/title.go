package internal

import "strings"

const (
	// DefaultTitle marks a session whose title has not been derived yet.
	DefaultTitle = "New chat"
	// MigratedTitle names a migrated legacy session with no user message.
	MigratedTitle = "Previous chat"

	maxTitleRunes = 28
	ellipsis      = "…"
)

// DeriveTitle turns the first user message into a session title.
func DeriveTitle(text string) string {
	clean := strings.Join(strings.Fields(text), " ")
	if clean == "" {
		return DefaultTitle
	}
	runes := []rune(clean)
	if len(runes) <= maxTitleRunes {
		return clean
	}
	return string(runes[:maxTitleRunes]) + ellipsis
}

// withDerivedTitle sets the title from the first user message, once.
func withDerivedTitle(s ChatSession) ChatSession {
	if s.Title != DefaultTitle {
		return s
	}
	for _, m := range s.Messages {
		if m.Role == RoleUser {
			s.Title = DeriveTitle(m.Text)
			break
		}
	}
	return s
}
