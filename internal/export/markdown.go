package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iksnae/tusty-chat/internal"
)

// MarkdownExporter exports sessions in Markdown format. Bot answers are
// already markdown and are written as-is; user text is escaped.
type MarkdownExporter struct{}

// Export exports a session to Markdown format
func (e *MarkdownExporter) Export(session *internal.ChatSession, w io.Writer) error {
	// Header
	_, _ = fmt.Fprintf(w, "# %s\n\n", escapeMarkdown(session.Title))

	_, _ = fmt.Fprintf(w, "**Session:** %s  \n", session.ID)
	if session.CreatedAt > 0 {
		_, _ = fmt.Fprintf(w, "**Created:** %s  \n", session.GetCreatedAt().UTC().Format(time.RFC3339))
	}
	if session.UpdatedAt > 0 {
		_, _ = fmt.Fprintf(w, "**Updated:** %s  \n", session.GetUpdatedAt().UTC().Format(time.RFC3339))
	}
	_, _ = fmt.Fprintf(w, "**Messages:** %d\n\n", len(session.Messages))

	_, _ = fmt.Fprintf(w, "---\n\n")
	_, _ = fmt.Fprintf(w, "## Messages\n\n")

	for i, msg := range session.Messages {
		timestamp := ""
		if msg.Time != "" {
			timestamp = fmt.Sprintf(" (%s)", msg.Time)
		}

		content := msg.Text
		if msg.Role == internal.RoleUser {
			content = escapeMarkdown(content)
		}
		if msg.IsPending() {
			content = "_" + strings.TrimSpace(content) + " (pending)_"
		}

		_, _ = fmt.Fprintf(w, "**%s:**%s\n\n%s\n\n", speaker(msg.Role), timestamp, content)

		if i < len(session.Messages)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

func speaker(role string) string {
	if role == internal.RoleUser {
		return "You"
	}
	return "Tusty"
}

// escapeMarkdown escapes emphasis markers outside fenced code blocks
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
