package export

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/iksnae/tusty-chat/internal"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const htmlStyle = `body{font-family:system-ui,sans-serif;max-width:760px;margin:2rem auto;padding:0 1rem;color:#1f2328}
.msg{margin:1rem 0;padding:.75rem 1rem;border-radius:8px}
.user{background:#eef2ff;white-space:pre-wrap}
.bot{background:#f6f8fa}
.pending{color:#6e7781;font-style:italic}
.meta{font-size:.8rem;color:#6e7781;margin-bottom:.25rem}`

// HTMLExporter exports a session as a standalone HTML page. Bot answers are
// rendered from markdown and sanitized; user text is escaped.
type HTMLExporter struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// NewHTMLExporter creates an HTML exporter
func NewHTMLExporter() *HTMLExporter {
	return &HTMLExporter{
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy: bluemonday.UGCPolicy(),
	}
}

// Export exports a session to HTML
func (e *HTMLExporter) Export(session *internal.ChatSession, w io.Writer) error {
	var b strings.Builder
	title := html.EscapeString(session.Title)

	fmt.Fprintf(&b, "<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n<style>%s</style>\n</head>\n<body>\n", title, htmlStyle)
	fmt.Fprintf(&b, "<h1>%s</h1>\n", title)

	for _, msg := range session.Messages {
		body, err := e.RenderMessage(msg)
		if err != nil {
			return err
		}
		class := "msg " + msg.Role
		if msg.IsPending() {
			class += " pending"
		}
		fmt.Fprintf(&b, "<div class=\"%s\">\n<div class=\"meta\">%s %s</div>\n%s\n</div>\n",
			class, speaker(msg.Role), html.EscapeString(msg.Time), body)
	}
	b.WriteString("</body>\n</html>\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderMessage returns the HTML body for one message
func (e *HTMLExporter) RenderMessage(msg internal.Message) (string, error) {
	if msg.Role == internal.RoleUser || msg.IsPending() {
		return html.EscapeString(msg.Text), nil
	}
	var buf bytes.Buffer
	if err := e.md.Convert([]byte(msg.Text), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return strings.TrimSpace(string(e.policy.SanitizeBytes(buf.Bytes()))), nil
}

// Extension returns the file extension for this format
func (e *HTMLExporter) Extension() string {
	return "html"
}
