package export

import (
	"encoding/json"
	"io"

	"github.com/iksnae/tusty-chat/internal"
)

// JSONExporter exports sessions in JSON format (pretty-printed), using the
// same field names as the persisted collection
type JSONExporter struct{}

// Export exports a session to JSON format
func (e *JSONExporter) Export(session *internal.ChatSession, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(session)
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}
