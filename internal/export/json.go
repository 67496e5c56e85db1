package export

import (
	"encoding/json"
	"io"

	"github.com/vortexlabs/vortex-chat/internal"
)

// JSONExporter exports transcripts in JSON format (pretty-printed)
type JSONExporter struct{}

type jsonTranscript struct {
	Session  *internal.ChatSession `json:"session"`
	Messages []internal.Message    `json:"messages"`
}

// Export exports a transcript to JSON format
func (e *JSONExporter) Export(t *Transcript, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(jsonTranscript{Session: t.Session, Messages: t.Messages})
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}
