package export

import (
	"fmt"
	"io"

	"github.com/vortexlabs/vortex-chat/internal"
)

// Transcript bundles a session's directory entry with its archived messages
// for export.
type Transcript struct {
	Session  *internal.ChatSession
	Messages []internal.Message
}

// Exporter defines the interface for all transcript formats
type Exporter interface {
	Export(t *Transcript, w io.Writer) error
	Extension() string
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: jsonl, md, yaml, json)", format)
	}
}
