package export

import (
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLExporter exports transcripts in YAML format
type YAMLExporter struct{}

type yamlMessage struct {
	Role        string `yaml:"role"`
	Content     string `yaml:"content"`
	Timestamp   string `yaml:"timestamp,omitempty"`
	IsError     bool   `yaml:"is_error,omitempty"`
	Attachments int    `yaml:"attachments,omitempty"`
}

type yamlTranscript struct {
	ID       string        `yaml:"id"`
	Title    string        `yaml:"title"`
	Persona  string        `yaml:"persona"`
	Messages []yamlMessage `yaml:"messages"`
}

// Export exports a transcript to YAML format
func (e *YAMLExporter) Export(t *Transcript, w io.Writer) error {
	doc := yamlTranscript{
		ID:      t.Session.ID,
		Title:   t.Session.Title,
		Persona: string(t.Session.Persona),
	}
	for _, msg := range t.Messages {
		ym := yamlMessage{
			Role:        string(msg.Role),
			Content:     msg.Content,
			IsError:     msg.IsError,
			Attachments: len(msg.Attachments),
		}
		if msg.Timestamp != 0 {
			ym.Timestamp = msg.GetTimestamp().UTC().Format("2006-01-02T15:04:05Z")
		}
		doc.Messages = append(doc.Messages, ym)
	}

	enc := yaml.NewEncoder(w)
	defer func() { _ = enc.Close() }()

	return enc.Encode(doc)
}

// Extension returns the file extension for this format
func (e *YAMLExporter) Extension() string {
	return "yaml"
}
