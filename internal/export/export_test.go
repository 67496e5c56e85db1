package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/vortexlabs/vortex-chat/internal"
	"github.com/vortexlabs/vortex-chat/testutil"
)

func fixtureTranscript(n int) *Transcript {
	return &Transcript{
		Session:  testutil.FixtureSession("test1", 1000),
		Messages: testutil.FixtureMessages(n),
	}
}

func TestNewExporter(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		wantExt string
		wantErr bool
	}{
		{name: "jsonl format", format: "jsonl", wantExt: "jsonl"},
		{name: "markdown format", format: "md", wantExt: "md"},
		{name: "markdown format long", format: "markdown", wantExt: "md"},
		{name: "yaml format", format: "yaml", wantExt: "yaml"},
		{name: "json format", format: "json", wantExt: "json"},
		{name: "unsupported format", format: "xml", wantErr: true},
		{name: "empty format", format: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exporter, err := NewExporter(tt.format)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewExporter() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if exporter == nil {
				t.Fatal("NewExporter() returned nil exporter")
			}
			if got := exporter.Extension(); got != tt.wantExt {
				t.Errorf("Extension() = %v, want %v", got, tt.wantExt)
			}
		})
	}
}

func TestJSONLExporter_Export(t *testing.T) {
	tests := []struct {
		name       string
		transcript *Transcript
		want       []string
	}{
		{
			name:       "empty transcript",
			transcript: fixtureTranscript(0),
			want:       []string{},
		},
		{
			name:       "alternating messages",
			transcript: fixtureTranscript(2),
			want: []string{
				`"role":"user"`,
				`"role":"model"`,
			},
		},
		{
			name: "error message flagged",
			transcript: &Transcript{
				Session: testutil.FixtureSession("test2", 1000),
				Messages: []internal.Message{
					{Role: internal.RoleModel, Content: "[connection failed]", IsError: true},
				},
			},
			want: []string{`"isError":true`},
		},
		{
			name: "attachment count surfaced",
			transcript: &Transcript{
				Session: testutil.FixtureSession("test3", 1000),
				Messages: []internal.Message{
					{Role: internal.RoleUser, Content: "see image", Attachments: []internal.Attachment{testutil.FixtureAttachment(16)}},
				},
			},
			want: []string{`"attachmentCount":1`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			exporter := &JSONLExporter{}

			if err := exporter.Export(tt.transcript, &buf); err != nil {
				t.Fatalf("Export() error = %v", err)
			}

			output := buf.String()
			if len(tt.transcript.Messages) == 0 {
				if output != "" {
					t.Errorf("Empty transcript should produce empty output, got: %q", output)
				}
				return
			}

			for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
				var msg map[string]interface{}
				if err := json.Unmarshal([]byte(line), &msg); err != nil {
					t.Errorf("Line is not valid JSON: %v", err)
				}
			}
			for _, wantStr := range tt.want {
				if !strings.Contains(output, wantStr) {
					t.Errorf("Output should contain %q, got: %s", wantStr, output)
				}
			}
		})
	}
}

func TestMarkdownExporter_Export(t *testing.T) {
	tests := []struct {
		name       string
		transcript *Transcript
		want       []string
	}{
		{
			name:       "basic transcript",
			transcript: fixtureTranscript(2),
			want: []string{
				"# Session test1",
				"**Session:** test1",
				"**Persona:** VORTEX_CORE",
				"**Messages:** 2",
				"**user:**",
				"**model:**",
				"turn 0",
			},
		},
		{
			name: "attachment note",
			transcript: &Transcript{
				Session: testutil.FixtureSession("test2", 1000),
				Messages: []internal.Message{
					{Role: internal.RoleUser, Content: "look", Attachments: []internal.Attachment{testutil.FixtureAttachment(8)}},
				},
			},
			want: []string{"*1 attachment(s)*"},
		},
		{
			name: "code blocks preserved",
			transcript: &Transcript{
				Session: testutil.FixtureSession("test3", 1000),
				Messages: []internal.Message{
					{Role: internal.RoleModel, Content: "```go\nfmt.Println(\"**bold**\")\n```"},
				},
			},
			want: []string{"```go", `fmt.Println("**bold**")`},
		},
		{
			name: "bold escaped outside code",
			transcript: &Transcript{
				Session: testutil.FixtureSession("test4", 1000),
				Messages: []internal.Message{
					{Role: internal.RoleModel, Content: "this is **bold** text"},
				},
			},
			want: []string{`\*\*bold\*\*`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			exporter := &MarkdownExporter{}

			if err := exporter.Export(tt.transcript, &buf); err != nil {
				t.Fatalf("Export() error = %v", err)
			}
			output := buf.String()
			for _, wantStr := range tt.want {
				if !strings.Contains(output, wantStr) {
					t.Errorf("Output should contain %q, got: %s", wantStr, output)
				}
			}
		})
	}
}

func TestJSONExporter_Export(t *testing.T) {
	var buf bytes.Buffer
	exporter := &JSONExporter{}

	if err := exporter.Export(fixtureTranscript(2), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	var doc struct {
		Session  *internal.ChatSession `json:"session"`
		Messages []internal.Message    `json:"messages"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if doc.Session == nil || doc.Session.ID != "test1" {
		t.Errorf("Session id = %+v, want test1", doc.Session)
	}
	if len(doc.Messages) != 2 {
		t.Errorf("Messages = %d, want 2", len(doc.Messages))
	}
}

func TestYAMLExporter_Export(t *testing.T) {
	var buf bytes.Buffer
	exporter := &YAMLExporter{}

	if err := exporter.Export(fixtureTranscript(2), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	var doc struct {
		ID       string `yaml:"id"`
		Title    string `yaml:"title"`
		Persona  string `yaml:"persona"`
		Messages []struct {
			Role    string `yaml:"role"`
			Content string `yaml:"content"`
		} `yaml:"messages"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("Output is not valid YAML: %v", err)
	}
	if doc.ID != "test1" {
		t.Errorf("id = %q, want test1", doc.ID)
	}
	if doc.Persona != "VORTEX_CORE" {
		t.Errorf("persona = %q, want VORTEX_CORE", doc.Persona)
	}
	if len(doc.Messages) != 2 || doc.Messages[0].Role != "user" {
		t.Errorf("messages = %+v, want 2 entries starting with user", doc.Messages)
	}
}
