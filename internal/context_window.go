package internal

import (
	"fmt"
	"strings"
)

// The persistence quota and the remote model's context budget are unrelated
// constraints; the window builder has its own limits.
const (
	// DefaultMaxHistoryTurns caps the turns forwarded to the model.
	DefaultMaxHistoryTurns = 30
	// DefaultHeadContext is the number of opening turns always preserved
	// (the establishing context).
	DefaultHeadContext = 2
)

// Part is one piece of a wire-format message: either inline binary data or
// text, never both.
type Part struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
	Text     string `json:"text,omitempty"`
}

// Content is one role-tagged turn in the wire format.
type Content struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// ContextWindowBuilder shapes a full message history into the bounded subset
// actually forwarded to the remote model.
type ContextWindowBuilder struct {
	MaxTurns    int
	HeadContext int
}

// NewContextWindowBuilder creates a builder with the given limits. A
// non-positive maxTurns and a negative headContext select the defaults
// (headContext 0 is a valid setting: no preserved head). These are
// configuration inputs, so headContext is clamped below maxTurns; the tail
// must always have room for at least one turn.
func NewContextWindowBuilder(maxTurns, headContext int) *ContextWindowBuilder {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxHistoryTurns
	}
	if headContext < 0 {
		headContext = DefaultHeadContext
	}
	if headContext >= maxTurns {
		headContext = maxTurns - 1
	}
	return &ContextWindowBuilder{MaxTurns: maxTurns, HeadContext: headContext}
}

// Slice applies the sliding-window strategy: drop error turns, keep the
// opening head and the most recent tail, discard the middle, and enforce
// strict role alternation at the seam (a tail must begin with a user turn).
func (b *ContextWindowBuilder) Slice(history []Message) []Message {
	filtered := make([]Message, 0, len(history))
	for _, msg := range history {
		if !msg.IsError {
			filtered = append(filtered, msg)
		}
	}

	if len(filtered) <= b.MaxTurns {
		return filtered
	}

	head := filtered[:b.HeadContext]
	tail := filtered[len(filtered)-(b.MaxTurns-b.HeadContext):]

	// The slice must not break user/model alternation: a model turn with no
	// preceding user turn is structurally invalid to the remote protocol.
	if len(tail) > 0 && tail[0].Role == RoleModel {
		tail = tail[1:]
	}

	window := make([]Message, 0, len(head)+len(tail))
	window = append(window, head...)
	return append(window, tail...)
}

// ToWire translates a message list into wire-format turns. Pure mapping:
// attachments precede text within each turn, nothing else.
func ToWire(messages []Message) []Content {
	contents := make([]Content, 0, len(messages))
	for _, msg := range messages {
		parts := make([]Part, 0, len(msg.Attachments)+1)
		for _, att := range msg.Attachments {
			parts = append(parts, Part{MimeType: att.MimeType, Data: att.Data})
		}
		if msg.Content != "" {
			parts = append(parts, Part{Text: msg.Content})
		}
		contents = append(contents, Content{Role: msg.Role, Parts: parts})
	}
	return contents
}

// BuildOutgoingParts assembles the parts for a new message: attachments
// first, then the text. A completely empty send is substituted with a single
// space because the remote endpoint rejects zero-length payloads.
func BuildOutgoingParts(text string, attachments []Attachment) []Part {
	parts := make([]Part, 0, len(attachments)+1)
	for _, att := range attachments {
		parts = append(parts, Part{MimeType: att.MimeType, Data: att.Data})
	}
	if text != "" {
		parts = append(parts, Part{Text: text})
	}
	if len(parts) == 0 {
		parts = append(parts, Part{Text: " "})
	}
	return parts
}

// ComposeSystemInstruction concatenates the persona base instruction, the
// language directive and the learning-profile directive, in that order.
func ComposeSystemInstruction(config PersonaConfig, lang Language, profile *LearningProfile) string {
	var sb strings.Builder
	sb.WriteString(config.SystemInstruction)
	sb.WriteString(languageDirective(lang))

	if profile != nil {
		if len(profile.Preferences) > 0 {
			fmt.Fprintf(&sb, "\nUSER PREFERENCES (ADAPT TO THESE): %s", strings.Join(profile.Preferences, ", "))
		}
		if len(profile.Dislikes) > 0 {
			fmt.Fprintf(&sb, "\nUSER DISLIKES (AVOID THESE): %s", strings.Join(profile.Dislikes, ", "))
		}
	}
	return sb.String()
}

func languageDirective(lang Language) string {
	if lang == LanguagePT {
		return "\nIMPORTANT: You MUST respond in Portuguese (Portugal - pt-PT). Use rigorous technical Portuguese from Portugal."
	}
	return "\nIMPORTANT: Respond in English (US)."
}
