package internal

import (
	"time"

	"github.com/google/uuid"
)

// Persona selects a behavior/model profile for a session.
type Persona string

const (
	PersonaVortexCore Persona = "VORTEX_CORE"
)

// Language is the response language setting.
type Language string

const (
	LanguagePT Language = "pt-PT"
	LanguageEN Language = "en-US"

	DefaultLanguage = LanguagePT
)

// Role identifies the author of a message turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// GroundingSource is a citation attached to a model message.
type GroundingSource struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// Attachment is a binary payload carried by a message. Data is base64-encoded
// and is by far the dominant contributor to storage size, so attachments are
// the first thing sacrificed under quota pressure.
type Attachment struct {
	MimeType   string `json:"mimeType"`
	Data       string `json:"data"`
	PreviewURI string `json:"previewUri,omitempty"`
}

// Feedback is an optional user rating on a model message.
type Feedback struct {
	Rating    string `json:"rating"` // "positive" or "negative"
	Text      string `json:"text,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Message is one turn of a conversation.
type Message struct {
	ID               string            `json:"id"`
	Role             Role              `json:"role"`
	Content          string            `json:"content"`
	Timestamp        int64             `json:"timestamp"`
	IsError          bool              `json:"isError,omitempty"`
	Attachments      []Attachment      `json:"attachments,omitempty"`
	Feedback         *Feedback         `json:"feedback,omitempty"`
	GroundingSources []GroundingSource `json:"groundingSources,omitempty"`
}

// ChatSession is the directory record for one conversation. Message bodies
// live in a separate archive key so the directory stays small.
type ChatSession struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	LastMessageAt int64   `json:"lastMessageAt"`
	Preview       string  `json:"preview"`
	Persona       Persona `json:"persona"`
}

// LearningProfile accumulates user preference/dislike tags derived from
// feedback events. It is accretive: tags are never removed.
type LearningProfile struct {
	Preferences []string `json:"preferences"`
	Dislikes    []string `json:"dislikes"`
	LastUpdated int64    `json:"lastUpdated"`
}

// UserProfile is the local user identity record.
type UserProfile struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// NewSession creates a directory entry for a fresh conversation.
func NewSession(persona Persona, title string) *ChatSession {
	if title == "" {
		title = "New Conversation"
	}
	return &ChatSession{
		ID:            uuid.NewString(),
		Title:         title,
		LastMessageAt: nowMillis(),
		Persona:       persona,
	}
}

// NewMessage creates a message turn with a fresh id and current timestamp.
func NewMessage(role Role, content string, attachments []Attachment) Message {
	return Message{
		ID:          uuid.NewString(),
		Role:        role,
		Content:     content,
		Timestamp:   nowMillis(),
		Attachments: attachments,
	}
}

// Touch updates the recency fields after a message append. The preview is a
// short derived snippet of the most recent content.
func (s *ChatSession) Touch(latest Message) {
	s.LastMessageAt = latest.Timestamp
	if s.LastMessageAt == 0 {
		s.LastMessageAt = nowMillis()
	}
	s.Preview = previewText(latest)
}

const previewLimit = 80

func previewText(m Message) string {
	text := m.Content
	if text == "" && len(m.Attachments) > 0 {
		text = "[attachment]"
	}
	runes := []rune(text)
	if len(runes) > previewLimit {
		return string(runes[:previewLimit])
	}
	return text
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

// GetTimestamp returns the message timestamp as a time.Time.
func (m Message) GetTimestamp() time.Time {
	return time.Unix(0, m.Timestamp*int64(time.Millisecond))
}

// GetLastMessageAt returns the session recency as a time.Time.
func (s *ChatSession) GetLastMessageAt() time.Time {
	return time.Unix(0, s.LastMessageAt*int64(time.Millisecond))
}
