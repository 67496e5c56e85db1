package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/vortexlabs/vortex-chat/internal"
)

// FixtureSession builds a directory entry with a fixed id and recency
func FixtureSession(id string, lastMessageAt int64) *internal.ChatSession {
	return &internal.ChatSession{
		ID:            id,
		Title:         "Session " + id,
		LastMessageAt: lastMessageAt,
		Persona:       internal.PersonaVortexCore,
	}
}

// FixtureMessages builds an alternating user/model conversation of n turns,
// starting with a user turn
func FixtureMessages(n int) []internal.Message {
	messages := make([]internal.Message, 0, n)
	for i := 0; i < n; i++ {
		role := internal.RoleUser
		if i%2 == 1 {
			role = internal.RoleModel
		}
		messages = append(messages, internal.Message{
			ID:        fmt.Sprintf("msg-%d", i),
			Role:      role,
			Content:   fmt.Sprintf("turn %d", i),
			Timestamp: int64(1000 + i),
		})
	}
	return messages
}

// FixtureAttachment builds an attachment whose base64 payload is size bytes
func FixtureAttachment(size int) internal.Attachment {
	return internal.Attachment{
		MimeType:   "image/png",
		Data:       strings.Repeat("A", size),
		PreviewURI: "preview://png",
	}
}

// SeedSession stores a directory entry together with its archive
func SeedSession(t *testing.T, storage *internal.StorageService, session *internal.ChatSession, messages []internal.Message) {
	t.Helper()
	if err := storage.SaveSession(session); err != nil {
		t.Fatalf("Failed to seed session %s: %v", session.ID, err)
	}
	if messages != nil {
		if err := storage.SaveMessages(session.ID, messages); err != nil {
			t.Fatalf("Failed to seed archive %s: %v", session.ID, err)
		}
	}
}
