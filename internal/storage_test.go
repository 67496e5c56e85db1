package internal

import (
	"errors"
	"fmt"
	"testing"
)

func newTestStorage() (*StorageService, *MemoryKV) {
	kv := NewMemoryKV(-1) // uncapped unless a test wants pressure
	return NewStorageService(kv, 0), kv
}

func TestSessions_OrderedByRecencyDescending(t *testing.T) {
	storage, _ := newTestStorage()

	// Insert out of order: recency must be recomputed at read time.
	for _, s := range []*ChatSession{
		{ID: "b", Title: "B", LastMessageAt: 2000},
		{ID: "a", Title: "A", LastMessageAt: 1000},
		{ID: "c", Title: "C", LastMessageAt: 3000},
	} {
		if err := storage.SaveSession(s); err != nil {
			t.Fatalf("SaveSession(%s) error = %v", s.ID, err)
		}
	}

	sessions, err := storage.Sessions()
	if err != nil {
		t.Fatalf("Sessions() error = %v", err)
	}

	want := []string{"c", "b", "a"}
	if len(sessions) != len(want) {
		t.Fatalf("Sessions() returned %d sessions, want %d", len(sessions), len(want))
	}
	for i, id := range want {
		if sessions[i].ID != id {
			t.Errorf("Sessions()[%d].ID = %s, want %s", i, sessions[i].ID, id)
		}
	}
}

func TestSaveSession_UpsertReplacesInPlace(t *testing.T) {
	storage, _ := newTestStorage()

	original := &ChatSession{ID: "s1", Title: "Original", LastMessageAt: 1000}
	if err := storage.SaveSession(original); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}

	updated := &ChatSession{ID: "s1", Title: "Renamed", LastMessageAt: 1000}
	if err := storage.SaveSession(updated); err != nil {
		t.Fatalf("SaveSession() upsert error = %v", err)
	}

	sessions, err := storage.Sessions()
	if err != nil {
		t.Fatalf("Sessions() error = %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("Sessions() returned %d sessions after upsert, want 1", len(sessions))
	}
	if sessions[0].Title != "Renamed" {
		t.Errorf("Title = %q, want Renamed", sessions[0].Title)
	}
}

func TestDeleteSession_RemovesArchiveToo(t *testing.T) {
	storage, kv := newTestStorage()

	session := &ChatSession{ID: "s1", Title: "S1", LastMessageAt: 1000}
	if err := storage.SaveSession(session); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}
	if err := storage.SaveMessages("s1", []Message{{ID: "m1", Role: RoleUser, Content: "hi"}}); err != nil {
		t.Fatalf("SaveMessages() error = %v", err)
	}

	if err := storage.DeleteSession("s1"); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}

	if _, ok, _ := kv.Get(MessageKey("s1")); ok {
		t.Error("Archive key should be gone after DeleteSession")
	}
	sessions, _ := storage.Sessions()
	if len(sessions) != 0 {
		t.Errorf("Directory should be empty, got %d entries", len(sessions))
	}
}

func TestClearChatHistory_NoOrphanedArchives(t *testing.T) {
	storage, kv := newTestStorage()

	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("s%d", i)
		session := &ChatSession{ID: id, Title: id, LastMessageAt: int64(1000 + i)}
		if err := storage.SaveSession(session); err != nil {
			t.Fatalf("SaveSession(%s) error = %v", id, err)
		}
		if err := storage.SaveMessages(id, []Message{{ID: "m", Role: RoleUser, Content: "x"}}); err != nil {
			t.Fatalf("SaveMessages(%s) error = %v", id, err)
		}
	}

	if err := storage.ClearChatHistory(); err != nil {
		t.Fatalf("ClearChatHistory() error = %v", err)
	}

	keys, err := kv.Keys(MessageKeyPrefix)
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("Found %d orphaned archive keys after clear: %v", len(keys), keys)
	}
	if _, ok, _ := kv.Get(KeySessions); ok {
		t.Error("Directory key should be gone after clear")
	}
}

func TestMessages_EmptyWhenAbsent(t *testing.T) {
	storage, _ := newTestStorage()

	messages, err := storage.Messages("missing")
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("Messages() for unknown session = %d entries, want 0", len(messages))
	}
}

func TestRecordFeedback_Idempotent(t *testing.T) {
	storage, _ := newTestStorage()

	if _, err := storage.RecordFeedback("short answers", true); err != nil {
		t.Fatalf("RecordFeedback() error = %v", err)
	}
	profile, err := storage.RecordFeedback("short answers", true)
	if err != nil {
		t.Fatalf("RecordFeedback() second error = %v", err)
	}

	count := 0
	for _, tag := range profile.Preferences {
		if tag == "short answers" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("Tag recorded %d times, want exactly 1", count)
	}
}

func TestRecordFeedback_NegativeGoesToDislikes(t *testing.T) {
	storage, _ := newTestStorage()

	profile, err := storage.RecordFeedback("long lectures", false)
	if err != nil {
		t.Fatalf("RecordFeedback() error = %v", err)
	}

	if len(profile.Dislikes) != 1 || profile.Dislikes[0] != "long lectures" {
		t.Errorf("Dislikes = %v, want [long lectures]", profile.Dislikes)
	}
	if len(profile.Preferences) != 0 {
		t.Errorf("Preferences = %v, want empty", profile.Preferences)
	}
	if profile.LastUpdated == 0 {
		t.Error("LastUpdated should be set")
	}
}

func TestGetLearningProfile_LazyDefaults(t *testing.T) {
	storage, _ := newTestStorage()

	profile, err := storage.GetLearningProfile()
	if err != nil {
		t.Fatalf("GetLearningProfile() error = %v", err)
	}
	if profile == nil {
		t.Fatal("GetLearningProfile() returned nil")
	}
	if profile.Preferences == nil || profile.Dislikes == nil {
		t.Error("Profile slices should be initialized, not nil")
	}
}

func TestUserProfile_RoundTrip(t *testing.T) {
	storage, _ := newTestStorage()

	if user, err := storage.GetUser(); err != nil || user != nil {
		t.Fatalf("GetUser() on empty store = (%v, %v), want (nil, nil)", user, err)
	}

	saved := &UserProfile{ID: "u1", Name: "Ada", Email: "ada@example.com"}
	if err := storage.SaveUser(saved); err != nil {
		t.Fatalf("SaveUser() error = %v", err)
	}

	loaded, err := storage.GetUser()
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if loaded == nil || loaded.Name != "Ada" {
		t.Errorf("GetUser() = %+v, want Name Ada", loaded)
	}

	if err := storage.ClearUser(); err != nil {
		t.Fatalf("ClearUser() error = %v", err)
	}
	if user, _ := storage.GetUser(); user != nil {
		t.Error("GetUser() after ClearUser should be nil")
	}
}

func TestLanguage_DefaultAndRoundTrip(t *testing.T) {
	storage, _ := newTestStorage()

	lang, err := storage.GetLanguage()
	if err != nil {
		t.Fatalf("GetLanguage() error = %v", err)
	}
	if lang != DefaultLanguage {
		t.Errorf("GetLanguage() default = %s, want %s", lang, DefaultLanguage)
	}

	if err := storage.SaveLanguage(LanguageEN); err != nil {
		t.Fatalf("SaveLanguage() error = %v", err)
	}
	lang, _ = storage.GetLanguage()
	if lang != LanguageEN {
		t.Errorf("GetLanguage() = %s, want %s", lang, LanguageEN)
	}
}

func TestPutSafe_UnexpectedErrorPropagates(t *testing.T) {
	storage, kv := newTestStorage()

	boom := errors.New("disk on fire")
	kv.FailSet = func(key, value string) error { return boom }

	err := storage.SaveSession(&ChatSession{ID: "s1"})
	if !errors.Is(err, boom) {
		t.Errorf("SaveSession() error = %v, want the substrate error unchanged", err)
	}
}
