package internal

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Persisted key names. Values are self-describing JSON (except the language
// key, which is the raw tag) so stored state stays human-inspectable and old
// backups remain importable.
const (
	KeyUser            = "vortex_user_v1"
	KeySessions        = "vortex_sessions_v1"
	KeyLanguage        = "vortex_lang_v1"
	KeyLearningProfile = "vortex_learning_v1"
	MessageKeyPrefix   = "vortex_msg_"
)

// DefaultPreserveCount is the number of newest messages kept fully intact
// (attachments included) during intra-session truncation.
const DefaultPreserveCount = 10

// MessageKey returns the archive key for a session.
func MessageKey(sessionID string) string {
	return MessageKeyPrefix + sessionID
}

// StorageService is the quota-aware persistence layer: session directory,
// per-session message archives, learning profile, user profile and language
// setting, all stored in an injected KV substrate. It is not safe for
// concurrent use; the host runs a single logical actor.
type StorageService struct {
	kv            KV
	preserveCount int
}

// NewStorageService wraps a KV substrate. preserveCount <= 0 selects
// DefaultPreserveCount.
func NewStorageService(kv KV, preserveCount int) *StorageService {
	if preserveCount <= 0 {
		preserveCount = DefaultPreserveCount
	}
	return &StorageService{kv: kv, preserveCount: preserveCount}
}

// KV exposes the underlying substrate for the backup engine.
func (s *StorageService) KV() KV {
	return s.kv
}

// --- Sessions ---

// Sessions returns all directory entries ordered by LastMessageAt descending.
// The ordering is recomputed on every read; stored order is irrelevant.
func (s *StorageService) Sessions() ([]*ChatSession, error) {
	raw, ok, err := s.kv.Get(KeySessions)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []*ChatSession{}, nil
	}

	var sessions []*ChatSession
	if err := json.Unmarshal([]byte(raw), &sessions); err != nil {
		return nil, fmt.Errorf("failed to parse session directory: %w", err)
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].LastMessageAt > sessions[j].LastMessageAt
	})
	return sessions, nil
}

// SaveSession upserts a directory entry: replaced in place when the id is
// already present, prepended when new.
func (s *StorageService) SaveSession(session *ChatSession) error {
	sessions, err := s.Sessions()
	if err != nil {
		return err
	}

	replaced := false
	for i, existing := range sessions {
		if existing.ID == session.ID {
			sessions[i] = session
			replaced = true
			break
		}
	}
	if !replaced {
		sessions = append([]*ChatSession{session}, sessions...)
	}

	return s.putDirectory(sessions)
}

// DeleteSession removes a directory entry together with its archive.
func (s *StorageService) DeleteSession(sessionID string) error {
	sessions, err := s.Sessions()
	if err != nil {
		return err
	}

	filtered := sessions[:0]
	for _, session := range sessions {
		if session.ID != sessionID {
			filtered = append(filtered, session)
		}
	}

	if err := s.putDirectory(filtered); err != nil {
		return err
	}
	return s.kv.Delete(MessageKey(sessionID))
}

// ClearChatHistory wipes every session and every archive. Archive keys are
// removed first, against the current enumeration, so a failure mid-way never
// leaves archives unreachable behind a missing directory.
func (s *StorageService) ClearChatHistory() error {
	sessions, err := s.Sessions()
	if err != nil {
		return err
	}
	for _, session := range sessions {
		if err := s.kv.Delete(MessageKey(session.ID)); err != nil {
			return err
		}
	}
	return s.kv.Delete(KeySessions)
}

func (s *StorageService) putDirectory(sessions []*ChatSession) error {
	payload, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("failed to serialize session directory: %w", err)
	}
	return s.putSafe(KeySessions, string(payload))
}

// --- Messages ---

// Messages returns the archived message list for a session, empty when none
// has been stored yet.
func (s *StorageService) Messages(sessionID string) ([]Message, error) {
	raw, ok, err := s.kv.Get(MessageKey(sessionID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return []Message{}, nil
	}

	var messages []Message
	if err := json.Unmarshal([]byte(raw), &messages); err != nil {
		return nil, fmt.Errorf("failed to parse archive for session %s: %w", sessionID, err)
	}
	return messages, nil
}

// SaveMessages persists the full message list for a session. Archives are
// complete snapshots, not append logs. On a capacity failure that survives
// cross-session pruning, the archive is truncated (attachments stripped from
// all but the newest messages) and the save retried exactly once; a failure
// after that is terminal and reported to the caller.
func (s *StorageService) SaveMessages(sessionID string, messages []Message) error {
	payload, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to serialize archive for session %s: %w", sessionID, err)
	}

	err = s.putSafe(MessageKey(sessionID), string(payload))
	if err == nil {
		return nil
	}
	if !IsQuotaError(err) {
		return err
	}

	LogWarn("Quota critical for session %s, stripping attachments from older messages", sessionID)
	optimized := TruncateMessages(messages, s.preserveCount)
	payload, merr := json.Marshal(optimized)
	if merr != nil {
		return fmt.Errorf("failed to serialize truncated archive for session %s: %w", sessionID, merr)
	}

	if serr := s.kv.Set(MessageKey(sessionID), string(payload)); serr != nil {
		LogError("Unable to save session %s even after truncation: %v", sessionID, serr)
		return serr
	}
	return nil
}

// --- Learning profile ---

// GetLearningProfile returns the accumulated profile, lazily created with
// empty defaults on first read.
func (s *StorageService) GetLearningProfile() (*LearningProfile, error) {
	raw, ok, err := s.kv.Get(KeyLearningProfile)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &LearningProfile{
			Preferences: []string{},
			Dislikes:    []string{},
			LastUpdated: nowMillis(),
		}, nil
	}

	var profile LearningProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return nil, fmt.Errorf("failed to parse learning profile: %w", err)
	}
	return &profile, nil
}

// RecordFeedback appends tag to preferences (positive) or dislikes
// (negative). Recording an already-present tag is a no-op apart from the
// LastUpdated bump.
func (s *StorageService) RecordFeedback(tag string, positive bool) (*LearningProfile, error) {
	profile, err := s.GetLearningProfile()
	if err != nil {
		return nil, err
	}

	if positive {
		profile.Preferences = appendUnique(profile.Preferences, tag)
	} else {
		profile.Dislikes = appendUnique(profile.Dislikes, tag)
	}
	profile.LastUpdated = nowMillis()

	payload, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize learning profile: %w", err)
	}
	if err := s.putSafe(KeyLearningProfile, string(payload)); err != nil {
		return nil, err
	}
	return profile, nil
}

func appendUnique(tags []string, tag string) []string {
	for _, existing := range tags {
		if existing == tag {
			return tags
		}
	}
	return append(tags, tag)
}

// --- User profile ---

// GetUser returns the stored user profile, or nil when absent.
func (s *StorageService) GetUser() (*UserProfile, error) {
	raw, ok, err := s.kv.Get(KeyUser)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var user UserProfile
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("failed to parse user profile: %w", err)
	}
	return &user, nil
}

// SaveUser persists the user profile.
func (s *StorageService) SaveUser(user *UserProfile) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to serialize user profile: %w", err)
	}
	return s.putSafe(KeyUser, string(payload))
}

// ClearUser removes the user profile.
func (s *StorageService) ClearUser() error {
	return s.kv.Delete(KeyUser)
}

// --- Language setting ---

// GetLanguage returns the stored language, defaulting to DefaultLanguage.
func (s *StorageService) GetLanguage() (Language, error) {
	raw, ok, err := s.kv.Get(KeyLanguage)
	if err != nil {
		return DefaultLanguage, err
	}
	if !ok || raw == "" {
		return DefaultLanguage, nil
	}
	return Language(raw), nil
}

// SaveLanguage persists the language setting.
func (s *StorageService) SaveLanguage(lang Language) error {
	return s.putSafe(KeyLanguage, string(lang))
}

// excludedSessionID extracts the session id a write belongs to, so pruning
// never evicts the session being saved into.
func excludedSessionID(key string) string {
	if strings.HasPrefix(key, MessageKeyPrefix) {
		return strings.TrimPrefix(key, MessageKeyPrefix)
	}
	return ""
}
