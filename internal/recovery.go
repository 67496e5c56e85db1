package internal

import "encoding/json"

// TruncationMarker is appended to the content of messages whose attachments
// were stripped. The removal is irreversible.
const TruncationMarker = "\n\n[SYSTEM: Attachments removed to save local storage space]"

// putSafe writes a key through the degradation pipeline. On a capacity
// failure it prunes the least-recently-active other session and retries,
// repeating until the write succeeds or no other sessions remain. The loop
// is bounded by the session count, never recursive. Unexpected errors
// propagate unchanged, no retry.
//
// The retry re-writes the caller's original payload. On the directory key
// that payload may still list a session the prune just removed, bringing its
// directory entry back without an archive. Such an entry is inert: its
// archive reads as empty and it is the next prune candidate.
func (s *StorageService) putSafe(key, value string) error {
	exclude := excludedSessionID(key)

	for {
		err := s.kv.Set(key, value)
		if err == nil {
			return nil
		}
		if !IsQuotaError(err) {
			return err
		}

		pruned, perr := s.pruneOldestSession(exclude)
		if perr != nil {
			LogError("Pruning failed: %v", perr)
			return err
		}
		if !pruned {
			// No other sessions left to sacrifice. The caller decides
			// whether a further tier (truncation) applies.
			return err
		}
	}
}

// pruneOldestSession deletes the directory entry and archive of the session
// with the smallest LastMessageAt, excluding excludeID. Returns false when
// no candidate exists.
func (s *StorageService) pruneOldestSession(excludeID string) (bool, error) {
	sessions, err := s.Sessions()
	if err != nil {
		return false, err
	}
	if len(sessions) == 0 {
		return false, nil
	}

	// Sessions() sorts newest first; walk backwards for the oldest candidate.
	var candidate *ChatSession
	for i := len(sessions) - 1; i >= 0; i-- {
		if sessions[i].ID != excludeID {
			candidate = sessions[i]
			break
		}
	}
	if candidate == nil {
		return false, nil
	}

	LogWarn("Quota exceeded. Auto-pruning session: %s (%s)", candidate.Title, candidate.ID)

	if err := s.kv.Delete(MessageKey(candidate.ID)); err != nil {
		return false, err
	}

	remaining := make([]*ChatSession, 0, len(sessions)-1)
	for _, session := range sessions {
		if session.ID != candidate.ID {
			remaining = append(remaining, session)
		}
	}
	payload, err := json.Marshal(remaining)
	if err != nil {
		return false, err
	}
	// Shrinking rewrite of the directory; bypasses the safe path so pruning
	// cannot re-enter itself.
	if err := s.kv.Set(KeySessions, string(payload)); err != nil {
		return false, err
	}
	return true, nil
}

// TruncateMessages strips attachments from every message older than the
// preserved tail and appends TruncationMarker to their content. The newest
// preserve messages are returned untouched, attachments included.
func TruncateMessages(messages []Message, preserve int) []Message {
	if preserve <= 0 {
		preserve = DefaultPreserveCount
	}
	if len(messages) <= preserve {
		return messages
	}

	head := messages[:len(messages)-preserve]
	tail := messages[len(messages)-preserve:]

	optimized := make([]Message, 0, len(messages))
	for _, msg := range head {
		if len(msg.Attachments) > 0 {
			msg.Attachments = []Attachment{}
			msg.Content += TruncationMarker
		}
		optimized = append(optimized, msg)
	}
	return append(optimized, tail...)
}
