package internal

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// Snapshot is the portable backup shape: a flat mapping from persisted key
// name to its raw serialized value.
type Snapshot map[string]string

// BackupEngine serializes and restores the full persisted state: user
// profile, learning profile, language setting, session directory and every
// session's archive.
type BackupEngine struct {
	storage *StorageService
}

// NewBackupEngine creates a backup engine over a storage service.
func NewBackupEngine(storage *StorageService) *BackupEngine {
	return &BackupEngine{storage: storage}
}

// BackupFilename returns the date-stamped default export name.
func BackupFilename(now time.Time) string {
	return fmt.Sprintf("vortex_backup_%s.json", now.Format("2006-01-02"))
}

// Export gathers every persisted key reachable from the current session
// directory into a Snapshot. Absent keys are simply omitted.
func (b *BackupEngine) Export() (Snapshot, error) {
	kv := b.storage.KV()
	snapshot := Snapshot{}

	for _, key := range []string{KeyUser, KeyLearningProfile, KeyLanguage, KeySessions} {
		value, ok, err := kv.Get(key)
		if err != nil {
			return nil, err
		}
		if ok {
			snapshot[key] = value
		}
	}

	if raw, ok := snapshot[KeySessions]; ok {
		var sessions []*ChatSession
		if err := json.Unmarshal([]byte(raw), &sessions); err != nil {
			return nil, fmt.Errorf("failed to parse session directory: %w", err)
		}
		for _, session := range sessions {
			key := MessageKey(session.ID)
			value, ok, err := kv.Get(key)
			if err != nil {
				return nil, err
			}
			if ok {
				snapshot[key] = value
			}
		}
	}

	return snapshot, nil
}

// WriteTo serializes the current state as JSON into w.
func (b *BackupEngine) WriteTo(w io.Writer) error {
	snapshot, err := b.Export()
	if err != nil {
		return err
	}
	return json.NewEncoder(w).Encode(snapshot)
}

// ExportToFile writes the backup to path, creating the file.
func (b *BackupEngine) ExportToFile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return &BackupError{Path: path, Err: err}
	}
	defer file.Close()

	if err := b.WriteTo(file); err != nil {
		return &BackupError{Path: path, Err: err}
	}
	return nil
}

// Import parses r as a Snapshot and restores it. A snapshot carrying neither
// a session directory nor a user profile is rejected as malformed before
// anything is written. Restore itself is a per-key overwrite with no
// transactional rollback: an interruption mid-import can leave a mix of old
// and new keys. Callers are expected to reload all in-memory state afterward.
func (b *BackupEngine) Import(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return &BackupError{Err: err}
	}

	var snapshot Snapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return &BackupError{Err: fmt.Errorf("not a valid backup file: %w", err)}
	}

	if _, hasSessions := snapshot[KeySessions]; !hasSessions {
		if _, hasUser := snapshot[KeyUser]; !hasUser {
			return &BackupError{Err: fmt.Errorf("no recognizable backup keys present")}
		}
	}

	kv := b.storage.KV()
	for key, value := range snapshot {
		if err := kv.Set(key, value); err != nil {
			return err
		}
	}
	return nil
}

// ImportFromFile restores a backup from path.
func (b *BackupEngine) ImportFromFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return &BackupError{Path: path, Err: err}
	}
	defer file.Close()

	if err := b.Import(file); err != nil {
		if berr, ok := err.(*BackupError); ok && berr.Path == "" {
			berr.Path = path
		}
		return err
	}
	return nil
}
