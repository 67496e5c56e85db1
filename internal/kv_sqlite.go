package internal

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DefaultQuotaBytes mirrors the ~5MB per-origin budget of browser local
// storage. The quota counts key and value bytes across the vortexKV table.
const DefaultQuotaBytes = 5 * 1024 * 1024

const createKVTableSQL = `
CREATE TABLE IF NOT EXISTS vortexKV (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// SQLiteKV is a quota-capped key/value store backed by a single SQLite table.
// The quota is enforced here, not by SQLite: a Set that would push the total
// stored size past the budget fails with ErrQuotaExceeded without writing,
// reproducing the hard-stop behavior of a full localStorage origin.
type SQLiteKV struct {
	db    *sql.DB
	quota int64
	used  int64
}

// OpenSQLiteKV opens (creating if needed) the store at path with the given
// byte quota. A quota of 0 means DefaultQuotaBytes; negative disables the cap.
func OpenSQLiteKV(path string, quota int64) (*SQLiteKV, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if _, err := db.Exec(createKVTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create vortexKV table: %w", err)
	}

	if quota == 0 {
		quota = DefaultQuotaBytes
	}

	kv := &SQLiteKV{db: db, quota: quota}
	if err := kv.recountUsed(); err != nil {
		db.Close()
		return nil, err
	}
	return kv, nil
}

// NewSQLiteKVFromDB wraps an already-open database. Used by tests that build
// in-memory databases.
func NewSQLiteKVFromDB(db *sql.DB, quota int64) (*SQLiteKV, error) {
	if _, err := db.Exec(createKVTableSQL); err != nil {
		return nil, fmt.Errorf("failed to create vortexKV table: %w", err)
	}
	if quota == 0 {
		quota = DefaultQuotaBytes
	}
	kv := &SQLiteKV{db: db, quota: quota}
	if err := kv.recountUsed(); err != nil {
		return nil, err
	}
	return kv, nil
}

func (kv *SQLiteKV) recountUsed() error {
	row := kv.db.QueryRow("SELECT COALESCE(SUM(LENGTH(key) + LENGTH(value)), 0) FROM vortexKV")
	if err := row.Scan(&kv.used); err != nil {
		return fmt.Errorf("failed to measure stored size: %w", err)
	}
	return nil
}

// Get returns the stored value for key.
func (kv *SQLiteKV) Get(key string) (string, bool, error) {
	var value string
	err := kv.db.QueryRow("SELECT value FROM vortexKV WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, &StorageError{Key: key, Op: "get", Err: err}
	}
	return value, true, nil
}

// Set persists value under key, enforcing the byte quota first.
func (kv *SQLiteKV) Set(key, value string) error {
	prev, exists, err := kv.Get(key)
	if err != nil {
		return err
	}

	delta := int64(len(key) + len(value))
	if exists {
		delta -= int64(len(key) + len(prev))
	}

	if kv.quota > 0 && kv.used+delta > kv.quota {
		return &QuotaError{Key: key, Need: len(value), Err: ErrQuotaExceeded}
	}

	_, err = kv.db.Exec(
		"INSERT INTO vortexKV (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return &StorageError{Key: key, Op: "put", Err: err}
	}

	kv.used += delta
	return nil
}

// Delete removes a key and releases its quota share.
func (kv *SQLiteKV) Delete(key string) error {
	prev, exists, err := kv.Get(key)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	if _, err := kv.db.Exec("DELETE FROM vortexKV WHERE key = ?", key); err != nil {
		return &StorageError{Key: key, Op: "delete", Err: err}
	}

	kv.used -= int64(len(key) + len(prev))
	return nil
}

// Keys returns every key with the given prefix.
func (kv *SQLiteKV) Keys(prefix string) ([]string, error) {
	rows, err := kv.db.Query("SELECT key FROM vortexKV WHERE key LIKE ? || '%'", prefix)
	if err != nil {
		return nil, &StorageError{Key: prefix, Op: "keys", Err: err}
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, &StorageError{Key: prefix, Op: "keys", Err: err}
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Key: prefix, Op: "keys", Err: err}
	}
	return keys, nil
}

// UsedBytes returns the current stored size counted against the quota.
func (kv *SQLiteKV) UsedBytes() int64 {
	return kv.used
}

// QuotaBytes returns the configured byte budget.
func (kv *SQLiteKV) QuotaBytes() int64 {
	return kv.quota
}

// Close closes the underlying database.
func (kv *SQLiteKV) Close() error {
	return kv.db.Close()
}
