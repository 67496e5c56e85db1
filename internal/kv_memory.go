package internal

import "strings"

// MemoryKV is an in-memory KV with the same quota semantics as SQLiteKV.
// It backs tests and any ephemeral (no persistence) mode, and its FailSet
// hook lets tests inject unexpected substrate failures.
type MemoryKV struct {
	data  map[string]string
	quota int64
	used  int64

	// FailSet, when non-nil, is consulted before every Set and its error, if
	// any, returned verbatim.
	FailSet func(key, value string) error
}

// NewMemoryKV creates an empty in-memory store. A quota of 0 means
// DefaultQuotaBytes; negative disables the cap.
func NewMemoryKV(quota int64) *MemoryKV {
	if quota == 0 {
		quota = DefaultQuotaBytes
	}
	return &MemoryKV{
		data:  make(map[string]string),
		quota: quota,
	}
}

// Get returns the stored value for key.
func (kv *MemoryKV) Get(key string) (string, bool, error) {
	value, ok := kv.data[key]
	return value, ok, nil
}

// Set persists value under key, enforcing the byte quota first.
func (kv *MemoryKV) Set(key, value string) error {
	if kv.FailSet != nil {
		if err := kv.FailSet(key, value); err != nil {
			return err
		}
	}

	delta := int64(len(key) + len(value))
	if prev, ok := kv.data[key]; ok {
		delta -= int64(len(key) + len(prev))
	}

	if kv.quota > 0 && kv.used+delta > kv.quota {
		return &QuotaError{Key: key, Need: len(value), Err: ErrQuotaExceeded}
	}

	kv.data[key] = value
	kv.used += delta
	return nil
}

// Delete removes a key and releases its quota share.
func (kv *MemoryKV) Delete(key string) error {
	prev, ok := kv.data[key]
	if !ok {
		return nil
	}
	delete(kv.data, key)
	kv.used -= int64(len(key) + len(prev))
	return nil
}

// Keys returns every key with the given prefix.
func (kv *MemoryKV) Keys(prefix string) ([]string, error) {
	var keys []string
	for key := range kv.data {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// UsedBytes returns the current stored size counted against the quota.
func (kv *MemoryKV) UsedBytes() int64 {
	return kv.used
}

// Close is a no-op for the in-memory store.
func (kv *MemoryKV) Close() error {
	return nil
}
