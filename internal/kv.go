package internal

// KV is the synchronous string key/value substrate everything persists into.
// Implementations must signal capacity exhaustion from Set by returning an
// error wrapping ErrQuotaExceeded; every other failure is treated as
// unexpected and propagates to the caller unchanged.
type KV interface {
	// Get returns the stored value and whether the key exists.
	Get(key string) (string, bool, error)
	// Set persists value under key, replacing any previous value.
	Set(key, value string) error
	// Delete removes a key. Deleting an absent key is not an error.
	Delete(key string) error
	// Keys returns all keys with the given prefix, in unspecified order.
	Keys(prefix string) ([]string, error)
	// Close releases underlying resources.
	Close() error
}
