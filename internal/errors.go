package internal

import (
	"errors"
	"fmt"
)

// ErrQuotaExceeded is the capacity signal from a KV substrate. Writes that
// fail with it are recoverable via the degradation pipeline; anything else
// propagates unchanged.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// QuotaError wraps a capacity-exceeded write with its context.
type QuotaError struct {
	Key  string
	Need int // bytes the write required
	Err  error
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("quota error: key %s needs %d bytes: %v", e.Key, e.Need, e.Err)
}

func (e *QuotaError) Unwrap() error {
	return e.Err
}

// IsQuotaError reports whether err is a capacity-exceeded signal.
func IsQuotaError(err error) bool {
	return errors.Is(err, ErrQuotaExceeded)
}

// StorageError represents unexpected errors from the key/value substrate.
type StorageError struct {
	Key string
	Op  string // "get", "put", "delete", "keys"
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// BackupError represents a rejected backup file.
type BackupError struct {
	Path string
	Err  error
}

func (e *BackupError) Error() string {
	return fmt.Sprintf("backup error %s: %v", e.Path, e.Err)
}

func (e *BackupError) Unwrap() error {
	return e.Err
}

// ExportError represents errors during transcript export.
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// StreamError represents a failure from the remote model client. It is never
// retried automatically; the affected message is marked as an error turn.
type StreamError struct {
	Model string
	Err   error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("stream error [%s]: %v", e.Model, e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}
