package audit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Record is one admission decision, captured at the moment it was taken.
type Record struct {
	// ID is a generated UUID identifying this record.
	ID string

	// Time is when the decision was taken.
	Time time.Time

	// RequestID correlates the record with gateway request logs.
	RequestID string

	// ClientKey is the partition key the decision applied to.
	ClientKey string

	// Rule is the configured name of the rule that produced the decision.
	// For a rejected request this is the rule that rejected it; for an
	// allowed request it is the rule with the least remaining allowance.
	Rule string

	// Strategy is the algorithm kind behind the rule (e.g. "token_bucket").
	Strategy string

	// Allowed reports whether the request was admitted.
	Allowed bool

	// RetryAfterSeconds is the retry hint for rejected requests, zero for
	// allowed ones.
	RetryAfterSeconds int

	// Method and Path describe the guarded request.
	Method string
	Path   string
}

// Query filters reads from a Store. Zero-valued fields match everything.
type Query struct {
	// ClientKey restricts results to a single partition key.
	ClientKey string

	// Rule restricts results to decisions produced by one rule.
	Rule string

	// Allowed restricts results by outcome when non-nil.
	Allowed *bool

	// Since and Until bound the decision time (inclusive since,
	// exclusive until).
	Since time.Time
	Until time.Time

	// Limit caps the number of returned records, newest first.
	// Non-positive means the store default.
	Limit int
}

// Store persists admission records.
type Store interface {
	// Insert writes a record.
	Insert(ctx context.Context, record *Record) error

	// Query returns records matching q, newest first.
	Query(ctx context.Context, q Query) ([]*Record, error)

	// Prune deletes records older than the given time and reports how
	// many were removed.
	Prune(ctx context.Context, olderThan time.Time) (int, error)

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error

	// Close releases the store's resources.
	Close() error
}

// ErrRecorderClosed is returned by Recorder.Record after Close.
var ErrRecorderClosed = errors.New("audit recorder is closed")

var errNilRecord = errors.New("record cannot be nil")

// StorageError wraps a failure from a storage backend.
type StorageError struct {
	Backend   string // backend kind ("sqlite", "memory")
	Operation string // operation that failed ("insert", "query", "prune")
	Cause     error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("audit storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}
