package blob

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
)

// Snapshot is the state of a blob at read time.
type Snapshot struct {
	Content []byte // raw (decoded) content; nil when the blob is missing
	Version string // opaque version token; empty when the blob is missing
	Exists  bool
}

// Store is a versioned blob store with conditional writes.
// Implementations must be safe for concurrent use.
type Store interface {
	// Read fetches the blob at path. A missing blob yields a zero Snapshot
	// and a nil error.
	Read(ctx context.Context, path string) (Snapshot, error)

	// Write replaces the blob at path with content, provided the current
	// version equals expectedVersion. An empty expectedVersion means the blob
	// must not exist yet. Returns the version token of the new content.
	Write(ctx context.Context, path string, content []byte, expectedVersion, message string) (string, error)
}

var (
	// ErrVersionConflict is returned when a write presents a stale token,
	// or no token for a blob that already exists.
	ErrVersionConflict = errors.New("blob version conflict")

	// ErrAuth is returned when the host rejects the configured credentials.
	ErrAuth = errors.New("blob store rejected credentials")
)

// TransportError wraps a failure to reach the store.
type TransportError struct {
	Op   string
	Path string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("blob: %s %s: transport: %v", e.Op, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedResponseError reports a store response that could not be decoded.
// Body holds the raw response for diagnostics.
type MalformedResponseError struct {
	Op     string
	Status int
	Body   []byte
	Err    error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("blob: %s: malformed response (status %d): %v", e.Op, e.Status, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// StatusError reports an unexpected status code from the host.
type StatusError struct {
	Op     string
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("blob: %s: unexpected status %d: %s", e.Op, e.Status, truncate(e.Body, 256))
}

// ContentSHA returns the git blob sha1 of content, in lowercase hex.
func ContentSHA(content []byte) string {
	h := sha1.New()
	h.Write([]byte("blob " + strconv.Itoa(len(content)) + "\x00"))
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

// checkVersion enforces the conditional-write rule shared by the
// compare-and-swap backends.
func checkVersion(current string, exists bool, expected string) error {
	if !exists {
		if expected != "" {
			return ErrVersionConflict
		}
		return nil
	}
	if expected == "" || expected != current {
		return ErrVersionConflict
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
