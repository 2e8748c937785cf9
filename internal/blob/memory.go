package blob

import (
	"context"
	"sync"
)

// Commit records one accepted write to a Memory store.
type Commit struct {
	Path    string
	Version string
	Message string
}

// Memory is an in-process Store. The zero value is not usable; call NewMemory.
type Memory struct {
	mu      sync.Mutex
	blobs   map[string]Snapshot
	commits []Commit
	hook    func(path string) error
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{blobs: make(map[string]Snapshot)}
}

// Read implements Store.
func (m *Memory) Read(ctx context.Context, path string) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, &TransportError{Op: "read", Path: path, Err: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.blobs[path]
	if !ok {
		return Snapshot{}, nil
	}
	return Snapshot{Content: append([]byte(nil), s.Content...), Version: s.Version, Exists: true}, nil
}

// Write implements Store.
func (m *Memory) Write(ctx context.Context, path string, content []byte, expectedVersion, message string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &TransportError{Op: "write", Path: path, Err: err}
	}
	m.mu.Lock()
	hook := m.hook
	m.mu.Unlock()
	if hook != nil {
		if err := hook(path); err != nil {
			return "", err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.blobs[path]
	if err := checkVersion(cur.Version, ok, expectedVersion); err != nil {
		return "", err
	}
	v := ContentSHA(content)
	m.blobs[path] = Snapshot{Content: append([]byte(nil), content...), Version: v, Exists: true}
	m.commits = append(m.commits, Commit{Path: path, Version: v, Message: message})
	return v, nil
}

// SetBeforeWrite installs fn to run before each write is applied, or clears
// it when fn is nil. fn runs without the store lock held, so it may call Put
// to race a concurrent writer. A non-nil error from fn fails the write.
func (m *Memory) SetBeforeWrite(fn func(path string) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hook = fn
}

// Put seeds path with content unconditionally and returns its version.
func (m *Memory) Put(path string, content []byte) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := ContentSHA(content)
	m.blobs[path] = Snapshot{Content: append([]byte(nil), content...), Version: v, Exists: true}
	return v
}

// Commits returns a copy of the accepted writes in order.
func (m *Memory) Commits() []Commit {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Commit(nil), m.commits...)
}
