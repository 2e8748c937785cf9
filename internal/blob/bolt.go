package blob

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var boltBucket = []byte("blobs")

// boltEntry is the value stored under each path key.
type boltEntry struct {
	Content   []byte    `json:"content"`
	SHA       string    `json:"sha"`
	Message   string    `json:"message"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Bolt is a Store backed by a local bbolt file.
type Bolt struct {
	db     *bbolt.DB
	logger *slog.Logger
}

// OpenBolt opens (or creates) the bbolt file at path.
func OpenBolt(path string, logger *slog.Logger) (*Bolt, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("blob: create bolt dir: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("blob: open bolt %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("blob: create bolt bucket: %w", err)
	}
	logger.Info("blob: bolt store ready", "path", path)
	return &Bolt{db: db, logger: logger}, nil
}

// Close releases the underlying file.
func (b *Bolt) Close() error {
	return b.db.Close()
}

// Read implements Store.
func (b *Bolt) Read(ctx context.Context, path string) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, &TransportError{Op: "read", Path: path, Err: err}
	}
	var snap Snapshot
	err := b.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(boltBucket).Get([]byte(path))
		if raw == nil {
			return nil
		}
		var e boltEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			return &MalformedResponseError{Op: "read", Body: append([]byte(nil), raw...), Err: err}
		}
		snap = Snapshot{Content: e.Content, Version: e.SHA, Exists: true}
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Write implements Store. The version check and the put share one
// read-write transaction, which bbolt serializes.
func (b *Bolt) Write(ctx context.Context, path string, content []byte, expectedVersion, message string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &TransportError{Op: "write", Path: path, Err: err}
	}
	sha := ContentSHA(content)
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(boltBucket)
		var cur boltEntry
		raw := bucket.Get([]byte(path))
		if raw != nil {
			if err := json.Unmarshal(raw, &cur); err != nil {
				return &MalformedResponseError{Op: "write", Body: append([]byte(nil), raw...), Err: err}
			}
		}
		if err := checkVersion(cur.SHA, raw != nil, expectedVersion); err != nil {
			return err
		}
		data, err := json.Marshal(boltEntry{Content: content, SHA: sha, Message: message, UpdatedAt: time.Now().UTC()})
		if err != nil {
			return err
		}
		return bucket.Put([]byte(path), data)
	})
	if err != nil {
		return "", err
	}
	b.logger.Debug("blob: bolt write", "path", path, "sha", sha, "message", message)
	return sha, nil
}
