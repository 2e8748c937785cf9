package blob

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Store keeping each blob in a hash under Prefix+path.
type Redis struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// RedisConfig configures a Redis store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// Prefix is prepended to blob paths to form keys. Defaults to "jadwal:blob:".
	Prefix string
	Logger *slog.Logger
}

// NewRedis connects to Redis and verifies the connection with PING.
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	if cfg.Addr == "" {
		return nil, errors.New("blob: redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, &TransportError{Op: "ping", Path: cfg.Addr, Err: err}
	}
	return newRedisWithClient(client, cfg.Prefix, cfg.Logger), nil
}

func newRedisWithClient(client *redis.Client, prefix string, logger *slog.Logger) *Redis {
	if prefix == "" {
		prefix = "jadwal:blob:"
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("blob: redis store ready", "addr", client.Options().Addr, "prefix", prefix)
	return &Redis{client: client, prefix: prefix, logger: logger}
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Read implements Store.
func (r *Redis) Read(ctx context.Context, path string) (Snapshot, error) {
	vals, err := r.client.HMGet(ctx, r.prefix+path, "content", "sha").Result()
	if err != nil {
		return Snapshot{}, &TransportError{Op: "read", Path: path, Err: err}
	}
	if vals[1] == nil {
		return Snapshot{}, nil
	}
	sha, ok := vals[1].(string)
	if !ok {
		return Snapshot{}, &MalformedResponseError{Op: "read", Err: fmt.Errorf("sha field has type %T", vals[1])}
	}
	content, _ := vals[0].(string)
	return Snapshot{Content: []byte(content), Version: sha, Exists: true}, nil
}

// Write implements Store. The sha check runs under WATCH; a concurrent
// modification aborts the MULTI and is reported as ErrVersionConflict.
func (r *Redis) Write(ctx context.Context, path string, content []byte, expectedVersion, message string) (string, error) {
	key := r.prefix + path
	sha := ContentSHA(content)

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.HGet(ctx, key, "sha").Result()
		exists := true
		if errors.Is(err, redis.Nil) {
			exists, cur = false, ""
		} else if err != nil {
			return err
		}
		if err := checkVersion(cur, exists, expectedVersion); err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, key,
				"content", content,
				"sha", sha,
				"message", message,
				"updated_at", time.Now().UTC().Format(time.RFC3339),
			)
			return nil
		})
		return err
	}, key)

	if err != nil {
		return "", mapRedisWriteError(path, err)
	}
	r.logger.Debug("blob: redis write", "key", key, "sha", sha, "message", message)
	return sha, nil
}

// mapRedisWriteError turns an aborted or rejected transaction into
// ErrVersionConflict and anything else into a TransportError.
func mapRedisWriteError(path string, err error) error {
	if errors.Is(err, ErrVersionConflict) || errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("blob: write %s: %w", path, ErrVersionConflict)
	}
	return &TransportError{Op: "write", Path: path, Err: err}
}
