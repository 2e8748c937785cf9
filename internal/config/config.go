// Package config loads process configuration from the environment.
//
// Values come from the real environment, optionally seeded from a dotenv
// file. Nothing is kept in package-level state: Load returns a Config value
// that callers pass on explicitly.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Backend names accepted in STORE_BACKEND.
const (
	BackendGitHub = "github"
	BackendBolt   = "bolt"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config is the complete runtime configuration.
type Config struct {
	Backend    string
	BlobPath   string
	ListenAddr string
	CORSOrigin string
	LogLevel   string

	GitHub GitHub
	Bolt   Bolt
	Redis  Redis
}

// GitHub holds the contents API settings.
type GitHub struct {
	Token          string
	Owner          string
	Repo           string
	Branch         string
	APIURL         string
	CommitterName  string
	CommitterEmail string
}

// Bolt holds the local file store settings.
type Bolt struct {
	Path string
}

// Redis holds the shared store settings.
type Redis struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Defaults.
const (
	DefaultBlobPath   = "data/jadwal.json"
	DefaultBoltPath   = "data/jadwal.db"
	DefaultBranch     = "main"
	DefaultAPIURL     = "https://api.github.com"
	DefaultListenAddr = "127.0.0.1:8787"
	DefaultCORSOrigin = "*"
)

// Load reads envFiles (if present) into the environment without overriding
// variables that are already set, then builds a Config from the environment.
// Missing env files are ignored.
func Load(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		if f == "" {
			continue
		}
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an arbitrary lookup function.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	cfg := Config{
		Backend:    strings.ToLower(get("STORE_BACKEND", BackendGitHub)),
		BlobPath:   get("JADWAL_PATH", DefaultBlobPath),
		ListenAddr: get("LISTEN_ADDR", DefaultListenAddr),
		CORSOrigin: get("CORS_ORIGIN", DefaultCORSOrigin),
		LogLevel:   strings.ToLower(get("LOG_LEVEL", "info")),
		GitHub: GitHub{
			Token:          get("GITHUB_TOKEN", ""),
			Owner:          get("GITHUB_OWNER", ""),
			Repo:           get("GITHUB_REPO", ""),
			Branch:         get("GITHUB_BRANCH", DefaultBranch),
			APIURL:         get("GITHUB_API_URL", DefaultAPIURL),
			CommitterName:  get("GITHUB_COMMITTER_NAME", ""),
			CommitterEmail: get("GITHUB_COMMITTER_EMAIL", ""),
		},
		Bolt: Bolt{Path: get("BOLT_PATH", DefaultBoltPath)},
		Redis: Redis{
			Addr:     get("REDIS_ADDR", ""),
			Password: get("REDIS_PASSWORD", ""),
			Prefix:   get("REDIS_PREFIX", ""),
		},
	}

	// GITHUB_REPO may carry the owner as "owner/repo".
	if owner, repo, ok := strings.Cut(cfg.GitHub.Repo, "/"); ok {
		if cfg.GitHub.Owner == "" {
			cfg.GitHub.Owner = owner
		}
		cfg.GitHub.Repo = repo
	}

	if raw := get("REDIS_DB", ""); raw != "" {
		db, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("config: REDIS_DB: %w", err)
		}
		cfg.Redis.DB = db
	}

	return cfg, cfg.Validate()
}

// Validate reports every missing or inconsistent setting for the selected
// backend in a single error.
func (c Config) Validate() error {
	var problems []string
	switch c.Backend {
	case BackendGitHub:
		if c.GitHub.Token == "" {
			problems = append(problems, "GITHUB_TOKEN is required")
		}
		if c.GitHub.Owner == "" {
			problems = append(problems, "GITHUB_OWNER (or GITHUB_REPO=owner/repo) is required")
		}
		if c.GitHub.Repo == "" {
			problems = append(problems, "GITHUB_REPO is required")
		}
	case BackendBolt:
		if c.Bolt.Path == "" {
			problems = append(problems, "BOLT_PATH is required")
		}
	case BackendRedis:
		if c.Redis.Addr == "" {
			problems = append(problems, "REDIS_ADDR is required")
		}
	case BackendMemory:
	default:
		problems = append(problems, fmt.Sprintf("STORE_BACKEND %q is not one of github, bolt, redis, memory", c.Backend))
	}
	if c.BlobPath == "" || strings.HasSuffix(c.BlobPath, "/") {
		problems = append(problems, "JADWAL_PATH must name a file")
	}
	if len(problems) > 0 {
		return errors.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}
