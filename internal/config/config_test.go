package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
}

func TestFromLookupGitHubDefaults(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{
		"GITHUB_TOKEN": "ghp_x",
		"GITHUB_REPO":  "sekolah/jadwal-data",
	}))
	if err != nil {
		t.Fatalf("FromLookup: %v", err)
	}
	if cfg.Backend != BackendGitHub || cfg.GitHub.Owner != "sekolah" || cfg.GitHub.Repo != "jadwal-data" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.GitHub.Branch != DefaultBranch || cfg.GitHub.APIURL != DefaultAPIURL || cfg.BlobPath != DefaultBlobPath {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.ListenAddr != DefaultListenAddr || cfg.CORSOrigin != DefaultCORSOrigin {
		t.Fatalf("server defaults not applied: %+v", cfg)
	}
}

func TestFromLookupExplicitOwnerWins(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{
		"GITHUB_TOKEN": "ghp_x",
		"GITHUB_OWNER": "yayasan",
		"GITHUB_REPO":  "sekolah/jadwal-data",
	}))
	if err != nil {
		t.Fatalf("FromLookup: %v", err)
	}
	if cfg.GitHub.Owner != "yayasan" || cfg.GitHub.Repo != "jadwal-data" {
		t.Fatalf("github = %+v", cfg.GitHub)
	}
}

func TestFromLookupReportsAllProblems(t *testing.T) {
	_, err := FromLookup(lookupFrom(map[string]string{}))
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"GITHUB_TOKEN", "GITHUB_OWNER", "GITHUB_REPO is required"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestFromLookupBackends(t *testing.T) {
	tests := []struct {
		env     map[string]string
		wantErr bool
	}{
		{map[string]string{"STORE_BACKEND": "memory"}, false},
		{map[string]string{"STORE_BACKEND": "BOLT"}, false},
		{map[string]string{"STORE_BACKEND": "redis"}, true},
		{map[string]string{"STORE_BACKEND": "redis", "REDIS_ADDR": "localhost:6379", "REDIS_DB": "2"}, false},
		{map[string]string{"STORE_BACKEND": "redis", "REDIS_ADDR": "localhost:6379", "REDIS_DB": "two"}, true},
		{map[string]string{"STORE_BACKEND": "s3"}, true},
		{map[string]string{"STORE_BACKEND": "memory", "JADWAL_PATH": "data/"}, true},
	}
	for _, tt := range tests {
		_, err := FromLookup(lookupFrom(tt.env))
		if (err != nil) != tt.wantErr {
			t.Errorf("FromLookup(%v) error = %v, wantErr %v", tt.env, err, tt.wantErr)
		}
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "STORE_BACKEND=bolt\nBOLT_PATH=" + filepath.Join(dir, "x.db") + "\nJADWAL_PATH=jadwal/data.json\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"STORE_BACKEND", "BOLT_PATH", "JADWAL_PATH"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := Load(path, filepath.Join(dir, "missing.env"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend != BackendBolt || cfg.BlobPath != "jadwal/data.json" {
		t.Fatalf("cfg = %+v", cfg)
	}
}
