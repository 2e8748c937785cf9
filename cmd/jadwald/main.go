package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/klandestin-s/school-man3/internal/api"
	"github.com/klandestin-s/school-man3/internal/blob"
	"github.com/klandestin-s/school-man3/internal/config"
	"github.com/klandestin-s/school-man3/internal/core"
)

func main() {
	var (
		addr         = flag.String("listen", "", "HTTP listen address (overrides LISTEN_ADDR)")
		shutdownSecs = flag.Int("shutdown-secs", 5, "graceful shutdown timeout in seconds")
		envFile      = flag.String("env-file", ".env", "dotenv file to load")
	)
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		slog.Error("jadwald: invalid configuration", "error", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)
	gin.SetMode(gin.ReleaseMode)

	store, closeStore, err := openStore(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("jadwald: cannot open store", "backend", cfg.Backend, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	repo := core.NewRepository(store, core.RepositoryOptions{
		Path:   cfg.BlobPath,
		Logger: logger,
	})

	srv := api.NewServer(repo, store, api.ServerOptions{
		Addr:            cfg.ListenAddr,
		ShutdownTimeout: time.Duration(*shutdownSecs) * time.Second,
		Backend:         cfg.Backend,
		CORSOrigin:      cfg.CORSOrigin,
		Logger:          logger,
	})
	srv.Start()

	// Handle shutdown signals
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	sig := <-signals
	logger.Info("jadwald: shutting down", "signal", sig.String())

	if err := srv.Stop(context.Background()); err != nil {
		logger.Error("jadwald: graceful shutdown error", "error", err)
	}
	logger.Info("jadwald: stopped")
}

// openStore builds the blob store selected by cfg.Backend. The returned
// close function is always non-nil.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (blob.Store, func(), error) {
	noop := func() {}
	switch cfg.Backend {
	case config.BackendGitHub:
		gh, err := blob.NewGitHub(blob.GitHubConfig{
			Token:          cfg.GitHub.Token,
			Owner:          cfg.GitHub.Owner,
			Repo:           cfg.GitHub.Repo,
			Branch:         cfg.GitHub.Branch,
			BaseURL:        cfg.GitHub.APIURL,
			CommitterName:  cfg.GitHub.CommitterName,
			CommitterEmail: cfg.GitHub.CommitterEmail,
			Logger:         logger,
		})
		if err != nil {
			return nil, noop, err
		}
		logger.Info("jadwald: using github store", "repo", cfg.GitHub.Owner+"/"+cfg.GitHub.Repo, "branch", cfg.GitHub.Branch, "path", cfg.BlobPath)
		return gh, noop, nil
	case config.BackendBolt:
		b, err := blob.OpenBolt(cfg.Bolt.Path, logger)
		if err != nil {
			return nil, noop, err
		}
		return b, func() { _ = b.Close() }, nil
	case config.BackendRedis:
		r, err := blob.NewRedis(ctx, blob.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
			Logger:   logger,
		})
		if err != nil {
			return nil, noop, err
		}
		return r, func() { _ = r.Close() }, nil
	case config.BackendMemory:
		logger.Warn("jadwald: using in-memory store; data is lost on exit")
		return blob.NewMemory(), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
