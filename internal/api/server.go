package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/klandestin-s/school-man3/internal/blob"
	"github.com/klandestin-s/school-man3/internal/core"
	"github.com/klandestin-s/school-man3/internal/probe"
)

// Constants for route prefixing. Versioning is explicit to allow non-breaking additions.
const (
	APIVersion     = "v1"
	DefaultAddress = "127.0.0.1:8787"
)

// ServerOptions configures the HTTP server.
type ServerOptions struct {
	Addr              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration

	// Backend is reported by /v1/status.
	Backend string
	// CORSOrigin is sent as Access-Control-Allow-Origin. Defaults to "*".
	CORSOrigin string
	// ProbeTimeout bounds the store probe run by /v1/status.
	ProbeTimeout time.Duration
	// ProbeMaxAge is how long /v1/status reuses the last probe before
	// reading the store again. Defaults to 10s; negative always probes.
	ProbeMaxAge time.Duration

	Logger *slog.Logger
}

// Server hosts the HTTP API.
type Server struct {
	http   *http.Server
	engine *gin.Engine
	repo   *core.Repository
	store  blob.Store
	logger *slog.Logger
	opts   ServerOptions

	mu        sync.RWMutex
	startedAt time.Time
	lastProbe probe.Summary
	probedAt  time.Time
}

// NewServer constructs a new API server over repo. store is the same store
// repo writes to and is used only for health probes.
// The server does not start listening until Start is called.
func NewServer(repo *core.Repository, store blob.Store, opts ServerOptions) *Server {
	if repo == nil {
		panic("api.NewServer: repository is nil")
	}
	if store == nil {
		panic("api.NewServer: store is nil")
	}
	if opts.Addr == "" {
		opts.Addr = DefaultAddress
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 10 * time.Second
	}
	if opts.ReadHeaderTimeout == 0 {
		opts.ReadHeaderTimeout = 2 * time.Second
	}
	// Writes wait on two remote round-trips.
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 30 * time.Second
	}
	if opts.IdleTimeout == 0 {
		opts.IdleTimeout = 60 * time.Second
	}
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}
	if opts.ProbeMaxAge == 0 {
		opts.ProbeMaxAge = 10 * time.Second
	}
	if opts.CORSOrigin == "" {
		opts.CORSOrigin = "*"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), withRequestLog(opts.Logger), withCORS(opts.CORSOrigin))

	s := &Server{
		engine:    engine,
		repo:      repo,
		store:     store,
		logger:    opts.Logger,
		opts:      opts,
		startedAt: TimeNow(),
		http: &http.Server{
			Addr:              opts.Addr,
			Handler:           engine,
			ReadTimeout:       opts.ReadTimeout,
			ReadHeaderTimeout: opts.ReadHeaderTimeout,
			WriteTimeout:      opts.WriteTimeout,
			IdleTimeout:       opts.IdleTimeout,
			ErrorLog:          slog.NewLogLogger(opts.Logger.Handler(), slog.LevelError),
			BaseContext: func(l net.Listener) context.Context {
				return context.Background()
			},
		},
	}

	// Routes
	v1 := engine.Group("/" + APIVersion)
	v1.GET("/healthz", s.handleHealthz)
	v1.GET("/status", s.handleStatus)

	jadwal := v1.Group("/jadwal")
	jadwal.GET("", s.handleList)
	jadwal.GET("/export", s.handleExport)
	jadwal.GET("/:id", s.handleGet)
	jadwal.POST("", s.handleCreate)
	jadwal.PUT("", s.handleUpdate)
	jadwal.PUT("/:id", s.handleUpdate)
	jadwal.DELETE("", s.handleDelete)
	jadwal.DELETE("/:id", s.handleDelete)

	engine.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, "route not found")
	})

	return s
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Start begins serving HTTP in a background goroutine.
// It returns immediately; use Stop for graceful shutdown.
func (s *Server) Start() {
	go func() {
		s.logger.Info("api: listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api: ListenAndServe failed", "error", err)
		}
	}()
}

// Stop gracefully shuts down the server, waiting up to ShutdownTimeout.
func (s *Server) Stop(ctx context.Context) error {
	timeout := s.opts.ShutdownTimeout
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return s.http.Shutdown(ctx)
}

// handleHealthz is a simple liveness endpoint. It does not touch the store.
func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": TimeNow().UTC().Format(time.RFC3339),
	})
}

// handleStatus reports the store probe with uptime. A probe younger than
// ProbeMaxAge is reused. A failed probe still answers 200 with
// reachable=false so that dashboards can render it.
func (s *Server) handleStatus(c *gin.Context) {
	now := TimeNow()
	summary, ok := s.cachedProbe(now)
	if !ok {
		var err error
		summary, err = probe.CheckStore(c.Request.Context(), s.store, s.repo.Path(), s.opts.ProbeTimeout)
		if err != nil {
			s.logger.Warn("api: store probe failed", "error", err)
		}
		s.mu.Lock()
		s.lastProbe, s.probedAt = summary, now
		s.mu.Unlock()
	}

	s.mu.RLock()
	started := s.startedAt
	s.mu.RUnlock()

	c.JSON(http.StatusOK, StatusResponse{
		Backend:     s.opts.Backend,
		StartedAt:   started.UTC().Format(time.RFC3339),
		UptimeSec:   int64(now.Sub(started).Seconds()),
		LastProbe:   FromProbeSummary(summary),
		GeneratedAt: now.UTC().Format(time.RFC3339),
	})
}

// cachedProbe returns the last probe if it is still fresh at now.
func (s *Server) cachedProbe(now time.Time) (probe.Summary, bool) {
	if s.opts.ProbeMaxAge < 0 {
		return probe.Summary{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.probedAt.IsZero() || now.Sub(s.probedAt) >= s.opts.ProbeMaxAge {
		return probe.Summary{}, false
	}
	return s.lastProbe, true
}

// withRequestLog logs method, path, status and duration of every request.
func withRequestLog(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := TimeNow()
		c.Next()
		logger.Info("http",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"ms", time.Since(start).Milliseconds(),
			"ua", c.Request.UserAgent(),
		)
	}
}

// withCORS allows browser clients from origin and answers preflights.
func withCORS(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
