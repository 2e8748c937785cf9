// Package api exposes the schedule records over HTTP.
//
// Separation of Concerns
//
// The api package defines public JSON types (decoupled from core), maps
// request bodies onto core.CreateInput / core.UpdateInput and core errors onto
// status codes, and hosts a gin engine behind a plain http.Server. The core
// package remains unaware of HTTP or JSON request shapes.
//
// Versioning
//
// All routes are versioned under /v1. Non-breaking additions extend types,
// while breaking changes require a new prefix (/v2).
//
// Server
//
// NewServer wires handlers and configures timeouts. Start() runs
// ListenAndServe() in a goroutine; Stop() performs graceful shutdown.
// Middleware recovers panics, logs method/path/status/duration through slog
// and sets CORS headers, answering OPTIONS preflights with 204.
//
// Error Model
//
// APIError carries a message, optional validation details, a retryable flag
// and an RFC3339 timestamp.
//
//   - 400: validation failures (every problem listed), missing id, bad JSON
//   - 404: unknown schedule id
//   - 409: the blob changed between read and write (retryable)
//   - 502: the blob store is unreachable, rejects credentials or misbehaves
//
// Current Endpoints
//
//   - GET    /v1/healthz
//   - GET    /v1/status            store probe and uptime
//   - GET    /v1/jadwal            list, or one record with ?id=
//   - GET    /v1/jadwal/:id
//   - GET    /v1/jadwal/export     xlsx download
//   - POST   /v1/jadwal            create
//   - PUT    /v1/jadwal[/:id]      replace (id from path, ?id= or body)
//   - DELETE /v1/jadwal[/:id]      delete (id from path or ?id=)
package api
