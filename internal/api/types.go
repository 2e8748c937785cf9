package api

import "time"

// Public JSON types returned by the API. They are decoupled from the core
// types so that internal refactors do not break clients.

// ScheduleRequest is the body accepted by POST and PUT /v1/jadwal.
// ID is ignored on create and required on update (unless given in the URL).
type ScheduleRequest struct {
	ID        string `json:"id,omitempty"`
	Class     string `json:"class"`
	Day       string `json:"day"`
	Subject   string `json:"subject"`
	Teacher   string `json:"teacher"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// ScheduleView is one record as returned to clients.
type ScheduleView struct {
	ID        string `json:"id"`
	Class     string `json:"class"`
	Day       string `json:"day"`
	Subject   string `json:"subject"`
	Teacher   string `json:"teacher"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// StatusResponse is the payload for GET /v1/status.
type StatusResponse struct {
	Backend     string    `json:"backend"`
	StartedAt   string    `json:"started_at"`
	UptimeSec   int64     `json:"uptime_sec"`
	LastProbe   ProbeView `json:"last_probe"`
	GeneratedAt string    `json:"generated_at"`
}

// ProbeView summarizes the last store probe.
type ProbeView struct {
	Reachable   bool             `json:"reachable"`
	Exists      bool             `json:"exists"`
	Path        string           `json:"path"`
	Version     string           `json:"version,omitempty"`
	Records     int              `json:"records"`
	LatenciesMs map[string]int64 `json:"latencies_ms"`
	LastChecked string           `json:"last_checked"`
	Warnings    []string         `json:"warnings"`
}

// APIError is the standard error payload.
type APIError struct {
	Error     string   `json:"error"`
	Details   []string `json:"details,omitempty"`   // validation problems
	Retryable bool     `json:"retryable,omitempty"` // true for version conflicts
	Timestamp string   `json:"timestamp"`           // RFC3339
}

// TimeNow abstracts time for tests; overridden in tests.
var TimeNow = func() time.Time { return time.Now() }
