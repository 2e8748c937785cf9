// Package probe contains active checks of upstream dependencies.
//
// # Overview
//
// Probes accept a context, enforce their own deadline, record per-step
// latencies and return explicit errors without retries or background
// goroutines.
//
// # Store Probe
//
// CheckStore performs one bounded read of the schedule blob and reports:
//   - Reachable:   the store answered (any answer, including "not found").
//   - Exists:      the blob is present.
//   - Version:     the version token at probe time.
//   - Records:     number of array elements, or -1 when undecodable.
//   - LatenciesMs: "read" in milliseconds.
//   - Warnings:    non-fatal observations (missing blob, bad content).
//
// # Error Model
//
// Store failures return a non-nil error; the summary still carries latency
// and warnings. The probe never writes. It is safe to call concurrently.
package probe
