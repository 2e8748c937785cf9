package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/klandestin-s/school-man3/internal/blob"
)

// DefaultTimeout bounds a store probe when the caller passes zero.
const DefaultTimeout = 5 * time.Second

// Summary is the outcome of one store probe.
type Summary struct {
	Reachable   bool             // the store answered the read
	Exists      bool             // the blob exists at Path
	Path        string           // blob path probed
	Version     string           // version token observed, empty if absent
	Records     int              // decoded record count, -1 if undecodable
	LatenciesMs map[string]int64 // "read"
	LastChecked time.Time
	Warnings    []string
}

// CheckStore reads the blob at path once and reports what it saw.
//
// The returned summary is populated as far as the probe got even when the
// error is non-nil. Decoding problems are warnings, not errors: the store is
// healthy even if the content is not.
func CheckStore(ctx context.Context, store blob.Store, path string, timeout time.Duration) (summary Summary, err error) {
	var (
		warns     []string
		latencies = make(map[string]int64, 1)
	)
	summary = Summary{Path: path, Records: -1}
	// Named results: the deferred fill must reach the returned value.
	defer func() {
		summary.LatenciesMs = latencies
		summary.Warnings = warns
		summary.LastChecked = time.Now()
	}()

	if store == nil {
		return summary, errors.New("probe: nil store")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	t0 := time.Now()
	snap, rerr := store.Read(ctx, path)
	latencies["read"] = millisSince(t0)
	if rerr != nil {
		warns = append(warns, "read failed: "+rerr.Error())
		return summary, fmt.Errorf("probe: read %s: %w", path, rerr)
	}
	summary.Reachable = true
	summary.Exists = snap.Exists
	summary.Version = snap.Version

	if !snap.Exists {
		warns = append(warns, "blob does not exist yet; first write will create it")
		summary.Records = 0
		return summary, nil
	}

	var items []json.RawMessage
	if len(snap.Content) == 0 {
		summary.Records = 0
	} else if err := json.Unmarshal(snap.Content, &items); err != nil {
		warns = append(warns, "content is not a JSON array: "+err.Error())
	} else {
		summary.Records = len(items)
	}
	return summary, nil
}

func millisSince(t time.Time) int64 {
	return time.Since(t).Milliseconds()
}
