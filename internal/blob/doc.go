// Package blob reads and conditionally writes a single named blob held by a
// versioned file host.
//
// Model
//
// A blob is an opaque byte string addressed by path. Every read returns the
// content together with a version token identifying that exact content. A
// write must present the token observed at read time; the store rejects it
// with ErrVersionConflict when the blob has moved on since. An empty token is
// only accepted when the blob does not exist yet.
//
// Backends
//
//   - GitHub: the GitHub contents API; the token is the git blob sha.
//   - Bolt:   a local bbolt file; compare-and-swap inside one transaction.
//   - Redis:  a hash per blob; compare-and-swap with WATCH/MULTI.
//   - Memory: an in-process fake for tests and throwaway runs.
//
// Non-GitHub backends compute tokens with ContentSHA so that tokens have the
// same shape regardless of backend.
//
// Error Model
//
// Failures are distinct so that callers can decide between retrying from a
// fresh read (ErrVersionConflict) and giving up (ErrAuth, *TransportError,
// *MalformedResponseError, *StatusError). A missing blob on Read is not an
// error: Snapshot.Exists is false.
package blob
