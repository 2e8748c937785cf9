// Package core owns the schedule records and the rules for changing them.
//
// Overview
//
// The collection of class schedule entries is a single JSON array kept in a
// versioned blob (see package blob). Repository is the only way to read or
// change it; it never caches the collection between calls.
//
// Read-Modify-Write
//
// Each mutating operation runs strictly in sequence:
//
//	read blob (content + version) -> decode -> mutate -> encode -> conditional write
//
// The version read at the start is the precondition of the write. If another
// writer got there first, the store rejects the write with
// blob.ErrVersionConflict and the collection is left as the other writer
// committed it. Repository makes exactly one write attempt; the caller decides
// whether to re-issue the request.
//
// Validation
//
// Validate checks class, day, subject, teacher, both clock times and their
// ordering, and reports every violation in one *ValidationError. Validation
// and the id checks run before any I/O.
//
// Inputs
//
// Input is a closed union of CreateInput and UpdateInput. Update replaces the
// stored record wholesale; there is no partial-field merge.
//
// Errors
//
//   - *ValidationError, ErrMissingIdentifier: caller mistakes, no I/O done.
//   - ErrNotFound: no record with the requested id.
//   - ErrCorruptCollection: the blob is not a JSON array of records.
//   - blob errors: propagated unchanged, wrapped with the operation name.
package core
