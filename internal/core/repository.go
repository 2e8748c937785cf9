package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/klandestin-s/school-man3/internal/blob"
)

// DefaultPath is where the collection lives inside the blob store.
const DefaultPath = "data/jadwal.json"

// RepositoryOptions configures a Repository.
type RepositoryOptions struct {
	// Path of the blob holding the collection. Defaults to DefaultPath.
	Path string
	// NewID generates record identifiers. Defaults to NewID.
	NewID  func() string
	Logger *slog.Logger
}

// Repository implements schedule CRUD on top of a versioned blob.
//
// Every operation reads the blob afresh, mutates the decoded collection in
// memory and writes it back conditionally on the version seen by that read.
// Nothing is cached between calls and no write is retried: a lost race
// surfaces as blob.ErrVersionConflict.
type Repository struct {
	store  blob.Store
	path   string
	newID  func() string
	logger *slog.Logger
}

// NewRepository constructs a Repository over store.
func NewRepository(store blob.Store, opts RepositoryOptions) *Repository {
	if store == nil {
		panic("core.NewRepository: store is nil")
	}
	if opts.Path == "" {
		opts.Path = DefaultPath
	}
	if opts.NewID == nil {
		opts.NewID = NewID
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Repository{store: store, path: opts.Path, newID: opts.NewID, logger: opts.Logger}
}

// Path returns the blob path backing the repository.
func (r *Repository) Path() string { return r.path }

// snapshot is the decoded collection plus the version it was read at.
type snapshot struct {
	records []Record
	version string
}

// List returns every record in insertion order. An absent or blank blob
// yields an empty, non-nil slice.
func (r *Repository) List(ctx context.Context) ([]Record, error) {
	snap, err := r.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("core: list schedules: %w", err)
	}
	return snap.records, nil
}

// Get returns the record with id.
func (r *Repository) Get(ctx context.Context, id string) (Record, error) {
	if id == "" {
		return Record{}, ErrMissingIdentifier
	}
	snap, err := r.load(ctx)
	if err != nil {
		return Record{}, fmt.Errorf("core: get schedule %s: %w", id, err)
	}
	i := indexOf(snap.records, id)
	if i < 0 {
		return Record{}, fmt.Errorf("core: get schedule %s: %w", id, ErrNotFound)
	}
	return snap.records[i], nil
}

// Create validates in, assigns a fresh id and appends the record.
func (r *Repository) Create(ctx context.Context, in CreateInput) (Record, error) {
	if err := Validate(in.Fields); err != nil {
		return Record{}, err
	}
	snap, err := r.load(ctx)
	if err != nil {
		return Record{}, fmt.Errorf("core: create schedule: %w", err)
	}

	rec := normalize(in.Fields).record(r.newID())
	records := append(snap.records, rec)
	if err := r.save(ctx, records, snap.version, "Add jadwal "+rec.ID); err != nil {
		return Record{}, fmt.Errorf("core: create schedule: %w", err)
	}
	r.logger.Info("core: schedule created", "id", rec.ID, "class", rec.Class, "day", rec.Day)
	return rec, nil
}

// Update replaces the record with in.ID by in.Fields. No field merging is
// done; the stored record ends up exactly equal to the input.
func (r *Repository) Update(ctx context.Context, in UpdateInput) (Record, error) {
	if in.ID == "" {
		return Record{}, ErrMissingIdentifier
	}
	if err := Validate(in.Fields); err != nil {
		return Record{}, err
	}
	snap, err := r.load(ctx)
	if err != nil {
		return Record{}, fmt.Errorf("core: update schedule %s: %w", in.ID, err)
	}
	i := indexOf(snap.records, in.ID)
	if i < 0 {
		return Record{}, fmt.Errorf("core: update schedule %s: %w", in.ID, ErrNotFound)
	}

	rec := normalize(in.Fields).record(in.ID)
	snap.records[i] = rec
	if err := r.save(ctx, snap.records, snap.version, "Update jadwal "+rec.ID); err != nil {
		return Record{}, fmt.Errorf("core: update schedule %s: %w", in.ID, err)
	}
	r.logger.Info("core: schedule updated", "id", rec.ID)
	return rec, nil
}

// Delete removes the record with id and returns it.
func (r *Repository) Delete(ctx context.Context, id string) (Record, error) {
	if id == "" {
		return Record{}, ErrMissingIdentifier
	}
	snap, err := r.load(ctx)
	if err != nil {
		return Record{}, fmt.Errorf("core: delete schedule %s: %w", id, err)
	}
	i := indexOf(snap.records, id)
	if i < 0 {
		return Record{}, fmt.Errorf("core: delete schedule %s: %w", id, ErrNotFound)
	}

	removed := snap.records[i]
	records := append(snap.records[:i:i], snap.records[i+1:]...)
	if err := r.save(ctx, records, snap.version, "Delete jadwal "+id); err != nil {
		return Record{}, fmt.Errorf("core: delete schedule %s: %w", id, err)
	}
	r.logger.Info("core: schedule deleted", "id", id)
	return removed, nil
}

// Apply dispatches a CreateInput or UpdateInput.
func (r *Repository) Apply(ctx context.Context, in Input) (Record, error) {
	switch v := in.(type) {
	case CreateInput:
		return r.Create(ctx, v)
	case UpdateInput:
		return r.Update(ctx, v)
	default:
		return Record{}, fmt.Errorf("core: unsupported input %T", in)
	}
}

func (r *Repository) load(ctx context.Context) (snapshot, error) {
	s, err := r.store.Read(ctx, r.path)
	if err != nil {
		return snapshot{}, err
	}
	records, err := decodeCollection(s.Content)
	if err != nil {
		r.logger.Error("core: cannot decode collection", "path", r.path, "version", s.Version, "error", err)
		return snapshot{}, err
	}
	return snapshot{records: records, version: s.Version}, nil
}

func (r *Repository) save(ctx context.Context, records []Record, version, message string) error {
	content, err := encodeCollection(records)
	if err != nil {
		return err
	}
	newVersion, err := r.store.Write(ctx, r.path, content, version, message)
	if err != nil {
		r.logger.Warn("core: write rejected", "path", r.path, "version", version, "error", err)
		return err
	}
	r.logger.Debug("core: collection written", "path", r.path, "from", version, "to", newVersion, "records", len(records))
	return nil
}

func decodeCollection(content []byte) ([]Record, error) {
	records := []Record{}
	if len(bytes.TrimSpace(content)) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(content, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptCollection, err)
	}
	if records == nil {
		// "null" in the blob.
		records = []Record{}
	}
	return records, nil
}

func encodeCollection(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	buf, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(buf, '\n'), nil
}

func indexOf(records []Record, id string) int {
	for i, rec := range records {
		if rec.ID == id {
			return i
		}
	}
	return -1
}
