package api

import (
	"time"

	"github.com/klandestin-s/school-man3/internal/core"
	"github.com/klandestin-s/school-man3/internal/probe"
)

// FromRecord converts a core.Record to its public view.
func FromRecord(r core.Record) ScheduleView {
	return ScheduleView{
		ID:        r.ID,
		Class:     r.Class,
		Day:       r.Day,
		Subject:   r.Subject,
		Teacher:   r.Teacher,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
	}
}

// FromRecords converts a collection, never returning nil so that an empty
// collection encodes as [].
func FromRecords(rs []core.Record) []ScheduleView {
	out := make([]ScheduleView, 0, len(rs))
	for _, r := range rs {
		out = append(out, FromRecord(r))
	}
	return out
}

// ToCreateInput maps a request body to a create mutation. Any id in the body
// is discarded; ids are assigned by the repository.
func (r ScheduleRequest) ToCreateInput() core.CreateInput {
	return core.CreateInput{Fields: r.fields()}
}

// ToUpdateInput maps a request body to an update mutation. A non-empty
// pathID takes precedence over the id in the body.
func (r ScheduleRequest) ToUpdateInput(pathID string) core.UpdateInput {
	id := r.ID
	if pathID != "" {
		id = pathID
	}
	return core.UpdateInput{ID: id, Fields: r.fields()}
}

func (r ScheduleRequest) fields() core.Fields {
	return core.Fields{
		Class:     r.Class,
		Day:       r.Day,
		Subject:   r.Subject,
		Teacher:   r.Teacher,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
	}
}

// FromProbeSummary converts probe.Summary to the public ProbeView.
// Keeps slice/map fields immutable by cloning.
func FromProbeSummary(p probe.Summary) ProbeView {
	var lastChecked string
	if !p.LastChecked.IsZero() {
		lastChecked = p.LastChecked.UTC().Format(time.RFC3339)
	}
	return ProbeView{
		Reachable:   p.Reachable,
		Exists:      p.Exists,
		Path:        p.Path,
		Version:     p.Version,
		Records:     p.Records,
		LatenciesMs: cloneLatencies(p.LatenciesMs),
		LastChecked: lastChecked,
		Warnings:    append([]string(nil), p.Warnings...),
	}
}

func cloneLatencies(in map[string]int64) map[string]int64 {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
