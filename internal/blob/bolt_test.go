package blob

import (
	"context"
	"path/filepath"
	"testing"
)

func TestBoltConditionalWrites(t *testing.T) {
	b, err := OpenBolt(filepath.Join(t.TempDir(), "nested", "jadwal.db"), nil)
	if err != nil {
		t.Fatalf("OpenBolt: %v", err)
	}
	defer b.Close()
	exerciseConditionalWrites(t, b)
}

func TestBoltPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jadwal.db")
	ctx := context.Background()

	b, err := OpenBolt(path, nil)
	if err != nil {
		t.Fatalf("OpenBolt: %v", err)
	}
	v, err := b.Write(ctx, "data/jadwal.json", []byte(`[{"id":"x"}]`), "", "create")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	b, err = OpenBolt(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer b.Close()
	snap, err := b.Read(ctx, "data/jadwal.json")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if snap.Version != v || string(snap.Content) != `[{"id":"x"}]` {
		t.Fatalf("reopened snapshot = %+v", snap)
	}
}
