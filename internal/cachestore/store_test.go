// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cachestore

import (
	"database/sql"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/unimatch/internal/index"
	"github.com/pdiddy/unimatch/pkg/types"
)

func sampleSnapshot() *Snapshot {
	return &Snapshot{
		CatalogVersion: "abc123def456",
		Dimension:      4,
		BuiltAt:        time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Warning:        "partial coverage: 1 of 3 records failed to embed (first error: quota)",
		Entries: []index.Entry{
			{
				Record: types.CatalogRecord{
					ID: "c1", Program: "Computer Science", CourseName: "MSc CS",
					Institution: "Maple University", InstitutionType: "Public",
					Country: "Canada", City: "Toronto", Level: "Master's",
					Credential: "MSc", TuitionUSD: 14800, Currency: "CAD",
					GlobalRank: 120, Description: "Research focused.",
				},
				Vector: []float32{0.1, 0.2, 0.3, 0.4},
			},
			{
				Record: types.CatalogRecord{
					ID: "c2", Program: "Physics", CourseName: "BSc Physics",
					Institution: "Other University", Country: "Germany",
				},
				Vector: []float32{0.5, 0.6, 0.7, 0.8},
			},
		},
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "cache.db"))

	want := sampleSnapshot()
	if err := store.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !store.Exists() {
		t.Fatal("cache file should exist after Save")
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.CatalogVersion != want.CatalogVersion {
		t.Errorf("CatalogVersion = %q, want %q", got.CatalogVersion, want.CatalogVersion)
	}
	if got.Dimension != want.Dimension {
		t.Errorf("Dimension = %d, want %d", got.Dimension, want.Dimension)
	}
	if !got.BuiltAt.Equal(want.BuiltAt) {
		t.Errorf("BuiltAt = %v, want %v", got.BuiltAt, want.BuiltAt)
	}
	if got.Warning != want.Warning {
		t.Errorf("Warning = %q, want %q", got.Warning, want.Warning)
	}
	if len(got.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2", len(got.Entries))
	}
	for i := range want.Entries {
		if !reflect.DeepEqual(got.Entries[i].Record, want.Entries[i].Record) {
			t.Errorf("Entries[%d].Record = %+v, want %+v", i, got.Entries[i].Record, want.Entries[i].Record)
		}
		if !reflect.DeepEqual(got.Entries[i].Vector, want.Entries[i].Vector) {
			t.Errorf("Entries[%d].Vector = %v, want %v", i, got.Entries[i].Vector, want.Entries[i].Vector)
		}
	}
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	store := New(filepath.Join(dir, "cache.db"))

	if err := store.Save(sampleSnapshot()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "cache.db.tmp")); !os.IsNotExist(err) {
		t.Error("temporary file should be renamed away after Save")
	}
}

func TestSaveOverwritesLeftoverTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.db")
	// Simulate a crashed earlier build.
	if err := os.WriteFile(path+".tmp", []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := New(path)
	if err := store.Save(sampleSnapshot()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := store.Load(); err != nil {
		t.Fatalf("Load after leftover temp: %v", err)
	}
}

func TestLoadMissingCache(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "absent.db"))
	if _, err := store.Load(); err == nil {
		t.Error("Load of a missing cache should fail")
	}
}

func TestLoadCorruptCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	if err := os.WriteFile(path, []byte("not a database"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(path).Load(); err == nil {
		t.Error("Load of a corrupt cache should fail")
	}
}

func TestLoadRejectsTruncatedVector(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	store := New(path)
	if err := store.Save(sampleSnapshot()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Shrink one blob to a single float. The file stays readable, so only a
	// dimension check catches it.
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("opening cache: %v", err)
	}
	if _, err := db.Exec(`UPDATE vectors SET vec = X'0000803F' WHERE pos = 0`); err != nil {
		t.Fatalf("truncating vector: %v", err)
	}
	db.Close()

	_, err = store.Load()
	if err == nil {
		t.Fatal("Load should reject a vector shorter than the stored dimension")
	}
	if !strings.Contains(err.Error(), "dimension") {
		t.Errorf("error = %v, want dimension mismatch", err)
	}
}

func TestRemove(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "cache.db"))
	if err := store.Save(sampleSnapshot()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := store.Remove(); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if store.Exists() {
		t.Error("cache should be gone after Remove")
	}
	// Idempotent.
	if err := store.Remove(); err != nil {
		t.Errorf("second Remove: %v", err)
	}
}

func TestVectorCodec(t *testing.T) {
	vec := []float32{0, -1.5, 3.25, 1e-7}
	got, err := decodeVector(encodeVector(vec))
	if err != nil {
		t.Fatalf("decodeVector: %v", err)
	}
	if !reflect.DeepEqual(got, vec) {
		t.Errorf("roundtrip = %v, want %v", got, vec)
	}

	if _, err := decodeVector([]byte{1, 2, 3}); err == nil {
		t.Error("odd-length blob should fail to decode")
	}
}
