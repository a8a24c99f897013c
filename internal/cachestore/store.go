// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cachestore persists the built embedding index as a single SQLite
// file. Writes are atomic: the snapshot is written to a temporary file
// beside the target and renamed into place, so a reader never observes a
// partially written cache. The stored metadata (catalog version, record
// count) lets the lifecycle manager decide reuse-vs-rebuild on restart
// without re-embedding.
package cachestore

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/unimatch/internal/index"
	"github.com/pdiddy/unimatch/pkg/types"
)

// schemaVersion guards the on-disk layout. A mismatch is treated the same
// as a corrupt cache: rebuild.
const schemaVersion = 1

// Snapshot is the persisted form of a ready cache.
type Snapshot struct {
	CatalogVersion string
	Dimension      int
	BuiltAt        time.Time
	Warning        string
	Entries        []index.Entry
}

// Store reads and writes cache snapshots at a fixed path.
type Store struct {
	path string
}

// New returns a Store for the cache file at path.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the cache file location.
func (s *Store) Path() string { return s.path }

// Exists reports whether a cache file is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Remove deletes the cache file. Missing files are not an error.
func (s *Store) Remove() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing cache %s: %w", s.path, err)
	}
	return nil
}

// Save writes snap atomically: a fresh temporary database is populated and
// renamed over the target path.
func (s *Store) Save(snap *Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	tmp := s.path + ".tmp"
	// A leftover temp file from a crashed build must not poison this write.
	os.Remove(tmp)

	if err := writeSnapshot(tmp, snap); err != nil {
		os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("publishing cache %s: %w", s.path, err)
	}
	return nil
}

func writeSnapshot(path string, snap *Snapshot) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("opening cache database: %w", err)
	}
	defer db.Close()

	statements := []string{
		`CREATE TABLE meta (
			schema_version INTEGER NOT NULL,
			catalog_version TEXT NOT NULL,
			record_count INTEGER NOT NULL,
			dimension INTEGER NOT NULL,
			built_at TEXT NOT NULL,
			warning TEXT
		)`,
		`CREATE TABLE records (
			pos INTEGER PRIMARY KEY,
			id TEXT NOT NULL UNIQUE,
			program TEXT NOT NULL,
			course_name TEXT NOT NULL,
			institution TEXT NOT NULL,
			institution_type TEXT,
			country TEXT NOT NULL,
			city TEXT,
			level TEXT,
			credential TEXT,
			tuition_usd REAL,
			currency TEXT,
			global_rank INTEGER,
			description TEXT
		)`,
		`CREATE TABLE vectors (
			pos INTEGER PRIMARY KEY REFERENCES records(pos),
			vec BLOB NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("creating cache schema: %w", err)
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning cache transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO meta (schema_version, catalog_version, record_count, dimension, built_at, warning)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		schemaVersion, snap.CatalogVersion, len(snap.Entries), snap.Dimension,
		snap.BuiltAt.UTC().Format(time.RFC3339Nano), snap.Warning,
	)
	if err != nil {
		return fmt.Errorf("writing cache metadata: %w", err)
	}

	recStmt, err := tx.Prepare(
		`INSERT INTO records (pos, id, program, course_name, institution, institution_type,
			country, city, level, credential, tuition_usd, currency, global_rank, description)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing record insert: %w", err)
	}
	defer recStmt.Close()

	vecStmt, err := tx.Prepare(`INSERT INTO vectors (pos, vec) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing vector insert: %w", err)
	}
	defer vecStmt.Close()

	for pos, e := range snap.Entries {
		r := e.Record
		if _, err := recStmt.Exec(pos, r.ID, r.Program, r.CourseName, r.Institution,
			r.InstitutionType, r.Country, r.City, r.Level, r.Credential,
			r.TuitionUSD, r.Currency, r.GlobalRank, r.Description); err != nil {
			return fmt.Errorf("inserting record %s: %w", r.ID, err)
		}
		if _, err := vecStmt.Exec(pos, encodeVector(e.Vector)); err != nil {
			return fmt.Errorf("inserting vector for %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

// Load reads the cache snapshot. A missing file, incompatible schema, or
// internally inconsistent contents all return an error; the caller decides
// whether that means rebuild.
func (s *Store) Load() (*Snapshot, error) {
	if !s.Exists() {
		return nil, fmt.Errorf("cache %s does not exist", s.path)
	}

	db, err := sql.Open("sqlite3", s.path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}
	defer db.Close()

	var snap Snapshot
	var schema, count int
	var builtAt string
	err = db.QueryRow(
		`SELECT schema_version, catalog_version, record_count, dimension, built_at, warning FROM meta`,
	).Scan(&schema, &snap.CatalogVersion, &count, &snap.Dimension, &builtAt, &snap.Warning)
	if err != nil {
		return nil, fmt.Errorf("reading cache metadata: %w", err)
	}
	if schema != schemaVersion {
		return nil, fmt.Errorf("cache schema version %d is not %d", schema, schemaVersion)
	}
	if t, parseErr := time.Parse(time.RFC3339Nano, builtAt); parseErr == nil {
		snap.BuiltAt = t
	}

	rows, err := db.Query(
		`SELECT r.id, r.program, r.course_name, r.institution, r.institution_type,
			r.country, r.city, r.level, r.credential, r.tuition_usd, r.currency,
			r.global_rank, r.description, v.vec
		 FROM records r JOIN vectors v ON v.pos = r.pos
		 ORDER BY r.pos`)
	if err != nil {
		return nil, fmt.Errorf("reading cache records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r types.CatalogRecord
		var blob []byte
		if err := rows.Scan(&r.ID, &r.Program, &r.CourseName, &r.Institution,
			&r.InstitutionType, &r.Country, &r.City, &r.Level, &r.Credential,
			&r.TuitionUSD, &r.Currency, &r.GlobalRank, &r.Description, &blob); err != nil {
			return nil, fmt.Errorf("scanning cache record: %w", err)
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("decoding vector for %s: %w", r.ID, err)
		}
		if len(vec) != snap.Dimension {
			return nil, fmt.Errorf("vector for %s has %d dimensions, metadata says %d", r.ID, len(vec), snap.Dimension)
		}
		snap.Entries = append(snap.Entries, index.Entry{Record: r, Vector: vec})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cache records: %w", err)
	}

	if len(snap.Entries) != count {
		return nil, fmt.Errorf("cache holds %d records, metadata says %d", len(snap.Entries), count)
	}

	return &snap, nil
}

// encodeVector packs float32 values little-endian.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(blob))
	}
	vec := make([]float32, len(blob)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[4*i:]))
	}
	return vec, nil
}
