// Package store implements a process-local persisted-tester-credential
// cache: a store at a configurable path that caches known-tester
// credentials and last-known state between process runs, so the set of
// added testers survives restarts. It keeps one JSON file per tester.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Credentials is the persisted shape of a tester's
// `Credentials := {product, host, port, password}`. pkg/controller converts
// to and from its own Credentials type at the store boundary so this package
// stays free of a dependency on pkg/controller.
type Credentials struct {
	Product  string `json:"product"`
	Host     string `json:"host"`
	Port     uint16 `json:"port"`
	Password string `json:"password"`
}

// Record is the persisted state for one added tester.
type Record struct {
	TesterID    string      `json:"tester_id"`
	Credentials Credentials `json:"credentials"`
	AddedAt     time.Time   `json:"added_at"`
	LastSeenAt  time.Time   `json:"last_seen_at"`
}

// Store persists Records to one JSON file per tester under Dir.
type Store struct {
	dir string
}

// Open ensures dir exists and returns a Store rooted at it.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create directory %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(testerID string) string {
	return filepath.Join(s.dir, safeFilename(testerID)+".json")
}

// safeFilename keeps a tester ID (normally a uuid) from escaping the store
// directory via path separators.
func safeFilename(id string) string {
	return strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(id)
}

// Save writes (or overwrites) rec's record.
func (s *Store) Save(rec Record) error {
	data, err := json.MarshalIndent(rec, "", " ")
	if err != nil {
		return fmt.Errorf("store: marshal record for %s: %w", rec.TesterID, err)
	}
	if err := os.WriteFile(s.path(rec.TesterID), data, 0o644); err != nil {
		return fmt.Errorf("store: write record for %s: %w", rec.TesterID, err)
	}
	return nil
}

// Load reads the record for testerID. The second return value is false if
// no record exists.
func (s *Store) Load(testerID string) (Record, bool, error) {
	data, err := os.ReadFile(s.path(testerID))
	if os.IsNotExist(err) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("store: read record for %s: %w", testerID, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, false, fmt.Errorf("store: parse record for %s: %w", testerID, err)
	}
	return rec, true, nil
}

// List returns every persisted record, most-recently-added first.
func (s *Store) List() ([]Record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("store: read directory %s: %w", s.dir, err)
	}

	records := make([]Record, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].AddedAt.After(records[j].AddedAt)
	})
	return records, nil
}

// Delete removes testerID's record. Deleting an ID that was never saved is
// not an error.
func (s *Store) Delete(testerID string) error {
	if err := os.Remove(s.path(testerID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("store: delete record for %s: %w", testerID, err)
	}
	return nil
}

// Touch updates LastSeenAt for testerID to now, leaving the rest of the
// record untouched. Touching an ID with no existing record is a no-op.
func (s *Store) Touch(testerID string, now time.Time) error {
	rec, ok, err := s.Load(testerID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	rec.LastSeenAt = now
	return s.Save(rec)
}
