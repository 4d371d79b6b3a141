// Package prefs is the local persistent key-value fallback for user
// preferences (name, language, theme) and the device uid. It lives next to
// the peer, not in the shared store, so preferences survive even when the
// document store is unreachable.
package prefs

import (
	"database/sql"
	"errors"
	"log"
	"sync"

	_ "modernc.org/sqlite"
)

// Well-known preference keys.
const (
	KeyDeviceUID = "device_uid"
	KeyName      = "name"
	KeyLanguage  = "language"
	KeyTheme     = "theme"
)

// Store is a tiny SQLite-backed KV map. When the file cannot be opened it
// degrades to memory-only and logs once; preferences then last for the
// process lifetime.
type Store struct {
	mu    sync.Mutex
	db    *sql.DB // nil in memory-only mode
	cache map[string]string
}

// Open opens (or creates) the preference store at path. Pass "" for an
// explicitly memory-only store.
func Open(path string) *Store {
	s := &Store{cache: make(map[string]string)}
	if path == "" {
		return s
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err == nil {
		_, err = db.Exec(`CREATE TABLE IF NOT EXISTS prefs (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`)
	}
	if err != nil {
		log.Printf("prefs: falling back to memory-only store: %v", err)
		return s
	}

	s.db = db
	s.warm()
	return s
}

func (s *Store) warm() {
	rows, err := s.db.Query(`SELECT key, value FROM prefs`)
	if err != nil {
		log.Printf("prefs: warm read failed: %v", err)
		return
	}
	defer rows.Close()
	for rows.Next() {
		var k, v string
		if rows.Scan(&k, &v) == nil {
			s.cache[k] = v
		}
	}
}

// Get returns the stored value for key.
func (s *Store) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.cache[key]
	return v, ok
}

// Set stores the value, best-effort persisting it.
func (s *Store) Set(key, value string) {
	s.mu.Lock()
	s.cache[key] = value
	db := s.db
	s.mu.Unlock()

	if db == nil {
		return
	}
	if _, err := db.Exec(`INSERT OR REPLACE INTO prefs (key, value) VALUES (?, ?)`, key, value); err != nil {
		log.Printf("prefs: persisting %s failed: %v", key, err)
	}
}

// Close releases the backing file, if any.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if errors.Is(err, sql.ErrConnDone) {
		return nil
	}
	return err
}
