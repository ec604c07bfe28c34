// Package cache persists the enrichment cache: a flat mapping from OMDb
// lookup keys ("omdb:<imdb_id>") to their last-known results. The run loads
// it once at start, mutates it in memory, and flushes it periodically and at
// run end. Loss of the file costs re-fetches, never correctness, so every
// failure here is absorbed.
package cache

import (
	"encoding/json"
	"log"

	"github.com/spf13/afero"

	"suborbit/models"
)

// Map is the in-memory enrichment cache a single run owns.
type Map map[string]models.OMDbEntry

// Store reads and writes the cache file.
type Store struct {
	fs   afero.Fs
	path string
}

// NewStore creates a store over the given filesystem and path.
func NewStore(fs afero.Fs, path string) *Store {
	return &Store{fs: fs, path: path}
}

// Load reads the cache file. A missing or corrupt file yields an empty map;
// Load never fails the run.
func (s *Store) Load() Map {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return Map{}
	}
	var m Map
	if err := json.Unmarshal(data, &m); err != nil {
		log.Printf("[cache] ignoring corrupt cache file %s: %v", s.path, err)
		return Map{}
	}
	if m == nil {
		m = Map{}
	}
	return m
}

// Save writes the cache atomically (temp file then rename). Best effort: a
// write failure is logged and swallowed so a flaky disk cannot kill a run.
func (s *Store) Save(m Map) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		log.Printf("[cache] failed to encode cache: %v", err)
		return
	}
	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		log.Printf("[cache] failed to write cache: %v", err)
		return
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		log.Printf("[cache] failed to replace cache file: %v", err)
		_ = s.fs.Remove(tmp)
	}
}
