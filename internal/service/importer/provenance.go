package importer

import (
	"sync"
	"time"
)

// Provenance describes the latest successful import.
type Provenance struct {
	FileName      string    `json:"file_name"`
	ImportedCount int       `json:"imported_count"`
	Timestamp     time.Time `json:"timestamp"`
}

// ProvenanceStore holds the provenance of the running process. It starts
// empty on every boot.
type ProvenanceStore struct {
	mu      sync.RWMutex
	current Provenance
	set     bool
}

// NewProvenanceStore returns an empty store.
func NewProvenanceStore() *ProvenanceStore {
	return &ProvenanceStore{}
}

// Get returns the recorded provenance, if any.
func (s *ProvenanceStore) Get() (Provenance, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.set
}

// Set overwrites the recorded provenance.
func (s *ProvenanceStore) Set(p Provenance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = p
	s.set = true
}

// SetIfNewer records p unless a later import is already known.
func (s *ProvenanceStore) SetIfNewer(p Provenance) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.set && !p.Timestamp.After(s.current.Timestamp) {
		return false
	}
	s.current = p
	s.set = true
	return true
}
