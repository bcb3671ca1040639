// Package session holds the in-memory state of interactive ad
// generation: uploaded inputs, the editable plan between the two
// stages, and the generated result. Nothing is persisted.
package session

import (
	"sync"
	"time"

	"adcraft/internal/gemini"
	"adcraft/internal/pipeline"
	"adcraft/internal/plan"
)

type Session struct {
	ID           string
	CampaignData string
	Inputs       pipeline.Inputs

	// Plan is valid once HasPlan is set; the operator may edit its
	// fields before the render stage fires.
	Plan    plan.Plan
	HasPlan bool

	Generated []byte
	Usage     gemini.Usage

	UpdatedAt time.Time
}

type Store struct {
	mu sync.Mutex
	m  map[string]*Session
}

func NewStore() *Store {
	return &Store{m: make(map[string]*Session)}
}

// Get returns a copy of the session, so callers never share mutable
// state with concurrent updates.
func (s *Store) Get(id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.m[id]
	if !ok {
		return Session{}, false
	}
	return *sess, true
}

// Update applies fn to the session identified by id, creating it when
// absent, and returns the resulting copy.
func (s *Store) Update(id string, fn func(*Session)) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.m[id]
	if !ok {
		sess = &Session{ID: id}
		s.m[id] = sess
	}
	if fn != nil {
		fn(sess)
	}
	sess.UpdatedAt = time.Now()
	return *sess
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, id)
}
