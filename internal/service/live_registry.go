package service

import (
	"fmt"
	"sync"

	"github.com/proctorly/proctorly-backend/internal/proctor"
)

// LiveRegistry tracks the active proctored session per (quiz, student).
// A reconnecting WebSocket reattaches to its existing session instead of
// spawning a second controller for the same attempt.
type LiveRegistry struct {
	mu       sync.Mutex
	sessions map[string]*proctor.Session
}

// NewLiveRegistry creates an empty LiveRegistry.
func NewLiveRegistry() *LiveRegistry {
	return &LiveRegistry{sessions: make(map[string]*proctor.Session)}
}

func liveKey(quizID string, studentID int) string {
	return fmt.Sprintf("%s:%d", quizID, studentID)
}

// Get returns the active session for the pair, or nil.
func (r *LiveRegistry) Get(quizID string, studentID int) *proctor.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[liveKey(quizID, studentID)]
}

// Put registers a session for the pair.
func (r *LiveRegistry) Put(quizID string, studentID int, s *proctor.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[liveKey(quizID, studentID)] = s
}

// GetOrCreate returns the registered session for the pair, building and
// registering one via create when none exists. The registry lock covers
// the whole operation, so two sockets racing to start the same attempt
// always end up sharing a single controller. The boolean reports whether
// create ran.
func (r *LiveRegistry) GetOrCreate(quizID string, studentID int, create func() (*proctor.Session, error)) (*proctor.Session, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := liveKey(quizID, studentID)
	if s := r.sessions[key]; s != nil {
		return s, false, nil
	}
	s, err := create()
	if err != nil {
		return nil, false, err
	}
	r.sessions[key] = s
	return s, true, nil
}

// Remove drops the session for the pair if it is still the registered one.
func (r *LiveRegistry) Remove(quizID string, studentID int, s *proctor.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := liveKey(quizID, studentID)
	if r.sessions[key] == s {
		delete(r.sessions, key)
	}
}

// Count returns the number of live sessions.
func (r *LiveRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
