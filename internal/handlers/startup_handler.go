package handlers

import (
	"net/http"
	"sync"
)

// Startup steps reported by /readyz
const (
	StepDatabase   = "Database connection"
	StepMigrations = "Running migrations"
	StepContent    = "Loading passages and dictionary"
	StepVocabulary = "Loading vocabulary"
	StepServer     = "Server ready"
)

// StartupStep is one initialization step
type StartupStep struct {
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

// StartupStatus tracks the initialization progress
type StartupStatus struct {
	mu       sync.RWMutex
	ready    bool
	current  string
	progress int
	steps    []StartupStep

	persistFailures int
}

// NewStartupStatus returns a tracker with the given steps pending
func NewStartupStatus(steps ...string) *StartupStatus {
	s := &StartupStatus{current: "Initializing..."}
	for _, name := range steps {
		s.steps = append(s.steps, StartupStep{Name: name})
	}
	return s
}

// SetCurrentStep updates the current initialization step
func (s *StartupStatus) SetCurrentStep(step string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = step
}

// CompleteStep marks a step as completed and updates progress
func (s *StartupStatus) CompleteStep(stepName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	completed := 0
	for i := range s.steps {
		if s.steps[i].Name == stepName {
			s.steps[i].Completed = true
		}
		if s.steps[i].Completed {
			completed++
		}
	}
	if len(s.steps) > 0 {
		s.progress = completed * 100 / len(s.steps)
	}
}

// MarkReady marks the server as fully initialized
func (s *StartupStatus) MarkReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.steps {
		s.steps[i].Completed = true
	}
	s.ready = true
	s.current = StepServer
	s.progress = 100
}

// IsReady returns whether the server is fully initialized
func (s *StartupStatus) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// RecordPersistFailure counts a vocabulary write that failed after all
// retries. It does not affect readiness.
func (s *StartupStatus) RecordPersistFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persistFailures++
}

type startupView struct {
	Ready    bool          `json:"ready"`
	Current  string        `json:"current"`
	Progress int           `json:"progress"`
	Steps    []StartupStep `json:"steps"`

	PersistFailures int `json:"persistFailures"`
}

func (s *StartupStatus) view() startupView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	steps := make([]StartupStep, len(s.steps))
	copy(steps, s.steps)
	return startupView{
		Ready:           s.ready,
		Current:         s.current,
		Progress:        s.progress,
		Steps:           steps,
		PersistFailures: s.persistFailures,
	}
}

// Healthz reports liveness
func Healthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz reports startup progress; 503 until ready
func (s *StartupStatus) Readyz(w http.ResponseWriter, r *http.Request) {
	status := http.StatusServiceUnavailable
	if s.IsReady() {
		status = http.StatusOK
	}
	respondJSON(w, status, s.view())
}
