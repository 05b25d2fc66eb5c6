package services

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const lastQuestionFileName = "last_question_id.txt"

// PreviousQuestionStore holds the identifier of the most recently
// created question so the next created question can be threaded behind
// it. The value lives in a single scalar file; like the counters, reads
// degrade to the zero value rather than failing the pipeline.
type PreviousQuestionStore struct {
	mu   sync.Mutex
	path string
}

// NewPreviousQuestionStore creates the store rooted at dataDir.
func NewPreviousQuestionStore(dataDir string) *PreviousQuestionStore {
	return &PreviousQuestionStore{
		path: filepath.Join(dataDir, lastQuestionFileName),
	}
}

// Get returns the last created question id, or "" when none is recorded.
func (s *PreviousQuestionStore) Get() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[PreviousQuestionStore] Error reading %s: %v", s.path, err)
		}
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Set records the id of a question whose creation was confirmed.
func (s *PreviousQuestionStore) Set(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.WriteFile(s.path, []byte(id), 0644); err != nil {
		log.Printf("[PreviousQuestionStore] Error writing %s: %v", s.path, err)
	}
}
