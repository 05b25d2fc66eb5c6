package services

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/sahilchouksey/quiz-extraction-api/model"
)

// CounterNamespace selects which of the two counter files a reservation
// belongs to.
type CounterNamespace string

const (
	// NamespaceSequence is the externally visible publish-order counter.
	NamespaceSequence CounterNamespace = "sequence"
	// NamespaceQuestion is the internal "which question to ask for next"
	// counter.
	NamespaceQuestion CounterNamespace = "question"
)

const (
	sequenceFileName = "sequence_numbers.json"
	questionFileName = "question_numbers.json"

	// SequenceStart is the slot assigned to the first question of a
	// fresh curriculum key; SequenceStep spaces subsequent slots so
	// manual inserts can go between published questions.
	SequenceStart = 10
	SequenceStep  = 10

	// OrdinalStart is the first question number asked for on a fresh key.
	OrdinalStart = 1
)

// Reservation captures a peeked counter value together with the exact
// stored state it was derived from, so a failed request can restore the
// counter without guessing.
type Reservation struct {
	Key       string
	Namespace CounterNamespace
	// Previous is the stored numeric value before this reservation; -1
	// means the key was absent.
	Previous int
	// PreviousLabel is the stored label before a question-namespace
	// reservation; "" means the key was absent. Rollback of a question
	// reservation restores this, not Previous.
	PreviousLabel string
	// Value is the reserved (next) value.
	Value int
	// Label is the reserved value as the prompt should spell it. For
	// the question namespace this may come from the example-label list
	// and need not equal strconv(Value).
	Label string
}

// CounterStore persists the per-curriculum-key counters in two flat
// JSON files, rewritten whole on every mutation. A store-level mutex
// serializes the read-modify-write; callers are still expected to issue
// requests for the same key sequentially (the polling driver does).
//
// Every file failure is logged and degrades to the namespace default:
// a missing counter must never block the pipeline.
type CounterStore struct {
	mu           sync.Mutex
	sequencePath string
	questionPath string
	labelsPath   string
}

// NewCounterStore creates a counter store rooted at dataDir. labelsPath
// optionally names an ordered example-label list (one label per line)
// used for textbooks whose example numbering is non-contiguous; empty
// disables the list.
func NewCounterStore(dataDir, labelsPath string) *CounterStore {
	return &CounterStore{
		sequencePath: filepath.Join(dataDir, sequenceFileName),
		questionPath: filepath.Join(dataDir, questionFileName),
		labelsPath:   labelsPath,
	}
}

// PeekNextSequence returns a reservation for the next publish sequence
// slot of the key without persisting anything. Fresh keys start at
// SequenceStart; seen keys advance by SequenceStep.
func (s *CounterStore) PeekNextSequence(key model.CurriculumKey) Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()

	counters := s.readCounters(s.sequencePath)
	k := key.String()

	res := Reservation{Key: k, Namespace: NamespaceSequence, Previous: -1, Value: SequenceStart}
	if current, ok := counters[k]; ok {
		res.Previous = current
		res.Value = current + SequenceStep
	}
	res.Label = strconv.Itoa(res.Value)
	return res
}

// PeekNextOrdinal returns a reservation for the next question ordinal of
// the key without persisting anything. When an example-label list is
// configured, "next" is the label immediately following the current one
// in that list rather than current+1.
func (s *CounterStore) PeekNextOrdinal(key model.CurriculumKey) Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()

	ordinals := s.readOrdinals()
	k := key.QuestionKey()
	labels := s.readLabels()

	res := Reservation{Key: k, Namespace: NamespaceQuestion, Previous: -1}

	current, seen := ordinals[k]
	if !seen {
		if len(labels) > 0 {
			res.Label = labels[0]
		} else {
			res.Label = strconv.Itoa(OrdinalStart)
		}
		res.Value = ordinalValue(res.Label, labels, OrdinalStart)
		return res
	}

	res.PreviousLabel = current
	res.Previous = ordinalValue(current, labels, 0)
	res.Label = nextLabel(labels, current)
	res.Value = ordinalValue(res.Label, labels, res.Previous+1)
	return res
}

// Commit persists the reservation as the key's new current value.
// The question namespace stores the label itself so that list
// successors can be found by label equality; the sequence namespace
// stores the number. Last write wins; committing the same reservation
// twice is a no-op.
func (s *CounterStore) Commit(res Reservation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if res.Namespace == NamespaceQuestion {
		ordinals := s.readOrdinals()
		ordinals[res.Key] = res.Label
		s.writeJSON(s.questionPath, ordinals)
		log.Printf("[CounterStore] Committed question counter for key %s: %s", res.Key, res.Label)
		return
	}

	counters := s.readCounters(s.sequencePath)
	counters[res.Key] = res.Value
	s.writeJSON(s.sequencePath, counters)
	log.Printf("[CounterStore] Committed sequence counter for key %s: %d", res.Key, res.Value)
}

// Rollback restores the exact stored state captured when the
// reservation was taken. A reservation taken on an absent key restores
// to absent.
func (s *CounterStore) Rollback(res Reservation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if res.Namespace == NamespaceQuestion {
		ordinals := s.readOrdinals()
		if res.PreviousLabel == "" {
			delete(ordinals, res.Key)
		} else {
			ordinals[res.Key] = res.PreviousLabel
		}
		s.writeJSON(s.questionPath, ordinals)
		log.Printf("[CounterStore] Rolled back question counter for key %s to %q", res.Key, res.PreviousLabel)
		return
	}

	counters := s.readCounters(s.sequencePath)
	if res.Previous < 0 {
		delete(counters, res.Key)
	} else {
		counters[res.Key] = res.Previous
	}
	s.writeJSON(s.sequencePath, counters)
	log.Printf("[CounterStore] Rolled back sequence counter for key %s to %d", res.Key, res.Previous)
}

func (s *CounterStore) readCounters(path string) map[string]int {
	counters := make(map[string]int)

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[CounterStore] Error reading %s: %v, using defaults", path, err)
		}
		return counters
	}

	if err := json.Unmarshal(data, &counters); err != nil {
		log.Printf("[CounterStore] Error parsing %s: %v, using defaults", path, err)
		return make(map[string]int)
	}

	return counters
}

// readOrdinals loads the question-namespace file. Values are labels;
// files written before labels were stored hold plain numbers, which
// are carried over in their decimal form.
func (s *CounterStore) readOrdinals() map[string]string {
	ordinals := make(map[string]string)

	data, err := os.ReadFile(s.questionPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[CounterStore] Error reading %s: %v, using defaults", s.questionPath, err)
		}
		return ordinals
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Printf("[CounterStore] Error parsing %s: %v, using defaults", s.questionPath, err)
		return ordinals
	}

	for k, v := range raw {
		switch label := v.(type) {
		case string:
			ordinals[k] = label
		case float64:
			ordinals[k] = strconv.Itoa(int(label))
		}
	}
	return ordinals
}

func (s *CounterStore) writeJSON(path string, counters any) {
	data, err := json.Marshal(counters)
	if err != nil {
		log.Printf("[CounterStore] Error encoding counters for %s: %v", path, err)
		return
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Printf("[CounterStore] Error writing %s: %v", path, err)
	}
}

func (s *CounterStore) readLabels() []string {
	if s.labelsPath == "" {
		return nil
	}

	data, err := os.ReadFile(s.labelsPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[CounterStore] Error reading label list %s: %v", s.labelsPath, err)
		}
		return nil
	}

	var labels []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			labels = append(labels, line)
		}
	}
	return labels
}

// nextLabel finds the label immediately following the current one in
// the ordered list, falling back to plain increment when the list is
// missing or the current label is not in it.
func nextLabel(labels []string, current string) string {
	for i, label := range labels {
		if label == current && i+1 < len(labels) {
			return labels[i+1]
		}
	}
	return strconv.Itoa(labelValue(current, 0) + 1)
}

// ordinalValue resolves a label's number for the lastQuestionNumber
// bound check: its parsed value when numeric, its one-based position in
// the list otherwise.
func ordinalValue(label string, labels []string, fallback int) int {
	if v, err := strconv.Atoi(label); err == nil {
		return v
	}
	for i, l := range labels {
		if l == label {
			return i + 1
		}
	}
	return fallback
}

// labelValue parses a label's numeric value, returning fallback when
// the label is not a plain number.
func labelValue(label string, fallback int) int {
	if v, err := strconv.Atoi(label); err == nil {
		return v
	}
	return fallback
}
