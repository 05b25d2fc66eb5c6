package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sahilchouksey/quiz-extraction-api/model"
)

func testKey() model.CurriculumKey {
	return model.CurriculumKey{
		Board:       "cbse",
		Source:      "ncert",
		SubjectCode: "math",
		GradeCode:   "10",
		TopicCode:   "algebra",
		ChapterNo:   "4",
	}
}

func TestPeekNextSequenceFreshKey(t *testing.T) {
	store := NewCounterStore(t.TempDir(), "")

	res := store.PeekNextSequence(testKey())
	if res.Value != 10 {
		t.Errorf("fresh key sequence = %d, want 10", res.Value)
	}
	if res.Previous != -1 {
		t.Errorf("fresh key previous = %d, want -1", res.Previous)
	}
}

func TestSequenceAdvancesByTenAfterCommit(t *testing.T) {
	store := NewCounterStore(t.TempDir(), "")
	key := testKey()

	first := store.PeekNextSequence(key)
	store.Commit(first)

	second := store.PeekNextSequence(key)
	if second.Value != first.Value+10 {
		t.Errorf("second sequence = %d, want %d", second.Value, first.Value+10)
	}
	if second.Previous != first.Value {
		t.Errorf("second previous = %d, want %d", second.Previous, first.Value)
	}
}

func TestPeekWithoutCommitDoesNotAdvance(t *testing.T) {
	store := NewCounterStore(t.TempDir(), "")
	key := testKey()

	for i := 0; i < 3; i++ {
		res := store.PeekNextSequence(key)
		if res.Value != 10 {
			t.Fatalf("peek %d = %d, want 10 (peek must not persist)", i, res.Value)
		}
	}
}

func TestRollbackRestoresExactState(t *testing.T) {
	dir := t.TempDir()
	store := NewCounterStore(dir, "")
	key := testKey()

	// Fresh key: reserve and roll back, key must be absent again.
	res := store.PeekNextSequence(key)
	store.Commit(res)
	store.Rollback(res)

	again := store.PeekNextSequence(key)
	if again.Value != 10 || again.Previous != -1 {
		t.Errorf("after rollback of fresh reservation: value=%d previous=%d, want 10/-1", again.Value, again.Previous)
	}

	// Seen key: advance to 20, reserve 30, roll back, must be 20 again.
	store.Commit(store.PeekNextSequence(key)) // 10
	store.Commit(store.PeekNextSequence(key)) // 20

	third := store.PeekNextSequence(key)
	if third.Value != 30 {
		t.Fatalf("third sequence = %d, want 30", third.Value)
	}
	store.Commit(third)
	store.Rollback(third)

	after := store.PeekNextSequence(key)
	if after.Value != 30 || after.Previous != 20 {
		t.Errorf("after rollback: value=%d previous=%d, want 30/20", after.Value, after.Previous)
	}
}

func TestOrdinalStartsAtOneAndIncrements(t *testing.T) {
	store := NewCounterStore(t.TempDir(), "")
	key := testKey()

	first := store.PeekNextOrdinal(key)
	if first.Value != 1 || first.Label != "1" {
		t.Errorf("fresh ordinal = %d/%q, want 1/\"1\"", first.Value, first.Label)
	}

	store.Commit(first)

	second := store.PeekNextOrdinal(key)
	if second.Value != 2 || second.Label != "2" {
		t.Errorf("second ordinal = %d/%q, want 2/\"2\"", second.Value, second.Label)
	}
}

func TestOrdinalFollowsLabelList(t *testing.T) {
	dir := t.TempDir()
	labelsPath := filepath.Join(dir, "example_numbers.txt")
	if err := os.WriteFile(labelsPath, []byte("1\n2a\n2b\n3\n"), 0644); err != nil {
		t.Fatal(err)
	}

	store := NewCounterStore(dir, labelsPath)
	key := testKey()

	first := store.PeekNextOrdinal(key)
	if first.Label != "1" {
		t.Fatalf("first label = %q, want \"1\"", first.Label)
	}
	store.Commit(first)

	second := store.PeekNextOrdinal(key)
	if second.Label != "2a" {
		t.Errorf("second label = %q, want \"2a\"", second.Label)
	}
	// non-numeric label takes its list position as the stored value
	if second.Value != 2 {
		t.Errorf("second value = %d, want 2", second.Value)
	}
	store.Commit(second)

	// the successor of a non-numeric label is found by label equality
	third := store.PeekNextOrdinal(key)
	if third.Label != "2b" {
		t.Errorf("third label = %q, want \"2b\"", third.Label)
	}
	if third.Value != 3 {
		t.Errorf("third value = %d, want 3", third.Value)
	}
}

func TestOrdinalFollowsWordLabelList(t *testing.T) {
	dir := t.TempDir()
	labelsPath := filepath.Join(dir, "example_numbers.txt")
	if err := os.WriteFile(labelsPath, []byte("Example 1\nExample 2\nExample 3\n"), 0644); err != nil {
		t.Fatal(err)
	}

	store := NewCounterStore(dir, labelsPath)
	key := testKey()

	want := []string{"Example 1", "Example 2", "Example 3"}
	for i, label := range want {
		res := store.PeekNextOrdinal(key)
		if res.Label != label {
			t.Fatalf("peek %d label = %q, want %q", i+1, res.Label, label)
		}
		if res.Value != i+1 {
			t.Errorf("peek %d value = %d, want %d", i+1, res.Value, i+1)
		}
		store.Commit(res)
	}
}

func TestOrdinalRollbackRestoresLabel(t *testing.T) {
	dir := t.TempDir()
	labelsPath := filepath.Join(dir, "example_numbers.txt")
	if err := os.WriteFile(labelsPath, []byte("Example 1\nExample 2\nExample 3\n"), 0644); err != nil {
		t.Fatal(err)
	}

	store := NewCounterStore(dir, labelsPath)
	key := testKey()

	store.Commit(store.PeekNextOrdinal(key)) // Example 1

	second := store.PeekNextOrdinal(key)
	if second.Label != "Example 2" {
		t.Fatalf("second label = %q, want \"Example 2\"", second.Label)
	}
	store.Commit(second)
	store.Rollback(second)

	again := store.PeekNextOrdinal(key)
	if again.Label != "Example 2" {
		t.Errorf("label after rollback = %q, want \"Example 2\"", again.Label)
	}
}

func TestOrdinalReadsLegacyNumericFile(t *testing.T) {
	dir := t.TempDir()
	key := testKey()
	legacy := `{"` + key.QuestionKey() + `": 2}`
	if err := os.WriteFile(filepath.Join(dir, "question_numbers.json"), []byte(legacy), 0644); err != nil {
		t.Fatal(err)
	}

	store := NewCounterStore(dir, "")
	res := store.PeekNextOrdinal(key)
	if res.Label != "3" || res.Value != 3 {
		t.Errorf("ordinal from numeric file = %q/%d, want \"3\"/3", res.Label, res.Value)
	}
}

func TestCorruptCounterFileDegradesToDefaults(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "sequence_numbers.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	store := NewCounterStore(dir, "")
	res := store.PeekNextSequence(testKey())
	if res.Value != 10 {
		t.Errorf("sequence with corrupt file = %d, want 10", res.Value)
	}
}

func TestCountersAreIsolatedPerKey(t *testing.T) {
	store := NewCounterStore(t.TempDir(), "")

	keyA := testKey()
	keyB := testKey()
	keyB.ChapterNo = "5"

	store.Commit(store.PeekNextSequence(keyA))

	resB := store.PeekNextSequence(keyB)
	if resB.Value != 10 {
		t.Errorf("keyB sequence = %d, want 10 (keys must not share counters)", resB.Value)
	}
}
