package services

import "testing"

func TestPreviousQuestionStoreRoundTrip(t *testing.T) {
	store := NewPreviousQuestionStore(t.TempDir())

	if got := store.Get(); got != "" {
		t.Errorf("fresh store returned %q, want empty", got)
	}

	store.Set("q-42")
	if got := store.Get(); got != "q-42" {
		t.Errorf("Get() = %q, want q-42", got)
	}

	store.Set("q-43")
	if got := store.Get(); got != "q-43" {
		t.Errorf("Get() = %q, want q-43 (last write wins)", got)
	}
}
