package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sahilchouksey/quiz-extraction-api/model"
)

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) ExtractText(ctx context.Context, content []byte, filename string) (string, error) {
	return f.text, f.err
}

type fakeGenerator struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.prompts = append(f.prompts, userPrompt)
	return f.response, f.err
}

type fakePublisher struct {
	createErr error
	linkErr   error
	created   []*model.PublishableQuestion
	links     [][2]string
	nextID    string
}

func (f *fakePublisher) CreateQuestion(ctx context.Context, q *model.PublishableQuestion) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, q)
	if f.nextID == "" {
		return "q-1", nil
	}
	return f.nextID, nil
}

func (f *fakePublisher) LinkQuestions(ctx context.Context, previousID, nextID string) error {
	f.links = append(f.links, [2]string{previousID, nextID})
	return f.linkErr
}

const fencedQuestionResponse = "```json\n" +
	`{"title": {"en": "What is 2+2?"}, "solution": {"en": "4"}, "explanation": {"en": "Add"}, "difficultyLevelCode": "easy", "questionNo": "1"}` +
	"\n```"

func newTestOrchestrator(t *testing.T, gen *fakeGenerator, pub *fakePublisher) (*ExtractionOrchestrator, *CounterStore, *PreviousQuestionStore) {
	t.Helper()
	dir := t.TempDir()
	counters := NewCounterStore(dir, "")
	previous := NewPreviousQuestionStore(dir)
	orch := NewExtractionOrchestrator(
		dir,
		&fakeExtractor{text: "chapter text about addition"},
		gen,
		pub,
		counters,
		previous,
	)
	return orch, counters, previous
}

func testRequest() ExtractionRequest {
	return ExtractionRequest{
		Filename: "chapter4.pdf",
		Content:  []byte("%PDF-fake"),
		Metadata: testMetadata(),
	}
}

func TestProcessPublishesAndAdvancesCounters(t *testing.T) {
	gen := &fakeGenerator{response: fencedQuestionResponse}
	pub := &fakePublisher{nextID: "q-100"}
	orch, counters, previous := newTestOrchestrator(t, gen, pub)

	outcome, err := orch.Process(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if outcome.Kind != OutcomePublished {
		t.Fatalf("outcome = %s, want PUBLISHED", outcome.Kind)
	}
	if outcome.QuestionID != "q-100" {
		t.Errorf("questionID = %q", outcome.QuestionID)
	}

	if len(gen.prompts) != 1 {
		t.Fatalf("generator called %d times, want 1", len(gen.prompts))
	}
	if !strings.Contains(gen.prompts[0], "Pick up question number 1") {
		t.Errorf("prompt missing question number directive: %q", tail(gen.prompts[0], 80))
	}
	if !strings.Contains(gen.prompts[0], "chapter text about addition") {
		t.Error("prompt missing extracted chapter text")
	}

	if len(pub.created) != 1 {
		t.Fatalf("published %d records, want 1", len(pub.created))
	}
	if pub.created[0].SeqNumber != 10 {
		t.Errorf("seqNumber = %d, want 10", pub.created[0].SeqNumber)
	}

	key := testMetadata().CurriculumKey()
	if next := counters.PeekNextSequence(key); next.Value != 20 {
		t.Errorf("next sequence = %d, want 20 (counter must commit on success)", next.Value)
	}
	if next := counters.PeekNextOrdinal(key); next.Value != 2 {
		t.Errorf("next ordinal = %d, want 2", next.Value)
	}
	if previous.Get() != "q-100" {
		t.Errorf("previous question id = %q, want q-100", previous.Get())
	}
}

func TestProcessSkipsWhenChapterExhausted(t *testing.T) {
	gen := &fakeGenerator{response: fencedQuestionResponse}
	pub := &fakePublisher{}
	orch, counters, _ := newTestOrchestrator(t, gen, pub)

	req := testRequest()
	req.Metadata.LastQuestionNumber = 2
	key := req.Metadata.CurriculumKey()

	// Walk the ordinal counter to 2: the next ask would be question 3.
	counters.Commit(counters.PeekNextOrdinal(key))
	counters.Commit(counters.PeekNextOrdinal(key))

	outcome, err := orch.Process(context.Background(), req)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if outcome.Kind != OutcomeSkipped {
		t.Fatalf("outcome = %s, want SKIPPED", outcome.Kind)
	}

	if len(gen.prompts) != 0 {
		t.Error("generator must not be called for a skipped request")
	}
	if len(pub.created) != 0 {
		t.Error("nothing may be published for a skipped request")
	}
	if next := counters.PeekNextOrdinal(key); next.Value != 3 {
		t.Errorf("ordinal moved on skip: %d, want 3", next.Value)
	}
}

func TestProcessRollsBackCountersOnCreateFailure(t *testing.T) {
	gen := &fakeGenerator{response: fencedQuestionResponse}
	pub := &fakePublisher{createErr: errors.New("content API down")}
	orch, counters, previous := newTestOrchestrator(t, gen, pub)

	_, err := orch.Process(context.Background(), testRequest())
	if err == nil {
		t.Fatal("Process() succeeded despite create failure")
	}

	key := testMetadata().CurriculumKey()
	if next := counters.PeekNextSequence(key); next.Value != 10 || next.Previous != -1 {
		t.Errorf("sequence after failed create = %d/%d, want fresh 10/-1", next.Value, next.Previous)
	}
	if next := counters.PeekNextOrdinal(key); next.Value != 1 {
		t.Errorf("ordinal after failed create = %d, want 1", next.Value)
	}
	if previous.Get() != "" {
		t.Errorf("previous id recorded on failure: %q", previous.Get())
	}
}

func TestProcessReturnsRawResponseForUnstructuredText(t *testing.T) {
	gen := &fakeGenerator{response: "The chapter has no more questions worth extracting."}
	pub := &fakePublisher{}
	orch, counters, _ := newTestOrchestrator(t, gen, pub)

	outcome, err := orch.Process(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if outcome.Kind != OutcomeRawResponse {
		t.Fatalf("outcome = %s, want RAW_RESPONSE", outcome.Kind)
	}
	if outcome.RawResponse != gen.response {
		t.Errorf("rawResponse = %q", outcome.RawResponse)
	}

	if len(pub.created) != 0 {
		t.Error("nothing may be published for a raw response")
	}
	key := testMetadata().CurriculumKey()
	if next := counters.PeekNextSequence(key); next.Value != 10 {
		t.Errorf("sequence moved on raw response: %d, want 10", next.Value)
	}
}

func TestProcessLinksPreviousQuestion(t *testing.T) {
	gen := &fakeGenerator{response: fencedQuestionResponse}
	pub := &fakePublisher{nextID: "q-2"}
	orch, _, previous := newTestOrchestrator(t, gen, pub)

	previous.Set("q-1")

	outcome, err := orch.Process(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if len(pub.links) != 1 {
		t.Fatalf("got %d link calls, want 1", len(pub.links))
	}
	if pub.links[0] != [2]string{"q-1", "q-2"} {
		t.Errorf("link = %v, want [q-1 q-2]", pub.links[0])
	}
	if previous.Get() != outcome.QuestionID {
		t.Errorf("previous id = %q, want %q", previous.Get(), outcome.QuestionID)
	}
}

func TestProcessLinkFailureDoesNotFailRequest(t *testing.T) {
	gen := &fakeGenerator{response: fencedQuestionResponse}
	pub := &fakePublisher{nextID: "q-2", linkErr: errors.New("link endpoint down")}
	orch, _, previous := newTestOrchestrator(t, gen, pub)

	previous.Set("q-1")

	outcome, err := orch.Process(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Process() error = %v, link failures must not fail the request", err)
	}
	if outcome.Kind != OutcomePublished {
		t.Errorf("outcome = %s, want PUBLISHED", outcome.Kind)
	}
	if previous.Get() != "q-2" {
		t.Errorf("previous id = %q, want q-2 even after link failure", previous.Get())
	}
}

func TestProcessMalformedXMLIsAnError(t *testing.T) {
	gen := &fakeGenerator{response: "```xml\n<question><title>broken</question>\n```"}
	pub := &fakePublisher{}
	orch, counters, _ := newTestOrchestrator(t, gen, pub)

	req := testRequest()
	req.Metadata.ResponseFormat = model.DialectXML

	_, err := orch.Process(context.Background(), req)
	if !errors.Is(err, ErrMalformedXML) {
		t.Fatalf("Process() error = %v, want ErrMalformedXML", err)
	}

	key := req.Metadata.CurriculumKey()
	if next := counters.PeekNextOrdinal(key); next.Value != 1 {
		t.Errorf("ordinal moved on parse error: %d, want 1", next.Value)
	}
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
