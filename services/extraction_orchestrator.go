package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/sahilchouksey/quiz-extraction-api/model"
	"github.com/sahilchouksey/quiz-extraction-api/services/inference"
)

// OutcomeKind classifies how an extraction request terminated without a
// failure.
type OutcomeKind string

const (
	// OutcomePublished means a question was created on the content API
	// and both counters advanced.
	OutcomePublished OutcomeKind = "PUBLISHED"
	// OutcomeSkipped means the chapter has no questions left past the
	// caller's lastQuestionNumber bound. Nothing was mutated.
	OutcomeSkipped OutcomeKind = "SKIPPED"
	// OutcomeRawResponse means the model answered in no recognizable
	// structured format. The raw text is returned and nothing was
	// mutated.
	OutcomeRawResponse OutcomeKind = "RAW_RESPONSE"
)

// Outcome is the terminal state of a successful (non-error) extraction
// run.
type Outcome struct {
	Kind        OutcomeKind
	Question    *model.PublishableQuestion
	QuestionID  string
	RawResponse string
}

// ExtractionRequest carries one uploaded PDF plus its form metadata.
type ExtractionRequest struct {
	Filename string
	Content  []byte
	Metadata model.QuestionMetadata
}

// Generator produces a model completion for an extraction prompt.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Publisher creates question records on the content API and threads
// them together.
type Publisher interface {
	CreateQuestion(ctx context.Context, question *model.PublishableQuestion) (string, error)
	LinkQuestions(ctx context.Context, previousID, nextID string) error
}

// InferenceGenerator adapts the inference client to the Generator
// interface.
type InferenceGenerator struct {
	Client *inference.Client
}

// Generate runs a single-turn completion.
func (g *InferenceGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return g.Client.SimpleCompletion(ctx, systemPrompt, userPrompt)
}

const extractionSystemPrompt = "You are an expert at extracting textbook questions with complete, " +
	"correct solutions. Follow the caller's output format instructions exactly."

// tempUploadPrefix names the transient on-disk copies of uploads so the
// stale-file sweeper can identify them.
const tempUploadPrefix = "upload_"

// ExtractionOrchestrator runs the full pipeline for one request:
// extract text, reserve counter values, prompt the model, parse,
// format, publish, and commit or roll back.
type ExtractionOrchestrator struct {
	dataDir   string
	extractor TextExtractor
	generator Generator
	publisher Publisher
	counters  *CounterStore
	previous  *PreviousQuestionStore
	parser    *ResponseParser
	formatter *QuestionFormatter
}

// NewExtractionOrchestrator wires the pipeline together.
func NewExtractionOrchestrator(
	dataDir string,
	extractor TextExtractor,
	generator Generator,
	publisher Publisher,
	counters *CounterStore,
	previous *PreviousQuestionStore,
) *ExtractionOrchestrator {
	return &ExtractionOrchestrator{
		dataDir:   dataDir,
		extractor: extractor,
		generator: generator,
		publisher: publisher,
		counters:  counters,
		previous:  previous,
		parser:    NewResponseParser(),
		formatter: NewQuestionFormatter(),
	}
}

// Process runs one extraction request to a terminal outcome. Counter
// state is only committed after the content API confirms the create;
// any failure after the reservations restores them exactly.
func (o *ExtractionOrchestrator) Process(ctx context.Context, req ExtractionRequest) (*Outcome, error) {
	tempPath, err := o.saveTempUpload(req.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}
	defer o.removeTempUpload(tempPath)

	text, err := o.extractor.ExtractText(ctx, req.Content, req.Filename)
	if err != nil {
		return nil, fmt.Errorf("text extraction failed: %w", err)
	}
	log.Printf("[Orchestrator] Extracted %d characters from %s", len(text), req.Filename)

	key := req.Metadata.CurriculumKey()
	ordinal := o.counters.PeekNextOrdinal(key)

	if req.Metadata.LastQuestionNumber > 0 && ordinal.Value > req.Metadata.LastQuestionNumber {
		log.Printf("[Orchestrator] Next question %s exceeds lastQuestionNumber %d for key %s, skipping",
			ordinal.Label, req.Metadata.LastQuestionNumber, ordinal.Key)
		return &Outcome{Kind: OutcomeSkipped}, nil
	}

	prompt := buildExtractionPrompt(req.Metadata.Prompt, text, ordinal.Label)

	raw, err := o.generator.Generate(ctx, extractionSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("model completion failed: %w", err)
	}

	questions, err := o.parser.Parse(raw, req.Metadata.ResponseFormat)
	if err != nil {
		if errors.Is(err, ErrPlainText) {
			log.Printf("[Orchestrator] Unstructured model response for key %s, returning raw text", ordinal.Key)
			return &Outcome{Kind: OutcomeRawResponse, RawResponse: raw}, nil
		}
		return nil, fmt.Errorf("response parsing failed: %w", err)
	}
	if len(questions) > 1 {
		log.Printf("[Orchestrator] Model returned %d questions, publishing the first", len(questions))
	}

	parsed := questions[0]
	if parsed.QuestionNo == "" {
		parsed.QuestionNo = ordinal.Label
	}

	sequence := o.counters.PeekNextSequence(key)

	record, err := o.formatter.Format(&parsed, req.Metadata, sequence.Value)
	if err != nil {
		return nil, fmt.Errorf("question formatting failed: %w", err)
	}

	createdID, err := o.publisher.CreateQuestion(ctx, record)
	if err != nil {
		o.counters.Rollback(sequence)
		o.counters.Rollback(ordinal)
		return nil, fmt.Errorf("question create failed: %w", err)
	}

	o.counters.Commit(sequence)
	o.counters.Commit(ordinal)

	if previousID := o.previous.Get(); previousID != "" {
		if err := o.publisher.LinkQuestions(ctx, previousID, createdID); err != nil {
			// The question itself is live; a broken back-link is repaired
			// by the next publish.
			log.Printf("[Orchestrator] Failed to link question %s -> %s: %v", previousID, createdID, err)
		}
	}
	o.previous.Set(createdID)

	log.Printf("[Orchestrator] Published question %s (seq %d, question %s) for key %s",
		createdID, sequence.Value, ordinal.Label, key.String())

	return &Outcome{Kind: OutcomePublished, Question: record, QuestionID: createdID}, nil
}

// buildExtractionPrompt appends the chapter text and the requested
// question number to the caller's base prompt.
func buildExtractionPrompt(basePrompt, text, ordinalLabel string) string {
	return basePrompt +
		"\n\nBased on the content of the following PDF:\n\n" + text +
		"\n\nPick up question number " + ordinalLabel
}

// saveTempUpload keeps an on-disk copy of the upload while the request
// runs. Normal requests remove it on the way out; the cron sweeper
// collects copies orphaned by crashes.
func (o *ExtractionOrchestrator) saveTempUpload(content []byte) (string, error) {
	path := filepath.Join(o.dataDir, tempUploadPrefix+uuid.NewString()+".pdf")
	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", err
	}
	return path, nil
}

func (o *ExtractionOrchestrator) removeTempUpload(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("[Orchestrator] Failed to remove temp upload %s: %v", path, err)
	}
}
