package services

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sahilchouksey/quiz-extraction-api/model"
)

// ErrInvalidQuestionInput is returned when the formatter receives
// something that is not a question record.
var ErrInvalidQuestionInput = errors.New("formatter input is not a question record")

// QuestionFormatter merges a parsed question with request metadata into
// the final publishable record. Pure function, no I/O.
type QuestionFormatter struct{}

// NewQuestionFormatter creates a question formatter.
func NewQuestionFormatter() *QuestionFormatter {
	return &QuestionFormatter{}
}

// Format builds the publishable record. Absent bilingual fields default
// to empty variants, a missing difficulty defaults to EASY, and the SEO
// fields are derived from the content unless the model supplied its own
// seoMetaData (either flat {en,hi} or nested {en:{keywords},hi:{keywords}}).
func (f *QuestionFormatter) Format(parsed *model.ParsedQuestion, meta model.QuestionMetadata, seqNumber int) (*model.PublishableQuestion, error) {
	if parsed == nil {
		return nil, ErrInvalidQuestionInput
	}

	difficulty := parsed.DifficultyLevelCode
	if difficulty == "" {
		difficulty = model.DifficultyEasy
	}

	out := &model.PublishableQuestion{
		Title:               parsed.Title,
		EnglishTitle:        parsed.EnglishTitle,
		Solution:            parsed.Solution,
		SolutionWOLatex:     parsed.SolutionWOLatex,
		Explanation:         parsed.Explanation,
		Status:              meta.Status,
		GradeCode:           meta.GradeCode,
		SubjectCode:         meta.SubjectCode,
		TopicCode:           meta.TopicCode,
		DifficultyLevelCode: difficulty,
		PostedByUserID:      meta.PostedByUserID,
		SeoTitle:            parsed.Title,
		SeoDescription: model.LocalizedText{
			En: joinSections(parsed.Solution.En, parsed.Explanation.En),
			Hi: joinSections(parsed.Solution.Hi, parsed.Explanation.Hi),
		},
		QuestionNo: parsed.QuestionNo,
		Board:      meta.Board,
		Source:     meta.Source,
		ChapterNo:  meta.ChapterNo,
		SeqNumber:  seqNumber,
		ExerciseNo: meta.ExerciseNo,
	}

	seoMeta, err := normalizeSeoMetaData(parsed.SeoMetaData)
	if err != nil {
		return nil, err
	}
	out.SeoMetaData = seoMeta

	return out, nil
}

func joinSections(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	return a + "\n\n" + b
}

// normalizeSeoMetaData flattens the two shapes models return for
// seoMetaData into plain {en,hi} strings.
func normalizeSeoMetaData(raw json.RawMessage) (model.LocalizedText, error) {
	if len(raw) == 0 {
		return model.LocalizedText{}, nil
	}

	// Nested shape: {"en": {"keywords": "..."}, "hi": {"keywords": "..."}}
	var nested struct {
		En struct {
			Keywords string `json:"keywords"`
		} `json:"en"`
		Hi struct {
			Keywords string `json:"keywords"`
		} `json:"hi"`
	}
	if err := json.Unmarshal(raw, &nested); err == nil {
		if nested.En.Keywords != "" || nested.Hi.Keywords != "" {
			return model.LocalizedText{En: nested.En.Keywords, Hi: nested.Hi.Keywords}, nil
		}
	}

	// Flat shape: {"en": "...", "hi": "..."}
	var flat model.LocalizedText
	if err := json.Unmarshal(raw, &flat); err != nil {
		return model.LocalizedText{}, fmt.Errorf("%w: unrecognized seoMetaData shape", ErrInvalidQuestionInput)
	}
	return flat, nil
}
