package services

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/sahilchouksey/quiz-extraction-api/model"
)

func testMetadata() model.QuestionMetadata {
	return model.QuestionMetadata{
		Prompt:         "extract a question",
		Status:         "DRAFT",
		GradeCode:      "10",
		SubjectCode:    "math",
		TopicCode:      "algebra",
		PostedByUserID: "user-1",
		Board:          "cbse",
		Source:         "ncert",
		ChapterNo:      "4",
		ExerciseNo:     "4.2",
	}
}

func testParsed() model.ParsedQuestion {
	return model.ParsedQuestion{
		Title:               model.LocalizedText{En: "What is 2+2?"},
		Solution:            model.LocalizedText{En: "4"},
		Explanation:         model.LocalizedText{En: "Basic addition"},
		DifficultyLevelCode: "MEDIUM",
		QuestionNo:          "3",
	}
}

func TestFormatMergesMetadataAndSequence(t *testing.T) {
	f := NewQuestionFormatter()
	parsed := testParsed()

	got, err := f.Format(&parsed, testMetadata(), 40)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	if got.SeqNumber != 40 {
		t.Errorf("seqNumber = %d, want 40", got.SeqNumber)
	}
	if got.Status != "DRAFT" || got.Board != "cbse" || got.ChapterNo != "4" {
		t.Errorf("metadata not merged: %+v", got)
	}
	if got.PostedByUserID != "user-1" {
		t.Errorf("postedByUserId = %q", got.PostedByUserID)
	}
	if got.ExerciseNo != "4.2" {
		t.Errorf("exerciseNo = %q", got.ExerciseNo)
	}
	if got.DifficultyLevelCode != "MEDIUM" {
		t.Errorf("difficultyLevelCode = %q", got.DifficultyLevelCode)
	}
}

func TestFormatDefaultsDifficultyToEasy(t *testing.T) {
	f := NewQuestionFormatter()
	parsed := testParsed()
	parsed.DifficultyLevelCode = ""

	got, err := f.Format(&parsed, testMetadata(), 10)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if got.DifficultyLevelCode != model.DifficultyEasy {
		t.Errorf("difficultyLevelCode = %q, want %q", got.DifficultyLevelCode, model.DifficultyEasy)
	}
}

func TestFormatDerivesSeoFields(t *testing.T) {
	f := NewQuestionFormatter()
	parsed := testParsed()

	got, err := f.Format(&parsed, testMetadata(), 10)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	if got.SeoTitle != parsed.Title {
		t.Errorf("seoTitle = %+v, want title %+v", got.SeoTitle, parsed.Title)
	}
	if got.SeoDescription.En != "4\n\nBasic addition" {
		t.Errorf("seoDescription.en = %q", got.SeoDescription.En)
	}
	// empty sections collapse instead of leaving stray separators
	parsed.Explanation = model.LocalizedText{}
	got, err = f.Format(&parsed, testMetadata(), 10)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if got.SeoDescription.En != "4" {
		t.Errorf("seoDescription.en with empty explanation = %q, want %q", got.SeoDescription.En, "4")
	}
}

func TestFormatNormalizesSeoMetaDataShapes(t *testing.T) {
	f := NewQuestionFormatter()

	t.Run("nested keywords shape", func(t *testing.T) {
		parsed := testParsed()
		parsed.SeoMetaData = json.RawMessage(`{"en": {"keywords": "algebra, equations"}, "hi": {"keywords": "बीजगणित"}}`)

		got, err := f.Format(&parsed, testMetadata(), 10)
		if err != nil {
			t.Fatalf("Format() error = %v", err)
		}
		if got.SeoMetaData.En != "algebra, equations" {
			t.Errorf("seoMetaData.en = %q", got.SeoMetaData.En)
		}
		if got.SeoMetaData.Hi != "बीजगणित" {
			t.Errorf("seoMetaData.hi = %q", got.SeoMetaData.Hi)
		}
	})

	t.Run("flat shape", func(t *testing.T) {
		parsed := testParsed()
		parsed.SeoMetaData = json.RawMessage(`{"en": "algebra", "hi": ""}`)

		got, err := f.Format(&parsed, testMetadata(), 10)
		if err != nil {
			t.Fatalf("Format() error = %v", err)
		}
		if got.SeoMetaData.En != "algebra" {
			t.Errorf("seoMetaData.en = %q", got.SeoMetaData.En)
		}
	})

	t.Run("absent stays empty", func(t *testing.T) {
		parsed := testParsed()
		parsed.SeoMetaData = nil

		got, err := f.Format(&parsed, testMetadata(), 10)
		if err != nil {
			t.Fatalf("Format() error = %v", err)
		}
		if got.SeoMetaData != (model.LocalizedText{}) {
			t.Errorf("seoMetaData = %+v, want zero", got.SeoMetaData)
		}
	})

	t.Run("unrecognized shape is rejected", func(t *testing.T) {
		parsed := testParsed()
		parsed.SeoMetaData = json.RawMessage(`[1, 2, 3]`)

		_, err := f.Format(&parsed, testMetadata(), 10)
		if !errors.Is(err, ErrInvalidQuestionInput) {
			t.Errorf("Format() error = %v, want ErrInvalidQuestionInput", err)
		}
	})
}

func TestFormatIsDeterministic(t *testing.T) {
	f := NewQuestionFormatter()
	parsed := testParsed()

	first, err := f.Format(&parsed, testMetadata(), 20)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	second, err := f.Format(&parsed, testMetadata(), 20)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if *first != *second {
		t.Errorf("same input produced different records:\n%+v\n%+v", first, second)
	}
}

func TestFormatRejectsNilInput(t *testing.T) {
	f := NewQuestionFormatter()

	_, err := f.Format(nil, testMetadata(), 10)
	if !errors.Is(err, ErrInvalidQuestionInput) {
		t.Errorf("Format(nil) error = %v, want ErrInvalidQuestionInput", err)
	}
}
