package model

import "encoding/json"

// Difficulty level codes accepted by the content API.
const (
	DifficultyEasy   = "EASY"
	DifficultyMedium = "MEDIUM"
	DifficultyHard   = "HARD"
)

// ResponseDialect selects which semi-structured format the model was
// instructed to answer in.
type ResponseDialect string

const (
	DialectJSON ResponseDialect = "json"
	DialectXML  ResponseDialect = "xml"
)

// LocalizedText is a bilingual text field. The zero value is the
// empty-variant record; neither language is ever null on the wire.
type LocalizedText struct {
	En string `json:"en"`
	Hi string `json:"hi"`
}

// UnmarshalJSON accepts both the documented {en,hi} object and the bare
// string some model responses put where an object belongs. A bare
// string lands in the English variant.
func (t *LocalizedText) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		t.En = plain
		t.Hi = ""
		return nil
	}

	type localizedText LocalizedText
	var obj localizedText
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*t = LocalizedText(obj)
	return nil
}

// ParsedQuestion is the normalized record produced by the response
// parser, before request metadata is merged in.
type ParsedQuestion struct {
	Title               LocalizedText   `json:"title"`
	EnglishTitle        string          `json:"englishTitle"`
	Solution            LocalizedText   `json:"solution"`
	SolutionWOLatex     LocalizedText   `json:"solutionWOLatex"`
	Explanation         LocalizedText   `json:"explanation"`
	DifficultyLevelCode string          `json:"difficultyLevelCode"`
	QuestionNo          string          `json:"questionNo"`
	// SeoMetaData is kept raw because models return it in two shapes:
	// {en,hi} strings or {en:{keywords},hi:{keywords}}. The formatter
	// normalizes it.
	SeoMetaData json.RawMessage `json:"seoMetaData,omitempty"`
}

// QuestionMetadata carries the caller-supplied form fields merged into
// every published record.
type QuestionMetadata struct {
	Prompt             string `validate:"required"`
	Status             string `validate:"required"`
	GradeCode          string `validate:"required"`
	SubjectCode        string `validate:"required"`
	TopicCode          string `validate:"required"`
	PostedByUserID     string `validate:"required"`
	Board              string `validate:"required"`
	Source             string `validate:"required"`
	ChapterNo          string `validate:"required"`
	ExerciseNo         string
	LastQuestionNumber int             `validate:"gte=0"`
	ResponseFormat     ResponseDialect `validate:"omitempty,oneof=json xml"`
}

// CurriculumKey derives the counter-store key from the metadata.
func (m QuestionMetadata) CurriculumKey() CurriculumKey {
	return CurriculumKey{
		Board:       m.Board,
		Source:      m.Source,
		SubjectCode: m.SubjectCode,
		GradeCode:   m.GradeCode,
		TopicCode:   m.TopicCode,
		ChapterNo:   m.ChapterNo,
	}
}

// PublishableQuestion is the final record submitted to the content API.
// Field names match the API's JSON contract.
type PublishableQuestion struct {
	Title               LocalizedText `json:"title"`
	EnglishTitle        string        `json:"englishTitle,omitempty"`
	Solution            LocalizedText `json:"solution"`
	SolutionWOLatex     LocalizedText `json:"solutionWOLatex,omitempty"`
	Explanation         LocalizedText `json:"explanation"`
	Status              string        `json:"status"`
	GradeCode           string        `json:"gradeCode"`
	SubjectCode         string        `json:"subjectCode"`
	TopicCode           string        `json:"topicCode"`
	DifficultyLevelCode string        `json:"difficultyLevelCode"`
	PostedByUserID      string        `json:"postedByUserId"`
	SeoTitle            LocalizedText `json:"seoTitle"`
	SeoDescription      LocalizedText `json:"seoDescription"`
	SeoMetaData         LocalizedText `json:"seoMetaData"`
	QuestionNo          string        `json:"questionNo"`
	Board               string        `json:"board"`
	Source              string        `json:"source"`
	ChapterNo           string        `json:"chapterNo"`
	SeqNumber           int           `json:"seqNumber"`
	ExerciseNo          string        `json:"exerciseNo,omitempty"`
}
