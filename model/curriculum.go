package model

import "fmt"

// CurriculumKey identifies the curriculum slice a request operates on.
// All counters and the prompt target are scoped by this key.
type CurriculumKey struct {
	Board       string
	Source      string
	SubjectCode string
	GradeCode   string
	TopicCode   string
	ChapterNo   string
}

// String renders the flat-file key used by the counter stores.
func (k CurriculumKey) String() string {
	return fmt.Sprintf("%s_%s_%s_%s_%s_%s",
		k.Board, k.Source, k.SubjectCode, k.GradeCode, k.TopicCode, k.ChapterNo)
}

// QuestionKey renders the key for the question-ordinal namespace. The
// suffix keeps the two namespaces from colliding inside a shared map.
func (k CurriculumKey) QuestionKey() string {
	return k.String() + "_question"
}
