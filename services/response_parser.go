package services

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/sahilchouksey/quiz-extraction-api/model"
	"github.com/sahilchouksey/quiz-extraction-api/utils"
)

// ErrPlainText signals that the model response carries no recognizable
// structured payload. The orchestrator treats this as a legitimate
// terminal outcome (return the raw text, touch nothing), not a failure.
var ErrPlainText = errors.New("model response is not in a recognized structured format")

// ErrNotARecord signals that the fenced payload parsed to something
// other than a question record (a bare string, a number, a list of
// scalars). This is a validation error, not a parse error.
var ErrNotARecord = errors.New("parsed payload is not a question record")

// ErrMalformedXML signals structurally broken XML. Unlike JSON there is
// no reliable recovery path once the element tree is broken, so this is
// reported upward instead of degraded.
var ErrMalformedXML = errors.New("malformed XML in model response")

// ResponseParser converts raw LLM text into normalized question
// records. It supports the two dialects the prompts ask for and a
// last-resort field scanner for JSON the model mangled beyond repair.
type ResponseParser struct{}

// NewResponseParser creates a response parser.
func NewResponseParser() *ResponseParser {
	return &ResponseParser{}
}

// Parse extracts question records from a raw model response. Multiple
// records (a fenced JSON array) are returned in response order.
//
// JSON dialect errors are ErrPlainText (nothing parseable, fall back to
// raw text) or ErrNotARecord. The XML dialect additionally reports
// ErrMalformedXML as a hard error.
func (p *ResponseParser) Parse(raw string, dialect model.ResponseDialect) ([]model.ParsedQuestion, error) {
	switch dialect {
	case model.DialectXML:
		return p.parseXML(raw)
	default:
		return p.parseJSON(raw)
	}
}

func (p *ResponseParser) parseJSON(raw string) ([]model.ParsedQuestion, error) {
	body, ok := utils.ExtractFencedBlock(raw, "json")
	if !ok {
		return nil, ErrPlainText
	}

	repaired := utils.RepairJSON(body)

	if questions, err := decodeQuestionJSON(repaired); err == nil {
		return questions, nil
	} else if errors.Is(err, ErrNotARecord) {
		return nil, err
	} else {
		log.Printf("[ResponseParser] Strict JSON parse failed (%v), trying field scan", err)
	}

	// Last resort: brace-matching field scan over the unrepaired body.
	if q, ok := scanQuestionFields(body); ok {
		return []model.ParsedQuestion{q}, nil
	}

	log.Printf("[ResponseParser] Field scan found nothing usable (response length=%d)", len(raw))
	return nil, ErrPlainText
}

// decodeQuestionJSON accepts a single object or an array of objects.
func decodeQuestionJSON(s string) ([]model.ParsedQuestion, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, fmt.Errorf("empty payload")
	}

	if strings.HasPrefix(trimmed, "[") {
		var elems []json.RawMessage
		if err := json.Unmarshal([]byte(trimmed), &elems); err != nil {
			return nil, err
		}
		if len(elems) == 0 {
			return nil, fmt.Errorf("empty array payload")
		}
		questions := make([]model.ParsedQuestion, 0, len(elems))
		for _, elem := range elems {
			q, err := decodeQuestionObject(elem)
			if err != nil {
				return nil, err
			}
			questions = append(questions, q)
		}
		return questions, nil
	}

	if strings.HasPrefix(trimmed, "{") {
		q, err := decodeQuestionObject(json.RawMessage(trimmed))
		if err != nil {
			return nil, err
		}
		return []model.ParsedQuestion{q}, nil
	}

	// Valid JSON but not an object or array (a bare string, a number).
	if json.Valid([]byte(trimmed)) {
		return nil, ErrNotARecord
	}
	return nil, fmt.Errorf("payload is not valid JSON")
}

func decodeQuestionObject(data json.RawMessage) (model.ParsedQuestion, error) {
	var probe interface{}
	if err := json.Unmarshal(data, &probe); err != nil {
		return model.ParsedQuestion{}, err
	}
	if _, isObject := probe.(map[string]interface{}); !isObject {
		return model.ParsedQuestion{}, ErrNotARecord
	}

	var q model.ParsedQuestion
	if err := json.Unmarshal(data, &q); err != nil {
		return model.ParsedQuestion{}, err
	}
	q.DifficultyLevelCode = strings.ToUpper(strings.TrimSpace(q.DifficultyLevelCode))
	q.QuestionNo = strings.TrimSpace(q.QuestionNo)
	return q, nil
}

// scanQuestionFields builds a record from the lenient five-field scan.
func scanQuestionFields(body string) (model.ParsedQuestion, bool) {
	fields := utils.ExtractQuestionFields(body)
	if fields == nil {
		return model.ParsedQuestion{}, false
	}

	var q model.ParsedQuestion
	q.Title = scannedLocalizedText(fields["title"])
	q.Solution = scannedLocalizedText(fields["solution"])
	q.Explanation = scannedLocalizedText(fields["explanation"])
	q.DifficultyLevelCode = strings.ToUpper(strings.TrimSpace(fields["difficultyLevelCode"]))
	q.QuestionNo = strings.TrimSpace(fields["questionNo"])

	if q.Title == (model.LocalizedText{}) && q.Solution == (model.LocalizedText{}) {
		return model.ParsedQuestion{}, false
	}
	return q, true
}

// scannedLocalizedText decodes a scanned field value: a "{...}"
// substring is repaired and unmarshaled, anything else is treated as
// English text.
func scannedLocalizedText(v string) model.LocalizedText {
	v = strings.TrimSpace(v)
	if v == "" {
		return model.LocalizedText{}
	}
	if strings.HasPrefix(v, "{") {
		var t model.LocalizedText
		if err := json.Unmarshal([]byte(utils.RepairJSON(v)), &t); err == nil {
			return t
		}
	}
	return model.LocalizedText{En: v}
}

// xmlQuestion mirrors the fixed leaf paths of the XML response format.
type xmlQuestion struct {
	XMLName             xml.Name `xml:"question"`
	TitleEn             string   `xml:"title>en"`
	EnglishTitle        string   `xml:"englishTitle"`
	SolutionEn          string   `xml:"solution>en"`
	SolutionWOLatexEn   string   `xml:"solutionWOLatex>en"`
	ExplanationEn       string   `xml:"explanation>en"`
	DifficultyLevelCode string   `xml:"difficultyLevelCode"`
	QuestionNo          string   `xml:"questionNo"`
}

func (p *ResponseParser) parseXML(raw string) ([]model.ParsedQuestion, error) {
	body, ok := utils.ExtractFencedBlock(raw, "xml")
	if !ok {
		// Accept an unfenced document as long as a question element is
		// in there somewhere.
		if !strings.Contains(raw, "<question") {
			return nil, ErrPlainText
		}
		body = raw
	}

	q, err := decodeQuestionXML(body)
	if err != nil {
		return nil, err
	}
	return []model.ParsedQuestion{q}, nil
}

// decodeQuestionXML walks the token stream to the first question
// element, so both `<question>` roots and wrapper documents decode.
func decodeQuestionXML(body string) (model.ParsedQuestion, error) {
	decoder := xml.NewDecoder(strings.NewReader(body))
	decoder.Strict = true

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			return model.ParsedQuestion{}, fmt.Errorf("%w: no question element found", ErrMalformedXML)
		}
		if err != nil {
			return model.ParsedQuestion{}, fmt.Errorf("%w: %v", ErrMalformedXML, err)
		}

		start, isStart := token.(xml.StartElement)
		if !isStart || start.Name.Local != "question" {
			continue
		}

		var parsed xmlQuestion
		if err := decoder.DecodeElement(&parsed, &start); err != nil {
			return model.ParsedQuestion{}, fmt.Errorf("%w: %v", ErrMalformedXML, err)
		}

		return model.ParsedQuestion{
			Title:               model.LocalizedText{En: strings.TrimSpace(parsed.TitleEn)},
			EnglishTitle:        strings.TrimSpace(parsed.EnglishTitle),
			Solution:            model.LocalizedText{En: strings.TrimSpace(parsed.SolutionEn)},
			SolutionWOLatex:     model.LocalizedText{En: strings.TrimSpace(parsed.SolutionWOLatexEn)},
			Explanation:         model.LocalizedText{En: strings.TrimSpace(parsed.ExplanationEn)},
			DifficultyLevelCode: strings.ToUpper(strings.TrimSpace(parsed.DifficultyLevelCode)),
			QuestionNo:          strings.TrimSpace(parsed.QuestionNo),
		}, nil
	}
}
