package extract

import (
	"errors"
	"io"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/sahilchouksey/quiz-extraction-api/model"
	"github.com/sahilchouksey/quiz-extraction-api/services"
	"github.com/sahilchouksey/quiz-extraction-api/utils/pdfvalidation"
	"github.com/sahilchouksey/quiz-extraction-api/utils/response"
	"github.com/sahilchouksey/quiz-extraction-api/utils/validation"
)

// Handler owns the /process_pdf endpoint.
type Handler struct {
	orchestrator *services.ExtractionOrchestrator
	validator    *validation.Validator
}

// NewHandler creates the extraction handler.
func NewHandler(orchestrator *services.ExtractionOrchestrator) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		validator:    validation.NewValidator(),
	}
}

// ProcessPDF accepts a multipart chapter upload plus question metadata,
// runs the extraction pipeline and reports the outcome.
//
// Responses: 200 with the published record, 200 with {response} when
// the model answered unstructured text, 400 {detail} for bad input,
// 500 {detail} for pipeline failures, and 500 {detail,outcome:SKIPPED}
// when the chapter has no questions left.
func (h *Handler) ProcessPDF(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("pdf_file")
	if err != nil {
		return response.BadRequestDetail(c, "No file part in the request")
	}

	if !pdfvalidation.HasPDFExtension(fileHeader.Filename) {
		return response.BadRequestDetail(c, "Invalid file type, only PDF is accepted")
	}

	meta, detail := metadataFromForm(c)
	if detail != "" {
		return response.BadRequestDetail(c, detail)
	}

	if err := h.validator.ValidateStruct(meta); err != nil {
		return response.BadRequestDetail(c, validation.JoinValidationErrors(err))
	}

	log.Printf("[ExtractHandler] Request: board=%s source=%s subject=%s grade=%s topic=%s chapter=%s exercise=%s lastQuestionNumber=%d format=%s",
		meta.Board, meta.Source, meta.SubjectCode, meta.GradeCode, meta.TopicCode,
		meta.ChapterNo, meta.ExerciseNo, meta.LastQuestionNumber, meta.ResponseFormat)

	file, err := fileHeader.Open()
	if err != nil {
		return response.InternalErrorDetail(c, "Failed to open uploaded file")
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return response.InternalErrorDetail(c, "Failed to read uploaded file")
	}

	result, err := pdfvalidation.ValidatePDFBytes(content, pdfvalidation.ChapterLimits)
	if err != nil {
		return response.InternalErrorDetail(c, err.Error())
	}
	if !result.Valid {
		return response.BadRequestDetail(c, result.Error)
	}

	outcome, err := h.orchestrator.Process(c.Context(), services.ExtractionRequest{
		Filename: fileHeader.Filename,
		Content:  content,
		Metadata: meta,
	})
	if err != nil {
		log.Printf("[ExtractHandler] Extraction failed for %s: %v", fileHeader.Filename, err)
		// A payload that parsed to something other than a question
		// record is the caller's prompt problem, not a server fault.
		if errors.Is(err, services.ErrNotARecord) || errors.Is(err, services.ErrInvalidQuestionInput) {
			return response.BadRequestDetail(c, err.Error())
		}
		return response.InternalErrorDetail(c, err.Error())
	}

	switch outcome.Kind {
	case services.OutcomePublished:
		return c.Status(fiber.StatusOK).JSON(outcome.Question)
	case services.OutcomeRawResponse:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"response": outcome.RawResponse})
	case services.OutcomeSkipped:
		return response.InternalErrorOutcome(c, "No new questions found", string(services.OutcomeSkipped))
	default:
		return response.InternalErrorDetail(c, "Unknown extraction outcome")
	}
}

// metadataFromForm reads the metadata form fields. Returns a non-empty
// detail string for values that fail before struct validation.
func metadataFromForm(c *fiber.Ctx) (model.QuestionMetadata, string) {
	meta := model.QuestionMetadata{
		Prompt:         validation.SanitizeString(c.FormValue("prompt")),
		Status:         validation.SanitizeString(c.FormValue("status")),
		GradeCode:      validation.SanitizeString(c.FormValue("gradeCode")),
		SubjectCode:    validation.SanitizeString(c.FormValue("subjectCode")),
		TopicCode:      validation.SanitizeString(c.FormValue("topicCode")),
		PostedByUserID: validation.SanitizeString(c.FormValue("postedByUserId")),
		Board:          validation.SanitizeString(c.FormValue("board")),
		Source:         validation.SanitizeString(c.FormValue("source")),
		ChapterNo:      validation.SanitizeString(c.FormValue("chapterNo")),
		ExerciseNo:     validation.SanitizeString(c.FormValue("exerciseNo")),
		ResponseFormat: model.DialectJSON,
	}

	raw := c.FormValue("lastQuestionNumber")
	if raw == "" {
		return meta, "lastQuestionNumber is required"
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return meta, "lastQuestionNumber must be a non-negative integer"
	}
	// 0 disables the chapter bound
	meta.LastQuestionNumber = n

	if raw := c.FormValue("responseFormat"); raw != "" {
		meta.ResponseFormat = model.ResponseDialect(raw)
	}

	return meta, ""
}
