package response

import (
	"github.com/gofiber/fiber/v2"
)

// Response represents a standardized API response
type Response struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    interface{}  `json:"data,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Detail is the error body shape of the extraction endpoint. Callers of
// /process_pdf (the polling driver among them) key off the detail
// string and the outcome code, so this shape is part of the contract.
type Detail struct {
	Detail  string `json:"detail"`
	Outcome string `json:"outcome,omitempty"`
}

// Success returns a successful response
func Success(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(Response{
		Success: true,
		Data:    data,
	})
}

// SuccessWithMessage returns a successful response with a message
func SuccessWithMessage(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Error returns an error response
func Error(c *fiber.Ctx, statusCode int, message string, code string) error {
	return c.Status(statusCode).JSON(Response{
		Success: false,
		Error: &ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// BadRequestDetail returns a 400 with the {detail} error shape.
func BadRequestDetail(c *fiber.Ctx, detail string) error {
	return c.Status(fiber.StatusBadRequest).JSON(Detail{Detail: detail})
}

// InternalErrorDetail returns a 500 with the {detail} error shape.
func InternalErrorDetail(c *fiber.Ctx, detail string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(Detail{Detail: detail})
}

// InternalErrorOutcome returns a 500 with the {detail} shape plus an
// outcome code the polling driver can branch on without matching text.
func InternalErrorOutcome(c *fiber.Ctx, detail string, outcome string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(Detail{Detail: detail, Outcome: outcome})
}

// BadRequest returns a 400 Bad Request response
func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message, "BAD_REQUEST")
}

// NotFound returns a 404 Not Found response
func NotFound(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Resource not found"
	}
	return Error(c, fiber.StatusNotFound, message, "NOT_FOUND")
}

// InternalServerError returns a 500 Internal Server Error response
func InternalServerError(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Internal server error"
	}
	return Error(c, fiber.StatusInternalServerError, message, "INTERNAL_ERROR")
}
