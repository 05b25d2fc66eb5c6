package router

import (
	"os"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sahilchouksey/quiz-extraction-api/handlers"
	extract_handlers "github.com/sahilchouksey/quiz-extraction-api/handlers/extract"
	"github.com/sahilchouksey/quiz-extraction-api/services"
	"github.com/sahilchouksey/quiz-extraction-api/utils/middleware"
)

func SetupRoutes(app *fiber.App, orchestrator *services.ExtractionOrchestrator) {
	// Apply security middleware
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:3001"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,             // 100 requests
		RateLimitWindow:   1 * time.Minute, // per minute
	})

	// Health check endpoint (public)
	app.Get("/ping", handlers.Ping)

	// Extraction endpoint
	extractHandler := extract_handlers.NewHandler(orchestrator)
	app.Post("/process_pdf", extractHandler.ProcessPDF)
}
