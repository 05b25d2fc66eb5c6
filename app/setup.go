package app

import (
	"fmt"
	"os"

	"github.com/sahilchouksey/quiz-extraction-api/api"
	"github.com/sahilchouksey/quiz-extraction-api/config"
	"github.com/sahilchouksey/quiz-extraction-api/router"
	"github.com/sahilchouksey/quiz-extraction-api/services"
	"github.com/sahilchouksey/quiz-extraction-api/services/content"
	"github.com/sahilchouksey/quiz-extraction-api/services/cron"
	"github.com/sahilchouksey/quiz-extraction-api/services/inference"
)

func SetupAndRunServer() error {

	// Load ENV
	if err := config.LoadENV(); err != nil {
		return err
	}

	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	// The data directory holds counter files and temp uploads
	if err := os.MkdirAll(getEnv.DATA_DIR, 0755); err != nil {
		return fmt.Errorf("failed to create data directory %s: %w", getEnv.DATA_DIR, err)
	}

	orchestrator, err := buildOrchestrator(getEnv)
	if err != nil {
		return err
	}

	// Initialize Cron Manager (only if enabled via environment variable)
	var cronManager *cron.CronManager
	if getEnv.CRON_ENABLED != "false" { // Default to enabled
		cronManager = cron.NewCronManager(getEnv.DATA_DIR)
		if err := cronManager.Start(); err != nil {
			print("Warning: Failed to start cron jobs\n")
			print("Error: ", err.Error(), "\n")
			// Don't fail the app, just log the warning
		}
	}

	// Defer stopping cron jobs
	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
	}()

	// Init API
	var server *api.APIServer = api.NewAPIServer(fmt.Sprintf(":%d", getEnv.PORT))
	app := server.GetEngine()

	// Setup Routes (security middleware attaches inside)
	router.SetupRoutes(app, orchestrator)

	// Get the PORT & Start the Server
	return server.Run()

}

// buildOrchestrator wires the extraction pipeline from configuration.
func buildOrchestrator(env *config.EnviornmentVariable) (*services.ExtractionOrchestrator, error) {
	var extractor services.TextExtractor
	switch env.PDF_EXTRACTION_MODE {
	case "remote":
		if env.PDF_READER_URL == "" {
			return nil, fmt.Errorf("PDF_READER_URL is required for remote extraction mode")
		}
		extractor = services.NewPDFReaderClient(env.PDF_READER_URL, env.PDF_READER_API_KEY)
	case "local":
		extractor = services.NewPDFExtractor()
	default:
		return nil, fmt.Errorf("unknown PDF_EXTRACTION_MODE %q", env.PDF_EXTRACTION_MODE)
	}

	inferenceClient := inference.NewClient(inference.Config{
		APIKey:  env.INFERENCE_API_KEY,
		BaseURL: env.INFERENCE_BASE_URL,
		Model:   env.INFERENCE_MODEL,
	})

	contentClient := content.NewClient(content.Config{
		LoginURL:    env.LOGIN_API_URL,
		QuestionURL: env.QUESTION_API_URL,
		Email:       env.API_EMAIL,
		Password:    env.API_PASSWORD,
	})

	counters := services.NewCounterStore(env.DATA_DIR, env.EXAMPLE_NUMBERS_FILE)
	previous := services.NewPreviousQuestionStore(env.DATA_DIR)

	return services.NewExtractionOrchestrator(
		env.DATA_DIR,
		extractor,
		&services.InferenceGenerator{Client: inferenceClient},
		contentClient,
		counters,
		previous,
	), nil
}
