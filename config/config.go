package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// This function will Load the ENVIORNMENT VARIABLES from .env if GO_ENV variable is not set
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		err := godotenv.Load()
		if err != nil {
			return err
		}
	}

	return nil
}

type EnviornmentVariable struct {
	// All variables
	GO_ENV string
	PORT   int
	// Pipeline state directory (counter files, temp uploads)
	DATA_DIR string
	// PDF extraction: "local" (in-process) or "remote" (read-pdf service)
	PDF_EXTRACTION_MODE string
	PDF_READER_URL      string
	PDF_READER_API_KEY  string
	// Inference API (OpenAI-compatible)
	INFERENCE_API_KEY  string
	INFERENCE_BASE_URL string
	INFERENCE_MODEL    string
	// Content API
	LOGIN_API_URL    string
	QUESTION_API_URL string
	API_EMAIL        string
	API_PASSWORD     string
	// Optional ordered example-number list for non-contiguous numbering
	EXAMPLE_NUMBERS_FILE string
	// Scheduled maintenance; anything but "false" enables it
	CRON_ENABLED string
}

func Get() (*EnviornmentVariable, error) {

	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		port = 8080
	}

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "./data"
	}

	extractionMode := os.Getenv("PDF_EXTRACTION_MODE")
	if extractionMode == "" {
		extractionMode = "local"
	}

	envVariables := &EnviornmentVariable{
		GO_ENV:              os.Getenv("GO_ENV"),
		PORT:                port,
		DATA_DIR:            dataDir,
		PDF_EXTRACTION_MODE: extractionMode,
		PDF_READER_URL:      os.Getenv("PDF_READER_URL"),
		PDF_READER_API_KEY:  os.Getenv("PDF_READER_API_KEY"),
		// Inference
		INFERENCE_API_KEY:  os.Getenv("INFERENCE_API_KEY"),
		INFERENCE_BASE_URL: os.Getenv("INFERENCE_BASE_URL"),
		INFERENCE_MODEL:    os.Getenv("INFERENCE_MODEL"),
		// Content API
		LOGIN_API_URL:    os.Getenv("LOGIN_API_URL"),
		QUESTION_API_URL: os.Getenv("QUESTION_API_URL"),
		API_EMAIL:        os.Getenv("API_EMAIL"),
		API_PASSWORD:     os.Getenv("API_PASSWORD"),
		// Optional
		EXAMPLE_NUMBERS_FILE: os.Getenv("EXAMPLE_NUMBERS_FILE"),
		CRON_ENABLED:         os.Getenv("CRON_ENABLED"),
	}

	return envVariables, nil
}
