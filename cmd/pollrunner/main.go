package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"time"
)

// pollrunner drives the extraction endpoint through a whole chapter:
// it posts the same PDF and metadata over and over, letting the
// server's question counter walk forward one question per request,
// until the chapter is exhausted or the attempt cap is reached.

type runConfig struct {
	endpoint string
	pdfPath  string
	attempts int
	delay    time.Duration
	fields   map[string]string
}

func main() {
	cfg := parseFlags()

	content, err := os.ReadFile(cfg.pdfPath)
	if err != nil {
		log.Fatalf("Failed to read PDF %s: %v", cfg.pdfPath, err)
	}

	log.Println("==============================================")
	log.Println("  Chapter Extraction Poll Runner")
	log.Println("==============================================")
	log.Printf("  Endpoint: %s", cfg.endpoint)
	log.Printf("  PDF: %s (%.2f KB)", cfg.pdfPath, float64(len(content))/1024)
	log.Printf("  Max attempts: %d, delay: %s", cfg.attempts, cfg.delay)

	client := &http.Client{Timeout: 15 * time.Minute}

	published := 0
	for attempt := 1; attempt <= cfg.attempts; attempt++ {
		if attempt > 1 {
			time.Sleep(cfg.delay)
		}

		log.Printf("[Attempt %d/%d] Posting extraction request...", attempt, cfg.attempts)

		status, body, err := postExtraction(client, cfg, content)
		if err != nil {
			log.Printf("[Attempt %d] Request error: %v", attempt, err)
			continue
		}

		switch {
		case status == http.StatusOK:
			published++
			log.Printf("[Attempt %d] OK: %s", attempt, truncate(body, 300))
		case isSkipped(body):
			log.Printf("[Attempt %d] Chapter exhausted, stopping", attempt)
			summarize(published, attempt)
			return
		default:
			log.Printf("[Attempt %d] Status %d: %s", attempt, status, truncate(body, 300))
		}
	}

	summarize(published, cfg.attempts)
}

func parseFlags() runConfig {
	endpoint := flag.String("url", "http://localhost:8080/process_pdf", "extraction endpoint URL")
	pdfPath := flag.String("pdf", "", "path to the chapter PDF (required)")
	promptFile := flag.String("prompt-file", "", "file containing the base prompt")
	prompt := flag.String("prompt", "", "base prompt text (overridden by -prompt-file)")
	attempts := flag.Int("attempts", 50, "maximum number of requests")
	delay := flag.Duration("delay", 10*time.Second, "delay between requests")

	status := flag.String("status", "DRAFT", "question status")
	gradeCode := flag.String("gradeCode", "", "grade code")
	subjectCode := flag.String("subjectCode", "", "subject code")
	topicCode := flag.String("topicCode", "", "topic code")
	postedBy := flag.String("postedByUserId", "", "posting user id")
	board := flag.String("board", "", "board code")
	source := flag.String("source", "", "source code")
	chapterNo := flag.String("chapterNo", "", "chapter number")
	exerciseNo := flag.String("exerciseNo", "", "exercise number (optional)")
	lastQuestion := flag.Int("lastQuestionNumber", 0, "last question number in the chapter (0 = unbounded)")
	format := flag.String("responseFormat", "json", "model response format (json or xml)")

	flag.Parse()

	if *pdfPath == "" {
		flag.Usage()
		log.Fatal("-pdf is required")
	}

	basePrompt := *prompt
	if *promptFile != "" {
		data, err := os.ReadFile(*promptFile)
		if err != nil {
			log.Fatalf("Failed to read prompt file %s: %v", *promptFile, err)
		}
		basePrompt = string(data)
	}
	if basePrompt == "" {
		log.Fatal("one of -prompt or -prompt-file is required")
	}

	fields := map[string]string{
		"prompt":             basePrompt,
		"status":             *status,
		"gradeCode":          *gradeCode,
		"subjectCode":        *subjectCode,
		"topicCode":          *topicCode,
		"postedByUserId":     *postedBy,
		"board":              *board,
		"source":             *source,
		"chapterNo":          *chapterNo,
		"responseFormat":     *format,
		"lastQuestionNumber": strconv.Itoa(*lastQuestion),
	}
	if *exerciseNo != "" {
		fields["exerciseNo"] = *exerciseNo
	}

	return runConfig{
		endpoint: *endpoint,
		pdfPath:  *pdfPath,
		attempts: *attempts,
		delay:    *delay,
		fields:   fields,
	}
}

func postExtraction(client *http.Client, cfg runConfig, content []byte) (int, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("pdf_file", "chapter.pdf")
	if err != nil {
		return 0, "", err
	}
	if _, err := part.Write(content); err != nil {
		return 0, "", err
	}

	for key, value := range cfg.fields {
		if err := writer.WriteField(key, value); err != nil {
			return 0, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return 0, "", err
	}

	req, err := http.NewRequest("POST", cfg.endpoint, body)
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", err
	}

	return resp.StatusCode, string(respBody), nil
}

// isSkipped checks the error body's outcome code so the runner stops
// on "chapter done" without matching on the detail text.
func isSkipped(body string) bool {
	var parsed struct {
		Outcome string `json:"outcome"`
	}
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return false
	}
	return parsed.Outcome == "SKIPPED"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func summarize(published, attempts int) {
	fmt.Println()
	log.Println("==============================================")
	log.Printf("  Published %d question(s) in %d attempt(s)", published, attempts)
	log.Println("==============================================")
}
