package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// DefaultPDFReaderTimeout allows for slow extraction of large scans.
const DefaultPDFReaderTimeout = 5 * time.Minute

// PDFReaderClient delegates text extraction to the external read-pdf
// service.
type PDFReaderClient struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// pdfReaderResponse is the read-pdf service's response body.
type pdfReaderResponse struct {
	Success bool   `json:"success"`
	Text    string `json:"text"`
}

// NewPDFReaderClient creates a client for the read-pdf service.
func NewPDFReaderClient(baseURL, apiKey string) *PDFReaderClient {
	return &PDFReaderClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: DefaultPDFReaderTimeout,
		},
	}
}

// ExtractText posts the PDF to the read-pdf service and returns the
// extracted text.
func (c *PDFReaderClient) ExtractText(ctx context.Context, content []byte, filename string) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := part.Write(content); err != nil {
		return "", fmt.Errorf("failed to write file content: %w", err)
	}

	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/read-pdf", body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("x-api-key", c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("read-pdf request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("read-pdf service returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var readerResp pdfReaderResponse
	if err := json.NewDecoder(resp.Body).Decode(&readerResp); err != nil {
		return "", fmt.Errorf("failed to decode read-pdf response: %w", err)
	}

	if !readerResp.Success {
		return "", fmt.Errorf("read-pdf service reported extraction failure")
	}

	return readerResp.Text, nil
}
