package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sahilchouksey/quiz-extraction-api/model"
)

// DefaultTimeout covers login, create and link calls.
const DefaultTimeout = 60 * time.Second

// tokenExpirySlack forces a re-login slightly before the JWT actually
// expires so an in-flight create never races the expiry.
const tokenExpirySlack = 30 * time.Second

// Client publishes question records to the content API. It logs in
// with service credentials and reuses the bearer token until it
// expires.
type Client struct {
	LoginURL    string
	QuestionURL string
	Email       string
	Password    string
	HTTPClient  *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// Config holds the content API endpoints and credentials.
type Config struct {
	LoginURL    string
	QuestionURL string
	Email       string
	Password    string
}

// NewClient creates a content API client.
func NewClient(config Config) *Client {
	return &Client{
		LoginURL:    config.LoginURL,
		QuestionURL: config.QuestionURL,
		Email:       config.Email,
		Password:    config.Password,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Data struct {
		Token string `json:"token"`
	} `json:"data"`
}

type createResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

type linkRequest struct {
	NextQuestionID string `json:"nextQuestionId"`
}

// Token returns a valid bearer token, logging in if the cached one is
// missing or about to expire.
func (c *Client) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry.Add(-tokenExpirySlack)) {
		return c.token, nil
	}

	token, err := c.login(ctx)
	if err != nil {
		return "", err
	}

	c.token = token
	c.tokenExpiry = tokenExpiry(token)
	return c.token, nil
}

func (c *Client) login(ctx context.Context) (string, error) {
	body, err := json.Marshal(loginRequest{Email: c.Email, Password: c.Password})
	if err != nil {
		return "", fmt.Errorf("failed to marshal login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.LoginURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create login request: %w", err)
	}
	c.setCommonHeaders(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("login failed (status %d): %s", resp.StatusCode, string(respBody))
	}

	var loginResp loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		return "", fmt.Errorf("failed to decode login response: %w", err)
	}
	if loginResp.Data.Token == "" {
		return "", fmt.Errorf("login response carries no token")
	}

	return loginResp.Data.Token, nil
}

// tokenExpiry reads the exp claim without verifying the signature; we
// only need it for cache invalidation, the server verifies for real.
func tokenExpiry(token string) time.Time {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		log.Printf("[ContentClient] Could not parse token expiry, caching for 5 minutes: %v", err)
		return time.Now().Add(5 * time.Minute)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Now().Add(5 * time.Minute)
	}
	return exp.Time
}

// CreateQuestion submits the record and returns the created question's
// ID.
func (c *Client) CreateQuestion(ctx context.Context, question *model.PublishableQuestion) (string, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(question)
	if err != nil {
		return "", fmt.Errorf("failed to marshal question: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.QuestionURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create question request: %w", err)
	}
	c.setCommonHeaders(req)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("create question request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("create question failed (status %d): %s", resp.StatusCode, string(respBody))
	}

	var createResp createResponse
	if err := json.NewDecoder(resp.Body).Decode(&createResp); err != nil {
		return "", fmt.Errorf("failed to decode create response: %w", err)
	}
	if createResp.Data.ID == "" {
		return "", fmt.Errorf("create response carries no question id")
	}

	return createResp.Data.ID, nil
}

// LinkQuestions points the previously published question at the new
// one. Failures here are logged by the caller, not retried; the chain
// self-heals on the next successful publish.
func (c *Client) LinkQuestions(ctx context.Context, previousID, nextID string) error {
	token, err := c.Token(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(linkRequest{NextQuestionID: nextID})
	if err != nil {
		return fmt.Errorf("failed to marshal link request: %w", err)
	}

	url := c.QuestionURL + "/" + previousID
	req, err := http.NewRequestWithContext(ctx, "PUT", url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create link request: %w", err)
	}
	c.setCommonHeaders(req)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("link request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("link questions failed (status %d): %s", resp.StatusCode, string(respBody))
	}

	return nil
}

func (c *Client) setCommonHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en")
	req.Header.Set("Timezone", "Asia/Kolkata")
}
