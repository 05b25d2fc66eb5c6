package inference

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSimpleCompletion(t *testing.T) {
	var gotReq Request
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(Response{
			Choices: []Choice{
				{Message: Message{Role: "assistant", Content: "```json\n{}\n```"}},
			},
		})
	}))
	defer server.Close()

	client := NewClient(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-model",
	})

	got, err := client.SimpleCompletion(context.Background(), "system prompt", "user prompt")
	if err != nil {
		t.Fatalf("SimpleCompletion() error = %v", err)
	}

	if got != "```json\n{}\n```" {
		t.Errorf("content = %q", got)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if gotReq.Model != "test-model" {
		t.Errorf("model = %q", gotReq.Model)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Role != "user" {
		t.Errorf("messages = %+v", gotReq.Messages)
	}
}

func TestSimpleCompletionNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Response{})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL})

	if _, err := client.SimpleCompletion(context.Background(), "s", "u"); err == nil {
		t.Fatal("SimpleCompletion() succeeded with empty choices")
	}
}

func TestChatCompletionAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": "rate limited"}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL})

	_, err := client.ChatCompletion(context.Background(), []Message{{Role: "user", Content: "hi"}})
	if err == nil {
		t.Fatal("ChatCompletion() succeeded despite 429")
	}
}

func TestOptionsOverrideDefaults(t *testing.T) {
	var gotReq Request

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(Response{
			Choices: []Choice{{Message: Message{Content: "ok"}}},
		})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL})

	_, err := client.ChatCompletion(context.Background(),
		[]Message{{Role: "user", Content: "hi"}},
		WithModel("other-model"),
		WithTemperature(0.9),
		WithMaxTokens(128),
	)
	if err != nil {
		t.Fatalf("ChatCompletion() error = %v", err)
	}

	if gotReq.Model != "other-model" {
		t.Errorf("model = %q", gotReq.Model)
	}
	if gotReq.Temperature != 0.9 {
		t.Errorf("temperature = %v", gotReq.Temperature)
	}
	if gotReq.MaxTokens != 128 {
		t.Errorf("maxTokens = %d", gotReq.MaxTokens)
	}
}
