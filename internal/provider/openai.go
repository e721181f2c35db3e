package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"resumeiq/internal/logging"
	"resumeiq/internal/types"
)

// OpenAIConfig configures the OpenAI-compatible client.
type OpenAIConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Timeout        time.Duration
	MaxConcurrency int
}

// DefaultOpenAIConfig returns sensible defaults.
func DefaultOpenAIConfig(apiKey string) OpenAIConfig {
	return OpenAIConfig{
		APIKey:         apiKey,
		BaseURL:        "https://api.openai.com/v1",
		Model:          "gpt-4o-mini",
		Timeout:        30 * time.Second,
		MaxConcurrency: 3,
	}
}

// OpenAIClient implements LLMClient against the chat-completions API.
// Works with any OpenAI-compatible gateway via BaseURL.
type OpenAIClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	sem        chan struct{}

	mu          sync.Mutex
	lastRequest time.Time
}

// NewOpenAIClient creates an OpenAI client with default config.
func NewOpenAIClient(apiKey string) *OpenAIClient {
	return NewOpenAIClientWithConfig(DefaultOpenAIConfig(apiKey))
}

// NewOpenAIClientWithConfig creates an OpenAI client with custom config.
func NewOpenAIClientWithConfig(config OpenAIConfig) *OpenAIClient {
	model := strings.TrimSpace(config.Model)
	if model == "" {
		model = "gpt-4o-mini"
	}
	maxConc := config.MaxConcurrency
	if maxConc <= 0 {
		maxConc = 3
	}
	return &OpenAIClient{
		apiKey:     config.APIKey,
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: config.Timeout},
		sem:        make(chan struct{}, maxConc),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete sends a prompt and returns the completion.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem sends a prompt with a system message.
func (c *OpenAIClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	if c.apiKey == "" {
		return "", &types.ProviderFailure{Provider: "openai", Op: "complete",
			Err: fmt.Errorf("API key not configured")}
	}

	select {
	case c.sem <- struct{}{}:
		defer func() { <-c.sem }()
	case <-ctx.Done():
		return "", &types.ProviderFailure{Provider: "openai", Op: "complete", Err: ctx.Err()}
	}

	// Rate limiting
	c.mu.Lock()
	elapsed := time.Since(c.lastRequest)
	if elapsed < 100*time.Millisecond {
		time.Sleep(100*time.Millisecond - elapsed)
	}
	c.lastRequest = time.Now()
	c.mu.Unlock()

	timer := logging.StartTimer(logging.CategoryProvider, "openai completion")
	var messages []chatMessage
	if systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: userPrompt})

	jsonData, err := json.Marshal(chatRequest{Model: c.model, Messages: messages})
	if err != nil {
		return "", &types.ProviderFailure{Provider: "openai", Op: "marshal", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", &types.ProviderFailure{Provider: "openai", Op: "request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &types.ProviderFailure{Provider: "openai", Op: "transport", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &types.ProviderFailure{Provider: "openai", Op: "read", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &types.ProviderFailure{Provider: "openai", Op: "complete",
			Err: fmt.Errorf("status %d: %s", resp.StatusCode, truncateBody(body))}
	}

	var cr chatResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return "", &types.ProviderFailure{Provider: "openai", Op: "parse", Err: err}
	}
	if cr.Error != nil {
		return "", &types.ProviderFailure{Provider: "openai", Op: "complete",
			Err: fmt.Errorf("API error: %s", cr.Error.Message)}
	}
	if len(cr.Choices) == 0 {
		return "", &types.ProviderFailure{Provider: "openai", Op: "complete",
			Err: fmt.Errorf("no completion returned")}
	}

	out := strings.TrimSpace(cr.Choices[0].Message.Content)
	timer.StopWithThreshold(10 * time.Second)
	return out, nil
}
