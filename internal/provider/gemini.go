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

// GeminiConfig configures the Gemini client.
type GeminiConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Timeout        time.Duration
	MaxConcurrency int
}

// DefaultGeminiConfig returns sensible defaults.
func DefaultGeminiConfig(apiKey string) GeminiConfig {
	return GeminiConfig{
		APIKey:         apiKey,
		BaseURL:        "https://generativelanguage.googleapis.com/v1beta",
		Model:          "gemini-2.0-flash",
		Timeout:        30 * time.Second,
		MaxConcurrency: 3,
	}
}

// GeminiClient implements LLMClient for the Google Gemini API.
type GeminiClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	sem        chan struct{}

	mu          sync.Mutex
	lastRequest time.Time
}

// NewGeminiClient creates a Gemini client with default config.
func NewGeminiClient(apiKey string) *GeminiClient {
	return NewGeminiClientWithConfig(DefaultGeminiConfig(apiKey))
}

// NewGeminiClientWithConfig creates a Gemini client with custom config.
func NewGeminiClientWithConfig(config GeminiConfig) *GeminiClient {
	model := strings.TrimSpace(config.Model)
	if model == "" {
		model = "gemini-2.0-flash"
	}
	maxConc := config.MaxConcurrency
	if maxConc <= 0 {
		maxConc = 3
	}
	return &GeminiClient{
		apiKey:     config.APIKey,
		baseURL:    config.BaseURL,
		model:      model,
		httpClient: &http.Client{Timeout: config.Timeout},
		sem:        make(chan struct{}, maxConc),
	}
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete sends a prompt and returns the completion.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem sends a prompt with a system message.
func (c *GeminiClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	if c.apiKey == "" {
		return "", &types.ProviderFailure{Provider: "gemini", Op: "complete",
			Err: fmt.Errorf("API key not configured")}
	}

	select {
	case c.sem <- struct{}{}:
		defer func() { <-c.sem }()
	case <-ctx.Done():
		return "", &types.ProviderFailure{Provider: "gemini", Op: "complete", Err: ctx.Err()}
	}

	// Rate limiting
	c.mu.Lock()
	elapsed := time.Since(c.lastRequest)
	if elapsed < 100*time.Millisecond {
		time.Sleep(100*time.Millisecond - elapsed)
	}
	c.lastRequest = time.Now()
	c.mu.Unlock()

	timer := logging.StartTimer(logging.CategoryProvider, "gemini completion")
	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: userPrompt}}},
		},
	}
	if systemPrompt != "" {
		reqBody.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: systemPrompt}}}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", &types.ProviderFailure{Provider: "gemini", Op: "marshal", Err: err}
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonData))
	if err != nil {
		return "", &types.ProviderFailure{Provider: "gemini", Op: "request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &types.ProviderFailure{Provider: "gemini", Op: "transport", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &types.ProviderFailure{Provider: "gemini", Op: "read", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &types.ProviderFailure{Provider: "gemini", Op: "complete",
			Err: fmt.Errorf("status %d: %s", resp.StatusCode, truncateBody(body))}
	}

	var gr geminiResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return "", &types.ProviderFailure{Provider: "gemini", Op: "parse", Err: err}
	}
	if gr.Error != nil {
		return "", &types.ProviderFailure{Provider: "gemini", Op: "complete",
			Err: fmt.Errorf("API error: %s", gr.Error.Message)}
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", &types.ProviderFailure{Provider: "gemini", Op: "complete",
			Err: fmt.Errorf("no completion returned")}
	}

	var result strings.Builder
	for _, part := range gr.Candidates[0].Content.Parts {
		result.WriteString(part.Text)
	}
	out := strings.TrimSpace(result.String())
	timer.StopWithThreshold(10 * time.Second)
	return out, nil
}

func truncateBody(body []byte) string {
	s := string(body)
	if len(s) > 500 {
		return s[:500]
	}
	return s
}
