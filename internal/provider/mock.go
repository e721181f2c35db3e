package provider

import (
	"context"
	"sync"

	"resumeiq/internal/types"
)

// MockClient is a scripted LLMClient for tests and credential-free runs.
// Responses are returned in order; when the script is exhausted the default
// response is returned. Err, when set, is returned for every call.
type MockClient struct {
	mu        sync.Mutex
	responses []string
	index     int

	DefaultResponse string
	Err             error
	Calls           int
	LastSystem      string
	LastPrompt      string
}

// NewMockClient returns a mock with an empty default response.
func NewMockClient() *MockClient {
	return &MockClient{DefaultResponse: "{}"}
}

// Script queues responses to return in order.
func (m *MockClient) Script(responses ...string) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, responses...)
	return m
}

// Complete returns the next scripted response.
func (m *MockClient) Complete(ctx context.Context, prompt string) (string, error) {
	return m.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem returns the next scripted response.
func (m *MockClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &types.ProviderFailure{Provider: "mock", Op: "complete", Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	m.LastSystem = systemPrompt
	m.LastPrompt = userPrompt

	if m.Err != nil {
		return "", &types.ProviderFailure{Provider: "mock", Op: "complete", Err: m.Err}
	}
	if m.index < len(m.responses) {
		resp := m.responses[m.index]
		m.index++
		return resp, nil
	}
	return m.DefaultResponse, nil
}
