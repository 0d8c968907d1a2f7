// Package genai provides a mock client for testing without API access.
package genai

import (
	"context"
	"fmt"
	"sync"
)

// MockClient implements ClientInterface for testing. Responses are scripted
// per schema name and consumed in order; calls are recorded for assertions.
type MockClient struct {
	mu sync.Mutex

	// TextResponses are returned by GenerateText in order.
	TextResponses []string
	// StructuredResponses are returned by GenerateStructured in order,
	// keyed by schema name.
	StructuredResponses map[string][]string
	// Err, when set, is returned by every call.
	Err error

	// TextCalls records the user prompts passed to GenerateText.
	TextCalls []string
	// StructuredCalls records every structured request.
	StructuredCalls []StructuredRequest
}

// NewMockClient creates an empty mock client.
func NewMockClient() *MockClient {
	return &MockClient{StructuredResponses: make(map[string][]string)}
}

// QueueText appends a scripted plain-text response.
func (m *MockClient) QueueText(response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TextResponses = append(m.TextResponses, response)
}

// QueueStructured appends a scripted structured response for a schema name.
func (m *MockClient) QueueStructured(schemaName, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StructuredResponses == nil {
		m.StructuredResponses = make(map[string][]string)
	}
	m.StructuredResponses[schemaName] = append(m.StructuredResponses[schemaName], response)
}

func (m *MockClient) GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TextCalls = append(m.TextCalls, userPrompt)
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.TextResponses) == 0 {
		return "", fmt.Errorf("mock: no text response queued")
	}
	resp := m.TextResponses[0]
	m.TextResponses = m.TextResponses[1:]
	return resp, nil
}

func (m *MockClient) GenerateStructured(ctx context.Context, req StructuredRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StructuredCalls = append(m.StructuredCalls, req)
	if m.Err != nil {
		return "", m.Err
	}
	queue := m.StructuredResponses[req.SchemaName]
	if len(queue) == 0 {
		return "", fmt.Errorf("mock: no structured response queued for schema %s", req.SchemaName)
	}
	resp := queue[0]
	m.StructuredResponses[req.SchemaName] = queue[1:]
	return resp, nil
}
