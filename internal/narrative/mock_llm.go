package narrative

import (
	"context"
	"encoding/json"
	"sync"
)

// MockLLM is a deterministic LLM implementation for testing.
// It is safe for concurrent use.
type MockLLM struct {
	// Response is the fixed raw output returned by Generate.
	// If empty, a default content document is generated.
	Response string

	// Respond, if set, computes the raw output per request and takes
	// precedence over Response.
	Respond func(req Request) (string, error)

	// Error, if set, is returned by Generate instead of a response.
	Error error

	mu       sync.Mutex
	requests []Request
}

// NewMockLLM creates a mock LLM with the given fixed raw output.
func NewMockLLM(response string) *MockLLM {
	return &MockLLM{Response: response}
}

// NewMockLLMWithError creates a mock LLM that always returns an error.
func NewMockLLMWithError(err error) *MockLLM {
	return &MockLLM{Error: err}
}

// NewMockLLMFunc creates a mock LLM that answers each request with fn.
func NewMockLLMFunc(fn func(req Request) (string, error)) *MockLLM {
	return &MockLLM{Respond: fn}
}

// Generate records the request and returns the configured output.
func (m *MockLLM) Generate(ctx context.Context, req Request) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.Error != nil {
		return "", m.Error
	}
	if m.Respond != nil {
		return m.Respond(req)
	}
	if m.Response != "" {
		return m.Response, nil
	}

	return ContentJSON("This is a generated episode."), nil
}

// Requests returns a copy of every request received so far.
func (m *MockLLM) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// LastRequest returns the most recent request, or a zero Request.
func (m *MockLLM) LastRequest() Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return Request{}
	}
	return m.requests[len(m.requests)-1]
}

// LastPrompt returns the content of the last message of the most recent request.
func (m *MockLLM) LastPrompt() string {
	req := m.LastRequest()
	if len(req.Messages) == 0 {
		return ""
	}
	return req.Messages[len(req.Messages)-1].Content
}

// ContentJSON encodes text as a ContentOutput document.
func ContentJSON(text string) string {
	data, _ := json.Marshal(ContentOutput{Content: text})
	return string(data)
}

// SummaryJSON encodes text as a SummaryOutput document.
func SummaryJSON(text string) string {
	data, _ := json.Marshal(SummaryOutput{Summary: text})
	return string(data)
}
