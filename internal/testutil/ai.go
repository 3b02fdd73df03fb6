package testutil

import (
	"context"
	"strings"
	"sync"
)

// MockEmbedder returns a fixed-dimension vector and records every call.
type MockEmbedder struct {
	mu    sync.Mutex
	Dim   int
	Err   error
	calls []string
}

// NewMockEmbedder creates an embedder producing vectors of the given
// dimension.
func NewMockEmbedder(dim int) *MockEmbedder {
	return &MockEmbedder{Dim: dim}
}

func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	m.calls = append(m.calls, text)
	vec := make([]float32, m.Dim)
	for i, r := range text {
		vec[i%m.Dim] += float32(r) / 1000
	}
	return vec, nil
}

// Calls returns the embedded texts in order.
func (m *MockEmbedder) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// CallCount returns how many times Embed was invoked.
func (m *MockEmbedder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// GeneratorRule maps a prompt substring to a canned response.
type GeneratorRule struct {
	Contains string
	Response string
}

// MockGenerator replies from pattern rules and records every prompt.
type MockGenerator struct {
	mu      sync.Mutex
	Rules   []GeneratorRule
	Default string
	Err     error
	calls   []string
}

// NewMockGenerator creates a generator with a default response.
func NewMockGenerator(defaultResponse string) *MockGenerator {
	return &MockGenerator{Default: defaultResponse}
}

func (m *MockGenerator) Generate(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	m.calls = append(m.calls, prompt)
	for _, r := range m.Rules {
		if strings.Contains(prompt, r.Contains) {
			return r.Response, nil
		}
	}
	return m.Default, nil
}

// Calls returns the prompts in order.
func (m *MockGenerator) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// CallCount returns how many times Generate was invoked.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
