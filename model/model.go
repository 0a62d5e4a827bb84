// Package model defines the minimal language-model contract consumed by
// agents, plus a deterministic MockModel for tests and examples. Provider
// implementations live in the subpackages openai and anthropic.
package model

import (
	"context"
	"fmt"
)

// Request captures the normalized model input produced by agents.
// Instructions carry the system-role framing; Prompt carries the
// caller-supplied discussion context.
type Request struct {
	Instructions string `json:"instructions"`
	Prompt       string `json:"prompt"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the completed generation returned by a model.
type Response struct {
	Text  string      `json:"text"`
	Usage *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// Model is the minimal interface required by agents to drive generation.
type Model interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
type MockModel struct {
	info      Info
	responses map[string]string
	failWith  error
}

// NewMockModel constructs a MockModel.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: provider},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) { m.responses[prompt] = response }

// FailWith makes every subsequent Generate call return err.
func (m *MockModel) FailWith(err error) { m.failWith = err }

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.failWith != nil {
		return nil, m.failWith
	}
	full := m.responses[req.Prompt]
	if full == "" {
		full = fmt.Sprintf("Mock response to: %s", req.Prompt)
	}
	return &Response{Text: full}, nil
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
