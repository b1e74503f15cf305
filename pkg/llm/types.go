package llm

import (
	"fmt"
	"time"
)

// Message is a chat message in the conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat selects the completion output format.
type ResponseFormat struct {
	Type string `json:"type"`
}

// ChatRequest is the request payload for the chat completions endpoint.
type ChatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// ChatResponse is the response from the chat completions endpoint.
type ChatResponse struct {
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
	Error   *Error   `json:"error,omitempty"`
}

// Choice is a single completion choice.
type Choice struct {
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Usage is the token usage reported by the API.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Error is an API error body.
type Error struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// RateLimitError is the structured rate-limit signal from the transport.
type RateLimitError struct {
	StatusCode int
	Message    string
	RetryAfter time.Duration
}

// Error returns the error message.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limit exceeded (HTTP %d): %s (retry after %v)",
			e.StatusCode, e.Message, e.RetryAfter)
	}
	return fmt.Sprintf("rate limit exceeded (HTTP %d): %s", e.StatusCode, e.Message)
}

// IsRateLimit marks the error for outcome classification.
func (e *RateLimitError) IsRateLimit() bool {
	return true
}
