package llm

// ChatRequest represents a chat completion request (OpenAI-compatible).
type ChatRequest struct {
	Model       string    `json:"model"`       // Upstream model or endpoint identifier
	Temperature float64   `json:"temperature"` // Sampling temperature
	MaxTokens   int       `json:"max_tokens"`  // Completion token budget
	Messages    []Message `json:"messages"`    // Ordered conversation
	Stream      bool      `json:"stream"`      // Always false for this relay
}
