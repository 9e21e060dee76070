// Package llm provides the wire representations of chat-completion requests
// and responses exchanged with the upstream AI API.
package llm

// ErrorResponse is the JSON error envelope returned to callers.
type ErrorResponse struct {
	Error string `json:"error"`
}
