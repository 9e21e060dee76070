package relay

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/papercomputeco/reportrelay/pkg/llm"
	"github.com/papercomputeco/reportrelay/pkg/report"
)

// Completer sends one chat completion request and returns the reply text.
type Completer interface {
	Complete(ctx context.Context, req *llm.ChatRequest) (string, error)
}

// InputError reports a request that cannot be relayed. No upstream call is
// made for it.
type InputError struct {
	Message string
}

func (e *InputError) Error() string {
	return e.Message
}

// Generator runs the report pipeline:
// validate -> build messages -> call upstream -> extract JSON.
type Generator struct {
	completer Completer
	logger    *zap.Logger
}

// NewGenerator creates a new Generator.
func NewGenerator(completer Completer, logger *zap.Logger) *Generator {
	return &Generator{completer: completer, logger: logger}
}

// Generate relays body as a kind request and returns the extracted report
// text. Invalid or missing input yields an *InputError; a body that is not
// JSON at all is reported as a plain error.
func (g *Generator) Generate(ctx context.Context, kind Kind, body []byte) (string, error) {
	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("invalid request body: %w", err)
	}

	fields, _ := decoded.(map[string]any)
	messages, ok := kind.Messages(fields[kind.Field])
	if !ok {
		return "", &InputError{Message: kind.MissingMessage}
	}

	g.logger.Debug("relaying report request",
		zap.String("kind", kind.Name),
		zap.Int("message_count", len(messages)),
		zap.Int("max_tokens", kind.MaxTokens),
	)

	reply, err := g.completer.Complete(ctx, &llm.ChatRequest{
		Temperature: kind.Temperature,
		MaxTokens:   kind.MaxTokens,
		Messages:    messages,
		Stream:      false,
	})
	if err != nil {
		return "", err
	}

	return report.ExtractJSON(reply), nil
}
