package relay

import (
	"encoding/json"
	"fmt"

	"github.com/papercomputeco/reportrelay/pkg/llm"
	"github.com/papercomputeco/reportrelay/pkg/report"
)

const (
	defaultTemperature = 0.7

	textMaxTokens  = 8192
	imageMaxTokens = 4096

	// Images are labelled JPEG whatever their real encoding.
	imageMediaType = "image/jpeg"
)

// Kind specializes the report pipeline for one input shape.
type Kind struct {
	// Name identifies the kind in logs.
	Name string

	// Field is the request body field carrying the input.
	Field string

	// MissingMessage is returned to the caller when Field is unusable.
	MissingMessage string

	Temperature float64
	MaxTokens   int

	// Messages builds the upstream conversation from the decoded field value.
	// It returns false when the value does not satisfy the kind.
	Messages func(value any) ([]llm.Message, bool)
}

// NewTextKind returns the kind for {"prompt": "..."} requests: the analyst
// instruction as a system message followed by the prompt as the user message.
func NewTextKind() (Kind, error) {
	instruction, err := report.TextInstruction()
	if err != nil {
		return Kind{}, fmt.Errorf("build text instruction: %w", err)
	}

	return Kind{
		Name:           "text",
		Field:          "prompt",
		MissingMessage: "Prompt data is missing",
		Temperature:    defaultTemperature,
		MaxTokens:      textMaxTokens,
		Messages: func(value any) ([]llm.Message, bool) {
			if isFalsy(value) {
				return nil, false
			}
			return []llm.Message{
				llm.TextMessage(llm.RoleSystem, instruction),
				llm.TextMessage(llm.RoleUser, promptText(value)),
			}, true
		},
	}, nil
}

// NewImageKind returns the kind for {"images": ["<base64>", ...]} requests:
// a single user message holding the instruction and one image part per input.
func NewImageKind() (Kind, error) {
	instruction, err := report.ImageInstruction()
	if err != nil {
		return Kind{}, fmt.Errorf("build image instruction: %w", err)
	}

	return Kind{
		Name:           "image",
		Field:          "images",
		MissingMessage: "Image data is missing",
		Temperature:    defaultTemperature,
		MaxTokens:      imageMaxTokens,
		Messages: func(value any) ([]llm.Message, bool) {
			images, ok := value.([]any)
			if !ok || len(images) == 0 {
				return nil, false
			}

			parts := make([]llm.ContentPart, 0, len(images)+1)
			parts = append(parts, llm.TextPart(instruction))
			for _, img := range images {
				b64, ok := img.(string)
				if !ok {
					return nil, false
				}
				parts = append(parts, llm.ImagePart(llm.DataURI(imageMediaType, b64)))
			}
			return []llm.Message{llm.PartsMessage(llm.RoleUser, parts...)}, true
		},
	}, nil
}

// isFalsy reports whether a decoded JSON value counts as absent.
func isFalsy(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case bool:
		return !x
	case float64:
		return x == 0
	}
	return false
}

// promptText returns string prompts unchanged and any other JSON value as
// its JSON text.
func promptText(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
