package llm

import (
	"encoding/json"
	"errors"
)

// Roles used by the relay.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Content part types.
const (
	PartText     = "text"
	PartImageURL = "image_url"
)

// Message represents a single message in a conversation.
type Message struct {
	Role    string  `json:"role"`    // "system", "user", "assistant"
	Content Content `json:"content"` // Plain text or multimodal parts
}

// Content is either plain text or an ordered list of parts.
// When Parts is non-nil it takes precedence over Text.
type Content struct {
	Text  string
	Parts []ContentPart
}

// ContentPart is one element of multimodal message content.
type ContentPart struct {
	Type     string    `json:"type"` // "text" or "image_url"
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL references an image, usually as a data URI.
type ImageURL struct {
	URL string `json:"url"`
}

// TextMessage builds a message with plain text content.
func TextMessage(role, text string) Message {
	return Message{Role: role, Content: Content{Text: text}}
}

// PartsMessage builds a message with multimodal content.
func PartsMessage(role string, parts ...ContentPart) Message {
	if parts == nil {
		parts = []ContentPart{}
	}
	return Message{Role: role, Content: Content{Parts: parts}}
}

// TextPart returns a text content part.
func TextPart(text string) ContentPart {
	return ContentPart{Type: PartText, Text: text}
}

// ImagePart returns an image_url content part pointing at url.
func ImagePart(url string) ContentPart {
	return ContentPart{Type: PartImageURL, ImageURL: &ImageURL{URL: url}}
}

// DataURI wraps base64 encoded data in a data URI of the given media type.
func DataURI(mediaType, b64 string) string {
	return "data:" + mediaType + ";base64," + b64
}

func (c Content) MarshalJSON() ([]byte, error) {
	if c.Parts != nil {
		return json.Marshal(c.Parts)
	}
	return json.Marshal(c.Text)
}

func (c *Content) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return errors.New("empty content")
	}
	switch data[0] {
	case '"':
		c.Parts = nil
		return json.Unmarshal(data, &c.Text)
	case '[':
		c.Text = ""
		return json.Unmarshal(data, &c.Parts)
	case 'n':
		*c = Content{}
		return nil
	}
	return errors.New("content must be a string or an array of parts")
}

// String returns the textual content, joining text parts when the content
// is multimodal.
func (c Content) String() string {
	if c.Parts == nil {
		return c.Text
	}
	var s string
	for _, p := range c.Parts {
		if p.Type == PartText {
			s += p.Text
		}
	}
	return s
}
