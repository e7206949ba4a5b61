// Package content models the user-supplied topic of a tool invocation. The
// host sends either plain text or a list of multimodal parts (text segments
// and image references); both forms round-trip through JSON unchanged so the
// upstream API receives exactly what the host sent.
package content

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Part is one segment of a multimodal topic.
type Part struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageRef `json:"image_url,omitempty"`
}

// ImageRef points at an attached image.
type ImageRef struct {
	URL string `json:"url"`
}

// Topic is either plain text or an ordered list of parts.
type Topic struct {
	text  string
	parts []Part
	multi bool
}

// FromText builds a plain-text topic.
func FromText(text string) Topic {
	return Topic{text: text}
}

// FromParts builds a multimodal topic.
func FromParts(parts []Part) Topic {
	return Topic{parts: parts, multi: true}
}

// IsMultimodal reports whether the topic carries parts rather than a string.
func (t Topic) IsMultimodal() bool {
	return t.multi
}

// APIContent returns the value to place in a chat message "content" field:
// the original string, the original parts list, or "" for an empty parts
// list (the upstream API rejects empty arrays).
func (t Topic) APIContent() any {
	if !t.multi {
		return t.text
	}
	if len(t.parts) == 0 {
		return ""
	}
	return t.parts
}

// PlainText renders the topic for use inside constructed prompts. Image
// parts become a placeholder marker; a multimodal topic with no text at all
// renders as "[No text content]".
func (t Topic) PlainText() string {
	if !t.multi {
		return t.text
	}
	var rendered []string
	for _, part := range t.parts {
		switch part.Type {
		case "text":
			rendered = append(rendered, part.Text)
		case "image_url":
			rendered = append(rendered, "[Image attached]")
		}
	}
	text := strings.TrimSpace(strings.Join(rendered, " "))
	if text == "" {
		return "[No text content]"
	}
	return text
}

// MarshalJSON emits the original host representation: a JSON string for
// plain text, an array of parts otherwise.
func (t Topic) MarshalJSON() ([]byte, error) {
	if !t.multi {
		return json.Marshal(t.text)
	}
	if t.parts == nil {
		return json.Marshal([]Part{})
	}
	return json.Marshal(t.parts)
}

// UnmarshalJSON accepts either a JSON string or an array of parts.
func (t *Topic) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var parts []Part
		if err := json.Unmarshal(data, &parts); err != nil {
			return fmt.Errorf("invalid multimodal content: %w", err)
		}
		*t = FromParts(parts)
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("invalid text content: %w", err)
	}
	*t = FromText(text)
	return nil
}
