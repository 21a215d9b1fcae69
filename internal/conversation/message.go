// Package conversation classifies the heterogeneous message records found in
// evaluation traces. Classification is best-effort: any record that doesn't
// match a known shape is kept verbatim as an Unknown message so the caller can
// still render it.
package conversation

import (
	"encoding/json"
	"fmt"
)

// Kind identifies a message variant.
type Kind string

// Recognized message kinds.
const (
	KindUser                Kind = "user"
	KindAssistant           Kind = "assistant"
	KindReasoning           Kind = "reasoning"
	KindCodeInterpreterCall Kind = "code_interpreter_call"
	KindUnknown             Kind = "unknown"
)

// Message is one classified record of a conversation trace.
// Only the fields relevant to Kind are populated; Raw always holds the
// original record for opaque passthrough.
type Message struct {
	Kind Kind `json:"kind"`

	// User / Assistant
	Content string `json:"content,omitempty"`

	// Reasoning
	ID       string   `json:"id,omitempty"`
	Segments []string `json:"segments,omitempty"`

	// CodeInterpreterCall
	ContainerID string            `json:"container_id,omitempty"`
	Code        string            `json:"code,omitempty"`
	Outputs     []json.RawMessage `json:"outputs,omitempty"`

	Raw json.RawMessage `json:"raw"`
}

// probe holds the discriminator fields checked during classification.
type probe struct {
	Role        string            `json:"role"`
	Type        string            `json:"type"`
	ID          string            `json:"id"`
	ContainerID string            `json:"container_id"`
	Code        string            `json:"code"`
	Content     json.RawMessage   `json:"content"`
	Outputs     []json.RawMessage `json:"outputs"`
}

// segment is one entry of a reasoning content array; either a bare string or
// an object carrying a "text" field.
type segment struct {
	Text string `json:"text"`
}

// Classify maps a raw record onto a Message. It never fails: records with an
// unrecognized shape come back as KindUnknown with Raw set.
func Classify(raw json.RawMessage) Message {
	msg := Message{Kind: KindUnknown, Raw: raw}

	var p probe
	if err := json.Unmarshal(raw, &p); err != nil {
		return msg
	}

	switch {
	case p.Role == "user":
		if text, ok := textContent(p.Content); ok {
			msg.Kind = KindUser
			msg.Content = text
		}
	case p.Role == "assistant":
		if text, ok := textContent(p.Content); ok {
			msg.Kind = KindAssistant
			msg.Content = text
		}
	case p.Type == "reasoning":
		msg.Kind = KindReasoning
		msg.ID = p.ID
		msg.Segments = textSegments(p.Content)
	case p.Type == "code_interpreter_call":
		msg.Kind = KindCodeInterpreterCall
		msg.ContainerID = p.ContainerID
		msg.Code = p.Code
		msg.Outputs = p.Outputs
	}

	return msg
}

// ClassifyAll parses a conversation (JSON array of records) into messages.
func ClassifyAll(conversation json.RawMessage) ([]Message, error) {
	if len(conversation) == 0 {
		return nil, nil
	}

	var records []json.RawMessage
	if err := json.Unmarshal(conversation, &records); err != nil {
		return nil, fmt.Errorf("parse conversation: %w", err)
	}

	messages := make([]Message, 0, len(records))
	for _, rec := range records {
		messages = append(messages, Classify(rec))
	}

	return messages, nil
}

// textContent returns content as plain text when it is a JSON string.
func textContent(content json.RawMessage) (string, bool) {
	if len(content) == 0 {
		return "", false
	}

	var text string
	if err := json.Unmarshal(content, &text); err != nil {
		return "", false
	}

	return text, true
}

// textSegments flattens a reasoning content array into its text parts.
// Entries may be bare strings or objects with a "text" field; anything else is skipped.
func textSegments(content json.RawMessage) []string {
	if len(content) == 0 {
		return nil
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(content, &parts); err != nil {
		return nil
	}

	var segments []string
	for _, part := range parts {
		var text string
		if err := json.Unmarshal(part, &text); err == nil {
			segments = append(segments, text)
			continue
		}

		var seg segment
		if err := json.Unmarshal(part, &seg); err == nil && seg.Text != "" {
			segments = append(segments, seg.Text)
		}
	}

	return segments
}
