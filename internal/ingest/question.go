package ingest

import (
	"encoding/json"
	"strings"

	"github.com/evaltrace/viewer/internal/conversation"
)

// questionMarker is the literal scanned for inside user message content.
const questionMarker = "Question:"

// ExtractQuestion resolves the question text for one sample:
//  1. a non-empty "question" field in the sample's example-level metadata wins;
//  2. otherwise the first role=user message is inspected and, when its content
//     contains the "Question:" marker, the text after the marker (up to the next
//     newline, trimmed) is used;
//  3. otherwise the question is empty. Never an error.
func ExtractQuestion(exampleMetadata map[string]any, convo json.RawMessage) string {
	if q, ok := exampleMetadata["question"].(string); ok && q != "" {
		return q
	}

	messages, err := conversation.ClassifyAll(convo)
	if err != nil {
		return ""
	}

	for _, msg := range messages {
		if msg.Kind != conversation.KindUser {
			continue
		}

		// Only the first user message is considered, marker or not.
		return questionFromContent(msg.Content)
	}

	return ""
}

// questionFromContent pulls the text after the first "Question:" marker,
// cut at the next newline and trimmed.
func questionFromContent(content string) string {
	_, after, found := strings.Cut(content, questionMarker)
	if !found {
		return ""
	}

	line, _, _ := strings.Cut(after, "\n")

	return strings.TrimSpace(line)
}
