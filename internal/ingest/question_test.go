package ingest

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractQuestion(t *testing.T) {
	t.Run("metadata question wins over conversation", func(t *testing.T) {
		meta := map[string]any{"question": "What is 2+2?"}
		convo := json.RawMessage(`[{"role":"user","content":"Question: something else"}]`)

		assert.Equal(t, "What is 2+2?", ExtractQuestion(meta, convo))
	})

	t.Run("empty metadata question falls through to conversation", func(t *testing.T) {
		meta := map[string]any{"question": ""}
		convo := json.RawMessage(`[{"role":"user","content":"Question: from the convo\nmore text"}]`)

		assert.Equal(t, "from the convo", ExtractQuestion(meta, convo))
	})

	t.Run("marker text cut at newline and trimmed", func(t *testing.T) {
		convo := json.RawMessage(`[{"role":"user","content":"Intro.\nQuestion:   spaced out  \nrest"}]`)

		assert.Equal(t, "spaced out", ExtractQuestion(nil, convo))
	})

	t.Run("only the first user message is inspected", func(t *testing.T) {
		convo := json.RawMessage(`[
			{"role":"user","content":"no marker here"},
			{"role":"user","content":"Question: second message"}
		]`)

		assert.Equal(t, "", ExtractQuestion(nil, convo))
	})

	t.Run("non user messages are skipped", func(t *testing.T) {
		convo := json.RawMessage(`[
			{"role":"assistant","content":"Question: not mine"},
			{"role":"user","content":"Question: mine"}
		]`)

		assert.Equal(t, "mine", ExtractQuestion(nil, convo))
	})

	t.Run("unparseable conversation yields empty", func(t *testing.T) {
		assert.Equal(t, "", ExtractQuestion(nil, json.RawMessage(`{"not":"an array"}`)))
	})

	t.Run("no user message yields empty", func(t *testing.T) {
		convo := json.RawMessage(`[{"type":"reasoning","content":["thinking"]}]`)

		assert.Equal(t, "", ExtractQuestion(nil, convo))
	})
}
