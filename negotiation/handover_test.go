package negotiation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a2cal/calendar-agent/negotiation"
)

func TestDetectHandover(t *testing.T) {
	t.Run("no handover clause leaves the utterance untouched", func(t *testing.T) {
		raw := "Hi agent-beta, are you free Thursday at 10:00?"
		signal, remainder, ok := negotiation.DetectHandover(raw)
		assert.False(t, ok)
		assert.Equal(t, raw, remainder)
		assert.Zero(t, signal)
	})

	t.Run("clause detected, reason extracted, remainder trimmed", func(t *testing.T) {
		raw := `{"handover": true, "reason": "peer asked clarifying questions"} Please propose an alternative 30m slot on Thursday.`
		signal, remainder, ok := negotiation.DetectHandover(raw)
		require.True(t, ok)
		assert.Equal(t, "peer asked clarifying questions", signal.Reason)
		assert.Equal(t, "Please propose an alternative 30m slot on Thursday.", remainder)
	})

	t.Run("single-quoted clause is honored even though the object pattern only matches double quotes", func(t *testing.T) {
		raw := `{'handover': true} I need the peer to take it from here.`
		signal, remainder, ok := negotiation.DetectHandover(raw)
		require.True(t, ok)
		assert.Zero(t, signal)
		assert.Equal(t, raw, remainder, "no balanced double-quoted object found, so the whole utterance is kept")
	})

	t.Run("clause with no reason still honors the handover", func(t *testing.T) {
		raw := `{"handover": true} taking over now`
		signal, remainder, ok := negotiation.DetectHandover(raw)
		require.True(t, ok)
		assert.Empty(t, signal.Reason)
		assert.Equal(t, "taking over now", remainder)
	})
}

func TestExtractMessage(t *testing.T) {
	t.Run("plain text passes through unchanged", func(t *testing.T) {
		got := negotiation.ExtractMessage("  Are you free Thursday at 10:00?  ")
		assert.Equal(t, "Are you free Thursday at 10:00?", got)
	})

	t.Run("prefers the question field", func(t *testing.T) {
		got := negotiation.ExtractMessage(`{"question": "Does 10:00 work?", "message": "fallback"}`)
		assert.Equal(t, "Does 10:00 work?", got)
	})

	t.Run("falls back to the message field", func(t *testing.T) {
		got := negotiation.ExtractMessage(`{"message": "Let's meet Thursday."}`)
		assert.Equal(t, "Let's meet Thursday.", got)
	})

	t.Run("falls back to the text field", func(t *testing.T) {
		got := negotiation.ExtractMessage(`{"text": "Thursday at 10:00 works for me."}`)
		assert.Equal(t, "Thursday at 10:00 works for me.", got)
	})

	t.Run("malformed JSON passes through as-is", func(t *testing.T) {
		got := negotiation.ExtractMessage(`{not valid json`)
		assert.Equal(t, `{not valid json`, got)
	})
}
