package negotiation_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/a2cal/calendar-agent/negotiation"
)

func TestResult_Summary(t *testing.T) {
	t.Run("empty history", func(t *testing.T) {
		r := negotiation.Result{}
		assert.Equal(t, "No conversation history.", r.Summary())
	})

	t.Run("one turn, short messages still get the trailing ellipsis", func(t *testing.T) {
		ts := time.Date(2026, 7, 31, 9, 30, 15, 0, time.UTC)
		r := negotiation.Result{ConversationHistory: []negotiation.Turn{
			{Number: 1, MessageSent: "Are you free Thursday?", ResponseReceived: "Yes, 10am works.", Timestamp: ts},
		}}

		summary := r.Summary()
		assert.Contains(t, summary, "09:30:15")
		assert.Contains(t, summary, "Turn 1")
		assert.Contains(t, summary, "Sent: Are you free Thursday?...")
		assert.Contains(t, summary, "Received: Yes, 10am works....")
	})

	t.Run("long messages are truncated to 100 bytes before the ellipsis", func(t *testing.T) {
		long := strings.Repeat("a", 150)
		r := negotiation.Result{ConversationHistory: []negotiation.Turn{
			{Number: 1, MessageSent: long, ResponseReceived: "ok", Timestamp: time.Now()},
		}}

		summary := r.Summary()
		assert.Contains(t, summary, strings.Repeat("a", 100)+"...")
		assert.NotContains(t, summary, strings.Repeat("a", 101))
	})

	t.Run("multi-turn history has one block per turn", func(t *testing.T) {
		r := negotiation.Result{ConversationHistory: []negotiation.Turn{
			{Number: 1, MessageSent: "a", ResponseReceived: "b", Timestamp: time.Now()},
			{Number: 2, MessageSent: "c", ResponseReceived: "d", Timestamp: time.Now()},
		}}

		summary := r.Summary()
		assert.Contains(t, summary, "Turn 1")
		assert.Contains(t, summary, "Turn 2")
	})
}
