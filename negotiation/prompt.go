package negotiation

import (
	"fmt"
	"strings"
)

// handoverInstruction is appended to every supervised-turn prompt
// (SPEC_FULL.md §4.4 step 2 "OPTIONAL HANDOVER" clause), grounded verbatim
// on booking_automation.py's _build_agent_prompt.
const handoverInstruction = `

OPTIONAL HANDOVER: If you feel confident you can handle the rest of this conversation autonomously, you can request to take over. To do this, include in your response:
- A JSON object with {"handover": true, "reason": "brief explanation"}
- Then provide the message you want to send

If you don't request handover, just provide the message to send normally.`

// buildBookingContext renders the base context shared by every turn prompt:
// the target peer and the meeting intent in natural language.
func buildBookingContext(targetID string, intent Intent) string {
	return fmt.Sprintf("You are negotiating a meeting booking with target agent %s.\n\n%s",
		targetID, intent.ToNaturalLanguage())
}

// buildTurnPrompt builds the supervised-pass prompt for one turn
// (SPEC_FULL.md §4.4 step 2). Turn 1 asks for an opening request; later
// turns ask for a reply to the peer's latest response.
func buildTurnPrompt(turn int, targetID string, intent Intent, history []Turn) string {
	context := buildBookingContext(targetID, intent)
	if len(history) > 0 {
		context += "\n\n" + renderHistory(history)
	}

	var body string
	if turn == 1 {
		body = `This is your first contact with the target agent. Craft a clear, professional booking request that includes:
1. A greeting
2. Your intent to schedule a meeting
3. The key preferences (date/time/duration if specified)
4. A polite request for their availability

Generate ONLY the message you want to send to the target agent. Do not include explanations or meta-commentary.`
	} else {
		body = `Based on the target agent's latest response, formulate an appropriate reply that:
1. Addresses any questions they asked
2. Provides any requested information
3. Negotiates if needed
4. Moves toward confirming the booking

Generate ONLY the message you want to send to the target agent. Do not include explanations or meta-commentary.`
	}

	return context + "\n\n" + body + handoverInstruction
}

// buildAutonomousPrompt builds the autonomous-pass prompt (SPEC_FULL.md
// §4.5 step 1): the full prior conversation plus the preferences and a
// directive to continue toward confirmation, with no handover clause since
// the local agent already owns the remainder of the negotiation.
func buildAutonomousPrompt(turn, totalTurn int, targetID string, intent Intent, history []Turn) string {
	var b strings.Builder
	b.WriteString("You are now in autonomous mode, managing the booking conversation directly.\n")
	fmt.Fprintf(&b, "Target Agent: %s\n\n", targetID)
	b.WriteString(renderHistory(history))
	b.WriteString("\nMeeting Preferences:\n")
	b.WriteString(intent.ToNaturalLanguage())
	b.WriteString("\n\nYour goal: Continue the conversation to complete the booking.\n")
	fmt.Fprintf(&b, "Current Turn: %d/%d\n\n", turn, totalTurn)
	b.WriteString(`Based on the conversation so far, formulate your next message to the target agent.
Your message should:
1. Address any questions or requests from the target agent
2. Provide any needed information
3. Move toward confirming the booking
4. Be professional and clear

Generate ONLY the message you want to send. Do not include explanations.`)
	return b.String()
}

func renderHistory(history []Turn) string {
	if len(history) == 0 {
		return "Previous Conversation: (none yet)"
	}
	var b strings.Builder
	b.WriteString("Previous Conversation:\n")
	for _, t := range history {
		fmt.Fprintf(&b, "Turn %d:\n  You sent: %s\n  Target responded: %s\n\n", t.Number, t.MessageSent, t.ResponseReceived)
	}
	return b.String()
}
