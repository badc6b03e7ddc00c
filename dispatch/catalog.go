package dispatch

import "strings"

// toolDescriptions documents each operation's argument contract for the tool
// catalog handed to the language model, in SPEC_FULL.md §6 table order.
var toolDescriptions = []struct {
	name string
	desc string
}{
	{"requestAvailableSlots", `find open meeting slots. arguments: start_date, end_date (ISO instant), duration (e.g. "30m"), optional partner_agent_id, timezone, slot_granularity_minutes (default 30)`},
	{"requestBooking", `propose or book a meeting. arguments: start_time (ISO instant), duration, partner_agent_id, optional initial_status (proposed|accepted|confirmed)`},
	{"acceptMeeting", `accept a pending meeting. arguments: event_id`},
	{"rejectMeeting", `reject a pending meeting. arguments: event_id`},
	{"confirmMeeting", `confirm an accepted meeting. arguments: event_id`},
	{"cancelEvent", `remove an event entirely. arguments: event_id`},
	{"getCalendarEvents", `list calendar events. arguments: optional status filter`},
	{"getPendingRequests", `list proposed/pending meetings. arguments: optional limit`},
	{"getUpcomingEvents", `list upcoming accepted/confirmed/booked meetings. arguments: optional limit`},
}

// buildCatalogPrompt renders the tool catalog and inbound text into the
// prompt sent to the language model (SPEC_FULL.md §4.6): the model is asked
// to emit exactly one {tool, arguments} JSON object and nothing else.
func buildCatalogPrompt(inboundText string) string {
	var b strings.Builder
	b.WriteString("You have access to the following calendar tools:\n\n")
	for _, t := range toolDescriptions {
		b.WriteString("- ")
		b.WriteString(t.name)
		b.WriteString(": ")
		b.WriteString(t.desc)
		b.WriteString("\n")
	}
	b.WriteString("\nGiven the request below, decide which single tool to call and with what arguments. ")
	b.WriteString("Respond with ONLY a JSON object of the form {\"tool\": \"<name>\", \"arguments\": {...}}. ")
	b.WriteString("Do not include any other text.\n\nRequest: ")
	b.WriteString(inboundText)
	return b.String()
}
