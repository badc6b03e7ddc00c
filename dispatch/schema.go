package dispatch

import "encoding/json"

// toolSchemas holds the JSON Schema (draft 2020-12 compatible, validated by
// github.com/santhosh-tekuri/jsonschema/v6) for each operation's arguments
// object, grounded on SPEC_FULL.md §6's "Local inbound tool surface" table.
var toolSchemas = map[string]json.RawMessage{
	"requestAvailableSlots": json.RawMessage(`{
		"type": "object",
		"required": ["start_date", "end_date", "duration"],
		"properties": {
			"start_date": {"type": "string"},
			"end_date": {"type": "string"},
			"duration": {"type": "string"},
			"partner_agent_id": {"type": "string"},
			"timezone": {"type": "string"},
			"slot_granularity_minutes": {"type": "integer", "minimum": 1}
		}
	}`),
	"requestBooking": json.RawMessage(`{
		"type": "object",
		"required": ["start_time", "duration", "partner_agent_id"],
		"properties": {
			"start_time": {"type": "string"},
			"duration": {"type": "string"},
			"partner_agent_id": {"type": "string"},
			"initial_status": {"type": "string", "enum": ["proposed", "accepted", "confirmed"]}
		}
	}`),
	"acceptMeeting": eventIDSchema,
	"rejectMeeting": eventIDSchema,
	"confirmMeeting": eventIDSchema,
	"cancelEvent": eventIDSchema,
	"getCalendarEvents": json.RawMessage(`{
		"type": "object",
		"properties": {
			"status": {"type": "string"}
		}
	}`),
	"getPendingRequests": limitSchema,
	"getUpcomingEvents":  limitSchema,
}

var eventIDSchema = json.RawMessage(`{
	"type": "object",
	"required": ["event_id"],
	"properties": {
		"event_id": {"type": "string"}
	}
}`)

var limitSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"limit": {"type": "integer", "minimum": 1}
	}
}`)

func init() {
	// requestBooking is also reachable under the alias proposeMeeting (SPEC_FULL.md
	// §6 "requestBooking / proposeMeeting").
	toolSchemas["proposeMeeting"] = toolSchemas["requestBooking"]
}
