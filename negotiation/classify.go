package negotiation

import "strings"

// Classification is the result of scanning a peer response for completion,
// error, or info-needed markers (SPEC_FULL.md §4.4 "Response
// classification").
type Classification struct {
	Complete    bool
	IsError     bool
	NeedsInfo   bool
	MissingInfo []string
	Message     string
}

// strictCompletionMarkers / autonomousCompletionMarkers and the matching
// error-marker lists are grounded verbatim on
// calendar_booking_agent.py's _analyze_target_response (autonomous pass) and
// booking_automation.py's _analyze_response (strict pass): the autonomous
// pass recognizes two additional completion markers ("scheduled for" and the
// bare, loose "confirmed") and two additional error markers ("declined",
// "rejected") that the strict pass does not.
var (
	strictCompletionMarkers = []string{
		"booking confirmed", "meeting scheduled", "event created",
		"successfully booked", "confirmed for", "meeting is set",
	}
	autonomousCompletionMarkers = append(append([]string{}, strictCompletionMarkers...),
		"scheduled for", "confirmed")

	strictErrorMarkers = []string{
		"cannot book", "unable to", "failed to", "error",
		"not available", "conflict", "no available slots",
	}
	autonomousErrorMarkers = append(append([]string{}, strictErrorMarkers...),
		"declined", "rejected")

	infoTopicWords = []string{"time", "date", "duration"}
)

// Classify scans response for the markers described in SPEC_FULL.md §4.4.
// autonomous selects the looser autonomous-pass marker lists (DESIGN.md Open
// Question 1) and, per SPEC_FULL.md §4.4 tie-break rule, makes an error
// marker win over a completion marker when both are present — the strict
// pass resolves the same tie the other way, since the orchestrator is
// trying to reach success quickly while the autonomous loop must bail out on
// a clear rejection to avoid runaway retries.
func Classify(response string, autonomous bool) Classification {
	lower := strings.ToLower(response)

	completionMarkers, errorMarkers := strictCompletionMarkers, strictErrorMarkers
	if autonomous {
		completionMarkers, errorMarkers = autonomousCompletionMarkers, autonomousErrorMarkers
	}

	complete := matchesAny(lower, completionMarkers)
	isError := matchesAny(lower, errorMarkers)

	switch {
	case complete && isError:
		if autonomous {
			return Classification{IsError: true, Message: truncate(response, 200)}
		}
		return Classification{Complete: true, Message: "Meeting booked successfully"}
	case complete:
		return Classification{Complete: true, Message: "Meeting booked successfully"}
	case isError:
		return Classification{IsError: true, Message: truncate(response, 200)}
	}

	if missing := missingInfo(response, lower); len(missing) > 0 {
		return Classification{NeedsInfo: true, MissingInfo: missing, Message: "agent needs: " + strings.Join(missing, ", ")}
	}

	return Classification{Message: "still processing"}
}

func matchesAny(lower string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// missingInfo implements the info-needed rule: a "?" combined with a key
// topic word, or the strings "partner"/"agent id" regardless of "?".
func missingInfo(response, lower string) []string {
	var missing []string
	hasQuestion := strings.Contains(response, "?")
	if hasQuestion {
		for _, topic := range infoTopicWords {
			if strings.Contains(lower, topic) {
				missing = append(missing, topic)
			}
		}
	}
	if strings.Contains(lower, "partner") || strings.Contains(lower, "agent id") {
		missing = append(missing, "partner_agent_id")
	}
	return missing
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
