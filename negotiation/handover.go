package negotiation

import (
	"encoding/json"
	"regexp"
	"strings"
)

// HandoverSignal is a local booking agent's request to drive the remainder
// of the negotiation autonomously (SPEC_FULL.md §4.4 "Handover detection";
// Glossary "Handover").
type HandoverSignal struct {
	Reason string
}

// handoverPattern matches the literal clause `{"handover": true` (any
// quoting, any whitespace), the same defensive regex the original source
// applies in _check_for_handover. SPEC_FULL.md §9 frames this as the
// fallback path for a structured channel; since this local agent emits free
// text rather than a typed control object, the regex is the primary path
// here, not a last resort.
var handoverPattern = regexp.MustCompile(`(?i)\{\s*["']handover["']\s*:\s*true`)

// handoverObjectPattern captures a single-level JSON object containing the
// handover key, used to recover the "reason" field and to know how much of
// the utterance to strip once the signal is detected.
var handoverObjectPattern = regexp.MustCompile(`(?i)\{[^{}]*"handover"[^{}]*\}`)

// DetectHandover scans raw (the local agent's full utterance) for a handover
// clause. It returns the parsed signal and the remainder of raw with the
// matched clause removed and whitespace trimmed — the text that becomes the
// message to send once control passes to the Autonomous Continuation loop
// (SPEC_FULL.md §8 scenario 2). ok is false if no handover clause was found,
// in which case remainder equals raw unchanged.
func DetectHandover(raw string) (signal HandoverSignal, remainder string, ok bool) {
	if !handoverPattern.MatchString(raw) {
		return HandoverSignal{}, raw, false
	}

	loc := handoverObjectPattern.FindStringIndex(raw)
	if loc == nil {
		// The loose literal matched but no balanced single-level object did
		// (e.g. nested reason text contains braces); still honor the
		// handover — intent, not strict form (SPEC_FULL.md §4.4).
		return HandoverSignal{}, strings.TrimSpace(raw), true
	}

	var obj struct {
		Handover bool   `json:"handover"`
		Reason   string `json:"reason"`
	}
	match := raw[loc[0]:loc[1]]
	if err := json.Unmarshal([]byte(match), &obj); err == nil {
		signal.Reason = obj.Reason
	}

	remainder = strings.TrimSpace(raw[:loc[0]] + raw[loc[1]:])
	return signal, remainder, true
}

// ExtractMessage extracts the literal text to send to the peer from the
// local agent's utterance (SPEC_FULL.md §4.4 step 5 / §4.5 step 3): if the
// utterance is a JSON object, prefer `question`, then `message`, then
// `text`, then a canonical re-serialization; otherwise the utterance is already the
// message.
func ExtractMessage(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return trimmed
	}
	if trimmed[0] != '{' {
		return trimmed
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
		return trimmed
	}
	if v, ok := obj["question"].(string); ok && v != "" {
		return v
	}
	if v, ok := obj["message"].(string); ok && v != "" {
		return v
	}
	if v, ok := obj["text"].(string); ok && v != "" {
		return v
	}
	canon, err := json.Marshal(obj)
	if err != nil {
		return trimmed
	}
	return string(canon)
}
