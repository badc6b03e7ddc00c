package dispatch

import (
	"encoding/json"
	"regexp"
	"strings"
)

// codeFencePattern strips a surrounding ```json ... ``` or ``` ... ``` wrapper,
// the common shape a language model wraps structured output in even when
// asked for raw JSON.
var codeFencePattern = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// emission is the LM's decision: which tool to call and with what arguments
// (SPEC_FULL.md §4.6).
type emission struct {
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments"`
}

// normalize strips code-fence wrapping and parses raw as a {tool, arguments}
// object. An unparseable emission becomes a *ParseError, never a panic
// (SPEC_FULL.md §4.6 step 1).
func normalize(raw string) (emission, error) {
	trimmed := strings.TrimSpace(raw)
	if m := codeFencePattern.FindStringSubmatch(trimmed); m != nil {
		trimmed = strings.TrimSpace(m[1])
	}
	if trimmed == "" {
		return emission{}, &ParseError{Reason: "empty emission"}
	}

	var em emission
	if err := json.Unmarshal([]byte(trimmed), &em); err != nil {
		return emission{}, &ParseError{Reason: "could not parse emission as a {tool, arguments} object: " + err.Error()}
	}
	if em.Tool == "" {
		return emission{}, &ParseError{Reason: "emission is missing \"tool\""}
	}
	if em.Arguments == nil {
		em.Arguments = map[string]any{}
	}
	return em, nil
}
