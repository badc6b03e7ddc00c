package transport

import (
	"encoding/json"
	"fmt"

	"github.com/a2cal/calendar-agent/runtime/a2a/types"
)

// extractContextID probes a decoded frame, at its top level and inside nested
// result objects, for a contextId (camelCase or snake_case), per SPEC_FULL.md §4.3 step 4: "If the
// frame or nested result exposes a contextId ... update new_context_id".
// This defensive, map-based probe is the Go analogue of the Python source's
// attribute/dict-key introspection (SPEC_FULL.md §9).
func extractContextID(raw map[string]any) (string, bool) {
	if v, ok := stringField(raw, "contextId", "context_id"); ok {
		return v, true
	}
	if result, ok := raw["result"].(map[string]any); ok {
		return extractContextID(result)
	}
	return "", false
}

func stringField(m map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// extractArtifactText implements SPEC_FULL.md §4.3 step 4's artifact-update
// rule: for each part, text parts append verbatim; data parts fall back
// through question -> message -> text -> a canonical JSON dump of the whole
// object.
func extractArtifactText(artifact *types.Artifact) string {
	if artifact == nil {
		return ""
	}
	var text string
	for _, part := range artifact.Parts {
		switch part.Kind {
		case types.PartKindText:
			text += part.Text
		case types.PartKindData:
			text += extractDataText(part.Data)
		}
	}
	return text
}

func extractDataText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return string(raw)
	}
	if v, ok := stringField(obj, "question"); ok {
		return v
	}
	if v, ok := stringField(obj, "message"); ok {
		return v
	}
	if v, ok := stringField(obj, "text"); ok {
		return v
	}
	return canonicalDump(obj)
}

func canonicalDump(obj map[string]any) string {
	b, err := json.Marshal(obj)
	if err != nil {
		return fmt.Sprintf("%v", obj)
	}
	return string(b)
}
