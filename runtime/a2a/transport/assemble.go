package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"strings"

	"github.com/a2cal/calendar-agent/runtime/a2a/types"
	"github.com/a2cal/calendar-agent/runtime/telemetry"
)

// assembler accumulates response_text and tracks new_context_id across one
// Send call's frame sequence, per SPEC_FULL.md §4.3 step 4: "Initialize
// response_text = "" and new_context_id = context_id. For every frame: ...".
//
// Every frame is decoded twice: once into a raw map[string]any for the
// defensive contextId probe (which must tolerate arbitrary nesting), and
// once into the typed types.ResponseFrame for the Kind-discriminated
// extraction rules. A frame that fails either decode, or whose Kind is not
// recognized, is skipped — it never aborts the parse (SPEC_FULL.md §8).
type assembler struct {
	contextID string
	builder   strings.Builder
	log       telemetry.Logger
}

func (a *assembler) text() string { return a.builder.String() }

// apply processes one raw frame (a full envelope like {"result": {...}}).
func (a *assembler) apply(raw json.RawMessage) {
	var asMap map[string]any
	if err := json.Unmarshal(raw, &asMap); err == nil {
		if id, ok := extractContextID(asMap); ok {
			a.contextID = id
		}
	} else {
		a.safeLog("transport: frame is not a JSON object, skipping contextId probe", "error", err.Error())
	}

	var frame types.ResponseFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		a.safeLog("transport: unrecognized frame shape, skipping", "error", err.Error())
		return
	}

	switch frame.Result.Kind {
	case types.KindArtifactUpdate:
		a.builder.WriteString(extractArtifactText(frame.Result.Artifact))
	case types.KindStatusUpdate, types.KindTask, types.KindMessage:
		// Informational per SPEC_FULL.md §4.3 steps 4-5; status-update text
		// parts MAY be surfaced but the default implementation ignores them.
	default:
		a.safeLog("transport: unknown frame kind, skipping", "kind", frame.Result.Kind)
	}
}

// safeLog never lets a broken logging sink abort the parse (SPEC_FULL.md
// §4.3 robustness invariants, the Go analogue of the source's
// BrokenPipeError guard, DESIGN.md Open Question 2). telemetry.Logger
// implementations are themselves required not to panic, but a recover here
// keeps that guarantee even against a misbehaving custom Logger.
func (a *assembler) safeLog(msg string, kv ...any) {
	defer func() { _ = recover() }()
	if a.log != nil {
		a.log.Debug(context.Background(), msg, kv...)
	}
}

// scanFrames reads newline-delimited (optionally SSE-framed) JSON objects
// from r, invoking onFrame for each one that parses. It stops at EOF or when
// ctx is done.
func scanFrames(ctx context.Context, r interface{ Read([]byte) (int, error) }, onFrame func(json.RawMessage)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		line := stripSSEPrefix(scanner.Text())
		if line == "" {
			continue
		}
		var raw json.RawMessage
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			continue
		}
		onFrame(raw)
	}
	return scanner.Err()
}
