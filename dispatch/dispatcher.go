// Package dispatch implements the inbound Tool Dispatcher (SPEC_FULL.md
// §4.6): it bridges a remote caller's free-form natural-language message to
// the Calendar Engine and Preferences operations, via a language model that
// emits a structured {tool, arguments} decision. Structured (non-LM)
// callers use Router.Route directly and skip the language model entirely.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/a2cal/calendar-agent/calendar"
	"github.com/a2cal/calendar-agent/preferences"
	"github.com/a2cal/calendar-agent/runtime/telemetry"
)

// Default deadlines from SPEC_FULL.md §4.6 step 3.
const (
	defaultLMDeadline   = 30 * time.Second
	defaultToolDeadline = 30 * time.Second
)

// Planner is the narrow shape of a language-model client the Dispatcher
// needs: given a prompt, produce the model's raw text response. Satisfied
// by bookingagent.Client; defined here rather than imported from there so
// this package depends only on the shape it uses.
type Planner interface {
	NextUtterance(ctx context.Context, prompt string) (string, error)
}

// Router performs a named operation against the calendar engine and
// preferences store directly, with no language model involved — the path
// structured callers use (SPEC_FULL.md §4.6 "Structured callers ... skip the
// dispatcher and call engine operations directly").
type Router struct {
	Engine     *calendar.Engine
	PrefsStore preferences.Store
}

// Route executes tool with arguments and returns its result value, ready to
// be marshaled to the caller. ToolDeadline, if non-zero, bounds the call;
// zero means no deadline beyond ctx's own.
func (r *Router) Route(ctx context.Context, toolDeadline time.Duration, tool string, arguments map[string]any) (any, error) {
	if err := validate(tool, arguments); err != nil {
		return nil, err
	}
	if toolDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, toolDeadline)
		defer cancel()
	}
	return route(ctx, r.Engine, r.PrefsStore, tool, arguments)
}

// Dispatcher is the LM-mediated inbound path (SPEC_FULL.md §4.6).
type Dispatcher struct {
	Router *Router
	Model  Planner
	Log    telemetry.Logger

	LMDeadline   time.Duration
	ToolDeadline time.Duration
}

// New constructs a Dispatcher with SPEC_FULL.md §4.6 default deadlines.
func New(engine *calendar.Engine, prefsStore preferences.Store, model Planner, log telemetry.Logger) *Dispatcher {
	if log == nil {
		log = telemetry.NewNoopLogger()
	}
	return &Dispatcher{
		Router:       &Router{Engine: engine, PrefsStore: prefsStore},
		Model:        model,
		Log:          log,
		LMDeadline:   defaultLMDeadline,
		ToolDeadline: defaultToolDeadline,
	}
}

// Dispatch takes a remote caller's free-form text, asks the language model
// to decide which tool to call, validates and routes the decision, and
// returns the tool's response text verbatim. On LM timeout or an
// unparseable emission it returns a plain-language error message rather
// than propagating an error upstream (SPEC_FULL.md §4.6 step 4).
func (d *Dispatcher) Dispatch(ctx context.Context, inboundText string) string {
	raw, err := d.callModel(ctx, inboundText)
	if err != nil {
		d.Log.Warn(ctx, "dispatch: language model call failed", "error", err.Error())
		return fmt.Sprintf("Sorry, I couldn't process that request: %s", err.Error())
	}

	em, err := normalize(raw)
	if err != nil {
		d.Log.Warn(ctx, "dispatch: could not normalize emission", "error", err.Error())
		return fmt.Sprintf("Sorry, I couldn't understand how to act on that request: %s", err.Error())
	}

	toolCtx := ctx
	var cancel context.CancelFunc
	if d.ToolDeadline > 0 {
		toolCtx, cancel = context.WithTimeout(ctx, d.ToolDeadline)
		defer cancel()
	}

	result, err := d.Router.Route(toolCtx, 0, em.Tool, em.Arguments)
	if err != nil {
		d.Log.Warn(ctx, "dispatch: tool call failed", "tool", em.Tool, "error", err.Error())
		return fmt.Sprintf("Sorry, %s", err.Error())
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		d.Log.Error(ctx, "dispatch: could not marshal tool result", "tool", em.Tool, "error", err.Error())
		return "Sorry, something went wrong producing a response."
	}
	return string(encoded)
}

func (d *Dispatcher) callModel(ctx context.Context, inboundText string) (string, error) {
	lmCtx := ctx
	var cancel context.CancelFunc
	if d.LMDeadline > 0 {
		lmCtx, cancel = context.WithTimeout(ctx, d.LMDeadline)
		defer cancel()
	}

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := d.Model.NextUtterance(lmCtx, buildCatalogPrompt(inboundText))
		done <- result{text, err}
	}()

	select {
	case r := <-done:
		return r.text, r.err
	case <-lmCtx.Done():
		return "", fmt.Errorf("language model call timed out after %s", d.LMDeadline)
	}
}
