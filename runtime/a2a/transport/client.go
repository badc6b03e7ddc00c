// Package transport implements the Peer Transport Client (SPEC_FULL.md §4.3):
// agent-card discovery, message construction, and a defensive streaming/
// non-streaming response parser that reconstructs user-visible text from a
// heterogeneous, multi-framed wire response while preserving the opaque
// conversation-continuity context id.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/a2cal/calendar-agent/runtime/a2a"
	"github.com/a2cal/calendar-agent/runtime/a2a/retry"
	"github.com/a2cal/calendar-agent/runtime/a2a/types"
	"github.com/a2cal/calendar-agent/runtime/telemetry"
)

// noTextPlaceholder is returned in place of an empty response_text, per
// SPEC_FULL.md §4.3 step 6: "do not fail" on an empty extraction.
const noTextPlaceholder = "[no text could be extracted from the peer's response]"

// Client is the default Sender implementation, speaking the A2A wire
// protocol described in SPEC_FULL.md §6 over plain net/http. Grounded on the
// teacher's runtime/a2a/httpclient.Client: functional-options construction
// and the `var _ Interface = (*Impl)(nil)` compile-time assertion idiom.
// Request and message ids are fresh UUIDs.
type Client struct {
	http          *http.Client
	cardRetry     retry.Config
	disableStream bool
	log           telemetry.Logger

	limitersMu sync.Mutex
	limiters   map[string]*rate.Limiter
	rateLimit  rate.Limit
	rateBurst  int
}

var _ a2a.Sender = (*Client)(nil)

// Option configures a Client at construction time.
type Option func(*Client)

// WithHTTPClient overrides the underlying *http.Client used for requests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithCardRetry overrides the retry policy applied to agent-card discovery.
func WithCardRetry(cfg retry.Config) Option {
	return func(c *Client) { c.cardRetry = cfg }
}

// WithDisableStreaming forces non-streaming sends regardless of what the
// peer's agent card advertises. SPEC_FULL.md §4.3 step 3: "streaming if the
// card advertises it and streaming is not disabled by the caller".
func WithDisableStreaming() Option {
	return func(c *Client) { c.disableStream = true }
}

// WithLogger overrides the Client's logger. Defaults to a no-op logger, so a
// broken sink can never abort a parse (SPEC_FULL.md §4.3 robustness
// invariants).
func WithLogger(l telemetry.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithRateLimit caps outbound sends per peer endpoint, defensively added
// (DESIGN.md Open Question 4): a well-behaved outbound client self-limits
// per destination rather than trusting every caller to pace itself. Default
// is permissive enough to never engage under normal test traffic.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(c *Client) { c.rateLimit = r; c.rateBurst = burst }
}

// New constructs a Client. By default every I/O call still derives its
// deadline from the context passed to Send; HTTPClient.Timeout is left at
// zero so the context, not the transport's own clock, governs cancellation.
func New(opts ...Option) *Client {
	c := &Client{
		http:      &http.Client{},
		cardRetry: retry.DefaultConfig(),
		log:       telemetry.NewNoopLogger(),
		limiters:  make(map[string]*rate.Limiter),
		rateLimit: rate.Inf,
		rateBurst: 1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *Client) limiterFor(endpoint string) *rate.Limiter {
	c.limitersMu.Lock()
	defer c.limitersMu.Unlock()
	l, ok := c.limiters[endpoint]
	if !ok {
		l = rate.NewLimiter(c.rateLimit, c.rateBurst)
		c.limiters[endpoint] = l
	}
	return l
}

// Send implements a2a.Sender. It performs card discovery, builds a message
// envelope, sends it streaming or non-streaming per the peer's advertised
// capabilities, and assembles the response text per SPEC_FULL.md §4.3.
//
// The overall deadline is whatever ctx already carries; Send never imposes
// its own — the caller (Orchestrator or Autonomous Continuation) is the one
// that knows the right per-step budget (SPEC_FULL.md §5 "timeout hierarchy").
func (c *Client) Send(ctx context.Context, endpoint, text, contextID string) (string, string, error) {
	if err := c.limiterFor(endpoint).Wait(ctx); err != nil {
		return "", contextID, fmt.Errorf("transport: rate limit wait: %w", err)
	}

	card, err := c.discoverCard(ctx, endpoint)
	if err != nil {
		return "", contextID, err
	}

	msgEndpoint := card.URL
	if msgEndpoint == "" {
		msgEndpoint = endpoint
	}

	req := types.SendRequest{
		ID: uuid.NewString(),
		Params: types.SendParams{
			ID: uuid.NewString(),
			Message: types.Message{
				Role:      "user",
				MessageID: uuid.NewString(),
				Parts:     []types.MessagePart{{Kind: types.PartKindText, Text: text}},
				ContextID: contextID,
			},
		},
	}

	streaming := card.Capabilities.Streaming && !c.disableStream
	asm := &assembler{contextID: contextID, log: c.log}

	if streaming {
		if err := c.sendStreaming(ctx, msgEndpoint, req, asm); err != nil {
			return "", asm.contextID, fmt.Errorf("transport: streaming send to %s: %w", msgEndpoint, err)
		}
	} else {
		if err := c.sendOnce(ctx, msgEndpoint, req, asm); err != nil {
			return "", asm.contextID, fmt.Errorf("transport: send to %s: %w", msgEndpoint, err)
		}
	}

	responseText := asm.text()
	if responseText == "" {
		responseText = noTextPlaceholder
	}
	return responseText, asm.contextID, nil
}

// sendOnce performs a single non-streaming POST and applies the per-frame
// assembly rules to its sole result (SPEC_FULL.md §4.3 step 5).
func (c *Client) sendOnce(ctx context.Context, endpoint string, req types.SendRequest, asm *assembler) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return &retry.HTTPStatusError{StatusCode: resp.StatusCode, Message: "peer send failed"}
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return err
	}
	asm.apply(raw)
	return nil
}

// sendStreaming performs a streaming POST and applies the assembly rules to
// every frame of the sequence (SPEC_FULL.md §4.3 step 4). Frames are
// newline-delimited JSON objects, optionally prefixed with the SSE "data: "
// marker; any line that is not valid JSON, or whose shape is unrecognized,
// is skipped rather than failing the whole parse (robustness invariant,
// SPEC_FULL.md §4.3 and §8 "unrecognized frame kinds yield no extracted
// text but never an error").
func (c *Client) sendStreaming(ctx context.Context, endpoint string, req types.SendRequest, asm *assembler) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return &retry.HTTPStatusError{StatusCode: resp.StatusCode, Message: "peer streaming send failed"}
	}

	return scanFrames(ctx, resp.Body, func(raw json.RawMessage) {
		asm.apply(raw)
	})
}

// stripSSEPrefix removes a leading "data:" marker and surrounding whitespace
// from one line of a text/event-stream body, tolerating either framing since
// peers vary in whether they wrap JSON-RPC frames in SSE envelopes.
func stripSSEPrefix(line string) string {
	line = strings.TrimSpace(line)
	if rest, ok := strings.CutPrefix(line, "data:"); ok {
		return strings.TrimSpace(rest)
	}
	return line
}
