package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/a2cal/calendar-agent/runtime/a2a/retry"
	"github.com/a2cal/calendar-agent/runtime/a2a/types"
)

// discoverCard fetches the agent card published at
// <base>/.well-known/agent-card.json (SPEC_FULL.md §6). Absent fields default
// conservatively: a missing URL falls back to base, a missing streaming
// capability defaults to false.
//
// Card discovery is retried with the module's own exponential-backoff helper
// (runtime/a2a/retry) since a peer's discovery endpoint is exactly the kind
// of flaky, cold-starting HTTP call that benefits from a couple of retries
// before the caller's own deadline gives up on the whole send.
func (c *Client) discoverCard(ctx context.Context, base string) (types.AgentCard, error) {
	url := strings.TrimRight(base, "/") + "/.well-known/agent-card.json"

	var card types.AgentCard
	err := retry.Do(ctx, c.cardRetry, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			return &retry.HTTPStatusError{StatusCode: resp.StatusCode, Message: "agent card fetch failed"}
		}
		return json.NewDecoder(resp.Body).Decode(&card)
	})
	if err != nil {
		return types.AgentCard{}, fmt.Errorf("transport: card discovery at %s: %w", url, err)
	}

	if card.URL == "" {
		card.URL = base
	}
	return card, nil
}
