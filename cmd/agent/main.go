// Command agent runs the calendar negotiation agent: an inbound A2A server
// exposing the local calendar's tool surface, and, on request, an outbound
// negotiation against a peer agent endpoint.
//
// # Configuration
//
// Environment variables:
//
//	AGENT_ADDR             - inbound HTTP listen address (default: ":8080")
//	AGENT_NAME             - agent name advertised in the agent card (default: "calendar-agent")
//	AGENT_BASE_URL         - public base URL advertised in the agent card (optional)
//	REDIS_URL              - Redis connection address for durable storage (optional; in-memory store used when unset)
//	ANTHROPIC_API_KEY      - Anthropic API key for the local booking agent
//	ANTHROPIC_MODEL        - Claude model identifier (default: "claude-3-5-sonnet-20241022")
//	LOG_FORMAT             - "json" for JSON logs; any other value (default) selects terminal-formatted logs
//	LOG_DEBUG              - "true" to enable debug-level logging
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	cluelog "goa.design/clue/log"

	"github.com/a2cal/calendar-agent/bookingagent"
	"github.com/a2cal/calendar-agent/calendar"
	"github.com/a2cal/calendar-agent/dispatch"
	"github.com/a2cal/calendar-agent/negotiation"
	"github.com/a2cal/calendar-agent/preferences"
	"github.com/a2cal/calendar-agent/runtime/a2a/server"
	"github.com/a2cal/calendar-agent/runtime/a2a/transport"
	"github.com/a2cal/calendar-agent/runtime/a2a/types"
	"github.com/a2cal/calendar-agent/runtime/telemetry"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	ctx := context.Background()
	ctx = cluelog.Context(ctx, cluelog.WithFormat(logFormat()))
	if envOr("LOG_DEBUG", "") == "true" {
		ctx = cluelog.Context(ctx, cluelog.WithDebug())
	}
	logger := telemetry.NewClueLogger()

	addr := envOr("AGENT_ADDR", ":8080")
	name := envOr("AGENT_NAME", "calendar-agent")
	baseURL := envOr("AGENT_BASE_URL", "")

	calStore, prefsStore, closeStores, err := buildStores(ctx)
	if err != nil {
		return err
	}
	defer closeStores()

	engine, err := calendar.NewEngine(ctx, name, calStore, calendar.WithLogger(logger))
	if err != nil {
		return err
	}

	model, err := buildBookingAgent()
	if err != nil {
		return err
	}

	transportClient := transport.New(
		transport.WithLogger(logger),
		transport.WithRateLimit(1, 2),
	)

	dispatcher := dispatch.New(engine, prefsStore, model, logger)

	handler := func(ctx context.Context, text, contextID string) (string, string) {
		return dispatcher.Dispatch(ctx, text), contextID
	}
	card := types.AgentCard{
		Name:        name,
		Description: "Schedules meetings on behalf of its principal via agent-to-agent negotiation.",
		Version:     "1.0.0",
		URL:         baseURL,
		Capabilities: types.Capabilities{
			Streaming: false,
		},
		Skills: []types.Skill{
			{ID: "book-meeting", Name: "Book a meeting", Description: "Propose, accept, reject, or confirm calendar meetings."},
		},
	}
	srv := server.New(card, handler, server.WithLogger(logger))

	// negotiator is available for outbound negotiations initiated elsewhere
	// in the process (e.g. a future CLI/dashboard trigger); wiring it here
	// keeps main.go the single place all components are constructed and
	// injected (SPEC_FULL.md §9 "Shared global calendar").
	_ = negotiation.NewOrchestrator(transportClient, model, logger)

	log.Printf("starting calendar agent %q on %s", name, addr)
	return http.ListenAndServe(addr, srv.Handler())
}

func buildStores(ctx context.Context) (calendar.Store, preferences.Store, func(), error) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return calendar.NewInMemStore(), preferences.NewInMemStore(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{Addr: redisURL})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, nil, nil, errors.New("connect to redis: " + err.Error())
	}

	calStore := calendar.NewRedisStore(client, "cal:")
	prefsStore := preferences.NewRedisStore(client, "cal:prefs")
	closeFn := func() {
		if err := client.Close(); err != nil {
			log.Printf("close redis: %v", err)
		}
	}
	return calStore, prefsStore, closeFn, nil
}

func buildBookingAgent() (*bookingagent.Client, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY is required")
	}
	model := envOr("ANTHROPIC_MODEL", "claude-3-5-sonnet-20241022")
	return bookingagent.NewFromAPIKey(apiKey, bookingagent.Options{Model: model})
}

func logFormat() cluelog.Format {
	if envOr("LOG_FORMAT", "") == "json" {
		return cluelog.FormatJSON
	}
	return cluelog.FormatTerminal
}

func envOr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
