// Package server implements the inbound half of SPEC_FULL.md §6: an HTTP
// listener that serves an agent card at /.well-known/agent-card.json and
// accepts message-send requests, making this agent a valid A2A peer for
// other negotiators (the same contract runtime/a2a/transport consumes as a
// caller). Grounded on the shape of the teacher's runtime/a2a.Server, scaled down to this
// domain's fixed tool surface: no pluggable skill registry, a single Handler
// function, one non-streaming response frame per request.
package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/a2cal/calendar-agent/runtime/a2a"
	"github.com/a2cal/calendar-agent/runtime/a2a/types"
	"github.com/a2cal/calendar-agent/runtime/telemetry"
)

// rpcErrorEnvelope is the JSON-RPC error shape returned for requests this
// server cannot act on, mirroring the {"error": {...}} sibling of the
// {"result": {...}} envelope types.ResponseFrame models.
type rpcErrorEnvelope struct {
	Error a2a.Error `json:"error"`
}

// Handler answers one inbound message. text is the caller's message part;
// contextID is the conversation-continuity token from the request, empty on
// a fresh conversation. It returns the response text and the context id to
// echo back (ordinarily contextID unchanged, or a freshly minted one when
// contextID was empty).
type Handler func(ctx context.Context, text, contextID string) (responseText, newContextID string)

// Server serves the agent-card discovery document and the message-send
// endpoint described in SPEC_FULL.md §6.
type Server struct {
	card    types.AgentCard
	handler Handler
	log     telemetry.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l telemetry.Logger) Option { return func(s *Server) { s.log = l } }

// New constructs a Server that serves card at agent-card.json and routes
// message sends to handler. card.URL, if empty, is left empty so that
// callers fall back to the discovery base per SPEC_FULL.md §6.
func New(card types.AgentCard, handler Handler, opts ...Option) *Server {
	s := &Server{card: card, handler: handler, log: telemetry.NewNoopLogger()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Handler returns an http.Handler serving both endpoints, mountable at the
// root of the agent's public base URL: GET /.well-known/agent-card.json and
// POST / (or any path; the message endpoint is not otherwise distinguished).
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/agent-card.json", s.serveCard)
	mux.HandleFunc("/", s.serveMessage)
	return mux
}

func (s *Server) serveCard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.card); err != nil {
		s.log.Error(r.Context(), "a2a server: encode agent card failed", "error", err.Error())
	}
}

func (s *Server) serveMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req types.SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeRPCError(w, http.StatusBadRequest, a2a.JSONRPCParseError, "malformed request envelope: "+err.Error())
		return
	}

	text := firstText(req.Params.Message.Parts)
	contextID := req.Params.Message.ContextID
	if contextID == "" {
		contextID = uuid.NewString()
	}

	responseText, newContextID := s.handler(r.Context(), text, contextID)
	if newContextID == "" {
		newContextID = contextID
	}

	frame := types.ResponseFrame{
		Result: types.Result{
			Kind:      types.KindArtifactUpdate,
			ContextID: newContextID,
			Artifact: &types.Artifact{
				Name:  "response",
				Parts: []types.MessagePart{{Kind: types.PartKindText, Text: responseText}},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(frame); err != nil {
		s.log.Error(r.Context(), "a2a server: encode response frame failed", "error", err.Error())
	}
}

// writeRPCError writes a JSON-RPC error envelope with the given HTTP status
// and JSON-RPC code (one of a2a.JSONRPC* constants).
func (s *Server) writeRPCError(w http.ResponseWriter, httpStatus, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	if err := json.NewEncoder(w).Encode(rpcErrorEnvelope{Error: a2a.Error{Code: code, Message: message}}); err != nil {
		s.log.Error(context.Background(), "a2a server: encode error envelope failed", "error", err.Error())
	}
}

func firstText(parts []types.MessagePart) string {
	for _, p := range parts {
		if p.Kind == types.PartKindText && p.Text != "" {
			return p.Text
		}
	}
	return ""
}
