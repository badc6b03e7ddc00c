// Package types defines the Agent-to-Agent (A2A) wire types this module both
// consumes (as a caller negotiating with remote peers) and serves (as a
// callee exposing its own calendar tool surface). Field names use camelCase
// JSON tags to conform to the A2A protocol specification.
//
//nolint:tagliatelle // A2A protocol specification requires camelCase JSON field names
package types

import "encoding/json"

// AgentCard is the discovery document published at
// <base>/.well-known/agent-card.json (SPEC_FULL.md §6).
type AgentCard struct {
	ProtocolVersion string                     `json:"protocolVersion,omitempty"`
	Name            string                     `json:"name"`
	Description     string                     `json:"description,omitempty"`
	// URL is the actual message endpoint, which may differ from the
	// discovery base. Absent means "use the discovery base".
	URL             string                     `json:"url,omitempty"`
	Version         string                     `json:"version,omitempty"`
	Capabilities    Capabilities               `json:"capabilities,omitempty"`
	Skills          []Skill                    `json:"skills,omitempty"`
	SecuritySchemes map[string]SecurityScheme  `json:"securitySchemes,omitempty"`
}

// Capabilities declares optional agent capabilities. Absent fields default
// conservatively: Streaming defaults to false.
type Capabilities struct {
	Streaming bool `json:"streaming,omitempty"`
}

// Skill represents a single skill an agent exposes, surfaced in its AgentCard.
type Skill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	InputModes  []string `json:"inputModes,omitempty"`
	OutputModes []string `json:"outputModes,omitempty"`
}

// SecurityScheme is a minimal security-scheme declaration in an AgentCard.
type SecurityScheme struct {
	Type   string          `json:"type"`
	Scheme string          `json:"scheme,omitempty"`
	In     string          `json:"in,omitempty"`
	Name   string          `json:"name,omitempty"`
	Flows  json.RawMessage `json:"flows,omitempty"`
}

// MessagePart is one part of a Message: either a text part (Kind=="text")
// or a structured data part (Kind=="data").
type MessagePart struct {
	Kind string          `json:"kind"`
	Text string          `json:"text,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Message is a single message exchanged in an A2A conversation.
type Message struct {
	Role      string        `json:"role"`
	MessageID string        `json:"messageId,omitempty"`
	Parts     []MessagePart `json:"parts"`
	ContextID string        `json:"contextId,omitempty"`
}

// SendParams wraps the Message for the tasks/send (or equivalent)
// request envelope (SPEC_FULL.md §6).
type SendParams struct {
	ID      string  `json:"id"`
	Message Message `json:"message"`
}

// SendRequest is the full outbound request envelope.
type SendRequest struct {
	ID     string     `json:"id"`
	Params SendParams `json:"params"`
}

// TaskStatus carries the status of a task, optionally with a human-readable
// status message.
type TaskStatus struct {
	State   string   `json:"state,omitempty"`
	Message *Message `json:"message,omitempty"`
}

// Artifact is a streaming response frame's primary content carrier: the
// ordered parts that make up one emitted artifact.
type Artifact struct {
	Name  string        `json:"name,omitempty"`
	Parts []MessagePart `json:"parts"`
}

// Result is the polymorphic payload of one response frame, discriminated by
// Kind ∈ {task, status-update, artifact-update, message}. Exactly the fields
// relevant to Kind are populated; this models the tagged union described in
// SPEC_FULL.md §9 ("Dynamic dispatch of streaming frames").
type Result struct {
	Kind      string    `json:"kind"`
	ContextID string    `json:"contextId,omitempty"`
	Status    *TaskStatus `json:"status,omitempty"`
	Artifact  *Artifact `json:"artifact,omitempty"`
	Message   *Message  `json:"message,omitempty"`
}

// ResponseFrame is one frame of a streaming response, or the sole body of a
// non-streaming response: an envelope wrapping one Result.
type ResponseFrame struct {
	Result Result `json:"result"`
}

const (
	// KindTask is an informational task lifecycle frame.
	KindTask = "task"
	// KindStatusUpdate carries an intermediate task status.
	KindStatusUpdate = "status-update"
	// KindArtifactUpdate is the primary carrier of user-visible content.
	KindArtifactUpdate = "artifact-update"
	// KindMessage is an informational message frame.
	KindMessage = "message"

	// PartKindText is a plain-text message/artifact part.
	PartKindText = "text"
	// PartKindData is a structured-data message/artifact part.
	PartKindData = "data"
)
