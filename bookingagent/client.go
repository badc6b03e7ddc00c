// Package bookingagent wraps the Anthropic Messages API behind the narrow
// shape negotiation.LocalAgent needs: Init and NextUtterance. Grounded on
// features/model/anthropic/client.go's MessagesClient/Options/New pattern,
// generalized from a tool-using planner client to a plain single-turn
// utterance generator for the booking negotiation (SPEC_FULL.md §2b,
// "Local booking agent").
package bookingagent

import (
	"context"
	"errors"
	"fmt"
	"sync"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// MessagesClient captures the subset of the Anthropic SDK client used here.
// Satisfied by *sdk.MessageService so callers can pass either a real client
// or a mock in tests.
type MessagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// Options configures the client.
type Options struct {
	// Model is the Claude model identifier to use. Required.
	Model string
	// MaxTokens caps each completion. Defaults to 1024 when zero or negative.
	MaxTokens int
	// Temperature is passed through to the Messages API when positive.
	Temperature float64
	// SystemPrompt is the fixed system instruction prepended to every turn,
	// describing the agent's role as a human principal's booking negotiator.
	SystemPrompt string
}

const defaultMaxTokens = 1024

// defaultSystemPrompt grounds the agent's persona the way
// calendar_booking_agent.py's system instructions describe it: a
// professional assistant negotiating meeting logistics on a principal's
// behalf, replying only with the message to send or a handover clause.
const defaultSystemPrompt = `You are a professional scheduling assistant negotiating a meeting on behalf of a human principal. You communicate with another agent representing the other party. Be concise, polite, and businesslike. Respond only with the text you want to send, or with the handover clause and message when instructed to consider handover.`

// Client implements negotiation.LocalAgent on top of Anthropic Claude
// Messages. One Client can be reused across negotiations; Init is a cheap
// idempotent no-op after the first call since there is no session to
// establish beyond validating configuration.
type Client struct {
	msg          MessagesClient
	model        string
	maxTokens    int
	temperature  float64
	systemPrompt string

	initOnce sync.Once
	initErr  error
}

// New builds a Client from an Anthropic Messages client and options.
func New(msg MessagesClient, opts Options) (*Client, error) {
	if msg == nil {
		return nil, errors.New("bookingagent: anthropic client is required")
	}
	if opts.Model == "" {
		return nil, errors.New("bookingagent: model identifier is required")
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	system := opts.SystemPrompt
	if system == "" {
		system = defaultSystemPrompt
	}
	return &Client{
		msg:          msg,
		model:        opts.Model,
		maxTokens:    maxTokens,
		temperature:  opts.Temperature,
		systemPrompt: system,
	}, nil
}

// NewFromAPIKey constructs a Client using the default Anthropic HTTP client,
// reading ANTHROPIC_API_KEY-adjacent defaults the way
// features/model/anthropic/client.go's NewFromAPIKey does.
func NewFromAPIKey(apiKey string, opts Options) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("bookingagent: api key is required")
	}
	ac := sdk.NewClient(option.WithAPIKey(apiKey))
	return New(&ac.Messages, opts)
}

// Init validates configuration. It has nothing session-scoped to establish;
// it is idempotent and safe to call once per negotiation per
// negotiation.LocalAgent's contract.
func (c *Client) Init(ctx context.Context) error {
	c.initOnce.Do(func() {
		if c.model == "" {
			c.initErr = errors.New("bookingagent: model identifier is required")
		}
	})
	return c.initErr
}

// NextUtterance asks the model for its next utterance given prompt, a
// single user turn with the fixed system prompt prepended. There is no
// multi-turn conversation state kept here: the caller (negotiation package)
// folds prior turns into prompt itself.
func (c *Client) NextUtterance(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", errors.New("bookingagent: prompt is required")
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: int64(c.maxTokens),
		System:    []sdk.TextBlockParam{{Text: c.systemPrompt}},
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(prompt))},
	}
	if c.temperature > 0 {
		params.Temperature = sdk.Float(c.temperature)
	}

	msg, err := c.msg.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("bookingagent: messages.new: %w", err)
	}

	text := extractText(msg)
	if text == "" {
		return "", errors.New("bookingagent: model returned no text content")
	}
	return text, nil
}

// extractText concatenates every text content block in msg, in order,
// mirroring features/model/anthropic/client.go's translateResponse text
// handling but collapsed to a single string since there are no tool calls
// to carry here.
func extractText(msg *sdk.Message) string {
	if msg == nil {
		return ""
	}
	var out string
	for _, block := range msg.Content {
		if block.Type == "text" && block.Text != "" {
			if out != "" {
				out += "\n"
			}
			out += block.Text
		}
	}
	return out
}
