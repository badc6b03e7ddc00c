package negotiation

import "context"

// LocalAgent is the local, language-model-backed booking agent the
// Orchestrator and Autonomous Continuation consult for each turn's
// utterance (SPEC_FULL.md §4.4 "Inputs"). Satisfied by bookingagent.Client;
// defined here, not there, so this package depends only on the narrow shape
// it actually needs (accept interfaces, return structs).
type LocalAgent interface {
	// Init prepares the agent for use (SPEC_FULL.md §4.4 step 1). Called at
	// most once per negotiation; implementations should make repeat calls
	// cheap no-ops once initialized.
	Init(ctx context.Context) error
	// NextUtterance asks the agent to formulate its next utterance given
	// prompt, returning the raw text (SPEC_FULL.md §4.4 step 3 / §4.5 step 2).
	NextUtterance(ctx context.Context, prompt string) (string, error)
}
