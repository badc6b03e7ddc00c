package dispatch

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// validate checks arguments against tool's registered JSON Schema, grounded
// on registry/service.go's validatePayloadJSONAgainstSchema: marshal back to
// bytes, compile the schema fresh, and validate the decoded document. The
// schemas here are small and static so the recompilation cost per call is
// not worth caching against correctness.
func validate(tool string, arguments map[string]any) error {
	schemaBytes, ok := toolSchemas[tool]
	if !ok {
		return &UnknownToolError{Tool: tool}
	}

	var schemaDoc any
	if err := json.Unmarshal(schemaBytes, &schemaDoc); err != nil {
		return fmt.Errorf("dispatch: internal schema for %q is invalid: %w", tool, err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(tool+".json", schemaDoc); err != nil {
		return fmt.Errorf("dispatch: add schema resource for %q: %w", tool, err)
	}
	schema, err := c.Compile(tool + ".json")
	if err != nil {
		return fmt.Errorf("dispatch: compile schema for %q: %w", tool, err)
	}

	if err := schema.Validate(map[string]any(arguments)); err != nil {
		return &ParseError{Tool: tool, Reason: "arguments failed schema validation: " + err.Error()}
	}
	return nil
}
