package agent

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/responses"
)

// catalogTools converts the server's advertised tools into function
// declarations for the model. Every parameter in this system is numeric, so
// each advertised property maps to a number; the required list and the
// description are carried over verbatim.
//
// The catalog is rebuilt from a fresh tools/list at the start of each run.
// It is still only advisory: a tool can leave its window between the
// listing and a call, and the server re-checks availability at call time.
func catalogTools(tools []*mcp.Tool) []responses.ToolUnionParam {
	out := make([]responses.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		props := make(map[string]any)
		required := make([]string, 0)

		if schema, ok := t.InputSchema.(map[string]any); ok {
			if ps, ok := schema["properties"].(map[string]any); ok {
				for name := range ps {
					props[name] = map[string]any{"type": "number"}
				}
			}
			switch req := schema["required"].(type) {
			case []string:
				required = append(required, req...)
			case []any:
				for _, r := range req {
					if s, ok := r.(string); ok {
						required = append(required, s)
					}
				}
			}
		}

		// Strict mode demands a required list covering every property, so it
		// is only promised when the schema actually does that.
		reqSet := make(map[string]bool, len(required))
		for _, r := range required {
			reqSet[r] = true
		}
		strict := true
		for name := range props {
			if !reqSet[name] {
				strict = false
				break
			}
		}

		out = append(out, responses.ToolUnionParam{
			OfFunction: &responses.FunctionToolParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters: map[string]any{
					"type":                 "object",
					"properties":           props,
					"required":             required,
					"additionalProperties": false,
				},
				Strict: openai.Bool(strict),
			},
		})
	}
	return out
}
