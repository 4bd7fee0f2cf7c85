package agent

import (
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

func TestCatalogToolsMapping(t *testing.T) {
	params := catalogTools([]*mcp.Tool{numericTool("bodma")})
	require.Len(t, params, 1)

	fn := params[0].OfFunction
	require.NotNil(t, fn)
	require.Equal(t, "bodma", fn.Name)
	require.Equal(t, "bodma tool", fn.Description.Value)

	schema := fn.Parameters
	require.Equal(t, "object", schema["type"])
	require.ElementsMatch(t, []string{"a", "b"}, schema["required"])
	require.Equal(t, false, schema["additionalProperties"])
	require.True(t, fn.Strict.Value)

	props := schema["properties"].(map[string]any)
	require.Equal(t, map[string]any{"type": "number"}, props["a"])
	require.Equal(t, map[string]any{"type": "number"}, props["b"])
}

func TestCatalogToolsEmptySchema(t *testing.T) {
	params := catalogTools([]*mcp.Tool{{Name: "noop", Description: "does nothing"}})
	require.Len(t, params, 1)

	fn := params[0].OfFunction
	require.Empty(t, fn.Parameters["properties"])

	// required must be present as an empty array, not null.
	require.Equal(t, []string{}, fn.Parameters["required"])
	require.True(t, fn.Strict.Value)
}

func TestCatalogToolsOptionalParamNotStrict(t *testing.T) {
	tool := &mcp.Tool{
		Name: "scale",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"a": map[string]any{"type": "number"},
				"b": map[string]any{"type": "number"},
			},
			"required": []any{"a"},
		},
	}

	params := catalogTools([]*mcp.Tool{tool})
	require.Len(t, params, 1)

	fn := params[0].OfFunction
	require.Equal(t, []string{"a"}, fn.Parameters["required"])
	require.False(t, fn.Strict.Value)
}
