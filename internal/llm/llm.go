package llm

import (
	"context"

	"github.com/openai/openai-go/v3/responses"
)

// Provider is the opaque model collaborator: conversation input plus tool
// declarations in, a completed response (final text or tool calls) out.
// Implementations stream tokens through onToken as they arrive.
type Provider interface {
	ChatStream(ctx context.Context, input []responses.ResponseInputItemUnionParam, tools []responses.ToolUnionParam, onToken func(string)) (*responses.Response, error)
}
