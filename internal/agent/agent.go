package agent

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ErrBudgetExceeded is returned when the model keeps requesting tools past
// the configured turn budget. The loop has no other termination bound, so
// the budget is what guarantees an exit.
var ErrBudgetExceeded = errors.New("turn budget exceeded")

type EventType string

const (
	EventToken      EventType = "token"
	EventToolCall   EventType = "tool_call"
	EventToolResult EventType = "tool_result"
	EventDone       EventType = "done"
	EventError      EventType = "error"
)

type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

// ToolSession is the slice of an MCP client session the loop needs.
// *mcp.ClientSession satisfies it.
type ToolSession interface {
	ListTools(ctx context.Context, params *mcp.ListToolsParams) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, params *mcp.CallToolParams) (*mcp.CallToolResult, error)
}
