package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"prodma/internal/registry"
)

const serverVersion = "0.1.0"

// Server exposes a registry over MCP. Listing goes through a visibility
// middleware that drops tools whose window is closed; calls funnel through
// registry.Invoke, which re-checks availability so a stale catalog cannot
// be used to reach a hidden tool.
type Server struct {
	reg *registry.Registry
	mcp *mcp.Server
}

func New(reg *registry.Registry) *Server {
	s := &Server{reg: reg}

	s.mcp = mcp.NewServer(&mcp.Implementation{
		Name:    "prodma",
		Version: serverVersion,
	}, &mcp.ServerOptions{HasTools: true})
	s.mcp.AddReceivingMiddleware(s.visibilityMiddleware())

	// All tools are registered up front; visibility is decided per request,
	// never at registration time.
	for _, d := range reg.All() {
		s.mcp.AddTool(&mcp.Tool{
			Name:        d.Name,
			Description: d.Description,
			InputSchema: d.Schema(),
		}, s.toolHandler(d.Name))
	}

	return s
}

// MCPServer returns the underlying MCP server, mainly for in-memory
// transport wiring in tests.
func (s *Server) MCPServer() *mcp.Server { return s.mcp }

// Handler returns the streamable HTTP handler for mounting on net/http.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcp
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})
}

// visibilityMiddleware filters tools/list responses by each tool's
// availability predicate at the moment of listing. The result is advisory
// only; authorization happens again inside Invoke.
func (s *Server) visibilityMiddleware() mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			res, err := next(ctx, method, req)
			if err != nil || method != "tools/list" {
				return res, err
			}
			list, ok := res.(*mcp.ListToolsResult)
			if !ok {
				return res, nil
			}

			filtered := list.Tools[:0]
			for _, t := range list.Tools {
				if s.reg.Available(t.Name) {
					filtered = append(filtered, t)
				} else {
					slog.Debug("tool hidden from listing", "tool", t.Name)
				}
			}
			list.Tools = filtered
			return list, nil
		}
	}
}

func (s *Server) toolHandler(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args map[string]float64
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				return errorResult(fmt.Errorf("%w: arguments must be a numeric object: %v", registry.ErrInvalidArgument, err)), nil
			}
		}

		slog.Debug("tool call", "tool", name, "args", args)

		result, err := s.reg.Invoke(ctx, name, args)
		if err != nil {
			// Availability and argument errors travel in-band so the model
			// can read them and adapt; anything else is a protocol error.
			if errors.Is(err, registry.ErrUnavailable) ||
				errors.Is(err, registry.ErrInvalidArgument) ||
				errors.Is(err, registry.ErrNotFound) {
				slog.Debug("tool call rejected", "tool", name, "error", err)
				return errorResult(err), nil
			}
			return nil, err
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: result}},
		}, nil
	}
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("error: %s", err.Error())}},
	}
}
