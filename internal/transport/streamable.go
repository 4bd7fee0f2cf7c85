package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultMaxRetries = 3

// Dial connects to a tool server over streamable HTTP and returns an
// initialized client session. The session is the only channel the agent
// has to the server; if the dial fails there is nothing to fall back to.
func Dial(ctx context.Context, endpoint string) (*mcp.ClientSession, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("tool server endpoint is required")
	}

	transport := &mcp.StreamableClientTransport{
		Endpoint: endpoint,
		HTTPClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		MaxRetries: defaultMaxRetries,
	}

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "prodma-agent",
		Version: "0.1.0",
	}, nil)

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to tool server at %s: %w", endpoint, err)
	}
	return session, nil
}
