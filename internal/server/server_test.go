package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"prodma/internal/clock"
	"prodma/internal/registry"
	"prodma/internal/tools"
)

type hourFunc func() int

func (f hourFunc) Hour() int { return f() }

func newTestServer(t *testing.T, hour *int) *Server {
	t.Helper()
	reg := registry.New()
	w := clock.Window{StartHour: 10, EndHour: 22}
	require.NoError(t, reg.Register(tools.Bodma()))
	require.NoError(t, reg.Register(tools.Codma()))
	require.NoError(t, reg.Register(tools.Prodma(w, hourFunc(func() int { return *hour }))))
	return New(reg)
}

func connect(t *testing.T, ctx context.Context, s *Server) *mcp.ClientSession {
	t.Helper()
	ct, st := mcp.NewInMemoryTransports()
	_, err := s.MCPServer().Connect(ctx, st, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "0.1.0"}, nil)
	session, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session
}

func listNames(t *testing.T, ctx context.Context, session *mcp.ClientSession) []string {
	t.Helper()
	res, err := session.ListTools(ctx, &mcp.ListToolsParams{})
	require.NoError(t, err)
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	return names
}

func callArgs(a, b float64) json.RawMessage {
	raw, _ := json.Marshal(map[string]float64{"a": a, "b": b})
	return raw
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestListHidesProdmaOutsideWindow(t *testing.T) {
	ctx := context.Background()
	hour := 8
	session := connect(t, ctx, newTestServer(t, &hour))

	require.Equal(t, []string{"bodma", "codma"}, listNames(t, ctx, session))

	hour = 11
	require.Equal(t, []string{"bodma", "codma", "prodma"}, listNames(t, ctx, session))
}

func TestCallToolReturnsResult(t *testing.T) {
	ctx := context.Background()
	hour := 11
	session := connect(t, ctx, newTestServer(t, &hour))

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "prodma",
		Arguments: callArgs(2, 3),
	})
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Equal(t, "72", resultText(t, res))
}

func TestCallRejectsStaleCatalog(t *testing.T) {
	ctx := context.Background()
	hour := 11
	session := connect(t, ctx, newTestServer(t, &hour))

	// The client lists while prodma is visible, then the window closes
	// before it calls. The guard must reject in-band, not hide behind a
	// protocol error.
	require.Contains(t, listNames(t, ctx, session), "prodma")
	hour = 23

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "prodma",
		Arguments: callArgs(2, 3),
	})
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.Contains(t, resultText(t, res), "unavailable")
}

func TestCallInvalidArgumentInBand(t *testing.T) {
	ctx := context.Background()
	hour := 11
	session := connect(t, ctx, newTestServer(t, &hour))

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "bodma",
		Arguments: callArgs(0, 5),
	})
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.Contains(t, resultText(t, res), "division by zero")
}

func TestStreamableHTTPRoundTrip(t *testing.T) {
	ctx := context.Background()
	hour := 11
	srv := newTestServer(t, &hour)

	httpServer := httptest.NewServer(srv.Handler())
	t.Cleanup(httpServer.Close)

	transport := &mcp.StreamableClientTransport{Endpoint: httpServer.URL}
	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "0.1.0"}, nil)
	session, err := client.Connect(ctx, transport, nil)
	require.NoError(t, err)
	defer session.Close()

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "bodma",
		Arguments: callArgs(2, 3),
	})
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Equal(t, "1.3333333333333333", resultText(t, res))
}
