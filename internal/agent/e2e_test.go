package agent

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"prodma/internal/clock"
	"prodma/internal/registry"
	"prodma/internal/server"
	"prodma/internal/tools"
)

type hourFunc func() int

func (f hourFunc) Hour() int { return f() }

// connectServer stands up the real tool server and connects over in-memory
// transports, so the loop runs against the same visibility filter and
// invocation guard as production.
func connectServer(t *testing.T, hour *int) *mcp.ClientSession {
	t.Helper()
	reg := registry.New()
	w := clock.Window{StartHour: 10, EndHour: 22}
	require.NoError(t, reg.Register(tools.Bodma()))
	require.NoError(t, reg.Register(tools.Codma()))
	require.NoError(t, reg.Register(tools.Prodma(w, hourFunc(func() int { return *hour }))))

	ctx := context.Background()
	ct, st := mcp.NewInMemoryTransports()
	_, err := server.New(reg).MCPServer().Connect(ctx, st, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "agent-test", Version: "0.1.0"}, nil)
	session, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session
}

func TestEndToEndComputesAgainstLiveServer(t *testing.T) {
	hour := 11
	session := connectServer(t, &hour)

	provider := &scriptedProvider{t: t, scripts: []string{
		functionCallResponse(
			[2]string{"bodma", `{"a":2,"b":3}`},
			[2]string{"prodma", `{"a":2,"b":3}`},
		),
		textResponse("done"),
	}}

	var events eventLog
	_, err := NewLoop(provider, session).Run(context.Background(), "e2e", "compute", events.collect)
	require.NoError(t, err)

	// Result events arrive once the whole batch has resolved, in the order
	// the model issued the calls.
	require.Equal(t, []string{"1.3333333333333333", "72"}, events.toolResults())

	// All three tools were advertised inside the window.
	require.Len(t, provider.tools[0], 3)
}

func TestEndToEndStaleCatalogRejectedInBand(t *testing.T) {
	hour := 11
	session := connectServer(t, &hour)

	// A client listed prodma while it was visible, but the window closes
	// before the model's call lands. The guard rejects at call time and the
	// loop keeps going, handing the rejection text to the model.
	provider := &scriptedProvider{t: t, scripts: []string{
		functionCallResponse([2]string{"prodma", `{"a":2,"b":3}`}),
		textResponse("prodma is outside its window"),
	}}

	listed, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)
	require.Len(t, listed.Tools, 3)
	hour = 23

	var events eventLog
	answer, err := NewLoop(provider, session).Run(context.Background(), "e2e", "compute", events.collect)
	require.NoError(t, err)
	require.Equal(t, "prodma is outside its window", answer)
	results := events.toolResults()
	require.Len(t, results, 1)
	require.Contains(t, results[0], "unavailable")

	// And outside the window prodma was not advertised either.
	require.Len(t, provider.tools[0], 2)
}
