package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/openai/openai-go/v3/responses"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"prodma/internal/llm"
	"prodma/internal/trace"
)

const (
	defaultMaxTurns     = 8
	defaultModelTimeout = 2 * time.Minute
	defaultToolTimeout  = 30 * time.Second
)

type LoopOption func(*Loop)

func WithSystemPrompt(s string) LoopOption {
	return func(l *Loop) { l.systemPrompt = s }
}

// WithMaxTurns bounds the number of model calls in one run.
func WithMaxTurns(n int) LoopOption {
	return func(l *Loop) { l.maxTurns = n }
}

func WithModelTimeout(d time.Duration) LoopOption {
	return func(l *Loop) { l.modelTimeout = d }
}

func WithToolTimeout(d time.Duration) LoopOption {
	return func(l *Loop) { l.toolTimeout = d }
}

// Loop drives one agent invocation: fetch the tool catalog, call the model,
// dispatch whatever tools it asks for, feed the results back, and repeat
// until the model answers in plain text. Conversation state lives only for
// the duration of one Run.
type Loop struct {
	provider     llm.Provider
	session      ToolSession
	systemPrompt string
	maxTurns     int
	modelTimeout time.Duration
	toolTimeout  time.Duration
}

func NewLoop(provider llm.Provider, session ToolSession, opts ...LoopOption) *Loop {
	l := &Loop{
		provider:     provider,
		session:      session,
		maxTurns:     defaultMaxTurns,
		modelTimeout: defaultModelTimeout,
		toolTimeout:  defaultToolTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run executes the loop for a single prompt and returns the model's final
// text. Tool failures are folded into the conversation; only transport and
// model failures (and an exhausted turn budget) surface as errors.
//
// emit is invoked sequentially on the calling goroutine, so the callback
// does not need its own synchronization.
func (l *Loop) Run(ctx context.Context, sessionID string, prompt string, emit func(Event)) (string, error) {
	ctx, span := trace.Tracer().Start(ctx, "agent.run",
		oteltrace.WithAttributes(
			attribute.String("session.id", sessionID),
		),
	)
	defer span.End()

	listed, err := l.session.ListTools(ctx, &mcp.ListToolsParams{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("listing tools: %w", err)
	}
	tools := catalogTools(listed.Tools)
	slog.Debug("tool catalog fetched", "session_id", sessionID, "tools", len(listed.Tools))

	var input []responses.ResponseInputItemUnionParam
	if l.systemPrompt != "" {
		input = append(input, responses.ResponseInputItemParamOfMessage(l.systemPrompt, "developer"))
	}
	input = append(input, responses.ResponseInputItemParamOfMessage(prompt, "user"))

	resp, err := l.loop(ctx, input, tools, emit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	answer := finalText(resp)
	emit(Event{Type: EventDone, Data: answer})
	return answer, nil
}

// loop is the core cycle. Each iteration is one model call; when the model
// requests tools, the whole batch is resolved before the next call so every
// request it issued gets exactly one matching result. The loop exits when
// the model returns no tool calls, the context is cancelled, or the turn
// budget runs out.
func (l *Loop) loop(ctx context.Context, input []responses.ResponseInputItemUnionParam, tools []responses.ToolUnionParam, emit func(Event)) (*responses.Response, error) {
	for turn := 0; ; turn++ {
		if err := ctx.Err(); err != nil {
			emit(Event{Type: EventError, Data: "request cancelled"})
			return nil, err
		}
		if turn >= l.maxTurns {
			emit(Event{Type: EventError, Data: "turn budget exceeded"})
			return nil, fmt.Errorf("%w: %d turns", ErrBudgetExceeded, l.maxTurns)
		}

		llmCtx, llmSpan := trace.Tracer().Start(ctx, "llm.turn",
			oteltrace.WithAttributes(attribute.Int("llm.iteration", turn)),
		)
		llmCtx, cancel := context.WithTimeout(llmCtx, l.modelTimeout)

		resp, err := l.provider.ChatStream(llmCtx, input, tools, func(token string) {
			emit(Event{Type: EventToken, Data: token})
		})
		cancel()
		if err != nil {
			llmSpan.RecordError(err)
			llmSpan.SetStatus(codes.Error, err.Error())
			llmSpan.End()
			emit(Event{Type: EventError, Data: err.Error()})
			return nil, fmt.Errorf("model call: %w", err)
		}
		if resp == nil {
			err := errors.New("model call: provider returned no response")
			llmSpan.SetStatus(codes.Error, err.Error())
			llmSpan.End()
			emit(Event{Type: EventError, Data: err.Error()})
			return nil, err
		}
		llmSpan.SetAttributes(
			attribute.String("llm.model", string(resp.Model)),
			attribute.Int64("llm.input_tokens", resp.Usage.InputTokens),
			attribute.Int64("llm.output_tokens", resp.Usage.OutputTokens),
		)
		llmSpan.End()

		input = append(input, outputToInput(resp.Output)...)

		var calls []responses.ResponseOutputItemUnion
		for _, item := range resp.Output {
			if item.Type == "function_call" {
				calls = append(calls, item)
			}
		}

		// No tool calls: the model considers the task done.
		if len(calls) == 0 {
			return resp, nil
		}

		results, err := l.dispatch(ctx, calls, emit)
		if err != nil {
			emit(Event{Type: EventError, Data: err.Error()})
			return nil, err
		}
		input = append(input, results...)
	}
}

// dispatch executes a batch of tool calls concurrently and returns the
// results as input items, positionally matched to the calls. Calls within
// one batch cannot depend on each other's output, so fan-out is safe; the
// batch is appended to the conversation, and its result events emitted,
// only once every call has resolved.
//
// Tool-level failures come back as "error: ..." payloads for the model to
// read. A transport failure fails the whole run.
func (l *Loop) dispatch(ctx context.Context, calls []responses.ResponseOutputItemUnion, emit func(Event)) ([]responses.ResponseInputItemUnionParam, error) {
	for _, call := range calls {
		fc := call.AsFunctionCall()
		emit(Event{Type: EventToolCall, Data: map[string]string{
			"name":      fc.Name,
			"arguments": fc.Arguments,
		}})
	}

	var wg sync.WaitGroup
	results := make([]responses.ResponseInputItemUnionParam, len(calls))
	texts := make([]string, len(calls))
	errs := make([]error, len(calls))

	for i, call := range calls {
		wg.Add(1)
		go func(i int, call responses.ResponseOutputItemUnion) {
			defer wg.Done()
			fc := call.AsFunctionCall()

			text, err := l.callTool(ctx, fc.Name, fc.Arguments)
			if err != nil {
				errs[i] = err
				return
			}

			texts[i] = text
			results[i] = responses.ResponseInputItemParamOfFunctionCallOutput(fc.CallID, text)
		}(i, call)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("tool dispatch: %w", err)
	}

	// Results are emitted after the whole batch has resolved, in call order,
	// keeping emit on the caller's goroutine.
	for i, call := range calls {
		emit(Event{Type: EventToolResult, Data: map[string]string{
			"name":    call.AsFunctionCall().Name,
			"content": texts[i],
		}})
	}
	return results, nil
}

// callTool invokes one tool through the transport under its own deadline.
// The returned text is either the tool's result or an error payload; a
// non-nil error means the transport itself failed.
func (l *Loop) callTool(ctx context.Context, name, arguments string) (string, error) {
	ctx, span := trace.Tracer().Start(ctx, name,
		oteltrace.WithAttributes(
			attribute.String("gen_ai.tool.name", name),
			attribute.String("gen_ai.tool.input", arguments),
		),
	)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, l.toolTimeout)
	defer cancel()

	res, err := l.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      name,
		Arguments: json.RawMessage(arguments),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, context.DeadlineExceeded) {
			// A slow tool must not hang the batch; the model gets told.
			slog.Warn("tool call timed out", "tool", name)
			return fmt.Sprintf("error: timeout waiting for tool %s", name), nil
		}
		return "", fmt.Errorf("calling tool %s: %w", name, err)
	}

	text := contentText(res)
	if res.IsError {
		slog.Warn("tool returned an error", "tool", name, "error", text)
	}
	span.SetAttributes(attribute.Int("gen_ai.tool.output_length", len(text)))
	return text, nil
}

func contentText(res *mcp.CallToolResult) string {
	var out string
	for _, c := range res.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			out += tc.Text
		}
	}
	return out
}
