package agent

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"prodma/internal/agent"
	"prodma/internal/config"
	"prodma/internal/llm"
	"prodma/internal/trace"
	"prodma/internal/transport"
)

var serverURL string

var Cmd = &cobra.Command{
	Use:   "agent [prompt]",
	Short: "Run the agent against the tool server",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if serverURL != "" {
			cfg.Agent.ServerURL = serverURL
		}

		llmCfg := cfg.LLM()
		if llmCfg.APIKey == "" {
			return errors.New("no API key configured: set OPENAI_API_KEY or api_key in config")
		}

		ctx := cmd.Context()
		shutdown, err := trace.Init(ctx, trace.Config{
			Endpoint: cfg.Trace.Endpoint,
			URLPath:  cfg.Trace.URLPath,
			APIKey:   cfg.Trace.APIKey,
		})
		if err != nil {
			return fmt.Errorf("initializing tracing: %w", err)
		}
		defer shutdown(ctx)

		prompt := strings.Join(args, " ")
		if prompt == "" {
			prompt, err = readPrompt()
			if err != nil {
				return err
			}
		}

		session, err := transport.Dial(ctx, cfg.Agent.ServerURL)
		if err != nil {
			return err
		}
		defer session.Close()

		provider := llm.NewOpenAI(llmCfg.BaseURL, llmCfg.APIKey, llmCfg.Model)

		var opts []agent.LoopOption
		if cfg.Agent.MaxTurns > 0 {
			opts = append(opts, agent.WithMaxTurns(cfg.Agent.MaxTurns))
		}
		if cfg.Agent.ModelTimeoutSec > 0 {
			opts = append(opts, agent.WithModelTimeout(time.Duration(cfg.Agent.ModelTimeoutSec)*time.Second))
		}
		if cfg.Agent.ToolTimeoutSec > 0 {
			opts = append(opts, agent.WithToolTimeout(time.Duration(cfg.Agent.ToolTimeoutSec)*time.Second))
		}
		loop := agent.NewLoop(provider, session, opts...)

		fmt.Printf("\nUser: %s\n\n", prompt)
		if _, err := loop.Run(ctx, uuid.NewString(), prompt, render); err != nil {
			return err
		}
		return nil
	},
}

func init() {
	Cmd.Flags().StringVarP(&serverURL, "server", "s", "", "override tool server URL")
}

func readPrompt() (string, error) {
	fmt.Println("Enter a prompt for the agent")
	fmt.Println("  (e.g. 'Calculate BODMA, CODMA and PRODMA for a=2, b=3 and explain the results.'")
	fmt.Println("   or 'What tools do you have and which are available right now?')")
	fmt.Print("> ")

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading prompt: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", errors.New("empty prompt")
	}
	return line, nil
}

var (
	toolColor   = color.New(color.FgCyan)
	resultColor = color.New(color.FgGreen)
	errColor    = color.New(color.FgRed)
)

func render(ev agent.Event) {
	switch ev.Type {
	case agent.EventToken:
		if s, ok := ev.Data.(string); ok {
			fmt.Print(s)
		}
	case agent.EventToolCall:
		if m, ok := ev.Data.(map[string]string); ok {
			toolColor.Printf("🔧 Calling %s(%s)\n", m["name"], m["arguments"])
		}
	case agent.EventToolResult:
		if m, ok := ev.Data.(map[string]string); ok {
			resultColor.Printf("   → %s\n\n", m["content"])
		}
	case agent.EventDone:
		fmt.Println()
	case agent.EventError:
		errColor.Printf("error: %v\n", ev.Data)
	}
}
