package serve

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"prodma/internal/clock"
	"prodma/internal/config"
	"prodma/internal/registry"
	"prodma/internal/server"
	"prodma/internal/tools"
	"prodma/internal/trace"
)

var addr string

var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP tool server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if addr != "" {
			cfg.Server.Addr = addr
		}

		shutdown, err := trace.Init(cmd.Context(), trace.Config{
			Endpoint: cfg.Trace.Endpoint,
			URLPath:  cfg.Trace.URLPath,
			APIKey:   cfg.Trace.APIKey,
		})
		if err != nil {
			return fmt.Errorf("initializing tracing: %w", err)
		}
		defer shutdown(cmd.Context())

		reg, err := buildRegistry(cfg)
		if err != nil {
			return fmt.Errorf("registering tools: %w", err)
		}

		mux := http.NewServeMux()
		mux.Handle("/mcp", server.New(reg).Handler())

		slog.Info("starting tool server",
			"addr", cfg.Server.Addr,
			"window_start", cfg.Window.StartHour,
			"window_end", cfg.Window.EndHour,
		)
		return http.ListenAndServe(cfg.Server.Addr, mux)
	},
}

func init() {
	Cmd.Flags().StringVarP(&addr, "addr", "a", "", "override listen address")
}

func buildRegistry(cfg *config.Config) (*registry.Registry, error) {
	clk := clock.FromOverride(cfg.TimeOverrideHour)
	window := clock.Window{
		StartHour: cfg.Window.StartHour,
		EndHour:   cfg.Window.EndHour,
	}

	reg := registry.New()
	for _, d := range []registry.Descriptor{
		tools.Bodma(),
		tools.Codma(),
		tools.Prodma(window, clk),
	} {
		if err := reg.Register(d); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
