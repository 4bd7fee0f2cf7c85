package main

import (
	"os"

	"github.com/spf13/cobra"

	agentcmd "prodma/cmd/prodma/agent"
	"prodma/cmd/prodma/serve"
	"prodma/internal/logger"
)

func main() {
	logger.Init()
	rootCmd := &cobra.Command{
		Use:   "prodma",
		Short: "Time-gated arithmetic tool server and a tool-calling agent",
	}

	rootCmd.AddCommand(serve.Cmd)
	rootCmd.AddCommand(agentcmd.Cmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
