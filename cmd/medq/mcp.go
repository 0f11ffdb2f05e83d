package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpadapter "github.com/kirillkom/medical-query-assistant/internal/adapters/mcp"
	"github.com/kirillkom/medical-query-assistant/internal/bootstrap"
	"github.com/kirillkom/medical-query-assistant/internal/config"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the medical_query tool over MCP stdio",
		Long: `Start an MCP server on stdin/stdout exposing the medical_query tool.

The connection owns one query session: its rate limit window and its
single in-flight query. Logs go to stderr.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			app, err := bootstrap.New(cmd.Context(), cfg, bootstrap.Options{
				Service:       "medq-mcp",
				LogOutput:     os.Stderr,
				DisableEvents: !publishEvents,
			})
			if err != nil {
				return fmt.Errorf("bootstrap: %w", err)
			}
			defer app.Close()

			app.LogWelcome()
			controller := app.NewController("mcp-stdio", nil, nil)
			return mcpadapter.ServeStdio(mcpadapter.NewServer(controller, app.Logger))
		},
	}
}
