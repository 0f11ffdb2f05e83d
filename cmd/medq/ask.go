package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kirillkom/medical-query-assistant/internal/adapters/cli"
	"github.com/kirillkom/medical-query-assistant/internal/bootstrap"
	"github.com/kirillkom/medical-query-assistant/internal/config"
)

var (
	askQuery   string
	askNoColor bool
)

func newAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Ask a medical question",
		Long: `Ask a medical question and print the answer with references.

Without --query, questions are read line by line from stdin. Type :clear to
clear the last result and :quit to leave.

Examples:
  medq ask -q "患者出现发热症状应如何处理"
  medq ask`,
		RunE: runAsk,
	}
	cmd.Flags().StringVarP(&askQuery, "query", "q", "", "question to ask (interactive mode when empty)")
	cmd.Flags().BoolVar(&askNoColor, "no-color", false, "disable colored output")
	return cmd
}

func runAsk(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		Service:       "medq-cli",
		LogOutput:     os.Stderr,
		DisableEvents: !publishEvents,
	})
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer app.Close()

	color := !askNoColor
	view := cli.NewTerminalView(cmd.OutOrStdout(), color)
	notices := cli.NewNoticePrinter(cmd.ErrOrStderr(), color)
	controller := app.NewController("cli-"+uuid.NewString(), view, notices)

	if askQuery != "" || cmd.Flags().Changed("query") {
		_, err := cli.Ask(ctx, controller, askQuery)
		return err
	}

	app.LogWelcome()
	answered, err := cli.RunInteractive(ctx, cmd.InOrStdin(), cmd.ErrOrStderr(), controller)
	app.Logger.Info("cli_session_finished", "answered", answered)
	return err
}

