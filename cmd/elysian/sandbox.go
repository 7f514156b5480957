package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/elysian-app/elysian/internal/config"
	"github.com/elysian-app/elysian/internal/sandbox"
)

func sandboxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sandbox",
		Short: "Run the offline practice server",
		Long: "Sandbox serves the whole practice API from memory with a demo\n" +
			"account (demo@example.com / demo1234), so every other command works\n" +
			"without a real backend.",
		RunE: runSandbox,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8001", "Address to listen on")
	f.String("secret", "", "Token signing secret (empty picks the development secret)")
	f.String("llm-url", "", "OpenAI-compatible endpoint for conversation replies")
	f.String("llm-key", "", "API key for the conversation endpoint")
	f.String("llm-model", "", "Model name for the conversation endpoint")
	return cmd
}

func runSandbox(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd)
	if err != nil {
		return err
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := sandbox.New(sandbox.Options{
		Secret:    cfg.String("secret"),
		Assistant: sandbox.NewAssistant(cfg.String("llm-url"), cfg.String("llm-key"), cfg.String("llm-model")),
	})

	addr := cfg.String("addr")
	slog.Info("sandbox listening", "addr", addr, "ai", cfg.String("llm-key") != "")
	return srv.ListenAndServe(ctx, addr)
}
