package main

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/elysian-app/elysian/internal/config"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "elysian",
		Short: "Language practice in your terminal",
		Long: `Elysian is a terminal client for the Elysian language-learning
platform: pronunciation, listening and reading practice, a daily
lesson, conversation practice and your progress dashboard.

Run 'elysian sandbox' to start the bundled offline practice service,
then point any other command at it (the default --api-url already
does).`,
	}

	pf := root.PersistentFlags()
	pf.String("api-url", "http://localhost:8001", "Learning service base URL")
	pf.String("identity-url", "", "Identity provider base URL (default: api-url + /identity)")
	pf.String("api-key", "sandbox-key", "Identity provider API key")
	pf.StringP("lang", "l", "en", "UI language (en, ru)")
	pf.String("credentials", "", "Stored session path (default: <config dir>/elysian/credentials.json)")
	pf.String("history-db", "", "Practice history database path (default: <config dir>/elysian/history.db)")
	pf.String("vocab-db", "", "Vocabulary cache database path (default: <config dir>/elysian/vocab.db)")
	pf.String("dict-url", "", "Dictionary API base URL for word lookups")
	pf.Duration("timeout", 30*time.Second, "HTTP request timeout")
	pf.String("log-level", "info", "Log level (debug, info, warn, error)")
	pf.String("log-format", "text", "Log format (text, json)")

	root.AddCommand(
		loginCmd(), signupCmd(), logoutCmd(), whoamiCmd(),
		resetPasswordCmd(), deleteAccountCmd(),
		speakCmd(), listenCmd(), readCmd(),
		lessonCmd(), converseCmd(), dashboardCmd(), historyCmd(),
		sandboxCmd(),
	)

	return root
}

func setupLogging(cfg *config.Config) {
	var logLevel slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(cfg.LogFormat) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}
