package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/elysian-app/elysian/internal/i18n"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show locally recorded practice attempts",
		RunE:  runHistory,
	}
	cmd.Flags().IntP("limit", "n", 10, "How many recent attempts to show")
	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	ctx := s.ctx()
	p := newPrompter()

	store, err := s.openHistory()
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()

	recent, err := store.Recent(s.cfg.Int("limit"))
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}
	if len(recent) == 0 {
		p.println(i18n.T(ctx, "HistoryEmpty"))
		return nil
	}

	p.println(i18n.T(ctx, "HistoryRecent"))
	for _, a := range recent {
		p.printf("  %s  %-6s  %-32s  %5.1f  +%d XP\n",
			a.CreatedAt.Local().Format("2006-01-02 15:04"),
			a.Module, truncate(a.Title, 32), a.Score, a.XPEarned)
	}

	sums, err := store.Summary()
	if err != nil {
		return fmt.Errorf("summarize history: %w", err)
	}
	p.println()
	p.println(i18n.T(ctx, "HistorySummary"))
	for _, m := range sums {
		p.printf("  %-6s  %s\n", m.Module, i18n.Td(ctx, "SummaryLine", map[string]any{
			"Attempts": m.Attempts,
			"Best":     fmt.Sprintf("%.0f", m.Best),
			"Average":  fmt.Sprintf("%.1f", m.Average),
			"XP":       m.XPEarned,
		}))
	}
	return nil
}

// truncate shortens a title to fit the table column.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
