package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/elysian-app/elysian/internal/i18n"
)

func dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show your progress overview",
		RunE:  runDashboard,
	}
}

func runDashboard(cmd *cobra.Command, _ []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	ctx := s.ctx()
	p := newPrompter()

	dash, err := s.api.Dashboard(ctx)
	if err != nil {
		return fmt.Errorf("fetch dashboard: %w", err)
	}

	p.println(i18n.Td(ctx, "WelcomeBack", map[string]any{"Name": dash.User.Name}))
	g := dash.Gamification
	p.println(i18n.Td(ctx, "LevelLine", map[string]any{"Level": g.CurrentLevel, "XP": g.CurrentXP}))
	if g.DailyStreak > 0 {
		p.println(i18n.Tp(ctx, "StreakDays", g.DailyStreak))
	}

	if len(dash.DailyActivities) > 0 {
		p.println()
		p.println(i18n.T(ctx, "DashboardActivities"))
		for _, a := range dash.DailyActivities {
			mark := "·"
			if a.Completed {
				mark = "✓"
			}
			p.printf("  %s %s (+%d XP)\n", mark, a.Description, a.XPReward)
		}
	}

	p.println()
	p.println(i18n.Td(ctx, "DashboardWeekly", map[string]any{
		"Lessons": dash.Weekly.LessonsCompleted,
		"XP":      dash.Weekly.XPThisWeek,
		"Score":   dash.Weekly.ConsistencyScore,
	}))

	if len(dash.Achievements) > 0 {
		p.println()
		p.println(i18n.T(ctx, "DashboardAchievements"))
		for _, a := range dash.Achievements {
			p.printf("  %s\n", a)
		}
	}
	if len(dash.Recommendations) > 0 {
		p.println()
		p.println(i18n.T(ctx, "DashboardRecommendations"))
		for _, r := range dash.Recommendations {
			p.printf("  %s\n", r)
		}
	}
	return nil
}
