package api

import (
	"context"
	"time"

	"github.com/elysian-app/elysian/internal/model"
)

// profileResponse is the wire shape of a learner profile. Timestamps
// arrive as strings because the hosted service emits them without a
// zone suffix.
type profileResponse struct {
	ID               string             `json:"id"`
	Email            string             `json:"email"`
	Name             string             `json:"name"`
	Level            string             `json:"current_cefr_level"`
	Interests        []string           `json:"interests"`
	Skills           model.SkillProfile `json:"skill_profile"`
	XP               int                `json:"xp"`
	PlayerLevel      int                `json:"level"`
	DailyStreak      int                `json:"daily_streak"`
	LongestStreak    int                `json:"longest_streak"`
	LessonsCompleted int                `json:"total_lessons_completed"`
	CreatedAt        string             `json:"created_at"`
}

func (r profileResponse) profile() model.Profile {
	return model.Profile{
		ID:               r.ID,
		Email:            r.Email,
		Name:             r.Name,
		Level:            model.Level(r.Level),
		Interests:        r.Interests,
		Skills:           r.Skills,
		XP:               r.XP,
		PlayerLevel:      r.PlayerLevel,
		DailyStreak:      r.DailyStreak,
		LongestStreak:    r.LongestStreak,
		LessonsCompleted: r.LessonsCompleted,
		CreatedAt:        parseTime(r.CreatedAt),
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

func parseTime(s string) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Profile fetches the learner's account state.
func (c *Client) Profile(ctx context.Context) (*model.Profile, error) {
	var resp profileResponse
	if err := c.get(ctx, "/api/user/profile", &resp); err != nil {
		return nil, err
	}
	p := resp.profile()
	return &p, nil
}

type dashboardResponse struct {
	User            profileResponse       `json:"user"`
	DailyActivities []model.DailyActivity `json:"daily_activities"`
	Skills          model.SkillProfile    `json:"skill_overview"`
	Achievements    []string              `json:"recent_achievements"`
	Weekly          model.WeeklyStats     `json:"weekly_stats"`
	Recommendations []string              `json:"recommendations"`
	Gamification    model.Gamification    `json:"gamification"`
}

// Dashboard fetches the aggregate home-screen payload.
func (c *Client) Dashboard(ctx context.Context) (*model.Dashboard, error) {
	var resp dashboardResponse
	if err := c.get(ctx, "/api/dashboard", &resp); err != nil {
		return nil, err
	}
	return &model.Dashboard{
		User:            resp.User.profile(),
		DailyActivities: resp.DailyActivities,
		Skills:          resp.Skills,
		Achievements:    resp.Achievements,
		Weekly:          resp.Weekly,
		Recommendations: resp.Recommendations,
		Gamification:    resp.Gamification,
	}, nil
}
