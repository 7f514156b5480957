package sandbox

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/elysian-app/elysian/internal/model"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.state.dashboard(userID(r)))
}

// dashboard assembles the home-screen payload from one consistent
// snapshot of the learner's state.
func (st *state) dashboard(userID string) model.Dashboard {
	st.mu.Lock()
	defer st.mu.Unlock()
	u := st.getOrCreate(userID)
	today := dayOf(st.now())
	weekAgo := today.AddDate(0, 0, -7)

	var lessonToday bool
	weeklyLessons := 0
	for _, l := range st.lessons {
		if l.UserID != userID {
			continue
		}
		if dayOf(l.CreatedAt).Equal(today) {
			lessonToday = true
		}
		if !l.CreatedAt.Before(weekAgo) {
			weeklyLessons++
		}
	}
	spokeToday := !u.LastSpeakAt.IsZero() && dayOf(u.LastSpeakAt).Equal(today)
	talkedToday := !u.LastTalkAt.IsZero() && dayOf(u.LastTalkAt).Equal(today)

	achievements := []string{
		fmt.Sprintf("🔥 %d day learning streak!", u.DailyStreak),
		fmt.Sprintf("⭐ Level %d learner with %d XP", u.PlayerLevel, u.XP),
		fmt.Sprintf("📚 %d lessons completed", u.LessonsCompleted),
		fmt.Sprintf("🏆 Longest streak: %d days", u.LongestStreak),
	}

	return model.Dashboard{
		User: profileOf(u),
		DailyActivities: []model.DailyActivity{
			{Type: "learn", Completed: lessonToday, Progress: progress(lessonToday),
				Description: "Complete your personalized daily lesson", XPReward: 50},
			{Type: "speak", Completed: spokeToday, Progress: progress(spokeToday),
				Description: "Practice pronunciation and fluency", XPReward: 20},
			{Type: "converse", Completed: talkedToday, Progress: progress(talkedToday),
				Description: "Chat with Elysian in natural conversation", XPReward: 15},
		},
		Skills:       u.Skills,
		Achievements: achievements[:3],
		Weekly: model.WeeklyStats{
			LessonsCompleted: weeklyLessons,
			ConsistencyScore: min(100, weeklyLessons*15),
			XPThisWeek:       min(u.XP, 350),
		},
		Recommendations: recommendFrom(u.weaknesses),
		Gamification: model.Gamification{
			CurrentLevel:   u.PlayerLevel,
			CurrentXP:      u.XP,
			XPForNextLevel: xpForNextLevel(u.PlayerLevel),
			DailyStreak:    u.DailyStreak,
			LongestStreak:  u.LongestStreak,
		},
	}
}

func progress(done bool) int {
	if done {
		return 100
	}
	return 0
}

// recommendFrom turns the most frequent weaknesses into study hints,
// falling back to the standard trio for a clean slate.
func recommendFrom(ws []*weakness) []string {
	sorted := append([]*weakness(nil), ws...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Frequency > sorted[j].Frequency })

	var recs []string
	for _, w := range sorted {
		if len(recs) == 3 {
			break
		}
		switch w.Kind {
		case "grammar":
			recs = append(recs, fmt.Sprintf("Practice %s in today's lesson", w.Item))
		case "pronunciation_accuracy":
			recs = append(recs, "Focus on pronunciation in the Speaking Lab")
		default:
			recs = append(recs, fmt.Sprintf("Review %s: %s", w.Kind, w.Item))
		}
	}
	if len(recs) == 0 {
		recs = []string{
			"Complete today's lesson for personalized practice",
			"Try a speaking exercise to improve pronunciation",
			"Chat with Elysian to practice conversation",
		}
	}
	if len(recs) > 2 {
		recs = recs[:2]
	}
	return recs
}
