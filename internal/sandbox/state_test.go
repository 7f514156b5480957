package sandbox

import (
	"reflect"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestLevelCurve(t *testing.T) {
	tests := []struct{ xp, want int }{
		{0, 1}, {99, 1}, {100, 2}, {250, 3}, {4900, 50}, {12345, 50},
	}
	for _, tt := range tests {
		if got := level(tt.xp); got != tt.want {
			t.Errorf("level(%d) = %d, want %d", tt.xp, got, tt.want)
		}
	}
	if got := xpForNextLevel(7); got != 100 {
		t.Errorf("xpForNextLevel(7) = %d, want 100", got)
	}
}

func TestAwardXPReportsLevelUp(t *testing.T) {
	st := newState(nil)
	res := st.awardXP("u", 95)
	if res.LevelUp || res.NewLevel != 1 || res.NewXP != 95 {
		t.Errorf("first award = %+v", res)
	}
	res = st.awardXP("u", 10)
	if !res.LevelUp || res.NewLevel != 2 || res.NewXP != 105 {
		t.Errorf("crossing award = %+v", res)
	}
}

func TestStreakProgression(t *testing.T) {
	clock := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	st := newState(func() time.Time { return clock })

	st.touchStreak("u")
	st.touchStreak("u") // second visit the same day changes nothing
	p := st.profile("u")
	if p.DailyStreak != 1 || p.XP != 0 {
		t.Fatalf("day one: streak %d, xp %d", p.DailyStreak, p.XP)
	}

	for i := 0; i < 6; i++ {
		clock = clock.Add(24 * time.Hour)
		st.touchStreak("u")
	}
	p = st.profile("u")
	if p.DailyStreak != 7 || p.LongestStreak != 7 {
		t.Errorf("after a week: streak %d, longest %d", p.DailyStreak, p.LongestStreak)
	}
	// Five 10 XP day bonuses plus the 50 XP seventh-day bonus.
	if p.XP != 100 || p.PlayerLevel != 2 {
		t.Errorf("after a week: xp %d, level %d", p.XP, p.PlayerLevel)
	}

	clock = clock.Add(72 * time.Hour)
	st.touchStreak("u")
	p = st.profile("u")
	if p.DailyStreak != 1 {
		t.Errorf("streak after a gap = %d, want 1", p.DailyStreak)
	}
	if p.LongestStreak != 7 || p.XP != 100 {
		t.Errorf("gap reset lost history: longest %d, xp %d", p.LongestStreak, p.XP)
	}
}

func TestDailyLessonLifecycle(t *testing.T) {
	clock := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	st := newState(func() time.Time { return clock })

	l := st.lessonForToday("u")
	if len(l.Exercises) != len(sampleLesson) {
		t.Fatalf("exercises = %d, want %d", len(l.Exercises), len(sampleLesson))
	}
	wantSkills := []string{"grammar", "vocabulary", "writing_accuracy"}
	if !reflect.DeepEqual(l.TargetSkills, wantSkills) {
		t.Errorf("target skills = %v, want %v", l.TargetSkills, wantSkills)
	}
	if again := st.lessonForToday("u"); again.ID != l.ID {
		t.Errorf("same-day fetch regenerated the lesson: %s vs %s", again.ID, l.ID)
	}

	for i, ex := range l.Exercises {
		completed := st.markAnswered(l.ID, ex.ID)
		if want := i == len(l.Exercises)-1; completed != want {
			t.Errorf("markAnswered #%d = %v, want %v", i, completed, want)
		}
	}
	if st.markAnswered(l.ID, l.Exercises[0].ID) {
		t.Error("repeat answer completed the lesson again")
	}
	if got := st.profile("u").LessonsCompleted; got != 1 {
		t.Errorf("LessonsCompleted = %d, want 1", got)
	}

	clock = clock.Add(24 * time.Hour)
	if tomorrow := st.lessonForToday("u"); tomorrow.ID == l.ID {
		t.Error("next-day fetch returned the previous lesson")
	}
}

func TestRecommendationsFollowWeaknesses(t *testing.T) {
	st := newState(nil)
	st.trackWeakness("u", "grammar", "past tense")
	st.trackWeakness("u", "grammar", "past tense")
	st.trackWeakness("u", "vocabulary", "weather words")

	st.mu.Lock()
	ws := st.users["u"].weaknesses
	st.mu.Unlock()
	if len(ws) != 2 || ws[0].Frequency != 2 {
		t.Fatalf("weaknesses = %+v", ws)
	}

	recs := recommendFrom(ws)
	want := []string{
		"Practice past tense in today's lesson",
		"Review vocabulary: weather words",
	}
	if !reflect.DeepEqual(recs, want) {
		t.Errorf("recommendations = %v, want %v", recs, want)
	}

	recs = recommendFrom(nil)
	if len(recs) != 2 || recs[0] != "Complete today's lesson for personalized practice" {
		t.Errorf("default recommendations = %v", recs)
	}

	recs = recommendFrom([]*weakness{{Kind: "pronunciation_accuracy", Item: "th sounds", Frequency: 1}})
	if recs[0] != "Focus on pronunciation in the Speaking Lab" {
		t.Errorf("pronunciation recommendation = %q", recs[0])
	}
}

func TestAccountLifecycle(t *testing.T) {
	st := newState(nil)
	u, ok := st.createAccount("lena@example.com", []byte("hash"))
	if !ok {
		t.Fatal("createAccount refused a fresh email")
	}
	if u.Name != "lena" || u.Email != "lena@example.com" {
		t.Errorf("learner = %+v", u)
	}
	if _, ok := st.createAccount("lena@example.com", nil); ok {
		t.Error("duplicate email accepted")
	}

	st.issueRefresh(u.ID, "tok")
	if got, ok := st.redeemRefresh("tok"); !ok || got.ID != u.ID {
		t.Errorf("redeemRefresh = %v, %v", got, ok)
	}

	if !st.removeAccount(u.ID) {
		t.Fatal("removeAccount failed")
	}
	if _, ok := st.byEmail("lena@example.com"); ok {
		t.Error("removed account still resolvable by email")
	}
	if _, ok := st.redeemRefresh("tok"); ok {
		t.Error("refresh token survived account removal")
	}
}

func TestAuthorityResolve(t *testing.T) {
	a := newAuthority("test-secret")
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	own, err := a.issue("user-1", "u1@example.com", now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if got := a.resolve("Bearer " + own); got != "user-1" {
		t.Errorf("own token resolved to %q", got)
	}

	// Tokens signed elsewhere keep their identity claims.
	foreign, err := newAuthority("other-secret").issue("user-2", "u2@example.com", now)
	if err != nil {
		t.Fatalf("issue foreign: %v", err)
	}
	if got := a.resolve("Bearer " + foreign); got != "user-2" {
		t.Errorf("foreign token resolved to %q", got)
	}

	// A parseable token without identity claims lands on the plain
	// demo id.
	anon := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"scope": "practice"})
	signed, err := anon.SignedString([]byte("whatever"))
	if err != nil {
		t.Fatalf("sign anonymous token: %v", err)
	}
	if got := a.resolve("Bearer " + signed); got != "demo_user" {
		t.Errorf("anonymous token resolved to %q", got)
	}

	// Everything else shares the demo account.
	for _, header := range []string{"", "Bearer ", "Basic abc", "Bearer not-a-jwt"} {
		if got := a.resolve(header); got != demoUserID {
			t.Errorf("resolve(%q) = %q, want %q", header, got, demoUserID)
		}
	}
}
