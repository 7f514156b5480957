package sandbox

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/elysian-app/elysian/internal/model"
)

// learner is the sandbox's account record. Everything lives in memory
// and resets with the process, which is the point of a practice
// service.
type learner struct {
	ID           string
	Email        string
	Name         string
	PasswordHash []byte
	Level        model.Level
	Interests    []string
	Skills       model.SkillProfile
	XP           int
	PlayerLevel  int

	DailyStreak      int
	LongestStreak    int
	LessonsCompleted int
	SpeakAttempts    int
	ListenAttempts   int
	ReadAttempts     int

	// weaknesses tallies wrong lesson answers per skill and item and
	// feeds the dashboard recommendations.
	weaknesses []*weakness

	CreatedAt    time.Time
	LastActivity time.Time
	LastSpeakAt  time.Time
	LastTalkAt   time.Time
}

// weakness is one recurring trouble spot, counted so the most frequent
// ones surface first.
type weakness struct {
	Kind      string
	Item      string
	Frequency int
}

type storedChallenge struct {
	ID        string
	UserID    string
	Topic     string
	Level     model.Level
	CreatedAt time.Time
	challenge
}

type storedArticle struct {
	ID    string
	Level model.Level
	article
}

type storedLessonExercise struct {
	ID string
	lessonExercise
}

type storedLesson struct {
	ID           string
	UserID       string
	CreatedAt    time.Time
	Exercises    []storedLessonExercise
	TargetSkills []string
	Answered     map[string]bool // exercise ids with a submitted answer
}

type turn struct {
	Role    string // "user" or "elysian"
	Content string
}

type conversation struct {
	ID        string
	UserID    string
	Kind      string
	Turns     []turn
	CreatedAt time.Time
}

// xpResult reports an XP award the way the wire format wants it.
type xpResult struct {
	Earned   int
	LevelUp  bool
	NewLevel int
	NewXP    int
}

// state is the in-memory store behind the sandbox handlers. All
// methods take the lock; callers never hold references into it.
type state struct {
	mu            sync.Mutex
	now           func() time.Time
	users         map[string]*learner // by id
	emails        map[string]string   // email -> user id
	refresh       map[string]string   // refresh token -> user id
	challenges    map[string]*storedChallenge
	articles      map[string]*storedArticle
	lessons       map[string]*storedLesson
	conversations map[string]*conversation
}

func newState(now func() time.Time) *state {
	if now == nil {
		now = time.Now
	}
	return &state{
		now:           now,
		users:         make(map[string]*learner),
		emails:        make(map[string]string),
		refresh:       make(map[string]string),
		challenges:    make(map[string]*storedChallenge),
		articles:      make(map[string]*storedArticle),
		lessons:       make(map[string]*storedLesson),
		conversations: make(map[string]*conversation),
	}
}

// getOrCreate returns the learner record, creating a fresh one the
// first time an authenticated id shows up. The caller must hold mu.
func (st *state) getOrCreate(userID string) *learner {
	if u, ok := st.users[userID]; ok {
		return u
	}
	u := &learner{
		ID:    userID,
		Email: userID + "@example.com",
		Name:  "Elysian Learner",
		Level: model.LevelA1,
		Skills: model.SkillProfile{
			Grammar: 50, Vocabulary: 50, SpeakingFluency: 50,
			ListeningComprehension: 50, ReadingComprehension: 50,
			WritingAccuracy: 50, PronunciationAccuracy: 50, IntonationScore: 50,
		},
		PlayerLevel: 1,
		DailyStreak: 1,
		CreatedAt:   st.now(),
	}
	st.users[userID] = u
	return u
}

// createAccount registers a learner with credentials. The email local
// part becomes the display name.
func (st *state) createAccount(email string, hash []byte) (*learner, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, exists := st.emails[email]; exists {
		return nil, false
	}
	id := uuid.NewString()
	u := st.getOrCreate(id)
	u.Email = email
	u.PasswordHash = hash
	if at := strings.IndexByte(email, '@'); at > 0 {
		u.Name = email[:at]
	}
	st.emails[email] = id
	return cloneLearner(u), true
}

// byEmail returns a snapshot of the learner registered under email.
func (st *state) byEmail(email string) (*learner, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	id, ok := st.emails[email]
	if !ok {
		return nil, false
	}
	return cloneLearner(st.users[id]), true
}

// removeAccount deletes the learner and every session referencing it.
func (st *state) removeAccount(userID string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	u, ok := st.users[userID]
	if !ok {
		return false
	}
	delete(st.users, userID)
	delete(st.emails, u.Email)
	for tok, id := range st.refresh {
		if id == userID {
			delete(st.refresh, tok)
		}
	}
	return true
}

// issueRefresh mints a refresh token for the learner.
func (st *state) issueRefresh(userID, token string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.refresh[token] = userID
}

// redeemRefresh resolves a refresh token to a learner snapshot.
func (st *state) redeemRefresh(token string) (*learner, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	id, ok := st.refresh[token]
	if !ok {
		return nil, false
	}
	u, ok := st.users[id]
	if !ok {
		return nil, false
	}
	return cloneLearner(u), true
}

func cloneLearner(u *learner) *learner {
	c := *u
	c.Interests = append([]string(nil), u.Interests...)
	c.weaknesses = nil
	return &c
}

// profile renders the learner as the wire payload.
func (st *state) profile(userID string) model.Profile {
	st.mu.Lock()
	defer st.mu.Unlock()
	return profileOf(st.getOrCreate(userID))
}

func profileOf(u *learner) model.Profile {
	interests := u.Interests
	if interests == nil {
		interests = []string{}
	}
	return model.Profile{
		ID:               u.ID,
		Email:            u.Email,
		Name:             u.Name,
		Level:            u.Level,
		Interests:        interests,
		Skills:           u.Skills,
		XP:               u.XP,
		PlayerLevel:      u.PlayerLevel,
		DailyStreak:      u.DailyStreak,
		LongestStreak:    u.LongestStreak,
		LessonsCompleted: u.LessonsCompleted,
		CreatedAt:        u.CreatedAt,
	}
}

// level maps total XP onto the 1..50 level curve.
func level(xp int) int {
	if xp < 100 {
		return 1
	}
	lvl := xp/100 + 1
	if lvl > 50 {
		lvl = 50
	}
	return lvl
}

// xpForNextLevel is the XP span of one level on the curve.
func xpForNextLevel(current int) int {
	return current*100 - (current-1)*100
}

// awardXP adds xp and recomputes the level.
func (st *state) awardXP(userID string, xp int) xpResult {
	st.mu.Lock()
	defer st.mu.Unlock()
	u := st.getOrCreate(userID)
	old := u.PlayerLevel
	u.XP += xp
	u.PlayerLevel = level(u.XP)
	u.LastActivity = st.now()
	return xpResult{
		Earned:   xp,
		LevelUp:  u.PlayerLevel > old,
		NewLevel: u.PlayerLevel,
		NewXP:    u.XP,
	}
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// touchStreak advances the daily streak: consecutive days increment it
// (with a small XP bonus, larger on every seventh day), a gap resets it
// to one, and repeat visits on the same day leave it alone.
func (st *state) touchStreak(userID string) {
	st.mu.Lock()
	u := st.getOrCreate(userID)
	now := st.now()

	var bonus int
	switch {
	case u.LastActivity.IsZero():
		u.DailyStreak = 1
		u.LastActivity = now
	default:
		days := int(dayOf(now).Sub(dayOf(u.LastActivity)).Hours() / 24)
		switch {
		case days == 1:
			u.DailyStreak++
			if u.DailyStreak > u.LongestStreak {
				u.LongestStreak = u.DailyStreak
			}
			u.LastActivity = now
			bonus = 10
			if u.DailyStreak%7 == 0 {
				bonus = 50
			}
		case days > 1:
			u.DailyStreak = 1
			u.LastActivity = now
		}
	}
	st.mu.Unlock()

	if bonus > 0 {
		st.awardXP(userID, bonus)
	}
}

// update runs fn against the learner record under the lock.
func (st *state) update(userID string, fn func(*learner)) {
	st.mu.Lock()
	defer st.mu.Unlock()
	fn(st.getOrCreate(userID))
}

// trackWeakness bumps the frequency of a recurring trouble spot.
func (st *state) trackWeakness(userID, kind, item string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	u := st.getOrCreate(userID)
	for _, w := range u.weaknesses {
		if w.Kind == kind && w.Item == item {
			w.Frequency++
			return
		}
	}
	u.weaknesses = append(u.weaknesses, &weakness{Kind: kind, Item: item, Frequency: 1})
}

// recordChallenge stores a served listening challenge so the submit
// endpoint grades against exactly what the learner heard.
func (st *state) recordChallenge(userID, topic string, lvl model.Level, ch challenge) storedChallenge {
	st.mu.Lock()
	defer st.mu.Unlock()
	sc := &storedChallenge{
		ID:        uuid.NewString(),
		UserID:    userID,
		Topic:     topic,
		Level:     lvl,
		CreatedAt: st.now(),
		challenge: ch,
	}
	st.challenges[sc.ID] = sc
	return *sc
}

func (st *state) challengeByID(id string) (storedChallenge, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if sc, ok := st.challenges[id]; ok {
		return *sc, true
	}
	return storedChallenge{}, false
}

// registerArticle stores an article under id. An id already taken
// keeps its original content, so repeat fetches stay stable.
func (st *state) registerArticle(id string, lvl model.Level, art article) storedArticle {
	st.mu.Lock()
	defer st.mu.Unlock()
	if sa, ok := st.articles[id]; ok {
		return *sa
	}
	sa := &storedArticle{ID: id, Level: lvl, article: art}
	st.articles[id] = sa
	return *sa
}

func (st *state) articleByID(id string) (storedArticle, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if sa, ok := st.articles[id]; ok {
		return *sa, true
	}
	return storedArticle{}, false
}

// lessonForToday returns the learner's lesson for the current day,
// generating it on first request.
func (st *state) lessonForToday(userID string) storedLesson {
	st.mu.Lock()
	defer st.mu.Unlock()
	today := dayOf(st.now())
	for _, l := range st.lessons {
		if l.UserID == userID && dayOf(l.CreatedAt).Equal(today) {
			return *l
		}
	}
	l := &storedLesson{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: st.now(),
		Answered:  make(map[string]bool),
	}
	seen := make(map[string]bool)
	for _, ex := range sampleLesson {
		l.Exercises = append(l.Exercises, storedLessonExercise{ID: uuid.NewString(), lessonExercise: ex})
		if !seen[ex.SkillTarget] {
			seen[ex.SkillTarget] = true
			l.TargetSkills = append(l.TargetSkills, ex.SkillTarget)
		}
	}
	st.lessons[l.ID] = l
	return *l
}

func (st *state) lessonByID(id string) (storedLesson, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if l, ok := st.lessons[id]; ok {
		return *l, true
	}
	return storedLesson{}, false
}

// markAnswered records an answer against a lesson exercise and reports
// whether it just completed the lesson.
func (st *state) markAnswered(lessonID, exerciseID string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	l, ok := st.lessons[lessonID]
	if !ok || l.Answered[exerciseID] {
		return false
	}
	l.Answered[exerciseID] = true
	if len(l.Answered) < len(l.Exercises) {
		return false
	}
	st.getOrCreate(l.UserID).LessonsCompleted++
	return true
}

// startConversation opens a conversation seeded with the welcome turn.
func (st *state) startConversation(userID, kind string) conversation {
	st.mu.Lock()
	defer st.mu.Unlock()
	c := &conversation{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      kind,
		Turns:     []turn{{Role: "elysian", Content: welcome()}},
		CreatedAt: st.now(),
	}
	st.conversations[c.ID] = c
	return *c
}

// appendTurn records a turn, creating the conversation when the id is
// unknown, and returns the turns that preceded it.
func (st *state) appendTurn(userID, convID string, t turn) []turn {
	st.mu.Lock()
	defer st.mu.Unlock()
	c, ok := st.conversations[convID]
	if !ok {
		c = &conversation{ID: convID, UserID: userID, Kind: "freestyle", CreatedAt: st.now()}
		st.conversations[convID] = c
	}
	prior := append([]turn(nil), c.Turns...)
	c.Turns = append(c.Turns, t)
	return prior
}
