package model

import "time"

// Module identifies a practice modality.
type Module string

const (
	// ModuleSpeak is pronunciation practice against a spoken prompt.
	ModuleSpeak Module = "speak"
	// ModuleListen is listening comprehension against simulated audio.
	ModuleListen Module = "listen"
	// ModuleRead is reading comprehension with vocabulary lookups.
	ModuleRead Module = "read"
	// ModuleLesson is the daily micro-exercise lesson.
	ModuleLesson Module = "lesson"
	// ModuleConverse is free-form conversation practice.
	ModuleConverse Module = "converse"
)

// Level represents a CEFR proficiency level.
type Level string

const (
	LevelA1 Level = "A1"
	LevelA2 Level = "A2"
	LevelB1 Level = "B1"
	LevelB2 Level = "B2"
	LevelC1 Level = "C1"
	LevelC2 Level = "C2"
)

// Levels lists all CEFR levels in ascending order.
var Levels = []Level{LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2}

// QuestionKind distinguishes how a question is answered.
type QuestionKind string

const (
	QuestionMultipleChoice QuestionKind = "multiple_choice"
	QuestionOpenEnded      QuestionKind = "open_ended"
)

// Question is a comprehension question attached to an exercise. The
// grading key stays on the server side.
type Question struct {
	Prompt  string       `json:"question"`
	Kind    QuestionKind `json:"type"`
	Options []string     `json:"options,omitempty"`
}

// Exercise is the unified unit of practice content across modalities.
// Speak exercises fill Content with the text to pronounce; listen
// challenges fill Transcript and Duration; read articles fill Content,
// WordCount and Vocabulary. Questions is empty for speak.
type Exercise struct {
	ID               string
	Module           Module
	Kind             string // speak: word | sentence | shadowing
	Title            string
	Description      string
	Content          string
	Transcript       string
	Level            Level
	Difficulty       int // 1..3
	Topic            string
	Duration         int // listen: simulated audio length in seconds
	WordCount        int
	EstimatedMinutes int
	Vocabulary       []string
	Questions        []Question
}

// Submission carries a finished attempt to the backend. Module selects
// which fields are meaningful: speak uses Content and Audio, listen
// uses Answers, read uses Answers, ReadingTime and Lookups.
type Submission struct {
	Module      Module
	ExerciseID  string
	Kind        string
	Content     string
	Audio       string // base64 transport encoding
	Answers     []string
	ReadingTime int // seconds
	Lookups     map[string]int
}

// QuestionResult reports the grading of one answered question.
type QuestionResult struct {
	Question      string `json:"question"`
	UserAnswer    string `json:"user_answer"`
	CorrectAnswer string `json:"correct_answer"`
	Correct       bool   `json:"is_correct"`
}

// VocabAnalysis summarizes lookup behavior in a graded read attempt.
type VocabAnalysis struct {
	WordsLookedUp   int    `json:"words_looked_up"`
	VocabularyLevel string `json:"vocabulary_level"`
}

// Result is the graded outcome of a submitted attempt.
type Result struct {
	Module        Module
	Score         float64
	Pronunciation float64  // speak
	Intonation    *float64 // speak, sentence exercises only
	ReadingSpeed  float64  // read, words per minute
	Feedback      string
	Details       []QuestionResult
	Vocabulary    *VocabAnalysis
	XPEarned      int
	LevelUp       bool
}

// SkillProfile tracks per-skill progression scores.
type SkillProfile struct {
	Grammar                float64 `json:"grammar"`
	Vocabulary             float64 `json:"vocabulary"`
	SpeakingFluency        float64 `json:"speaking_fluency"`
	ListeningComprehension float64 `json:"listening_comprehension"`
	ReadingComprehension   float64 `json:"reading_comprehension"`
	WritingAccuracy        float64 `json:"writing_accuracy"`
	PronunciationAccuracy  float64 `json:"pronunciation_accuracy"`
	IntonationScore        float64 `json:"intonation_score"`
}

// Profile is the learner's account state.
type Profile struct {
	ID               string       `json:"id"`
	Email            string       `json:"email"`
	Name             string       `json:"name"`
	Level            Level        `json:"current_cefr_level"`
	Interests        []string     `json:"interests"`
	Skills           SkillProfile `json:"skill_profile"`
	XP               int          `json:"xp"`
	PlayerLevel      int          `json:"level"`
	DailyStreak      int          `json:"daily_streak"`
	LongestStreak    int          `json:"longest_streak"`
	LessonsCompleted int          `json:"total_lessons_completed"`
	CreatedAt        time.Time    `json:"created_at"`
}

// DailyActivity is one entry on the dashboard's daily checklist.
type DailyActivity struct {
	Type        string `json:"type"`
	Completed   bool   `json:"completed"`
	Progress    int    `json:"progress"`
	Description string `json:"description"`
	XPReward    int    `json:"xp_reward"`
}

// WeeklyStats aggregates the trailing week's activity.
type WeeklyStats struct {
	LessonsCompleted int `json:"lessons_completed"`
	ConsistencyScore int `json:"consistency_score"`
	XPThisWeek       int `json:"xp_this_week"`
}

// Gamification reports level progression state.
type Gamification struct {
	CurrentLevel   int `json:"current_level"`
	CurrentXP      int `json:"current_xp"`
	XPForNextLevel int `json:"xp_for_next_level"`
	DailyStreak    int `json:"daily_streak"`
	LongestStreak  int `json:"longest_streak"`
}

// Dashboard is the aggregate home-screen payload.
type Dashboard struct {
	User            Profile         `json:"user"`
	DailyActivities []DailyActivity `json:"daily_activities"`
	Skills          SkillProfile    `json:"skill_overview"`
	Achievements    []string        `json:"recent_achievements"`
	Weekly          WeeklyStats     `json:"weekly_stats"`
	Recommendations []string        `json:"recommendations"`
	Gamification    Gamification    `json:"gamification"`
}

// LessonExercise is one micro-exercise inside a daily lesson.
type LessonExercise struct {
	ID          string   `json:"id"`
	Kind        string   `json:"type"`
	Question    string   `json:"question"`
	Options     []string `json:"options,omitempty"`
	SkillTarget string   `json:"skill_target"`
}

// DailyLesson is the generated lesson for the current day.
type DailyLesson struct {
	ID           string           `json:"id"`
	Exercises    []LessonExercise `json:"exercises"`
	TargetSkills []string         `json:"target_skills"`
}

// AnswerReview is the grading of a single lesson answer.
type AnswerReview struct {
	Correct       bool   `json:"is_correct"`
	Feedback      string `json:"feedback"`
	CorrectAnswer string `json:"correct_answer"`
	XPEarned      int    `json:"xp_earned"`
	LevelUp       bool   `json:"level_up"`
}

// Conversation is an open conversation practice session.
type Conversation struct {
	ID      string
	Kind    string
	Opening string
}

// Reply is the tutor's turn in a conversation.
type Reply struct {
	Message  string
	Feedback map[string]any
}

// Health reports backend availability.
type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Database  string `json:"database"`
	AI        string `json:"ai"`
}
