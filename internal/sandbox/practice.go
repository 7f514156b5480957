package sandbox

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/elysian-app/elysian/internal/model"
)

// transcribe simulates speech recognition. The sandbox cannot decode
// audio, so it assumes the learner said what the exercise asked for,
// which drives the grading path with realistic input.
func transcribe(expected string) string {
	if expected != "" {
		return expected
	}
	return "This is a simulated transcription of the user's speech for demonstration purposes."
}

func (s *Server) handleSpeakExercise(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	s.state.touchStreak(uid)
	p := s.state.profile(uid)

	lvl := normalizeLevel(p.Level)
	kind := weightedKind(speakWeights(lvl))
	var content string
	switch kind {
	case "word":
		content = pick(speakWords[lvl])
	case "sentence":
		content = pick(speakSentences[lvl])
	default:
		content = speakPassages[lvl]
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"id":               uuid.NewString(),
		"type":             kind,
		"content":          content,
		"difficulty_level": difficultyOf(lvl),
		"cefr_level":       p.Level,
	})
}

type speakSubmission struct {
	ExerciseType string `json:"exercise_type"`
	Content      string `json:"content"`
	AudioData    string `json:"audio_data"`
}

func (s *Server) handleSpeakSubmit(w http.ResponseWriter, r *http.Request) {
	var req speakSubmission
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.AudioData == "" {
		respondError(w, http.StatusBadRequest, "Audio data is required")
		return
	}
	uid := userID(r)
	p := s.state.profile(uid)

	transcription := transcribe(req.Content)
	accuracy := wordAccuracy(req.Content, transcription)
	pron := pronunciationScore(accuracy, p.Skills.PronunciationAccuracy, uniform(-5, 5))

	var intonation *float64
	if req.ExerciseType == "sentence" {
		v := intonationScore(pron, uniform(-10, 10))
		intonation = &v
	}

	clarity := "Needs improvement"
	if accuracy > 80 {
		clarity = "Clear"
	}
	suggestion := "Great job! Continue this level of practice"
	if accuracy < 70 {
		suggestion = "Keep practicing regularly"
	}

	now := s.state.now()
	s.state.update(uid, func(u *learner) {
		bumpSkill(&u.Skills, "pronunciation_accuracy", max(0.5, pron/50))
		bumpSkill(&u.Skills, "speaking_fluency", max(0.3, accuracy/100))
		u.SpeakAttempts++
		u.LastSpeakAt = now
	})
	xp := s.state.awardXP(uid, speakXP(pron))

	respondJSON(w, http.StatusOK, map[string]any{
		"pronunciation_score": pron,
		"intonation_score":    intonation,
		"feedback":            speakFeedback(req.Content, transcription, accuracy),
		"detailed_analysis": map[string]any{
			"transcription": transcription,
			"word_accuracy": fmt.Sprintf("%.1f%%", accuracy),
			"clarity":       clarity,
			"suggestions":   []string{suggestion},
		},
		"xp_earned": xp.Earned,
	})
}

func (s *Server) handleListenChallenge(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	s.state.touchStreak(uid)
	p := s.state.profile(uid)

	lvl := normalizeLevel(p.Level)
	band := listenBands[lvl]
	topic := pick(band.Topics)

	ch, ok := cannedChallenges[string(lvl)+"_"+topic]
	if !ok {
		ch = fallbackChallenge(topic, band)
	}
	sc := s.state.recordChallenge(uid, topic, p.Level, ch)

	respondJSON(w, http.StatusOK, map[string]any{
		"id":          sc.ID,
		"title":       sc.Title,
		"description": sc.Description,
		"topic":       sc.Topic,
		"cefr_level":  sc.Level,
		"transcript":  sc.Transcript,
		"questions":   publicQuestions(sc.Questions),
		"duration":    sc.Duration,
		"created_at":  sc.CreatedAt,
	})
}

type listenSubmission struct {
	ContentID string   `json:"content_id"`
	Answers   []string `json:"answers"`
}

func (s *Server) handleListenSubmit(w http.ResponseWriter, r *http.Request) {
	var req listenSubmission
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	sc, ok := s.state.challengeByID(req.ContentID)
	if !ok {
		respondError(w, http.StatusNotFound, "Challenge not found")
		return
	}

	uid := userID(r)
	score, details := gradeQuestions(sc.Questions, req.Answers, 0.6)

	s.state.update(uid, func(u *learner) {
		bumpSkill(&u.Skills, "listening_comprehension", max(1, score/25))
		u.ListenAttempts++
	})
	xp := s.state.awardXP(uid, listenXP(score))

	respondJSON(w, http.StatusOK, map[string]any{
		"score":            score,
		"feedback":         listenFeedback(score),
		"detailed_results": details,
		"xp_earned":        xp.Earned,
		"level_up":         xp.LevelUp,
	})
}

func (s *Server) handleReadLibrary(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	s.state.touchStreak(uid)
	p := s.state.profile(uid)

	payloads := make([]map[string]any, 0, len(libraryArticles))
	for _, art := range libraryArticles {
		sa := s.state.registerArticle(uuid.NewString(), p.Level, art)
		payloads = append(payloads, articlePayload(sa))
	}
	respondJSON(w, http.StatusOK, map[string]any{"articles": payloads})
}

func (s *Server) handleReadArticle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "articleID")
	sa, ok := s.state.articleByID(id)
	if !ok {
		// Unknown ids resolve to the feature article so deep links
		// always land on gradable content.
		sa = s.state.registerArticle(id, model.LevelB2, featureArticle)
	}
	respondJSON(w, http.StatusOK, articlePayload(sa))
}

func articlePayload(sa storedArticle) map[string]any {
	return map[string]any{
		"id":                      sa.ID,
		"title":                   sa.Title,
		"content":                 sa.Content,
		"cefr_level":              sa.Level,
		"topic":                   sa.Topic,
		"word_count":              sa.WordCount,
		"estimated_reading_time":  sa.Minutes,
		"vocabulary_highlights":   sa.Vocabulary,
		"comprehension_questions": publicQuestions(sa.Questions),
	}
}

type readSubmission struct {
	ContentID   string   `json:"content_id"`
	ReadingTime int      `json:"reading_time"`
	Answers     []string `json:"comprehension_answers"`
	Lookups     []string `json:"vocabulary_lookups"`
}

func (s *Server) handleReadSubmit(w http.ResponseWriter, r *http.Request) {
	var req readSubmission
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	sa, ok := s.state.articleByID(req.ContentID)
	if !ok {
		sa = s.state.registerArticle(req.ContentID, model.LevelB2, featureArticle)
	}

	uid := userID(r)
	score, details := gradeQuestions(sa.Questions, req.Answers, 0.5)

	seconds := max(req.ReadingTime, 1)
	speed := float64(sa.WordCount) / (float64(seconds) / 60)

	lookups := len(req.Lookups)
	s.state.update(uid, func(u *learner) {
		bumpSkill(&u.Skills, "reading_comprehension", max(1, score/25))
		bumpSkill(&u.Skills, "vocabulary", max(0.5, float64(10-lookups)/10))
		u.ReadAttempts++
	})
	xp := s.state.awardXP(uid, readXP(score, speed))

	respondJSON(w, http.StatusOK, map[string]any{
		"score":            score,
		"reading_speed":    speed,
		"feedback":         readFeedback(score, speed) + vocabNote(lookups),
		"detailed_results": details,
		"vocabulary_analysis": model.VocabAnalysis{
			WordsLookedUp:   lookups,
			VocabularyLevel: vocabLevel(lookups),
		},
		"xp_earned": xp.Earned,
		"level_up":  xp.LevelUp,
	})
}
