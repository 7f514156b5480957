package sandbox

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/elysian-app/elysian/internal/model"
)

func (s *Server) handleTodayLesson(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	s.state.touchStreak(uid)
	respondJSON(w, http.StatusOK, lessonPayload(s.state.lessonForToday(uid)))
}

func lessonPayload(l storedLesson) model.DailyLesson {
	out := model.DailyLesson{ID: l.ID, TargetSkills: l.TargetSkills}
	for _, ex := range l.Exercises {
		out.Exercises = append(out.Exercises, model.LessonExercise{
			ID:          ex.ID,
			Kind:        ex.Kind,
			Question:    ex.Question,
			Options:     ex.Options,
			SkillTarget: ex.SkillTarget,
		})
	}
	return out
}

type answerSubmission struct {
	LessonID   string `json:"lesson_id"`
	ExerciseID string `json:"exercise_id"`
	UserAnswer string `json:"user_answer"`
}

func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerSubmission
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	lesson, ok := s.state.lessonByID(req.LessonID)
	if !ok {
		respondError(w, http.StatusNotFound, "Lesson not found")
		return
	}
	var ex *storedLessonExercise
	for i := range lesson.Exercises {
		if lesson.Exercises[i].ID == req.ExerciseID {
			ex = &lesson.Exercises[i]
			break
		}
	}
	if ex == nil {
		respondError(w, http.StatusNotFound, "Exercise not found")
		return
	}

	uid := userID(r)
	correct, feedback := evaluateLessonAnswer(ex.lessonExercise, req.UserAnswer)
	if correct {
		target := ex.SkillTarget
		s.state.update(uid, func(u *learner) { bumpSkill(&u.Skills, target, 1) })
	} else {
		s.state.trackWeakness(uid, ex.SkillTarget, snip(ex.Question, 50))
	}
	s.state.markAnswered(req.LessonID, req.ExerciseID)

	amount := 5
	if !correct {
		amount = 2
	}
	xp := s.state.awardXP(uid, amount)

	respondJSON(w, http.StatusOK, model.AnswerReview{
		Correct:       correct,
		Feedback:      feedback,
		CorrectAnswer: ex.Answer,
		XPEarned:      xp.Earned,
		LevelUp:       xp.LevelUp,
	})
}

func snip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func (s *Server) handleStartConversation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConversationType string `json:"conversation_type"`
	}
	// An empty or absent body starts a freestyle chat.
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.ConversationType == "" {
		req.ConversationType = "freestyle"
	}

	uid := userID(r)
	s.state.touchStreak(uid)
	conv := s.state.startConversation(uid, req.ConversationType)

	respondJSON(w, http.StatusOK, map[string]any{
		"conversation_id":   conv.ID,
		"welcome_message":   conv.Turns[0].Content,
		"conversation_type": conv.Kind,
	})
}

type messageSubmission struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req messageSubmission
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	uid := userID(r)
	p := s.state.profile(uid)

	history := s.state.appendTurn(uid, req.ConversationID, turn{Role: "user", Content: req.Message})
	reply := s.assistant.Reply(r.Context(), p, history, req.Message)
	s.state.appendTurn(uid, req.ConversationID, turn{Role: "elysian", Content: reply})

	now := s.state.now()
	s.state.update(uid, func(u *learner) { u.LastTalkAt = now })
	s.state.awardXP(uid, 5)

	respondJSON(w, http.StatusOK, map[string]any{
		"elysian_response": reply,
		"feedback": map[string]any{
			"message_length": len(strings.Fields(req.Message)),
			"encouragement":  "Great job practicing!",
		},
		"conversation_id": req.ConversationID,
	})
}
