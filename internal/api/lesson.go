package api

import (
	"context"

	"github.com/elysian-app/elysian/internal/model"
)

// TodayLesson fetches or generates the lesson for the current day.
// The service returns the same lesson on repeat calls within a day.
func (c *Client) TodayLesson(ctx context.Context) (*model.DailyLesson, error) {
	var lesson model.DailyLesson
	if err := c.get(ctx, "/api/learn/today", &lesson); err != nil {
		return nil, err
	}
	return &lesson, nil
}

type lessonAnswerSubmission struct {
	LessonID   string `json:"lesson_id"`
	ExerciseID string `json:"exercise_id"`
	Answer     string `json:"user_answer"`
}

// SubmitLessonAnswer grades one lesson exercise answer.
func (c *Client) SubmitLessonAnswer(ctx context.Context, lessonID, exerciseID, answer string) (*model.AnswerReview, error) {
	body := lessonAnswerSubmission{LessonID: lessonID, ExerciseID: exerciseID, Answer: answer}
	var review model.AnswerReview
	if err := c.post(ctx, "/api/learn/submit_answer", body, &review); err != nil {
		return nil, err
	}
	return &review, nil
}
