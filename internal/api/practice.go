package api

import (
	"context"
	"net/url"

	"github.com/elysian-app/elysian/internal/model"
)

type speakingExerciseResponse struct {
	ID         string `json:"id"`
	Kind       string `json:"type"`
	Content    string `json:"content"`
	Difficulty int    `json:"difficulty_level"`
	Level      string `json:"cefr_level"`
}

// SpeakingExercise fetches a pronunciation exercise matched to the
// learner's level.
func (c *Client) SpeakingExercise(ctx context.Context) (*model.Exercise, error) {
	var resp speakingExerciseResponse
	if err := c.get(ctx, "/api/speak/exercise", &resp); err != nil {
		return nil, err
	}
	return &model.Exercise{
		ID:         resp.ID,
		Module:     model.ModuleSpeak,
		Kind:       resp.Kind,
		Content:    resp.Content,
		Difficulty: resp.Difficulty,
		Level:      model.Level(resp.Level),
	}, nil
}

type listeningChallengeResponse struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Topic       string           `json:"topic"`
	Level       string           `json:"cefr_level"`
	Transcript  string           `json:"transcript"`
	Questions   []model.Question `json:"questions"`
	Duration    int              `json:"duration"`
}

// ListeningChallenge fetches a listening comprehension challenge.
func (c *Client) ListeningChallenge(ctx context.Context) (*model.Exercise, error) {
	var resp listeningChallengeResponse
	if err := c.get(ctx, "/api/listen/challenge", &resp); err != nil {
		return nil, err
	}
	return &model.Exercise{
		ID:          resp.ID,
		Module:      model.ModuleListen,
		Title:       resp.Title,
		Description: resp.Description,
		Topic:       resp.Topic,
		Level:       model.Level(resp.Level),
		Transcript:  resp.Transcript,
		Questions:   resp.Questions,
		Duration:    resp.Duration,
	}, nil
}

type articleResponse struct {
	ID         string           `json:"id"`
	Title      string           `json:"title"`
	Content    string           `json:"content"`
	Level      string           `json:"cefr_level"`
	Topic      string           `json:"topic"`
	WordCount  int              `json:"word_count"`
	Minutes    int              `json:"estimated_reading_time"`
	Vocabulary []string         `json:"vocabulary_highlights"`
	Questions  []model.Question `json:"comprehension_questions"`
}

func (r articleResponse) exercise() model.Exercise {
	return model.Exercise{
		ID:               r.ID,
		Module:           model.ModuleRead,
		Title:            r.Title,
		Content:          r.Content,
		Level:            model.Level(r.Level),
		Topic:            r.Topic,
		WordCount:        r.WordCount,
		EstimatedMinutes: r.Minutes,
		Vocabulary:       r.Vocabulary,
		Questions:        r.Questions,
	}
}

// ReadingLibrary fetches the personalized article library.
func (c *Client) ReadingLibrary(ctx context.Context) ([]model.Exercise, error) {
	var resp struct {
		Articles []articleResponse `json:"articles"`
	}
	if err := c.get(ctx, "/api/read/library", &resp); err != nil {
		return nil, err
	}
	articles := make([]model.Exercise, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		articles = append(articles, a.exercise())
	}
	return articles, nil
}

// Article fetches one reading article by id.
func (c *Client) Article(ctx context.Context, id string) (*model.Exercise, error) {
	var resp articleResponse
	if err := c.get(ctx, "/api/read/article/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	ex := resp.exercise()
	return &ex, nil
}

type speakingSubmission struct {
	Kind    string `json:"exercise_type"`
	Content string `json:"content"`
	Audio   string `json:"audio_data"`
}

type speakingResultResponse struct {
	Pronunciation float64  `json:"pronunciation_score"`
	Intonation    *float64 `json:"intonation_score"`
	Feedback      string   `json:"feedback"`
	XPEarned      int      `json:"xp_earned"`
}

// SubmitSpeaking sends a recorded attempt for pronunciation analysis.
// audioData is the base64 transport encoding of the capture.
func (c *Client) SubmitSpeaking(ctx context.Context, kind, content, audioData string) (*model.Result, error) {
	body := speakingSubmission{Kind: kind, Content: content, Audio: audioData}
	var resp speakingResultResponse
	if err := c.post(ctx, "/api/speak/submit", body, &resp); err != nil {
		return nil, err
	}
	return &model.Result{
		Module:        model.ModuleSpeak,
		Score:         resp.Pronunciation,
		Pronunciation: resp.Pronunciation,
		Intonation:    resp.Intonation,
		Feedback:      resp.Feedback,
		XPEarned:      resp.XPEarned,
	}, nil
}

type listeningSubmission struct {
	ContentID string   `json:"content_id"`
	Answers   []string `json:"answers"`
}

type readingSubmission struct {
	ContentID   string   `json:"content_id"`
	ReadingTime int      `json:"reading_time"`
	Answers     []string `json:"comprehension_answers"`
	Lookups     []string `json:"vocabulary_lookups"`
}

type gradedResultResponse struct {
	Score        float64                `json:"score"`
	ReadingSpeed float64                `json:"reading_speed"`
	Feedback     string                 `json:"feedback"`
	Details      []model.QuestionResult `json:"detailed_results"`
	Vocabulary   *model.VocabAnalysis   `json:"vocabulary_analysis"`
	XPEarned     int                    `json:"xp_earned"`
	LevelUp      bool                   `json:"level_up"`
}

func (r gradedResultResponse) result(module model.Module) *model.Result {
	return &model.Result{
		Module:       module,
		Score:        r.Score,
		ReadingSpeed: r.ReadingSpeed,
		Feedback:     r.Feedback,
		Details:      r.Details,
		Vocabulary:   r.Vocabulary,
		XPEarned:     r.XPEarned,
		LevelUp:      r.LevelUp,
	}
}

// SubmitListening sends comprehension answers for a listening
// challenge. Answers are positional against the challenge's questions.
func (c *Client) SubmitListening(ctx context.Context, contentID string, answers []string) (*model.Result, error) {
	body := listeningSubmission{ContentID: contentID, Answers: answers}
	var resp gradedResultResponse
	if err := c.post(ctx, "/api/listen/submit", body, &resp); err != nil {
		return nil, err
	}
	return resp.result(model.ModuleListen), nil
}

// SubmitReading sends comprehension answers for an article along with
// the reading time in seconds and the distinct words looked up.
func (c *Client) SubmitReading(ctx context.Context, contentID string, readingTime int, answers, lookups []string) (*model.Result, error) {
	if answers == nil {
		answers = []string{}
	}
	if lookups == nil {
		lookups = []string{}
	}
	body := readingSubmission{
		ContentID:   contentID,
		ReadingTime: readingTime,
		Answers:     answers,
		Lookups:     lookups,
	}
	var resp gradedResultResponse
	if err := c.post(ctx, "/api/read/submit", body, &resp); err != nil {
		return nil, err
	}
	return resp.result(model.ModuleRead), nil
}
