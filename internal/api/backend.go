package api

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/elysian-app/elysian/internal/model"
)

// Backend adapts the client to the surface the practice flow drives,
// translating the per-modality endpoints into the unified exercise and
// submission shapes.
type Backend struct {
	client *Client
}

// PracticeBackend returns the adapter the practice controller uses as
// its collaborator.
func (c *Client) PracticeBackend() *Backend { return &Backend{client: c} }

// FetchExercise loads practice content for the module. contentID picks
// a specific reading article; the other modules ignore it and let the
// service choose level-appropriate content. A read fetch without an id
// takes the library's first recommendation.
func (b *Backend) FetchExercise(ctx context.Context, module model.Module, contentID string) (*model.Exercise, error) {
	switch module {
	case model.ModuleSpeak:
		return b.client.SpeakingExercise(ctx)
	case model.ModuleListen:
		return b.client.ListeningChallenge(ctx)
	case model.ModuleRead:
		if contentID != "" {
			return b.client.Article(ctx, contentID)
		}
		articles, err := b.client.ReadingLibrary(ctx)
		if err != nil {
			return nil, err
		}
		if len(articles) == 0 {
			return nil, errors.New("reading library is empty")
		}
		ex := articles[0]
		return &ex, nil
	}
	return nil, fmt.Errorf("no exercise endpoint for module %q", module)
}

// SubmitAttempt sends a finished attempt to the module's grading
// endpoint.
func (b *Backend) SubmitAttempt(ctx context.Context, sub model.Submission) (*model.Result, error) {
	switch sub.Module {
	case model.ModuleSpeak:
		return b.client.SubmitSpeaking(ctx, sub.Kind, sub.Content, sub.Audio)
	case model.ModuleListen:
		return b.client.SubmitListening(ctx, sub.ExerciseID, sub.Answers)
	case model.ModuleRead:
		return b.client.SubmitReading(ctx, sub.ExerciseID, sub.ReadingTime, sub.Answers, lookupWords(sub.Lookups))
	}
	return nil, fmt.Errorf("no submit endpoint for module %q", sub.Module)
}

// lookupWords flattens per-word lookup counts into the sorted distinct
// word list the wire format wants.
func lookupWords(lookups map[string]int) []string {
	words := make([]string, 0, len(lookups))
	for w := range lookups {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}
