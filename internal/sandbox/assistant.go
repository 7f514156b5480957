package sandbox

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/elysian-app/elysian/internal/model"
)

// Assistant produces the tutor's side of conversation practice. With
// an API key it asks an OpenAI-compatible model; without one it
// answers with canned encouragement, which keeps the sandbox usable
// offline.
type Assistant struct {
	api   *openai.Client
	model string
}

// NewAssistant builds an assistant against an OpenAI-compatible API.
// An empty apiKey yields the offline assistant.
func NewAssistant(baseURL, apiKey, modelName string) *Assistant {
	if apiKey == "" {
		return &Assistant{}
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if modelName == "" {
		modelName = openai.GPT4oMini
	}
	return &Assistant{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

// Available reports whether a language model backs the assistant.
func (a *Assistant) Available() bool {
	return a != nil && a.api != nil
}

// welcome opens a new conversation.
func welcome() string {
	return "Hello! I'm Elysian, your personal English learning companion. I remember our previous conversations and your learning journey. What would you like to practice today? 😊"
}

// Reply answers the learner's message. Model failures degrade to the
// canned reply rather than erroring the conversation.
func (a *Assistant) Reply(ctx context.Context, profile model.Profile, history []turn, message string) string {
	if !a.Available() {
		return cannedReply(profile)
	}

	msgs := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: tutorPrompt(profile)},
	}
	for _, t := range history {
		role := openai.ChatMessageRoleUser
		if t.Role == "elysian" {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: t.Content})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: message})

	resp, err := a.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    msgs,
		Temperature: 0.7,
		MaxTokens:   1000,
	})
	if err != nil {
		slog.Warn("assistant unavailable, answering with canned reply", "error", err)
		return cannedReply(profile)
	}
	if len(resp.Choices) == 0 {
		slog.Warn("assistant returned no choices, answering with canned reply")
		return cannedReply(profile)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content)
}

func tutorPrompt(profile model.Profile) string {
	interests := "Various topics"
	if len(profile.Interests) > 0 {
		interests = strings.Join(profile.Interests, ", ")
	}
	return fmt.Sprintf(`You are Elysian, %s's compassionate English learning companion. You remember their learning journey:

- Current Level: %s
- Interests: %s
- Progress: Level %d with %d XP

Be encouraging, provide gentle corrections, and naturally incorporate vocabulary and grammar appropriate for their level.`,
		profile.Name, profile.Level, interests, profile.PlayerLevel, profile.XP)
}

func cannedReply(profile model.Profile) string {
	return fmt.Sprintf("Thank you for sharing that with me! I can see you're working on your English. That's a great sentence structure. Keep practicing - you're doing well at the %s level!", profile.Level)
}
