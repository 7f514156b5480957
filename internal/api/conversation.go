package api

import (
	"context"

	"github.com/elysian-app/elysian/internal/model"
)

type startConversationResponse struct {
	ID      string `json:"conversation_id"`
	Opening string `json:"welcome_message"`
	Kind    string `json:"conversation_type"`
}

// StartConversation opens a conversation session of the given kind
// (freestyle when empty) and returns the tutor's opening line.
func (c *Client) StartConversation(ctx context.Context, kind string) (*model.Conversation, error) {
	if kind == "" {
		kind = "freestyle"
	}
	body := map[string]string{"conversation_type": kind}
	var resp startConversationResponse
	if err := c.post(ctx, "/api/conversations/start", body, &resp); err != nil {
		return nil, err
	}
	return &model.Conversation{ID: resp.ID, Kind: resp.Kind, Opening: resp.Opening}, nil
}

type messageSubmission struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
}

type messageResponse struct {
	Reply    string         `json:"elysian_response"`
	Feedback map[string]any `json:"feedback"`
}

// SendMessage sends the learner's turn and returns the tutor's reply.
func (c *Client) SendMessage(ctx context.Context, conversationID, message string) (*model.Reply, error) {
	body := messageSubmission{ConversationID: conversationID, Message: message}
	var resp messageResponse
	if err := c.post(ctx, "/api/conversations/message", body, &resp); err != nil {
		return nil, err
	}
	return &model.Reply{Message: resp.Reply, Feedback: resp.Feedback}, nil
}
