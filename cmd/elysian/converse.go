package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/elysian-app/elysian/internal/i18n"
)

func converseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "converse",
		Short: "Open conversation practice with the tutor",
		RunE:  runConverse,
	}
	cmd.Flags().String("kind", "", "Conversation style: freestyle, roleplay or debate")
	return cmd
}

func runConverse(cmd *cobra.Command, _ []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	ctx := s.ctx()
	p := newPrompter()

	conv, err := s.api.StartConversation(ctx, s.cfg.String("kind"))
	if err != nil {
		return fmt.Errorf("start conversation: %w", err)
	}

	p.println(i18n.T(ctx, "ConversationIntro"))
	p.printf("elysian> %s\n", conv.Opening)
	for {
		text, err := p.line("you> ")
		if err != nil {
			return eofOK(err)
		}
		switch text {
		case "":
			continue
		case "quit":
			return nil
		}
		reply, err := s.api.SendMessage(ctx, conv.ID, text)
		if err != nil {
			return fmt.Errorf("send message: %w", err)
		}
		p.printf("elysian> %s\n", reply.Message)
		if enc, ok := reply.Feedback["encouragement"].(string); ok && enc != "" {
			p.printf("(%s)\n", enc)
		}
	}
}
