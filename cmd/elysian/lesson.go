package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/elysian-app/elysian/internal/i18n"
)

func lessonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lesson",
		Short: "Run today's generated lesson",
		RunE:  runLesson,
	}
}

func runLesson(cmd *cobra.Command, _ []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	ctx := s.ctx()
	p := newPrompter()

	lesson, err := s.api.TodayLesson(ctx)
	if err != nil {
		return fmt.Errorf("fetch lesson: %w", err)
	}

	p.println(i18n.T(ctx, "DailyLessonTitle"))
	if len(lesson.TargetSkills) > 0 {
		p.println(strings.Join(lesson.TargetSkills, ", "))
	}

	total := len(lesson.Exercises)
	xp := 0
	for i, ex := range lesson.Exercises {
		p.println()
		p.println(i18n.Td(ctx, "ExerciseOf", map[string]any{"N": i + 1, "Total": total}))
		p.println(ex.Question)
		for j, opt := range ex.Options {
			p.printf("   %c) %s\n", 'a'+j, opt)
		}

		answer, err := p.line(i18n.T(ctx, "YourAnswer") + ": ")
		if err != nil {
			return eofOK(err)
		}
		if answer == "quit" {
			return nil
		}
		if len(ex.Options) > 0 && len(answer) == 1 {
			if k := int(strings.ToLower(answer)[0] - 'a'); k >= 0 && k < len(ex.Options) {
				answer = ex.Options[k]
			}
		}

		review, err := s.api.SubmitLessonAnswer(ctx, lesson.ID, ex.ID, answer)
		if err != nil {
			return fmt.Errorf("submit answer: %w", err)
		}
		if review.Correct {
			p.println(i18n.T(ctx, "Correct"))
		} else {
			p.println(i18n.Td(ctx, "Incorrect", map[string]any{"Answer": review.CorrectAnswer}))
		}
		if review.Feedback != "" {
			p.println(review.Feedback)
		}
		xp += review.XPEarned
		if review.LevelUp {
			p.println(i18n.T(ctx, "LevelUp"))
		}
	}

	p.println()
	p.println(i18n.Td(ctx, "LessonComplete", map[string]any{"XP": xp}))
	return nil
}
