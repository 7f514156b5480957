package sandbox

import (
	"strings"
	"testing"

	"github.com/elysian-app/elysian/internal/model"
)

func TestWordAccuracy(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		heard    string
		want     float64
	}{
		{"perfect match", "hello world", "hello world", 100},
		{"half the words", "hello world", "hello there", 50},
		{"long words match by containment", "opportunity", "opportunities", 100},
		{"case folded", "Thank You", "thank you", 100},
		{"nothing heard", "hello world", "", 0},
		{"no expected content defaults to 70", "", "anything at all", 70},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := wordAccuracy(tt.expected, tt.heard); got != tt.want {
				t.Errorf("wordAccuracy(%q, %q) = %v, want %v", tt.expected, tt.heard, got, tt.want)
			}
		})
	}
}

func TestPronunciationScoreBounds(t *testing.T) {
	// Full accuracy caps the base at 95; a skill of 50 adds 5 back.
	if got := pronunciationScore(100, 50, 0); got != 100 {
		t.Errorf("pronunciationScore(100, 50, 0) = %v, want 100", got)
	}
	// Zero accuracy floors the base at 40.
	if got := pronunciationScore(0, 0, 0); got != 40 {
		t.Errorf("pronunciationScore(0, 0, 0) = %v, want 40", got)
	}
	// The hard floor holds against negative jitter.
	if got := pronunciationScore(0, 0, -15); got != 30 {
		t.Errorf("pronunciationScore(0, 0, -15) = %v, want 30", got)
	}
	if got := intonationScore(95, 10); got != 100 {
		t.Errorf("intonationScore(95, 10) = %v, want 100", got)
	}
	if got := intonationScore(45, -10); got != 40 {
		t.Errorf("intonationScore(45, -10) = %v, want 40", got)
	}
}

func TestXPFormulas(t *testing.T) {
	if got := speakXP(95); got != 24 {
		t.Errorf("speakXP(95) = %d, want 24", got)
	}
	if got := speakXP(100); got != 25 {
		t.Errorf("speakXP(100) = %d, want 25", got)
	}
	if got := listenXP(0); got != 25 {
		t.Errorf("listenXP(0) = %d, want 25", got)
	}
	if got := listenXP(100); got != 40 {
		t.Errorf("listenXP(100) = %d, want 40", got)
	}
	if got := readXP(100, 195); got != 53 {
		t.Errorf("readXP(100, 195) = %d, want 53", got)
	}
	if got := readXP(0, 0); got != 30 {
		t.Errorf("readXP(0, 0) = %d, want 30", got)
	}
}

func TestEvaluateAnswer(t *testing.T) {
	mc := keyedQuestion{
		Prompt:  "How does Sarah go to work?",
		Kind:    model.QuestionMultipleChoice,
		Options: []string{"By car", "By bus"},
		Answer:  "By bus",
	}
	if res := evaluateAnswer(mc, "  by BUS ", 0.6); !res.Correct {
		t.Error("multiple choice should match case-insensitively with surrounding space")
	}
	if res := evaluateAnswer(mc, "By car", 0.6); res.Correct {
		t.Error("wrong option marked correct")
	}

	open := keyedQuestion{
		Prompt: "Why might young people be particularly affected?",
		Kind:   model.QuestionOpenEnded,
		Answer: "Because they compare themselves to others online",
	}
	// 5 of 7 key words repeated clears the 60% threshold.
	if res := evaluateAnswer(open, "they compare themselves to others", 0.6); !res.Correct {
		t.Error("open-ended answer above threshold marked wrong")
	}
	if res := evaluateAnswer(open, "they compare themselves", 0.6); res.Correct {
		t.Error("open-ended answer below threshold marked correct")
	}
}

func TestGradeQuestionsCountsMissingAnswersAsBlank(t *testing.T) {
	qs := []keyedQuestion{
		{Prompt: "a", Kind: model.QuestionMultipleChoice, Answer: "x"},
		{Prompt: "b", Kind: model.QuestionMultipleChoice, Answer: "y"},
		{Prompt: "c", Kind: model.QuestionMultipleChoice, Answer: "z"},
		{Prompt: "d", Kind: model.QuestionMultipleChoice, Answer: "w"},
	}
	score, details := gradeQuestions(qs, []string{"x"}, 0.6)
	if len(details) != 4 {
		t.Fatalf("details = %d entries, want 4", len(details))
	}
	if score != 25 {
		t.Errorf("score = %v, want 25", score)
	}
	if details[1].UserAnswer != "" || details[1].Correct {
		t.Errorf("missing answer graded as %+v, want blank and wrong", details[1])
	}
	if details[0].CorrectAnswer != "x" {
		t.Errorf("details omit the key: %+v", details[0])
	}
}

func TestSpeakFeedback(t *testing.T) {
	got := speakFeedback("hello world", "hello world", 100)
	if !strings.HasPrefix(got, "Excellent pronunciation!") || !strings.Contains(got, "Perfect match") {
		t.Errorf("perfect attempt feedback = %q", got)
	}
	if got := speakFeedback("hello world", "", 0); !strings.HasPrefix(got, "No speech detected") {
		t.Errorf("empty transcription feedback = %q", got)
	}
	got = speakFeedback("hello world", "hello there", 50)
	if !strings.Contains(got, "I heard: 'hello there'") {
		t.Errorf("partial overlap feedback = %q", got)
	}
	got = speakFeedback("hello world", "completely different", 0)
	if !strings.Contains(got, "Expected: 'hello world'") {
		t.Errorf("disjoint transcription feedback = %q", got)
	}
}

func TestFeedbackLadders(t *testing.T) {
	if got := listenFeedback(95); !strings.HasPrefix(got, "Outstanding") {
		t.Errorf("listenFeedback(95) = %q", got)
	}
	if got := listenFeedback(10); !strings.HasPrefix(got, "Keep practicing!") {
		t.Errorf("listenFeedback(10) = %q", got)
	}
	if got := readFeedback(95, 250); !strings.HasPrefix(got, "Excellent reading") {
		t.Errorf("readFeedback(95, 250) = %q", got)
	}
	// High score without the speed does not earn the top rung.
	if got := readFeedback(95, 150); !strings.HasPrefix(got, "Great comprehension!") {
		t.Errorf("readFeedback(95, 150) = %q", got)
	}
}

func TestVocabAnalysis(t *testing.T) {
	if got := vocabLevel(3); got != "Advanced" {
		t.Errorf("vocabLevel(3) = %q", got)
	}
	if got := vocabLevel(7); got != "Intermediate" {
		t.Errorf("vocabLevel(7) = %q", got)
	}
	if got := vocabLevel(8); got != "Beginner" {
		t.Errorf("vocabLevel(8) = %q", got)
	}
	if got := vocabNote(0); got != "" {
		t.Errorf("vocabNote(0) = %q, want empty", got)
	}
	if got := vocabNote(2); !strings.Contains(got, "2 words") {
		t.Errorf("vocabNote(2) = %q", got)
	}
}

func TestEvaluateLessonAnswer(t *testing.T) {
	fill := lessonExercise{
		Kind:        "fill-in-the-blank",
		Question:    "I _____ to the store yesterday.",
		Answer:      "went",
		Explanation: "We use 'went' for completed actions.",
		SkillTarget: "grammar",
	}
	correct, feedback := evaluateLessonAnswer(fill, " Went ")
	if !correct || !strings.HasPrefix(feedback, "Excellent!") {
		t.Errorf("correct answer graded (%v, %q)", correct, feedback)
	}
	correct, feedback = evaluateLessonAnswer(fill, "goed")
	if correct || !strings.Contains(feedback, "The correct answer is 'went'") {
		t.Errorf("wrong answer graded (%v, %q)", correct, feedback)
	}

	free := lessonExercise{Kind: "image-description", Answer: "Sample answer"}
	if correct, _ := evaluateLessonAnswer(free, "People are drinking coffee."); !correct {
		t.Error("substantive free-form answer rejected")
	}
	if correct, _ := evaluateLessonAnswer(free, "no"); correct {
		t.Error("too-short free-form answer accepted")
	}
}

func TestBumpSkill(t *testing.T) {
	var sk model.SkillProfile
	bumpSkill(&sk, "grammar", 1.5)
	bumpSkill(&sk, "listening_comprehension", 2)
	bumpSkill(&sk, "unknown_skill", 99)
	if sk.Grammar != 1.5 || sk.ListeningComprehension != 2 {
		t.Errorf("skills = %+v", sk)
	}
}
