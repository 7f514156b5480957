package sandbox

import (
	"fmt"
	"strings"

	"github.com/elysian-app/elysian/internal/model"
)

// Grading is deterministic given its inputs. Randomized adjustments
// (the pronunciation jitter) are computed by the caller and passed in
// as plain values.

// matchWord reports whether a heard word counts as the expected one:
// an exact match, or a containment either way for words longer than
// three letters.
func matchWord(expected, heard string) bool {
	if expected == heard {
		return true
	}
	if len(expected) > 3 && strings.Contains(heard, expected) {
		return true
	}
	return len(heard) > 3 && strings.Contains(expected, heard)
}

// wordAccuracy scores a transcription against the expected content as
// the percentage of expected words found in it. With nothing expected
// it falls back to a flat 70.
func wordAccuracy(expected, transcribed string) float64 {
	want := strings.Fields(strings.ToLower(strings.TrimSpace(expected)))
	if len(want) == 0 {
		return 70
	}
	have := strings.Fields(strings.ToLower(strings.TrimSpace(transcribed)))
	matches := 0
	for _, w := range want {
		for _, h := range have {
			if matchWord(w, h) {
				matches++
				break
			}
		}
	}
	return float64(matches) / float64(len(want)) * 100
}

// pronunciationScore blends word accuracy with a caller-supplied
// jitter and a boost from the learner's pronunciation skill.
func pronunciationScore(accuracy, pronSkill, jitter float64) float64 {
	base := min(95.0, max(40.0, accuracy))
	boost := min(10.0, pronSkill/10)
	return min(100.0, max(30.0, base+jitter+boost))
}

// intonationScore derives an intonation estimate from the
// pronunciation score. Only sentence exercises get one.
func intonationScore(pron, jitter float64) float64 {
	return min(100.0, max(40.0, pron+jitter))
}

func speakXP(pron float64) int {
	return max(5, 20+int(pron/20))
}

// speakFeedback pairs the accuracy ladder with a note about what the
// recognizer heard.
func speakFeedback(expected, transcribed string, accuracy float64) string {
	var base string
	switch {
	case accuracy >= 90:
		base = "Excellent pronunciation! Your speech is very clear and natural."
	case accuracy >= 75:
		base = "Very good pronunciation. Most words were pronounced clearly."
	case accuracy >= 60:
		base = "Good pronunciation. Some words could be pronounced more clearly."
	case accuracy >= 40:
		base = "Fair pronunciation. Focus on speaking more slowly and clearly."
	default:
		base = "Keep practicing! Try to speak more slowly and focus on each sound."
	}

	heard := strings.TrimSpace(transcribed)
	if heard == "" {
		return "No speech detected. Please ensure your microphone is working and speak clearly."
	}
	want := strings.ToLower(strings.TrimSpace(expected))
	if want == "" {
		return base
	}
	switch {
	case want == strings.ToLower(heard):
		return base + " Perfect match with expected content!"
	case sharesWords(want, strings.ToLower(heard)):
		return fmt.Sprintf("%s I heard: '%s'", base, transcribed)
	default:
		return fmt.Sprintf("%s Expected: '%s', I heard: '%s'", base, expected, transcribed)
	}
}

func sharesWords(a, b string) bool {
	have := make(map[string]bool)
	for _, w := range strings.Fields(b) {
		have[w] = true
	}
	for _, w := range strings.Fields(a) {
		if have[w] {
			return true
		}
	}
	return false
}

// evaluateAnswer grades one answer. Multiple choice is a trimmed
// case-insensitive match; open-ended answers must repeat at least the
// given fraction of the key's words.
func evaluateAnswer(q keyedQuestion, answer string, threshold float64) model.QuestionResult {
	var correct bool
	if q.Kind == model.QuestionMultipleChoice {
		correct = strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(q.Answer))
	} else {
		matched, total := keywordsMatched(q.Answer, answer)
		correct = float64(matched) >= float64(total)*threshold
	}
	return model.QuestionResult{
		Question:      q.Prompt,
		UserAnswer:    answer,
		CorrectAnswer: q.Answer,
		Correct:       correct,
	}
}

func keywordsMatched(expected, answer string) (matched, total int) {
	want := strings.Fields(strings.ToLower(expected))
	have := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(answer)) {
		have[w] = true
	}
	for _, w := range want {
		if have[w] {
			matched++
		}
	}
	return matched, len(want)
}

// gradeQuestions grades the answer list against the keyed questions.
// Missing answers count as blank.
func gradeQuestions(qs []keyedQuestion, answers []string, threshold float64) (float64, []model.QuestionResult) {
	details := make([]model.QuestionResult, 0, len(qs))
	correct := 0
	for i, q := range qs {
		var answer string
		if i < len(answers) {
			answer = answers[i]
		}
		res := evaluateAnswer(q, answer, threshold)
		if res.Correct {
			correct++
		}
		details = append(details, res)
	}
	if len(qs) == 0 {
		return 0, details
	}
	return float64(correct) / float64(len(qs)) * 100, details
}

func listenXP(score float64) int {
	return 25 + int(score/100*15)
}

func listenFeedback(score float64) string {
	switch {
	case score >= 90:
		return "Outstanding listening comprehension! Your understanding is excellent."
	case score >= 80:
		return "Great job! You understood most of the content clearly."
	case score >= 70:
		return "Good work! You're making solid progress in listening skills."
	case score >= 60:
		return "Fair performance. Try listening to the audio multiple times to catch more details."
	default:
		return "Keep practicing! Focus on key words and main ideas when listening."
	}
}

func readXP(score, speed float64) int {
	return 30 + int(score/100*20) + min(10, int(speed/50))
}

func readFeedback(score, speed float64) string {
	switch {
	case score >= 90 && speed > 200:
		return "Excellent reading comprehension and speed! You're a skilled reader."
	case score >= 80:
		return "Great comprehension! You understood the main ideas and details well."
	case score >= 70:
		return "Good reading skills. Focus on identifying key information more precisely."
	case score >= 60:
		return "Fair comprehension. Try reading more slowly and re-reading difficult sections."
	default:
		return "Keep practicing! Focus on understanding main ideas before worrying about details."
	}
}

// vocabNote comments on lookup volume. No lookups, no note.
func vocabNote(count int) string {
	switch {
	case count == 0:
		return ""
	case count <= 3:
		return fmt.Sprintf(" You looked up %d words - great vocabulary level!", count)
	case count <= 7:
		return fmt.Sprintf(" You looked up %d words - good effort to understand new vocabulary!", count)
	default:
		return fmt.Sprintf(" You looked up %d words - try reading at a slightly easier level to build confidence.", count)
	}
}

func vocabLevel(count int) string {
	switch {
	case count <= 3:
		return "Advanced"
	case count <= 7:
		return "Intermediate"
	default:
		return "Beginner"
	}
}

// evaluateLessonAnswer grades a micro-exercise. Objective kinds check
// the key; free-form kinds accept any answer longer than a few
// characters.
func evaluateLessonAnswer(ex lessonExercise, answer string) (bool, string) {
	switch ex.Kind {
	case "fill-in-the-blank", "sentence-scramble", "multiple-choice":
		if strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(ex.Answer)) {
			return true, "Excellent! " + ex.Explanation
		}
		return false, fmt.Sprintf("Not quite right. The correct answer is '%s'. %s", ex.Answer, ex.Explanation)
	default:
		if len(strings.TrimSpace(answer)) > 3 {
			return true, "Great effort! Keep practicing!"
		}
		return false, "Try to provide a more detailed answer."
	}
}

// bumpSkill nudges one named skill on the profile.
func bumpSkill(sk *model.SkillProfile, name string, delta float64) {
	switch name {
	case "grammar":
		sk.Grammar += delta
	case "vocabulary":
		sk.Vocabulary += delta
	case "speaking_fluency":
		sk.SpeakingFluency += delta
	case "listening_comprehension":
		sk.ListeningComprehension += delta
	case "reading_comprehension":
		sk.ReadingComprehension += delta
	case "writing_accuracy":
		sk.WritingAccuracy += delta
	case "pronunciation_accuracy":
		sk.PronunciationAccuracy += delta
	case "intonation_score":
		sk.IntonationScore += delta
	}
}
