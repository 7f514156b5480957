// Package practice implements the shared exercise-attempt flow behind
// the speak, listen and read modules: a pure synchronous state machine
// plus a Controller that drives it against the backend, the recorder
// and the playback clock.
package practice

import (
	"errors"
	"strings"
	"time"

	"github.com/elysian-app/elysian/internal/audio"
	"github.com/elysian-app/elysian/internal/model"
)

// Phase is a state of the attempt flow.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseLoading    Phase = "loading"
	PhasePresenting Phase = "presenting"
	PhaseCapturing  Phase = "capturing"
	PhaseSubmitting Phase = "submitting"
	PhaseResult     Phase = "result"
	PhaseError      Phase = "error"
)

// Config tunes machine behavior.
type Config struct {
	// Lenient lifts the listen-module rule that comprehension
	// questions stay locked until playback completes.
	Lenient bool
	// Now supplies timestamps; defaults to time.Now.
	Now func() time.Time
}

// Attempt is the learner's work-in-progress against one exercise. A
// fresh attempt is bound when an exercise loads and again on retry; a
// submitted attempt is never mutated afterwards.
type Attempt struct {
	ExerciseID string
	Module     model.Module
	StartedAt  time.Time
	Answers    map[int]string
	Lookups    map[string]int
	Recording  *audio.Artifact
}

func newAttempt(ex *model.Exercise, at time.Time) *Attempt {
	return &Attempt{
		ExerciseID: ex.ID,
		Module:     ex.Module,
		StartedAt:  at,
		Answers:    make(map[int]string),
		Lookups:    make(map[string]int),
	}
}

// Machine is the pure transition core. Every method is synchronous,
// validates the transition table, and mutates nothing on an illegal
// call. The asynchronous edges (fetching, submitting, playback, the
// capture device) belong to the callers.
type Machine struct {
	cfg          Config
	phase        Phase
	exercise     *model.Exercise
	attempt      *Attempt
	result       *model.Result
	failure      *Failure
	pending      *model.Submission
	playbackDone bool
}

// NewMachine returns a machine in the idle phase.
func NewMachine(cfg Config) *Machine {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Machine{cfg: cfg, phase: PhaseIdle}
}

// Phase reports the current phase.
func (m *Machine) Phase() Phase { return m.phase }

// Exercise returns the loaded exercise, or nil.
func (m *Machine) Exercise() *model.Exercise { return m.exercise }

// Attempt returns the live attempt, or nil.
func (m *Machine) Attempt() *Attempt { return m.attempt }

// Result returns the graded result while in the result phase, or nil.
func (m *Machine) Result() *model.Result { return m.result }

// Failure returns failure details while in the error phase, or nil.
func (m *Machine) Failure() *Failure { return m.failure }

// PlaybackDone reports whether listen playback has completed for the
// current attempt.
func (m *Machine) PlaybackDone() bool { return m.playbackDone }

// Begin starts a fetch cycle. It is legal from idle, from a shown
// result (moving on to the next exercise) and from a failure (starting
// over). The previous exercise, attempt and result are discarded.
func (m *Machine) Begin() error {
	switch m.phase {
	case PhaseIdle, PhaseResult, PhaseError:
	default:
		return &TransitionError{Op: "begin", Phase: m.phase}
	}
	m.phase = PhaseLoading
	m.exercise = nil
	m.attempt = nil
	m.result = nil
	m.failure = nil
	m.pending = nil
	m.playbackDone = false
	return nil
}

// ExerciseLoaded binds the fetched exercise and a fresh attempt.
func (m *Machine) ExerciseLoaded(ex *model.Exercise) error {
	if m.phase != PhaseLoading {
		return &TransitionError{Op: "accept exercise", Phase: m.phase}
	}
	m.exercise = ex
	m.attempt = newAttempt(ex, m.cfg.Now())
	m.phase = PhasePresenting
	return nil
}

// LoadFailed records a fetch failure.
func (m *Machine) LoadFailed(err error) error {
	if m.phase != PhaseLoading {
		return &TransitionError{Op: "fail load", Phase: m.phase}
	}
	m.failure = &Failure{Kind: FailFetch, Err: err}
	m.phase = PhaseError
	return nil
}

// PlaybackFinished marks the listen audio as fully played, unlocking
// its questions in strict mode. Idempotent; ignored outside the
// presenting and capturing phases.
func (m *Machine) PlaybackFinished() {
	if m.phase == PhasePresenting || m.phase == PhaseCapturing {
		m.playbackDone = true
	}
}

// StartCapture moves from presenting to capturing. Listen exercises in
// strict mode refuse until playback has completed. Speak exercises may
// also start another take while already capturing.
func (m *Machine) StartCapture() error {
	switch m.phase {
	case PhasePresenting:
	case PhaseCapturing:
		if m.exercise.Module != model.ModuleSpeak {
			return &TransitionError{Op: "start capture", Phase: m.phase}
		}
	default:
		return &TransitionError{Op: "start capture", Phase: m.phase}
	}
	if m.exercise.Module == model.ModuleListen && !m.cfg.Lenient && !m.playbackDone {
		return ErrQuestionsLocked
	}
	m.phase = PhaseCapturing
	return nil
}

// SetAnswer records the answer for question index i.
func (m *Machine) SetAnswer(i int, text string) error {
	if m.phase != PhaseCapturing {
		return &TransitionError{Op: "answer", Phase: m.phase}
	}
	if m.exercise.Module == model.ModuleSpeak {
		return errors.New("speak exercises take a recording, not answers")
	}
	if i < 0 || i >= len(m.exercise.Questions) {
		return errors.New("question index out of range")
	}
	m.attempt.Answers[i] = text
	return nil
}

// RecordLookup counts a vocabulary lookup against the current read
// attempt. Lookups happen while reading (presenting) and while
// answering (capturing).
func (m *Machine) RecordLookup(word string) error {
	if m.phase != PhasePresenting && m.phase != PhaseCapturing {
		return &TransitionError{Op: "record lookup", Phase: m.phase}
	}
	if m.exercise.Module != model.ModuleRead {
		return errors.New("lookups only apply to read exercises")
	}
	w := strings.ToLower(strings.TrimSpace(word))
	if w == "" {
		return errors.New("empty word")
	}
	m.attempt.Lookups[w]++
	return nil
}

// AttachRecording stores the finished capture on a speak attempt,
// replacing any earlier take.
func (m *Machine) AttachRecording(a audio.Artifact) error {
	if m.phase != PhaseCapturing {
		return &TransitionError{Op: "attach recording", Phase: m.phase}
	}
	if m.exercise.Module != model.ModuleSpeak {
		return errors.New("recordings only apply to speak exercises")
	}
	if a.Empty() {
		return errors.New("empty recording")
	}
	m.attempt.Recording = &a
	return nil
}

// MissingAnswers reports how many inputs still block submission: for
// speak, one until a recording is attached; otherwise the number of
// unanswered questions.
func (m *Machine) MissingAnswers() int {
	if m.attempt == nil || m.exercise == nil {
		return 0
	}
	if m.exercise.Module == model.ModuleSpeak {
		if m.attempt.Recording == nil {
			return 1
		}
		return 0
	}
	missing := 0
	for i := range m.exercise.Questions {
		if strings.TrimSpace(m.attempt.Answers[i]) == "" {
			missing++
		}
	}
	return missing
}

// CanSubmit reports whether a submission would pass the completeness
// gate right now.
func (m *Machine) CanSubmit() bool {
	return m.phase == PhaseCapturing && m.MissingAnswers() == 0
}

// BeginSubmit gates and freezes the attempt into a submission payload.
// From capturing it builds and stashes the payload; from a submit
// failure it returns the stashed payload unchanged, so a retry sends
// byte-identical data.
func (m *Machine) BeginSubmit() (model.Submission, error) {
	switch m.phase {
	case PhaseCapturing:
		if n := m.MissingAnswers(); n > 0 {
			return model.Submission{}, &IncompleteError{Missing: n}
		}
		sub := m.buildSubmission()
		m.pending = &sub
		m.phase = PhaseSubmitting
		return sub, nil
	case PhaseError:
		if m.failure == nil || m.failure.Kind != FailSubmit || m.pending == nil {
			return model.Submission{}, &TransitionError{Op: "submit", Phase: m.phase}
		}
		m.failure = nil
		m.phase = PhaseSubmitting
		return *m.pending, nil
	default:
		return model.Submission{}, &TransitionError{Op: "submit", Phase: m.phase}
	}
}

func (m *Machine) buildSubmission() model.Submission {
	ex, a := m.exercise, m.attempt
	sub := model.Submission{Module: ex.Module, ExerciseID: ex.ID}
	switch ex.Module {
	case model.ModuleSpeak:
		sub.Kind = ex.Kind
		sub.Content = ex.Content
		sub.Audio = a.Recording.Transport()
	case model.ModuleListen:
		sub.Answers = orderedAnswers(a.Answers, len(ex.Questions))
	case model.ModuleRead:
		sub.Answers = orderedAnswers(a.Answers, len(ex.Questions))
		secs := int(m.cfg.Now().Sub(a.StartedAt) / time.Second)
		if secs < 1 {
			secs = 1
		}
		sub.ReadingTime = secs
		sub.Lookups = make(map[string]int, len(a.Lookups))
		for w, n := range a.Lookups {
			sub.Lookups[w] = n
		}
	}
	return sub
}

func orderedAnswers(answers map[int]string, n int) []string {
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = answers[i]
	}
	return out
}

// SubmitSucceeded records the graded result.
func (m *Machine) SubmitSucceeded(res *model.Result) error {
	if m.phase != PhaseSubmitting {
		return &TransitionError{Op: "accept result", Phase: m.phase}
	}
	m.result = res
	m.pending = nil
	m.phase = PhaseResult
	return nil
}

// SubmitFailed records the failure, keeping the attempt and its frozen
// payload for retry.
func (m *Machine) SubmitFailed(err error) error {
	if m.phase != PhaseSubmitting {
		return &TransitionError{Op: "fail submit", Phase: m.phase}
	}
	m.failure = &Failure{Kind: FailSubmit, Err: err}
	m.phase = PhaseError
	return nil
}

// Retry starts a fresh attempt against the same exercise after a
// result was shown. Listen playback locks again until it replays.
func (m *Machine) Retry() error {
	if m.phase != PhaseResult {
		return &TransitionError{Op: "retry", Phase: m.phase}
	}
	m.attempt = newAttempt(m.exercise, m.cfg.Now())
	m.result = nil
	m.pending = nil
	m.playbackDone = false
	m.phase = PhasePresenting
	return nil
}
