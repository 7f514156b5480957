package practice

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/elysian-app/elysian/internal/audio"
	"github.com/elysian-app/elysian/internal/model"
	"github.com/elysian-app/elysian/internal/playback"
)

type fakeBackend struct {
	mu         sync.Mutex
	fetches    int
	submits    int
	fetchErr   error
	submitErr  error
	result     *model.Result
	makeEx     func(n int) *model.Exercise
	subs       []model.Submission
	fetchGate  chan struct{} // when set, fetches block until it closes
	submitGate chan struct{}
}

func (b *fakeBackend) FetchExercise(ctx context.Context, module model.Module, contentID string) (*model.Exercise, error) {
	b.mu.Lock()
	b.fetches++
	n := b.fetches
	gate := b.fetchGate
	err := b.fetchErr
	mk := b.makeEx
	b.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return mk(n), nil
}

func (b *fakeBackend) SubmitAttempt(ctx context.Context, sub model.Submission) (*model.Result, error) {
	b.mu.Lock()
	b.submits++
	b.subs = append(b.subs, sub)
	gate := b.submitGate
	err := b.submitErr
	res := b.result
	b.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	if res == nil {
		res = &model.Result{Score: 80, XPEarned: 30}
	}
	return res, nil
}

func (b *fakeBackend) setFetchErr(err error) {
	b.mu.Lock()
	b.fetchErr = err
	b.mu.Unlock()
}

func (b *fakeBackend) setSubmitErr(err error) {
	b.mu.Lock()
	b.submitErr = err
	b.mu.Unlock()
}

func (b *fakeBackend) counts() (fetches, submits int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fetches, b.submits
}

func (b *fakeBackend) submissions() []model.Submission {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.Submission, len(b.subs))
	copy(out, b.subs)
	return out
}

func listenBackend(questions, duration int) *fakeBackend {
	return &fakeBackend{makeEx: func(n int) *model.Exercise {
		ex := &model.Exercise{
			ID:       fmt.Sprintf("li-%d", n),
			Module:   model.ModuleListen,
			Duration: duration,
		}
		for i := 0; i < questions; i++ {
			ex.Questions = append(ex.Questions, model.Question{Prompt: "q", Kind: model.QuestionMultipleChoice})
		}
		return ex
	}}
}

func speakBackend() *fakeBackend {
	return &fakeBackend{makeEx: func(n int) *model.Exercise {
		return &model.Exercise{
			ID:      fmt.Sprintf("sp-%d", n),
			Module:  model.ModuleSpeak,
			Kind:    "sentence",
			Content: "The weather is very nice today.",
		}
	}}
}

func readBackend(questions int) *fakeBackend {
	return &fakeBackend{makeEx: func(n int) *model.Exercise {
		ex := &model.Exercise{
			ID:      fmt.Sprintf("rd-%d", n),
			Module:  model.ModuleRead,
			Content: "Reading is one of the most important skills.",
		}
		for i := 0; i < questions; i++ {
			ex.Questions = append(ex.Questions, model.Question{Prompt: "q", Kind: model.QuestionOpenEnded})
		}
		return ex
	}}
}

// waitPhase polls until the controller reaches the wanted phase.
func waitPhase(t *testing.T, c *Controller, want Phase) Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if snap := c.Snapshot(); snap.Phase == want {
			return snap
		}
		select {
		case <-c.Updates():
		case <-time.After(5 * time.Millisecond):
		}
	}
	t.Fatalf("timed out waiting for phase %s, current %s", want, c.Snapshot().Phase)
	return Snapshot{}
}

// assertPhaseStays gives async work a moment, then checks nothing moved.
func assertPhaseStays(t *testing.T, c *Controller, want Phase) {
	t.Helper()
	time.Sleep(50 * time.Millisecond)
	if got := c.Snapshot().Phase; got != want {
		t.Fatalf("phase = %s, want still %s", got, want)
	}
}

func TestListenStrictWalkthrough(t *testing.T) {
	backend := listenBackend(2, 60)
	clock := playback.NewManualClock(time.Unix(1700000000, 0))
	c := NewController(backend, Options{Module: model.ModuleListen, Clock: clock})
	defer c.Close()
	ctx := context.Background()

	if err := c.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	snap := waitPhase(t, c, PhasePresenting)
	if snap.Exercise.Duration != 60 {
		t.Fatalf("Duration = %d, want 60", snap.Exercise.Duration)
	}

	if err := c.StartCapture(ctx); !errors.Is(err, ErrQuestionsLocked) {
		t.Fatalf("StartCapture before playback = %v, want ErrQuestionsLocked", err)
	}

	clock.Advance(59 * time.Second)
	if err := c.StartCapture(ctx); !errors.Is(err, ErrQuestionsLocked) {
		t.Fatalf("StartCapture at 59s = %v, want ErrQuestionsLocked", err)
	}

	clock.Advance(1 * time.Second)
	if err := c.AwaitPlayback(ctx); err != nil {
		t.Fatalf("AwaitPlayback: %v", err)
	}
	if err := c.StartCapture(ctx); err != nil {
		t.Fatalf("StartCapture after playback: %v", err)
	}
	if !c.Snapshot().PlaybackDone {
		t.Error("snapshot does not report playback done")
	}

	if err := c.Answer(0, "7 o'clock"); err != nil {
		t.Fatalf("Answer(0): %v", err)
	}
	if err := c.Submit(ctx); err == nil {
		t.Fatal("Submit with a missing answer succeeded")
	}
	if err := c.Answer(1, "By bus"); err != nil {
		t.Fatalf("Answer(1): %v", err)
	}
	if err := c.Submit(ctx); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	snap = waitPhase(t, c, PhaseResult)
	if snap.Result == nil || snap.Result.Score != 80 {
		t.Errorf("Result = %+v, want score 80", snap.Result)
	}
	if _, submits := backend.counts(); submits != 1 {
		t.Errorf("submits = %d, want 1", submits)
	}
}

func TestIncompleteSubmitNeverReachesBackend(t *testing.T) {
	backend := listenBackend(2, 0)
	c := NewController(backend, Options{Module: model.ModuleListen, Machine: Config{Lenient: true}})
	defer c.Close()
	ctx := context.Background()

	if err := c.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	waitPhase(t, c, PhasePresenting)
	if err := c.StartCapture(ctx); err != nil {
		t.Fatalf("StartCapture: %v", err)
	}
	if err := c.Answer(0, "only one"); err != nil {
		t.Fatalf("Answer: %v", err)
	}

	err := c.Submit(ctx)
	var inc *IncompleteError
	if !errors.As(err, &inc) || inc.Missing != 1 {
		t.Fatalf("Submit err = %v, want IncompleteError{1}", err)
	}
	if _, submits := backend.counts(); submits != 0 {
		t.Errorf("submits = %d, want 0", submits)
	}
}

func TestSpeakRetrySubmitReusesRecording(t *testing.T) {
	backend := speakBackend()
	backend.setSubmitErr(errors.New("bad gateway"))
	rec := &audio.BufferRecorder{Artifact: audio.Artifact{Data: []byte("one-take"), MIME: "audio/wav"}}
	c := NewController(backend, Options{Module: model.ModuleSpeak, Recorder: rec})
	defer c.Close()
	ctx := context.Background()

	if err := c.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	waitPhase(t, c, PhasePresenting)
	if err := c.StartCapture(ctx); err != nil {
		t.Fatalf("StartCapture: %v", err)
	}
	if err := c.StopCapture(); err != nil {
		t.Fatalf("StopCapture: %v", err)
	}
	if err := c.Submit(ctx); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	snap := waitPhase(t, c, PhaseError)
	if snap.Failure == nil || snap.Failure.Kind != FailSubmit {
		t.Fatalf("Failure = %+v, want submit failure", snap.Failure)
	}

	// Retry without touching the microphone again.
	backend.setSubmitErr(nil)
	if err := c.Submit(ctx); err != nil {
		t.Fatalf("retry Submit: %v", err)
	}
	waitPhase(t, c, PhaseResult)

	subs := backend.submissions()
	if len(subs) != 2 {
		t.Fatalf("submissions = %d, want 2", len(subs))
	}
	if subs[0].Audio == "" || subs[0].Audio != subs[1].Audio {
		t.Errorf("retried audio differs: %q vs %q", subs[0].Audio, subs[1].Audio)
	}
	started, stopped, released := rec.Counts()
	if started != 1 || stopped != 1 || released != 1 {
		t.Errorf("recorder counts = %d/%d/%d, want 1/1/1", started, stopped, released)
	}
}

func TestNextFetchesExactlyOnce(t *testing.T) {
	backend := listenBackend(1, 0)
	c := NewController(backend, Options{Module: model.ModuleListen, Machine: Config{Lenient: true}})
	defer c.Close()
	ctx := context.Background()

	if err := c.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	first := waitPhase(t, c, PhasePresenting)
	if err := c.StartCapture(ctx); err != nil {
		t.Fatalf("StartCapture: %v", err)
	}
	if err := c.Answer(0, "a"); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if err := c.Submit(ctx); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitPhase(t, c, PhaseResult)

	if err := c.Next(ctx); err != nil {
		t.Fatalf("Next: %v", err)
	}
	second := waitPhase(t, c, PhasePresenting)

	if fetches, _ := backend.counts(); fetches != 2 {
		t.Errorf("fetches = %d, want 2", fetches)
	}
	if first.Exercise.ID == second.Exercise.ID {
		t.Errorf("next returned the same exercise %q", first.Exercise.ID)
	}
}

func TestSecondLoadRejectedWhileLoading(t *testing.T) {
	backend := listenBackend(1, 0)
	gate := make(chan struct{})
	backend.fetchGate = gate
	c := NewController(backend, Options{Module: model.ModuleListen, Machine: Config{Lenient: true}})
	defer c.Close()
	ctx := context.Background()

	if err := c.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	var terr *TransitionError
	if err := c.Load(ctx); !errors.As(err, &terr) {
		t.Fatalf("second Load = %v, want TransitionError", err)
	}

	close(gate)
	waitPhase(t, c, PhasePresenting)
	if fetches, _ := backend.counts(); fetches != 1 {
		t.Errorf("fetches = %d, want 1", fetches)
	}
}

func TestSubmitRejectedWhileSubmitting(t *testing.T) {
	backend := readBackend(0)
	gate := make(chan struct{})
	backend.submitGate = gate
	c := NewController(backend, Options{Module: model.ModuleRead})
	defer c.Close()
	ctx := context.Background()

	if err := c.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	waitPhase(t, c, PhasePresenting)
	if err := c.StartCapture(ctx); err != nil {
		t.Fatalf("StartCapture: %v", err)
	}
	if err := c.Submit(ctx); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	var terr *TransitionError
	if err := c.Submit(ctx); !errors.As(err, &terr) {
		t.Fatalf("second Submit = %v, want TransitionError", err)
	}

	close(gate)
	waitPhase(t, c, PhaseResult)
	if _, submits := backend.counts(); submits != 1 {
		t.Errorf("submits = %d, want 1", submits)
	}
}

func TestCloseDropsLateFetchResponse(t *testing.T) {
	backend := listenBackend(1, 0)
	gate := make(chan struct{})
	backend.fetchGate = gate
	c := NewController(backend, Options{Module: model.ModuleListen})
	ctx := context.Background()

	if err := c.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	c.Close()
	close(gate)

	assertPhaseStays(t, c, PhaseLoading)
	if err := c.Load(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("Load after close = %v, want ErrClosed", err)
	}
}

func TestCloseDropsLateSubmitResponse(t *testing.T) {
	backend := readBackend(0)
	gate := make(chan struct{})
	backend.submitGate = gate
	c := NewController(backend, Options{Module: model.ModuleRead})
	ctx := context.Background()

	if err := c.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	waitPhase(t, c, PhasePresenting)
	if err := c.StartCapture(ctx); err != nil {
		t.Fatalf("StartCapture: %v", err)
	}
	if err := c.Submit(ctx); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	c.Close()
	close(gate)

	assertPhaseStays(t, c, PhaseSubmitting)
}

func TestFetchFailureThenReload(t *testing.T) {
	backend := listenBackend(1, 0)
	backend.setFetchErr(errors.New("connection refused"))
	c := NewController(backend, Options{Module: model.ModuleListen})
	defer c.Close()
	ctx := context.Background()

	if err := c.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	snap := waitPhase(t, c, PhaseError)
	if snap.Failure == nil || snap.Failure.Kind != FailFetch {
		t.Fatalf("Failure = %+v, want fetch failure", snap.Failure)
	}

	backend.setFetchErr(nil)
	if err := c.Load(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	waitPhase(t, c, PhasePresenting)
	if fetches, _ := backend.counts(); fetches != 2 {
		t.Errorf("fetches = %d, want 2", fetches)
	}
}

func TestCaptureReleasedOnClose(t *testing.T) {
	backend := speakBackend()
	rec := &audio.BufferRecorder{Artifact: audio.Artifact{Data: []byte("x")}}
	c := NewController(backend, Options{Module: model.ModuleSpeak, Recorder: rec})
	ctx := context.Background()

	if err := c.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	waitPhase(t, c, PhasePresenting)
	if err := c.StartCapture(ctx); err != nil {
		t.Fatalf("StartCapture: %v", err)
	}
	c.Close()

	started, stopped, released := rec.Counts()
	if started != 1 || stopped != 0 || released != 1 {
		t.Errorf("recorder counts = %d/%d/%d, want 1/0/1", started, stopped, released)
	}
}

func TestReRecordReleasesPreviousTake(t *testing.T) {
	backend := speakBackend()
	rec := &audio.BufferRecorder{Artifact: audio.Artifact{Data: []byte("x")}}
	c := NewController(backend, Options{Module: model.ModuleSpeak, Recorder: rec})
	defer c.Close()
	ctx := context.Background()

	if err := c.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	waitPhase(t, c, PhasePresenting)
	if err := c.StartCapture(ctx); err != nil {
		t.Fatalf("StartCapture: %v", err)
	}
	if err := c.StartCapture(ctx); err != nil {
		t.Fatalf("re-record StartCapture: %v", err)
	}
	started, _, released := rec.Counts()
	if started != 2 || released != 1 {
		t.Errorf("recorder counts started/released = %d/%d, want 2/1", started, released)
	}
}

func TestCaptureUnavailableKeepsPresenting(t *testing.T) {
	backend := speakBackend()
	rec := &audio.BufferRecorder{StartErr: audio.ErrUnavailable}
	c := NewController(backend, Options{Module: model.ModuleSpeak, Recorder: rec})
	defer c.Close()
	ctx := context.Background()

	if err := c.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	waitPhase(t, c, PhasePresenting)
	if err := c.StartCapture(ctx); !errors.Is(err, audio.ErrUnavailable) {
		t.Fatalf("StartCapture = %v, want ErrUnavailable", err)
	}
	if got := c.Snapshot().Phase; got != PhasePresenting {
		t.Errorf("phase = %s, want presenting", got)
	}
}

func TestRetryRelocksListenPlayback(t *testing.T) {
	backend := listenBackend(1, 30)
	clock := playback.NewManualClock(time.Unix(1700000000, 0))
	c := NewController(backend, Options{Module: model.ModuleListen, Clock: clock})
	defer c.Close()
	ctx := context.Background()

	if err := c.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	waitPhase(t, c, PhasePresenting)
	clock.Advance(30 * time.Second)
	if err := c.StartCapture(ctx); err != nil {
		t.Fatalf("StartCapture: %v", err)
	}
	if err := c.Answer(0, "a"); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if err := c.Submit(ctx); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitPhase(t, c, PhaseResult)

	if err := c.Retry(); err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if err := c.StartCapture(ctx); !errors.Is(err, ErrQuestionsLocked) {
		t.Fatalf("StartCapture after retry = %v, want ErrQuestionsLocked", err)
	}
	clock.Advance(30 * time.Second)
	if err := c.StartCapture(ctx); err != nil {
		t.Fatalf("StartCapture after replay: %v", err)
	}
}

func TestReadLookupsTravelInSubmission(t *testing.T) {
	backend := readBackend(1)
	c := NewController(backend, Options{Module: model.ModuleRead})
	defer c.Close()
	ctx := context.Background()

	if err := c.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	waitPhase(t, c, PhasePresenting)
	for _, w := range []string{"skills", "important", "skills"} {
		if err := c.Lookup(w); err != nil {
			t.Fatalf("Lookup(%q): %v", w, err)
		}
	}
	if err := c.StartCapture(ctx); err != nil {
		t.Fatalf("StartCapture: %v", err)
	}
	if err := c.Answer(0, "reading widely"); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if err := c.Submit(ctx); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitPhase(t, c, PhaseResult)

	subs := backend.submissions()
	if len(subs) != 1 {
		t.Fatalf("submissions = %d, want 1", len(subs))
	}
	if got := subs[0].Lookups; got["skills"] != 2 || got["important"] != 1 || len(got) != 2 {
		t.Errorf("Lookups = %v, want skills:2 important:1", got)
	}
	if subs[0].ReadingTime < 1 {
		t.Errorf("ReadingTime = %d, want >= 1", subs[0].ReadingTime)
	}
}
