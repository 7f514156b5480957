package practice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/elysian-app/elysian/internal/audio"
	"github.com/elysian-app/elysian/internal/model"
	"github.com/elysian-app/elysian/internal/playback"
)

// Collaborator is the backend surface the flow needs.
type Collaborator interface {
	FetchExercise(ctx context.Context, module model.Module, contentID string) (*model.Exercise, error)
	SubmitAttempt(ctx context.Context, sub model.Submission) (*model.Result, error)
}

// Options configure a Controller.
type Options struct {
	Module    model.Module
	ContentID string // read: a specific article to fetch
	Machine   Config
	Recorder  audio.Recorder // speak
	Clock     playback.Clock // listen; defaults to the system clock
	Speed     float64        // listen playback rate; defaults to 1x
}

// Snapshot is an immutable view of the flow for rendering.
type Snapshot struct {
	Phase        Phase
	Exercise     *model.Exercise
	Missing      int
	PlaybackDone bool
	Position     time.Duration
	Answers      map[int]string
	Lookups      map[string]int
	HasRecording bool
	Result       *model.Result
	Failure      *Failure
}

// Controller drives a Machine against the backend. Methods are safe
// for concurrent use. Fetch and submit run asynchronously; their
// completions are dropped once stale, so a response from a superseded
// cycle or a closed controller never mutates state.
type Controller struct {
	backend Collaborator
	opts    Options

	mu      sync.Mutex
	machine *Machine
	epoch   uint64
	player  *playback.Player
	capture audio.Capture
	closed  bool

	updates chan Snapshot
}

// NewController builds a controller for one module's practice flow.
func NewController(backend Collaborator, opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = playback.SystemClock{}
	}
	if opts.Speed <= 0 {
		opts.Speed = 1.0
	}
	return &Controller{
		backend: backend,
		opts:    opts,
		machine: NewMachine(opts.Machine),
		updates: make(chan Snapshot, 1),
	}
}

// Updates delivers a snapshot after each state change, coalescing to
// the latest when the consumer lags. The channel is never closed.
func (c *Controller) Updates() <-chan Snapshot { return c.updates }

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	m := c.machine
	snap := Snapshot{
		Phase:        m.Phase(),
		Exercise:     m.Exercise(),
		Missing:      m.MissingAnswers(),
		PlaybackDone: m.PlaybackDone(),
		Result:       m.Result(),
		Failure:      m.Failure(),
	}
	if a := m.Attempt(); a != nil {
		snap.Answers = make(map[int]string, len(a.Answers))
		for i, v := range a.Answers {
			snap.Answers[i] = v
		}
		snap.Lookups = make(map[string]int, len(a.Lookups))
		for w, n := range a.Lookups {
			snap.Lookups[w] = n
		}
		snap.HasRecording = a.Recording != nil
	}
	if c.player != nil {
		snap.Position = c.player.Position()
	}
	return snap
}

// publishLocked pushes the current snapshot, replacing an unread one.
func (c *Controller) publishLocked() {
	snap := c.snapshotLocked()
	for {
		select {
		case c.updates <- snap:
			return
		default:
		}
		select {
		case <-c.updates:
		default:
		}
	}
}

func (c *Controller) stale(epoch uint64) bool {
	return c.closed || epoch != c.epoch
}

// Load begins a fetch cycle: the initial load, the next exercise after
// a result, or a fresh start after a failure. A second call while a
// fetch is outstanding is rejected by the transition table.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if err := c.machine.Begin(); err != nil {
		c.mu.Unlock()
		return err
	}
	c.releaseCaptureLocked()
	c.stopPlayerLocked()
	c.epoch++
	epoch := c.epoch
	c.publishLocked()
	c.mu.Unlock()

	go c.fetch(ctx, epoch)
	return nil
}

// Next abandons the shown exercise and fetches a new one.
func (c *Controller) Next(ctx context.Context) error { return c.Load(ctx) }

func (c *Controller) fetch(ctx context.Context, epoch uint64) {
	ex, err := c.backend.FetchExercise(ctx, c.opts.Module, c.opts.ContentID)
	if err == nil && ex == nil {
		err = errors.New("backend returned no exercise")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stale(epoch) {
		return
	}
	if err != nil {
		slog.Warn("exercise fetch failed", "module", c.opts.Module, "error", err)
		_ = c.machine.LoadFailed(err)
	} else {
		_ = c.machine.ExerciseLoaded(ex)
		c.startPlayerLocked()
	}
	c.publishLocked()
}

// StartCapture begins the input phase: for speak it starts the
// recorder, for listen it is refused until playback completes unless
// lenient mode is set, for read it opens the comprehension questions.
func (c *Controller) StartCapture(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.opts.Module == model.ModuleListen && c.player != nil && c.player.Finished() {
		c.machine.PlaybackFinished()
	}
	if c.opts.Module != model.ModuleSpeak {
		if err := c.machine.StartCapture(); err != nil {
			return err
		}
		c.publishLocked()
		return nil
	}

	phase := c.machine.Phase()
	if phase != PhasePresenting && phase != PhaseCapturing {
		return &TransitionError{Op: "start capture", Phase: phase}
	}
	if c.opts.Recorder == nil {
		return fmt.Errorf("start capture: %w", audio.ErrUnavailable)
	}
	c.releaseCaptureLocked()
	h, err := c.opts.Recorder.Start(ctx)
	if err != nil {
		return fmt.Errorf("start capture: %w", err)
	}
	if err := c.machine.StartCapture(); err != nil {
		h.Release()
		return err
	}
	c.capture = h
	c.publishLocked()
	return nil
}

// StopCapture ends the running recording and attaches it to the
// attempt. The capture handle is released on every path.
func (c *Controller) StopCapture() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.capture == nil {
		return errors.New("no capture running")
	}
	h := c.capture
	c.capture = nil
	art, err := h.Stop()
	h.Release()
	if err != nil {
		return fmt.Errorf("stop capture: %w", err)
	}
	if err := c.machine.AttachRecording(art); err != nil {
		return err
	}
	c.publishLocked()
	return nil
}

// Answer records the response for question index i.
func (c *Controller) Answer(i int, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.machine.SetAnswer(i, text); err != nil {
		return err
	}
	c.publishLocked()
	return nil
}

// Lookup counts a vocabulary lookup against the current read attempt.
func (c *Controller) Lookup(word string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.machine.RecordLookup(word); err != nil {
		return err
	}
	c.publishLocked()
	return nil
}

// Submit freezes the attempt and sends it. The completeness gate
// rejects it with an IncompleteError before anything reaches the
// backend. After a submit failure, calling Submit again resends the
// frozen payload unchanged.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	sub, err := c.machine.BeginSubmit()
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.releaseCaptureLocked()
	c.epoch++
	epoch := c.epoch
	c.publishLocked()
	c.mu.Unlock()

	go c.send(ctx, epoch, sub)
	return nil
}

func (c *Controller) send(ctx context.Context, epoch uint64, sub model.Submission) {
	res, err := c.backend.SubmitAttempt(ctx, sub)
	if err == nil && res == nil {
		err = errors.New("backend returned no result")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stale(epoch) {
		return
	}
	if err != nil {
		slog.Warn("submission failed", "module", c.opts.Module, "exercise", sub.ExerciseID, "error", err)
		_ = c.machine.SubmitFailed(err)
	} else {
		_ = c.machine.SubmitSucceeded(res)
		c.stopPlayerLocked()
	}
	c.publishLocked()
}

// Retry discards the shown result and starts a fresh attempt on the
// same exercise. Listen playback restarts from the beginning.
func (c *Controller) Retry() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if err := c.machine.Retry(); err != nil {
		return err
	}
	c.releaseCaptureLocked()
	c.stopPlayerLocked()
	c.startPlayerLocked()
	c.publishLocked()
	return nil
}

// AwaitPlayback blocks until listen playback completes or the context
// is done. It returns immediately when there is nothing playing.
func (c *Controller) AwaitPlayback(ctx context.Context) error {
	c.mu.Lock()
	p := c.player
	c.mu.Unlock()
	if p == nil {
		return nil
	}
	select {
	case <-p.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close abandons the flow. Outstanding responses are dropped, any live
// capture is released and playback stops.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.epoch++
	c.releaseCaptureLocked()
	c.stopPlayerLocked()
}

func (c *Controller) releaseCaptureLocked() {
	if c.capture != nil {
		c.capture.Release()
		c.capture = nil
	}
}

func (c *Controller) stopPlayerLocked() {
	if c.player != nil {
		c.player.Stop()
		c.player = nil
	}
}

func (c *Controller) startPlayerLocked() {
	ex := c.machine.Exercise()
	if ex == nil || ex.Module != model.ModuleListen || ex.Duration <= 0 {
		return
	}
	p := playback.NewPlayer(c.opts.Clock, time.Duration(ex.Duration)*time.Second, c.opts.Speed)
	c.player = p
	p.Start()
	go c.watchPlayback(p)
}

// watchPlayback turns the player's completion into a machine signal,
// unless the player was replaced or the controller closed in between.
func (c *Controller) watchPlayback(p *playback.Player) {
	<-p.Done()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.player != p || !p.Finished() {
		return
	}
	c.machine.PlaybackFinished()
	c.publishLocked()
}
