package audio

import (
	"context"
	"errors"
	"sync"
)

// BufferRecorder returns a fixed artifact for every capture. It stands
// in for a real microphone in tests and in environments without a
// capture command configured.
type BufferRecorder struct {
	Artifact Artifact
	StartErr error
	StopErr  error

	mu       sync.Mutex
	started  int
	stopped  int
	released int
}

// Start hands out a capture backed by the configured artifact.
func (r *BufferRecorder) Start(ctx context.Context) (Capture, error) {
	if r.StartErr != nil {
		return nil, r.StartErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.started++
	r.mu.Unlock()
	return &bufferCapture{rec: r}, nil
}

// Counts reports how many captures were started, stopped and released.
func (r *BufferRecorder) Counts() (started, stopped, released int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started, r.stopped, r.released
}

type bufferCapture struct {
	rec      *BufferRecorder
	mu       sync.Mutex
	finished bool
	released bool
}

func (c *bufferCapture) Stop() (Artifact, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.finished {
		return Artifact{}, errors.New("capture already finished")
	}
	c.finished = true
	if c.rec.StopErr != nil {
		return Artifact{}, c.rec.StopErr
	}
	c.rec.mu.Lock()
	c.rec.stopped++
	c.rec.mu.Unlock()
	return c.rec.Artifact, nil
}

func (c *bufferCapture) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return
	}
	c.released = true
	c.finished = true
	c.rec.mu.Lock()
	c.rec.released++
	c.rec.mu.Unlock()
}
