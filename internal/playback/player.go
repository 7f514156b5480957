package playback

import (
	"sync"
	"time"
)

// Player plays simulated audio of a known duration. Position advances
// with the clock, scaled by the speed multiplier; Done closes when the
// content has fully played or the player is stopped, and Finished
// distinguishes the two.
type Player struct {
	clock    Clock
	duration time.Duration // content length at 1x
	speed    float64

	mu       sync.Mutex
	begun    bool
	started  time.Time
	playing  bool
	finished bool
	frozen   time.Duration // position at stop time
	stop     chan struct{}
	done     chan struct{}
}

// NewPlayer builds a player for content of the given duration. Speed
// values at or below zero fall back to 1x.
func NewPlayer(clock Clock, duration time.Duration, speed float64) *Player {
	if clock == nil {
		clock = SystemClock{}
	}
	if speed <= 0 {
		speed = 1.0
	}
	return &Player{
		clock:    clock,
		duration: duration,
		speed:    speed,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins playback from the start of the content. A player plays
// once; restarting after Stop has no effect.
func (p *Player) Start() {
	p.mu.Lock()
	if p.begun {
		p.mu.Unlock()
		return
	}
	p.begun = true
	p.playing = true
	p.started = p.clock.Now()
	remaining := time.Duration(float64(p.duration) / p.speed)
	p.mu.Unlock()

	go p.run(remaining)
}

func (p *Player) run(remaining time.Duration) {
	t := p.clock.NewTimer(remaining)
	select {
	case <-t.C():
		p.mu.Lock()
		p.finished = true
		p.playing = false
		p.mu.Unlock()
	case <-p.stop:
		t.Stop()
	}
	close(p.done)
}

// Position reports how much of the content has played, capped at the
// content duration.
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finished {
		return p.duration
	}
	if !p.playing {
		return p.frozen
	}
	pos := time.Duration(float64(p.clock.Now().Sub(p.started)) * p.speed)
	if pos > p.duration {
		pos = p.duration
	}
	if pos < 0 {
		pos = 0
	}
	return pos
}

// Finished reports whether the content played to the end.
func (p *Player) Finished() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finished {
		return true
	}
	if !p.playing {
		return false
	}
	return p.clock.Now().Sub(p.started) >= time.Duration(float64(p.duration)/p.speed)
}

// Duration returns the content length at 1x.
func (p *Player) Duration() time.Duration { return p.duration }

// Done closes when playback completes or is stopped.
func (p *Player) Done() <-chan struct{} { return p.done }

// Stop halts playback; the position freezes where it was. Stopping a
// finished or already stopped player is a no-op.
func (p *Player) Stop() {
	p.mu.Lock()
	if !p.playing || p.finished {
		p.mu.Unlock()
		return
	}
	p.playing = false
	pos := time.Duration(float64(p.clock.Now().Sub(p.started)) * p.speed)
	if pos > p.duration {
		pos = p.duration
	}
	p.frozen = pos
	p.mu.Unlock()
	close(p.stop)
}
