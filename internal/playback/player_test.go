package playback

import (
	"testing"
	"time"
)

func newTestPlayer(t *testing.T, duration time.Duration, speed float64) (*Player, *ManualClock) {
	t.Helper()
	clock := NewManualClock(time.Unix(1700000000, 0))
	p := NewPlayer(clock, duration, speed)
	p.Start()
	return p, clock
}

func TestPlayerProgressAndCompletion(t *testing.T) {
	p, clock := newTestPlayer(t, 60*time.Second, 1.0)

	clock.Advance(59 * time.Second)
	if p.Finished() {
		t.Fatal("finished after 59s of 60s content")
	}
	if got := p.Position(); got != 59*time.Second {
		t.Errorf("Position = %v, want 59s", got)
	}

	clock.Advance(1 * time.Second)
	if !p.Finished() {
		t.Fatal("not finished after full duration")
	}
	if got := p.Position(); got != 60*time.Second {
		t.Errorf("Position = %v, want 60s", got)
	}

	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Done did not close after completion")
	}
}

func TestPlayerSpeedMultiplier(t *testing.T) {
	tests := []struct {
		name     string
		speed    float64
		advance  time.Duration
		finished bool
		position time.Duration
	}{
		{"1.5x partway", 1.5, 30 * time.Second, false, 45 * time.Second},
		{"1.5x complete", 1.5, 40 * time.Second, true, 60 * time.Second},
		{"2x complete", 2.0, 30 * time.Second, true, 60 * time.Second},
		{"0.5x partway", 0.5, 60 * time.Second, false, 30 * time.Second},
		{"defaulted speed", 0, 60 * time.Second, true, 60 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, clock := newTestPlayer(t, 60*time.Second, tt.speed)
			clock.Advance(tt.advance)
			if got := p.Finished(); got != tt.finished {
				t.Errorf("Finished = %v, want %v", got, tt.finished)
			}
			if got := p.Position(); got != tt.position {
				t.Errorf("Position = %v, want %v", got, tt.position)
			}
		})
	}
}

func TestPlayerStopFreezesPosition(t *testing.T) {
	p, clock := newTestPlayer(t, 60*time.Second, 1.0)

	clock.Advance(10 * time.Second)
	p.Stop()
	p.Stop() // idempotent

	clock.Advance(100 * time.Second)
	if p.Finished() {
		t.Error("stopped player reports finished")
	}
	if got := p.Position(); got != 10*time.Second {
		t.Errorf("Position after stop = %v, want 10s", got)
	}

	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Done did not close after Stop")
	}
}

func TestManualClockFiresDueTimers(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	early := clock.NewTimer(5 * time.Second)
	late := clock.NewTimer(20 * time.Second)

	clock.Advance(10 * time.Second)
	select {
	case <-early.C():
	default:
		t.Error("timer due at 5s did not fire by 10s")
	}
	select {
	case <-late.C():
		t.Error("timer due at 20s fired at 10s")
	default:
	}

	late.Stop()
	clock.Advance(20 * time.Second)
	select {
	case <-late.C():
		t.Error("stopped timer fired")
	default:
	}
}
