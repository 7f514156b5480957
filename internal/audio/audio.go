// Package audio provides microphone capture for speaking practice.
//
// A Recorder hands out Capture handles. Every handle must be finished
// with Stop or Release; Release after Stop is a no-op, so callers can
// release unconditionally on every exit path.
package audio

import (
	"context"
	"encoding/base64"
	"errors"
	"time"
)

// ErrUnavailable reports that no capture device or capture command is
// usable on this system.
var ErrUnavailable = errors.New("audio capture unavailable")

// Artifact is a finished recording.
type Artifact struct {
	Data     []byte
	MIME     string
	Duration time.Duration
}

// Transport returns the payload in the base64 form the submission API
// expects.
func (a Artifact) Transport() string {
	return base64.StdEncoding.EncodeToString(a.Data)
}

// Empty reports whether the artifact holds no audio.
func (a Artifact) Empty() bool { return len(a.Data) == 0 }

// Capture is a single in-progress recording.
type Capture interface {
	// Stop ends the recording and returns the captured artifact.
	Stop() (Artifact, error)
	// Release discards the recording and frees the underlying device.
	// Safe to call after Stop and safe to call more than once.
	Release()
}

// Recorder starts recordings.
type Recorder interface {
	Start(ctx context.Context) (Capture, error)
}
