package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"
)

// CommandRecorder shells out to an external capture program (sox,
// arecord, ffmpeg, parecord, ...) and buffers its stdout until the
// capture is stopped.
type CommandRecorder struct {
	Command string
	Args    []string
	MIME    string
}

// Start launches the capture command. It fails with ErrUnavailable when
// no command is configured or the binary is not on PATH.
func (r *CommandRecorder) Start(ctx context.Context) (Capture, error) {
	if r.Command == "" {
		return nil, ErrUnavailable
	}
	if _, err := exec.LookPath(r.Command); err != nil {
		return nil, fmt.Errorf("%w: %s not found", ErrUnavailable, r.Command)
	}
	cmd := exec.CommandContext(ctx, r.Command, r.Args...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", r.Command, err)
	}
	mime := r.MIME
	if mime == "" {
		mime = "audio/wav"
	}
	return &commandCapture{cmd: cmd, buf: &buf, mime: mime, began: time.Now()}, nil
}

type commandCapture struct {
	cmd   *exec.Cmd
	buf   *bytes.Buffer
	mime  string
	began time.Time

	mu       sync.Mutex
	finished bool
}

func (c *commandCapture) Stop() (Artifact, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.finished {
		return Artifact{}, errors.New("capture already finished")
	}
	c.finished = true
	// Interrupt lets the program flush its container format before
	// exiting; kill is the fallback for programs that ignore it.
	if err := c.cmd.Process.Signal(os.Interrupt); err != nil {
		_ = c.cmd.Process.Kill()
	}
	_ = c.cmd.Wait()
	data := append([]byte(nil), c.buf.Bytes()...)
	return Artifact{Data: data, MIME: c.mime, Duration: time.Since(c.began)}, nil
}

func (c *commandCapture) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.finished {
		return
	}
	c.finished = true
	_ = c.cmd.Process.Kill()
	_ = c.cmd.Wait()
}
