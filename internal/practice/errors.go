package practice

import (
	"errors"
	"fmt"
)

// FailKind says which asynchronous phase failed.
type FailKind string

const (
	FailFetch  FailKind = "fetch"
	FailSubmit FailKind = "submit"
)

// Failure is what the error phase reports: which phase failed and why.
// A submit failure keeps the attempt around, so the caller can offer a
// retry that resends exactly what was captured.
type Failure struct {
	Kind FailKind
	Err  error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s failed: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// ErrQuestionsLocked reports a strict-mode listen attempt trying to
// move to answering before playback completed.
var ErrQuestionsLocked = errors.New("questions locked until playback completes")

// ErrClosed reports an operation on a controller that was closed.
var ErrClosed = errors.New("practice flow closed")

// IncompleteError blocks a submission that still has missing inputs.
// Nothing reaches the backend while one of these is returned.
type IncompleteError struct {
	Missing int
}

func (e *IncompleteError) Error() string {
	if e.Missing == 1 {
		return "1 answer still missing"
	}
	return fmt.Sprintf("%d answers still missing", e.Missing)
}

// TransitionError reports an operation that is not legal in the
// current phase.
type TransitionError struct {
	Op    string
	Phase Phase
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s while %s", e.Op, e.Phase)
}
