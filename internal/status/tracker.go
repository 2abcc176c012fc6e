// internal/status/tracker.go
package status

import "errors"

// Tracker owns the runtime state of one node status block.
// It is not safe for concurrent use; a single orchestrator goroutine drives it.
type Tracker struct {
	snap Snapshot
}

// NewTracker returns a tracker in the boot state.
func NewTracker() *Tracker {
	return &Tracker{snap: Snapshot{Health: HealthUnknown}}
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() Snapshot { return t.snap }

// Observe folds one poll outcome into the state.
// It reports whether the snapshot changed.
// SecondsInError is never incremented here.
func (t *Tracker) Observe(err error) bool {
	next := t.snap

	if err == nil {
		next.Health = HealthOK
		next.LastErrorCode = 0
		next.SecondsInError = 0
	} else {
		next.Health = HealthError
		next.LastErrorCode = ErrorCode(err)
	}

	changed := next != t.snap
	t.snap = next
	return changed
}

// Tick advances SecondsInError by one while the node is not OK.
// The counter saturates at SecondsInErrorMax.
// It reports whether the snapshot changed.
func (t *Tracker) Tick() bool {
	if t.snap.Health == HealthOK {
		return false
	}
	if t.snap.SecondsInError >= SecondsInErrorMax {
		return false
	}
	t.snap.SecondsInError++
	return true
}

// ErrorCode extracts a best-effort uint16 code from an error without assuming concrete types.
// If the error does not expose a code, returns 1 (generic error).
func ErrorCode(err error) uint16 {
	if err == nil {
		return 0
	}

	type coderA interface{ Code() uint16 }
	type coderB interface{ ErrorCode() uint16 }

	var a coderA
	if errors.As(err, &a) {
		return a.Code()
	}
	var b coderB
	if errors.As(err, &b) {
		return b.ErrorCode()
	}

	return 1
}
