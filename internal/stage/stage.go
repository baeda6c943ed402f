// Package stage defines the hiring pipeline state machine for
// applications.
//
// Stage graph:
//
//	new ──► reviewed ──► interview ──► hired
//	 │          │             │
//	 └──────────┴─────────────┴──────► rejected
//
// hired and rejected are terminal. Self-transitions are legal
// everywhere and produce no state change.
package stage

import "fmt"

// Stage represents the lifecycle state of an application in the
// hiring pipeline. These values must match the text values the
// upstream ATS reports.
//
// Centralizing these here avoids scattering string literals like
// "reviewed" or "hired" across packages.
type Stage string

const (
	New       Stage = "new"
	Reviewed  Stage = "reviewed"
	Interview Stage = "interview"
	Hired     Stage = "hired"
	Rejected  Stage = "rejected"
)

// chain is the advancing order used for Kanban columns and stepper
// indices. Rejected is deliberately absent: it is rendered as a side
// column, not a chain position.
var chain = []Stage{New, Reviewed, Interview, Hired}

// next maps each stage to its immediate successor on the advancing
// chain. Terminal stages have no entry.
var next = map[Stage]Stage{
	New:       Reviewed,
	Reviewed:  Interview,
	Interview: Hired,
}

// TransitionError reports an attempt to move an application along an
// edge the stage graph does not contain.
type TransitionError struct {
	From Stage
	To   Stage
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal transition %s -> %s", e.From, e.To)
}

// Parse converts a raw string to a Stage, returning an error for
// unknown values.
func Parse(s string) (Stage, error) {
	st := Stage(s)
	switch st {
	case New, Reviewed, Interview, Hired, Rejected:
		return st, nil
	}
	return "", fmt.Errorf("unknown stage %q", s)
}

// IsTerminal reports whether no transition out of s is legal.
func IsTerminal(s Stage) bool {
	return s == Hired || s == Rejected
}

// IsLegalTransition reports whether moving from -> to is permitted:
// the immediate successor on the advancing chain, a move into
// rejected from any non-terminal stage, or a self-transition.
func IsLegalTransition(from, to Stage) bool {
	if from == to {
		return true
	}
	if to == Rejected {
		return !IsTerminal(from)
	}
	return next[from] == to
}

// CheckTransition returns a *TransitionError when from -> to is not
// permitted, nil otherwise.
func CheckTransition(from, to Stage) error {
	if !IsLegalTransition(from, to) {
		return &TransitionError{From: from, To: to}
	}
	return nil
}

// Index returns the position of s on the advancing chain, used for
// column ordering and stepper rendering. Rejected (and any unknown
// value) returns -1.
func Index(s Stage) int {
	for i, c := range chain {
		if c == s {
			return i
		}
	}
	return -1
}

// Chain returns the advancing stages in display order, excluding
// rejected.
func Chain() []Stage {
	out := make([]Stage, len(chain))
	copy(out, chain)
	return out
}

// All returns every stage, advancing chain first, rejected last.
func All() []Stage {
	return append(Chain(), Rejected)
}
