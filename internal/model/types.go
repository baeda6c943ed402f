package model

import (
	"time"

	"talentboard/internal/stage"
)

// Note is one append-only annotation on an application. Notes are
// never edited or deleted once written.
type Note struct {
	Text       string    `json:"text"`
	AuthoredAt time.Time `json:"authoredAt"`
}

// Application is one candidate's tracked relationship to one job
// posting. IDs are opaque strings owned by the upstream ATS.
type Application struct {
	ID               string      `json:"id"`
	JobID            string      `json:"jobId"`
	CandidateName    string      `json:"candidateName"`
	CandidateEmail   string      `json:"candidateEmail"`
	Stage            stage.Stage `json:"stage"`
	ExperienceYears  float64     `json:"experienceYears"`
	AppliedAt        time.Time   `json:"appliedAt"`
	LastTransitionAt time.Time   `json:"lastTransitionAt"`
	Tags             []string    `json:"tags,omitempty"`
	Notes            []Note      `json:"notes,omitempty"`

	// PendingOperation marks an in-flight mutation awaiting upstream
	// confirmation. It is local bookkeeping for the optimistic UI and
	// is never persisted.
	PendingOperation bool `json:"pendingOperation,omitempty"`
}

// Clone returns a deep copy so a caller can hold a snapshot that the
// store's later mutations cannot reach.
func (a Application) Clone() Application {
	out := a
	if a.Tags != nil {
		out.Tags = make([]string, len(a.Tags))
		copy(out.Tags, a.Tags)
	}
	if a.Notes != nil {
		out.Notes = make([]Note, len(a.Notes))
		copy(out.Notes, a.Notes)
	}
	return out
}

// HasTag reports whether the application carries the given tag.
func (a Application) HasTag(tag string) bool {
	for _, t := range a.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// AddTags returns the tag list extended with the given tags,
// suppressing duplicates. The receiver is not mutated.
func (a Application) AddTags(tags []string) []string {
	out := make([]string, len(a.Tags), len(a.Tags)+len(tags))
	copy(out, a.Tags)
	for _, t := range tags {
		dup := false
		for _, existing := range out {
			if existing == t {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, t)
		}
	}
	return out
}

// Patch is a partial update applied to an application during an
// optimistic mutation. Nil fields are left untouched.
type Patch struct {
	Stage            *stage.Stage
	Tags             []string
	PendingOperation *bool
	LastTransitionAt *time.Time
	AppendNote       *Note
}

// Apply writes the non-nil fields of the patch onto the application.
// LastTransitionAt is monotone: an older timestamp never overwrites a
// newer one.
func (p Patch) Apply(a *Application) {
	if p.Stage != nil {
		a.Stage = *p.Stage
	}
	if p.Tags != nil {
		a.Tags = p.Tags
	}
	if p.PendingOperation != nil {
		a.PendingOperation = *p.PendingOperation
	}
	if p.LastTransitionAt != nil && p.LastTransitionAt.After(a.LastTransitionAt) {
		a.LastTransitionAt = *p.LastTransitionAt
	}
	if p.AppendNote != nil {
		a.Notes = append(a.Notes, *p.AppendNote)
	}
}

// Bool is a convenience for building Patch pointer fields.
func Bool(v bool) *bool { return &v }

// StagePtr is a convenience for building Patch pointer fields.
func StagePtr(s stage.Stage) *stage.Stage { return &s }

// TimePtr is a convenience for building Patch pointer fields.
func TimePtr(t time.Time) *time.Time { return &t }
