// Package filter computes the visible subset of a candidate snapshot.
// Everything here is a pure function of its inputs so the same
// snapshot and criteria always produce the same ordered list, which
// keeps re-filtering stable and the card order from jumping.
package filter

import (
	"sort"
	"strings"
	"time"

	"talentboard/internal/model"
	"talentboard/internal/stage"
)

// DateRange restricts matches to applications received inside a
// preset window ending at the evaluation time.
type DateRange string

const (
	RangeAll     DateRange = "all"
	RangeToday   DateRange = "today"
	RangeWeek    DateRange = "week"
	RangeMonth   DateRange = "month"
	RangeQuarter DateRange = "quarter"
)

// StageAll disables stage filtering.
const StageAll = "all"

// Criteria is one set of filter inputs. Categories combine with AND;
// within Tags a single match is enough (OR).
type Criteria struct {
	Text           string
	Stage          string
	Tags           []string
	ExperienceMin  *float64
	ExperienceMax  *float64
	DateRange      DateRange
}

// Matches reports whether one application satisfies every criterion.
// now anchors the DateRange window.
func Matches(a model.Application, c Criteria, now time.Time) bool {
	if c.Stage != "" && c.Stage != StageAll && string(a.Stage) != c.Stage {
		return false
	}

	if text := strings.TrimSpace(strings.ToLower(c.Text)); text != "" {
		if !matchesText(a, text) {
			return false
		}
	}

	if len(c.Tags) > 0 {
		found := false
		for _, t := range c.Tags {
			if a.HasTag(t) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if c.ExperienceMin != nil && a.ExperienceYears < *c.ExperienceMin {
		return false
	}
	if c.ExperienceMax != nil && a.ExperienceYears > *c.ExperienceMax {
		return false
	}

	if !withinRange(a.AppliedAt, c.DateRange, now) {
		return false
	}

	return true
}

func matchesText(a model.Application, lowered string) bool {
	if strings.Contains(strings.ToLower(a.CandidateName), lowered) {
		return true
	}
	if strings.Contains(strings.ToLower(a.CandidateEmail), lowered) {
		return true
	}
	for _, t := range a.Tags {
		if strings.Contains(strings.ToLower(t), lowered) {
			return true
		}
	}
	return false
}

func withinRange(appliedAt time.Time, r DateRange, now time.Time) bool {
	var cutoff time.Time
	switch r {
	case "", RangeAll:
		return true
	case RangeToday:
		y, m, d := now.Date()
		cutoff = time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	case RangeWeek:
		cutoff = now.AddDate(0, 0, -7)
	case RangeMonth:
		cutoff = now.AddDate(0, -1, 0)
	case RangeQuarter:
		cutoff = now.AddDate(0, -3, 0)
	default:
		return true
	}
	return !appliedAt.Before(cutoff)
}

// Visible returns the applications matching the criteria, ordered by
// appliedAt descending with ties broken by ID ascending. The input
// snapshot is not mutated.
func Visible(snapshot []model.Application, c Criteria, now time.Time) []model.Application {
	out := make([]model.Application, 0, len(snapshot))
	for _, a := range snapshot {
		if Matches(a, c, now) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].AppliedAt.Equal(out[j].AppliedAt) {
			return out[i].AppliedAt.After(out[j].AppliedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// VisibleIDs is Visible reduced to IDs, for select-all.
func VisibleIDs(snapshot []model.Application, c Criteria, now time.Time) []string {
	apps := Visible(snapshot, c, now)
	out := make([]string, len(apps))
	for i, a := range apps {
		out[i] = a.ID
	}
	return out
}

// ParseStageCriterion validates the stage criterion value, accepting
// "all", "", or any known stage.
func ParseStageCriterion(raw string) (string, error) {
	if raw == "" || raw == StageAll {
		return StageAll, nil
	}
	st, err := stage.Parse(raw)
	if err != nil {
		return "", err
	}
	return string(st), nil
}

// ParseDateRange validates a date-range preset, defaulting to all.
func ParseDateRange(raw string) (DateRange, bool) {
	switch DateRange(raw) {
	case "", RangeAll:
		return RangeAll, true
	case RangeToday, RangeWeek, RangeMonth, RangeQuarter:
		return DateRange(raw), true
	default:
		return "", false
	}
}
