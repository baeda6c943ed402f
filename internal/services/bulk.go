package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"talentboard/internal/backend"
	"talentboard/internal/metrics"
	"talentboard/internal/model"
	"talentboard/internal/stage"
	"talentboard/internal/store"
)

// Action is one of the operations a bulk run can apply to every
// selected application.
type Action string

const (
	ActionStatusChange Action = "status-change"
	ActionTag          Action = "tag"
	ActionEmail        Action = "email"
	ActionDelete       Action = "delete"
)

// ParseAction validates a raw action string.
func ParseAction(raw string) (Action, error) {
	a := Action(raw)
	switch a {
	case ActionStatusChange, ActionTag, ActionEmail, ActionDelete:
		return a, nil
	}
	return "", fmt.Errorf("unknown bulk action %q", raw)
}

// BulkRequest carries one bulk invocation. IDs are snapshotted by the
// caller at invocation time; later selection changes do not affect a
// run already in flight.
type BulkRequest struct {
	Action      Action
	IDs         []string
	TargetStage stage.Stage // status-change
	Tags        []string    // tag
	Subject     string      // email
	Body        string      // email
}

// ItemOutcome names one application excluded from or failed by a
// bulk run, with enough detail for the recruiter to act on it.
type ItemOutcome struct {
	ID            string `json:"id"`
	CandidateName string `json:"candidateName,omitempty"`
	Reason        string `json:"reason"`
}

// BulkSummary is the complete per-item accounting of one bulk run.
// Partial failure is reported here as a value, never as an error:
// the orchestrator always returns a summary, even when every item
// failed.
type BulkSummary struct {
	OperationID string        `json:"operationId"`
	Action      Action        `json:"action"`
	Total       int           `json:"total"`
	Succeeded   []string      `json:"succeeded"`
	Failed      []ItemOutcome `json:"failed"`
	Skipped     []ItemOutcome `json:"skipped"`
}

// BulkService applies one action to many applications with per-item
// isolation: each application gets its own upstream request and its
// own commit-or-revert, so one failure never rolls back its siblings.
type BulkService interface {
	Run(ctx context.Context, req BulkRequest) (BulkSummary, error)
}

type bulkService struct {
	api           backend.API
	st            *store.Store
	logger        *slog.Logger
	maxConcurrent int
	itemTimeout   time.Duration
}

// NewBulkService constructs a BulkService. maxConcurrent bounds the
// upstream fan-out; itemTimeout bounds each per-item call.
func NewBulkService(api backend.API, st *store.Store, logger *slog.Logger, maxConcurrent int, itemTimeout time.Duration) BulkService {
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}
	if itemTimeout <= 0 {
		itemTimeout = 10 * time.Second
	}
	return &bulkService{api: api, st: st, logger: logger, maxConcurrent: maxConcurrent, itemTimeout: itemTimeout}
}

func (s *bulkService) Run(ctx context.Context, req BulkRequest) (BulkSummary, error) {
	if _, err := ParseAction(string(req.Action)); err != nil {
		return BulkSummary{}, err
	}

	summary := BulkSummary{
		OperationID: uuid.New().String(),
		Action:      req.Action,
		Total:       len(req.IDs),
		Succeeded:   []string{},
		Failed:      []ItemOutcome{},
		Skipped:     []ItemOutcome{},
	}

	// Snapshot of the ID list so a caller mutating its slice cannot
	// affect the run.
	ids := make([]string, len(req.IDs))
	copy(ids, req.IDs)

	// Pre-validation: exclusions are reported, never silently dropped.
	runnable := make([]string, 0, len(ids))
	var mu sync.Mutex
	for _, id := range ids {
		current, err := s.st.Get(id)
		if err != nil {
			summary.Skipped = append(summary.Skipped, ItemOutcome{ID: id, Reason: "not found in loaded candidate set"})
			continue
		}
		if req.Action == ActionStatusChange {
			if current.Stage == req.TargetStage {
				summary.Skipped = append(summary.Skipped, ItemOutcome{
					ID:            id,
					CandidateName: current.CandidateName,
					Reason:        fmt.Sprintf("already in stage %s", req.TargetStage),
				})
				continue
			}
			if err := stage.CheckTransition(current.Stage, req.TargetStage); err != nil {
				summary.Skipped = append(summary.Skipped, ItemOutcome{
					ID:            id,
					CandidateName: current.CandidateName,
					Reason:        err.Error(),
				})
				continue
			}
		}
		runnable = append(runnable, id)
	}

	// The batch must settle even if the caller walks away: dispatched
	// items keep their results flowing into the store, so the run is
	// detached from the caller's cancellation.
	batchCtx := context.WithoutCancel(ctx)

	g, _ := errgroup.WithContext(batchCtx)
	g.SetLimit(s.maxConcurrent)

	for _, id := range runnable {
		id := id
		g.Go(func() error {
			outcome := s.runItem(batchCtx, req, id)
			mu.Lock()
			defer mu.Unlock()
			if outcome == nil {
				summary.Succeeded = append(summary.Succeeded, id)
			} else {
				summary.Failed = append(summary.Failed, *outcome)
			}
			return nil
		})
	}
	// Item errors land in the summary, so Wait never returns one.
	_ = g.Wait()

	metrics.RecordBulk(string(req.Action), len(summary.Succeeded), len(summary.Failed), len(summary.Skipped))
	s.logger.Info("bulk operation settled",
		"operation_id", summary.OperationID,
		"action", string(req.Action),
		"total", summary.Total,
		"succeeded", len(summary.Succeeded),
		"failed", len(summary.Failed),
		"skipped", len(summary.Skipped))

	return summary, nil
}

// runItem applies the action to one application. A nil return means
// success; otherwise the outcome describes the failure.
func (s *bulkService) runItem(ctx context.Context, req BulkRequest, id string) *ItemOutcome {
	current, err := s.st.Get(id)
	if err != nil {
		return &ItemOutcome{ID: id, Reason: "removed before dispatch"}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.itemTimeout)
	defer cancel()

	switch req.Action {
	case ActionStatusChange:
		return s.statusChangeItem(callCtx, current, req.TargetStage)
	case ActionTag:
		return s.tagItem(callCtx, current, req.Tags)
	case ActionDelete:
		return s.deleteItem(callCtx, current)
	case ActionEmail:
		// Email sends nothing through the optimistic path: there is no
		// local state to patch or revert. A confirmed send is recorded
		// as an append-only note on the candidate.
		if err := s.api.SendEmail(callCtx, id, req.Subject, req.Body); err != nil {
			return &ItemOutcome{ID: id, CandidateName: current.CandidateName, Reason: err.Error()}
		}
		_ = s.st.Commit(id, model.Patch{
			AppendNote: &model.Note{
				Text:       "email sent: " + req.Subject,
				AuthoredAt: time.Now().UTC(),
			},
		})
		return nil
	default:
		return &ItemOutcome{ID: id, Reason: "unknown action"}
	}
}

func (s *bulkService) statusChangeItem(ctx context.Context, current model.Application, target stage.Stage) *ItemOutcome {
	snap, err := s.st.ApplyLocalPatch(current.ID, model.Patch{
		Stage:            model.StagePtr(target),
		PendingOperation: model.Bool(true),
	})
	if err != nil {
		return &ItemOutcome{ID: current.ID, CandidateName: current.CandidateName, Reason: err.Error()}
	}

	if _, err := s.api.UpdateApplicationStatus(ctx, current.ID, target); err != nil {
		s.revert(current.ID, snap)
		return &ItemOutcome{ID: current.ID, CandidateName: current.CandidateName, Reason: err.Error()}
	}

	_ = s.st.Commit(current.ID, model.Patch{
		PendingOperation: model.Bool(false),
		LastTransitionAt: model.TimePtr(time.Now().UTC()),
	})
	return nil
}

func (s *bulkService) tagItem(ctx context.Context, current model.Application, tags []string) *ItemOutcome {
	merged := current.AddTags(tags)
	snap, err := s.st.ApplyLocalPatch(current.ID, model.Patch{
		Tags:             merged,
		PendingOperation: model.Bool(true),
	})
	if err != nil {
		return &ItemOutcome{ID: current.ID, CandidateName: current.CandidateName, Reason: err.Error()}
	}

	if err := s.api.TagApplication(ctx, current.ID, tags); err != nil {
		s.revert(current.ID, snap)
		return &ItemOutcome{ID: current.ID, CandidateName: current.CandidateName, Reason: err.Error()}
	}

	_ = s.st.Commit(current.ID, model.Patch{PendingOperation: model.Bool(false)})
	return nil
}

func (s *bulkService) deleteItem(ctx context.Context, current model.Application) *ItemOutcome {
	// The pending flag reserves the record so no transition can race
	// the delete; the record only leaves the store once upstream
	// confirms.
	snap, err := s.st.ApplyLocalPatch(current.ID, model.Patch{PendingOperation: model.Bool(true)})
	if err != nil {
		return &ItemOutcome{ID: current.ID, CandidateName: current.CandidateName, Reason: err.Error()}
	}

	if err := s.api.DeleteApplication(ctx, current.ID); err != nil {
		s.revert(current.ID, snap)
		return &ItemOutcome{ID: current.ID, CandidateName: current.CandidateName, Reason: err.Error()}
	}

	_ = s.st.Remove(current.ID)
	return nil
}

func (s *bulkService) revert(id string, snap model.Application) {
	if err := s.st.Revert(id, snap); err != nil {
		s.logger.Error("revert after failed bulk item", "application_id", id, "error", err)
	}
}
