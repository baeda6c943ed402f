// Package services implements the mutation paths of the pipeline
// engine: the single-item transition controller and the bulk
// orchestrator. Both follow the same discipline: validate locally,
// apply an optimistic patch to the store, confirm with the upstream
// ATS, then commit or revert.
package services

import (
	"context"
	"log/slog"
	"time"

	"talentboard/internal/backend"
	"talentboard/internal/metrics"
	"talentboard/internal/model"
	"talentboard/internal/stage"
	"talentboard/internal/store"
)

// TransitionService moves exactly one application to a target stage,
// whether the dashboard triggered it with a button or a drag-drop.
type TransitionService interface {
	RequestTransition(ctx context.Context, applicationID string, target stage.Stage) (model.Application, error)
}

type transitionService struct {
	api     backend.API
	st      *store.Store
	logger  *slog.Logger
	timeout time.Duration
}

// NewTransitionService constructs a TransitionService. timeout bounds
// the upstream confirmation call; a timeout takes the revert path
// exactly like an explicit upstream rejection.
func NewTransitionService(api backend.API, st *store.Store, logger *slog.Logger, timeout time.Duration) TransitionService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &transitionService{api: api, st: st, logger: logger, timeout: timeout}
}

func (s *transitionService) RequestTransition(ctx context.Context, applicationID string, target stage.Stage) (model.Application, error) {
	current, err := s.st.Get(applicationID)
	if err != nil {
		return model.Application{}, err
	}

	// Validation happens before any store mutation or network call.
	if err := stage.CheckTransition(current.Stage, target); err != nil {
		metrics.RecordTransition(string(target), metrics.OutcomeRejected)
		return model.Application{}, err
	}

	// Self-transitions are legal no-ops: nothing to patch, nothing to
	// confirm upstream.
	if current.Stage == target {
		return current, nil
	}

	snap, err := s.st.ApplyLocalPatch(applicationID, model.Patch{
		Stage:            model.StagePtr(target),
		PendingOperation: model.Bool(true),
	})
	if err != nil {
		return model.Application{}, err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	updated, err := s.api.UpdateApplicationStatus(callCtx, applicationID, target)
	if err != nil {
		if revertErr := s.st.Revert(applicationID, snap); revertErr != nil {
			s.logger.Error("revert after failed transition",
				"application_id", applicationID, "error", revertErr)
		}
		metrics.RecordTransition(string(target), metrics.OutcomeRolledBack)
		s.logger.Warn("transition rolled back",
			"application_id", applicationID,
			"from", string(snap.Stage),
			"to", string(target),
			"error", err)
		return model.Application{}, err
	}

	commit := model.Patch{
		PendingOperation: model.Bool(false),
		LastTransitionAt: model.TimePtr(time.Now().UTC()),
	}
	if updated != nil && !updated.LastTransitionAt.IsZero() {
		commit.LastTransitionAt = model.TimePtr(updated.LastTransitionAt)
	}
	if err := s.st.Commit(applicationID, commit); err != nil {
		return model.Application{}, err
	}

	metrics.RecordTransition(string(target), metrics.OutcomeCommitted)
	s.logger.Info("transition committed",
		"application_id", applicationID,
		"from", string(snap.Stage),
		"to", string(target))

	return s.st.Get(applicationID)
}
