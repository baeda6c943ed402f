package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"talentboard/internal/backend"
	"talentboard/internal/model"
	"talentboard/internal/stage"
	"talentboard/internal/store"
)

// fakeAPI is a scriptable backend.API: per-ID errors simulate partial
// upstream failure, and call recording lets tests assert that
// validation failures never reach the network.
type fakeAPI struct {
	mu          sync.Mutex
	apps        []model.Application
	failStatus  map[string]error
	failTag     map[string]error
	failDelete  map[string]error
	failEmail   map[string]error
	statusCalls []string
	emailCalls  []string
	block       time.Duration
}

func (f *fakeAPI) FetchApplications(ctx context.Context, jobID string) ([]model.Application, error) {
	return f.apps, nil
}

func (f *fakeAPI) UpdateApplicationStatus(ctx context.Context, id string, s stage.Stage) (*model.Application, error) {
	if f.block > 0 {
		select {
		case <-time.After(f.block):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	f.statusCalls = append(f.statusCalls, id)
	err := f.failStatus[id]
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return &model.Application{ID: id, Stage: s}, nil
}

func (f *fakeAPI) TagApplication(ctx context.Context, id string, tags []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failTag[id]
}

func (f *fakeAPI) DeleteApplication(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failDelete[id]
}

func (f *fakeAPI) SendEmail(ctx context.Context, id, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emailCalls = append(f.emailCalls, id)
	return f.failEmail[id]
}

func (f *fakeAPI) Ping(ctx context.Context) error { return nil }

func (f *fakeAPI) statusCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.statusCalls)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T, apps ...model.Application) (*fakeAPI, *store.Store) {
	t.Helper()
	api := &fakeAPI{
		apps:       apps,
		failStatus: map[string]error{},
		failTag:    map[string]error{},
		failDelete: map[string]error{},
		failEmail:  map[string]error{},
	}
	st := store.New(api)
	if _, err := st.Load(context.Background(), "job-1"); err != nil {
		t.Fatalf("seed load: %v", err)
	}
	return api, st
}

func appAt(id string, s stage.Stage) model.Application {
	return model.Application{ID: id, JobID: "job-1", CandidateName: "Candidate " + id, Stage: s}
}

func TestTransitionCommit(t *testing.T) {
	api, st := newFixture(t, appAt("c1", stage.Interview))
	svc := NewTransitionService(api, st, testLogger(), time.Second)

	before, _ := st.Get("c1")
	got, err := svc.RequestTransition(context.Background(), "c1", stage.Hired)
	if err != nil {
		t.Fatalf("RequestTransition error: %v", err)
	}
	if got.Stage != stage.Hired || got.PendingOperation {
		t.Fatalf("expected committed hired stage, got %+v", got)
	}
	if !got.LastTransitionAt.After(before.LastTransitionAt) {
		t.Fatal("lastTransitionAt must advance on commit")
	}

	stored, _ := st.Get("c1")
	if stored.Stage != stage.Hired || stored.PendingOperation {
		t.Fatalf("store out of sync: %+v", stored)
	}
}

func TestTransitionRollback(t *testing.T) {
	api, st := newFixture(t, appAt("c1", stage.Interview))
	api.failStatus["c1"] = errors.New("upstream rejected")
	svc := NewTransitionService(api, st, testLogger(), time.Second)

	_, err := svc.RequestTransition(context.Background(), "c1", stage.Hired)
	if err == nil {
		t.Fatal("expected error")
	}

	stored, _ := st.Get("c1")
	if stored.Stage != stage.Interview {
		t.Fatalf("stage must revert to pre-operation value, got %s", stored.Stage)
	}
	if stored.PendingOperation {
		t.Fatal("pendingOperation must clear on rollback")
	}
}

func TestIllegalTransitionMakesNoCall(t *testing.T) {
	api, st := newFixture(t, appAt("c2", stage.New))
	svc := NewTransitionService(api, st, testLogger(), time.Second)

	// Direct-hire skips the chain and is illegal.
	_, err := svc.RequestTransition(context.Background(), "c2", stage.Hired)
	var te *stage.TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("expected *stage.TransitionError, got %v", err)
	}
	if te.From != stage.New || te.To != stage.Hired {
		t.Fatalf("unexpected detail: %+v", te)
	}
	if api.statusCallCount() != 0 {
		t.Fatal("validation failure must not reach the network")
	}

	stored, _ := st.Get("c2")
	if stored.Stage != stage.New || stored.PendingOperation {
		t.Fatalf("no mutation expected, got %+v", stored)
	}
}

func TestSelfTransitionIsNoOp(t *testing.T) {
	api, st := newFixture(t, appAt("c1", stage.Reviewed))
	svc := NewTransitionService(api, st, testLogger(), time.Second)

	got, err := svc.RequestTransition(context.Background(), "c1", stage.Reviewed)
	if err != nil {
		t.Fatalf("self-transition must be legal: %v", err)
	}
	if got.Stage != stage.Reviewed {
		t.Fatalf("unexpected stage %s", got.Stage)
	}
	if api.statusCallCount() != 0 {
		t.Fatal("no-op must not call upstream")
	}
}

func TestReentrancyGuard(t *testing.T) {
	api, st := newFixture(t, appAt("c1", stage.New))
	svc := NewTransitionService(api, st, testLogger(), time.Second)

	// Mark the application pending, as if a first drag were awaiting
	// upstream confirmation.
	if _, err := st.ApplyLocalPatch("c1", model.Patch{PendingOperation: model.Bool(true)}); err != nil {
		t.Fatalf("arrange pending: %v", err)
	}

	_, err := svc.RequestTransition(context.Background(), "c1", stage.Reviewed)
	if !errors.Is(err, store.ErrOperationInProgress) {
		t.Fatalf("expected ErrOperationInProgress, got %v", err)
	}
	if api.statusCallCount() != 0 {
		t.Fatal("guarded request must not reach the network")
	}

	stored, _ := st.Get("c1")
	if stored.Stage != stage.New {
		t.Fatalf("guarded request must not mutate, got %s", stored.Stage)
	}
}

func TestTimeoutTakesRevertPath(t *testing.T) {
	api, st := newFixture(t, appAt("c1", stage.New))
	api.block = 500 * time.Millisecond
	svc := NewTransitionService(api, st, testLogger(), 20*time.Millisecond)

	_, err := svc.RequestTransition(context.Background(), "c1", stage.Reviewed)
	if err == nil {
		t.Fatal("expected timeout error")
	}

	stored, _ := st.Get("c1")
	if stored.Stage != stage.New || stored.PendingOperation {
		t.Fatalf("timeout must resolve to rolled back, got %+v", stored)
	}
}

func TestTransitionUnknownApplication(t *testing.T) {
	api, st := newFixture(t)
	svc := NewTransitionService(api, st, testLogger(), time.Second)

	_, err := svc.RequestTransition(context.Background(), "ghost", stage.Reviewed)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

var _ backend.API = (*fakeAPI)(nil)
