package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"talentboard/internal/model"
	"talentboard/internal/stage"
)

func TestFetchApplications(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/jobs/job-1/applications" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"applications": []model.Application{
				{ID: "a1", JobID: "job-1", Stage: stage.New},
				{ID: "a2", JobID: "job-1", Stage: stage.Interview},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", 2*time.Second)
	apps, err := c.FetchApplications(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("FetchApplications error: %v", err)
	}
	if len(apps) != 2 || apps[0].ID != "a1" || apps[1].Stage != stage.Interview {
		t.Fatalf("unexpected applications: %+v", apps)
	}
}

func TestFetchApplicationsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{"success": false, "code": "INTERNAL_ERROR", "error": "boom"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	_, err := c.FetchApplications(context.Background(), "job-1")
	if err == nil {
		t.Fatal("expected error")
	}
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T", err)
	}
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusInternalServerError || se.Code != "INTERNAL_ERROR" {
		t.Fatalf("expected wrapped *StatusError, got %v", err)
	}
}

func TestUpdateApplicationStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/v1/applications/a1/status" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["status"] != "reviewed" {
			t.Errorf("unexpected body %+v", body)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success":     true,
			"application": model.Application{ID: "a1", Stage: stage.Reviewed},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	app, err := c.UpdateApplicationStatus(context.Background(), "a1", stage.Reviewed)
	if err != nil {
		t.Fatalf("UpdateApplicationStatus error: %v", err)
	}
	if app == nil || app.Stage != stage.Reviewed {
		t.Fatalf("unexpected application: %+v", app)
	}
}

func TestUpdateApplicationStatusRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]any{"success": false, "code": "CONFLICT", "error": "stale record"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	_, err := c.UpdateApplicationStatus(context.Background(), "a1", stage.Reviewed)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if se.StatusCode != http.StatusConflict || se.Message != "stale record" {
		t.Fatalf("unexpected status error: %+v", se)
	}
}

func TestDeleteApplication(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	if err := c.DeleteApplication(context.Background(), "a9"); err != nil {
		t.Fatalf("DeleteApplication error: %v", err)
	}
	if gotPath != "DELETE /v1/applications/a9" {
		t.Fatalf("unexpected request: %s", gotPath)
	}
}

func TestTimeoutIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 20*time.Millisecond)
	if err := c.SendEmail(context.Background(), "a1", "s", "b"); err == nil {
		t.Fatal("expected timeout error")
	}
}
