package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/terra-clan/event-portal/internal/models"
)

func TestAdminSubmissionsQuery(t *testing.T) {
	var query string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		w.Write([]byte(`{"submissions":[],"pagination":{"page":1,"limit":20,"total":0,"totalPages":0}}`))
	}))
	defer server.Close()

	portal := NewClient(server.URL, staticTokens{admin: "a-token"})
	_, err := portal.AdminSubmissions(context.Background(), AdminSubmissionFilter{
		Page:     2,
		Limit:    20,
		Status:   models.SubmissionPending,
		TaskType: models.TypeChallenge,
		Email:    " Ada@X.com ",
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	want := "email=ada%40x.com&limit=20&page=2&status=PENDING&taskType=CHALLENGE"
	if query != want {
		t.Errorf("query = %q, want %q", query, want)
	}
}

func TestAdminSubmissionsEmptyFilter(t *testing.T) {
	var rawQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		w.Write([]byte(`{"submissions":[],"pagination":{}}`))
	}))
	defer server.Close()

	portal := NewClient(server.URL, staticTokens{admin: "a-token"})
	if _, err := portal.AdminSubmissions(context.Background(), AdminSubmissionFilter{}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if rawQuery != "" {
		t.Errorf("query = %q, want zero fields omitted", rawQuery)
	}
}

func TestReviewSubmissionOmitsNilFields(t *testing.T) {
	var method, path string
	var body map[string]json.RawMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		json.NewDecoder(r.Body).Decode(&body)
		w.Write([]byte(`{"submission":{"id":"s1","status":"APPROVED"}}`))
	}))
	defer server.Close()

	status := models.SubmissionApproved
	portal := NewClient(server.URL, staticTokens{admin: "a-token"})
	reviewed, err := portal.ReviewSubmission(context.Background(), "s1", SubmissionReview{Status: &status})
	if err != nil {
		t.Fatalf("review: %v", err)
	}

	if method != http.MethodPatch || path != "/admin/submissions/s1" {
		t.Errorf("request = %s %s", method, path)
	}
	if _, ok := body["points"]; ok {
		t.Error("nil points must be omitted from the patch")
	}
	if _, ok := body["note"]; ok {
		t.Error("nil note must be omitted from the patch")
	}
	if reviewed.Status != models.SubmissionApproved {
		t.Errorf("reviewed = %+v", reviewed)
	}
}

func TestTaskLifecycle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.Path {
		case "POST /admin/tasks":
			w.Write([]byte(`{"task":{"id":"t1","name":"Intro Quiz","type":"CHALLENGE","points":10}}`))
		case "PUT /admin/tasks/t1":
			w.Write([]byte(`{"task":{"id":"t1","name":"Intro Quiz","type":"CHALLENGE","points":15}}`))
		case "DELETE /admin/tasks/t1":
			w.Write([]byte(`{}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	portal := NewClient(server.URL, staticTokens{admin: "a-token"})
	ctx := context.Background()

	created, err := portal.CreateTask(ctx, TaskCreate{Name: "Intro Quiz", Type: models.TypeChallenge, Points: 10})
	if err != nil || created.ID != "t1" {
		t.Fatalf("create = (%+v, %v)", created, err)
	}

	updated, err := portal.UpdateTask(ctx, "t1", TaskCreate{Name: "Intro Quiz", Type: models.TypeChallenge, Points: 15})
	if err != nil || updated.Points != 15 {
		t.Fatalf("update = (%+v, %v)", updated, err)
	}

	if err := portal.DeleteTask(ctx, "t1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
}
