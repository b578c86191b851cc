package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// staticTokens is a TokenSource with fixed values
type staticTokens struct {
	admin       string
	participant string
}

func (s staticTokens) AdminToken() string       { return s.admin }
func (s staticTokens) ParticipantToken() string { return s.participant }

func TestRequestHeaders(t *testing.T) {
	var header http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Clone()
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	portal := NewClient(server.URL, staticTokens{participant: "p-token"})
	if err := portal.Health(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}

	if got := header.Get("Authorization"); got != "Bearer p-token" {
		t.Errorf("Authorization = %q", got)
	}
	if header.Get("Content-Type") != "application/json" {
		t.Error("requests must declare a JSON body")
	}
	if header.Get("X-Request-ID") == "" {
		t.Error("requests must carry a correlation id")
	}
}

func TestAdminTokenTakesPrecedence(t *testing.T) {
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	portal := NewClient(server.URL, staticTokens{admin: "a-token", participant: "p-token"})
	portal.Health(context.Background())

	if auth != "Bearer a-token" {
		t.Errorf("Authorization = %q, want the admin token preferred", auth)
	}
}

func TestUnauthorizedHookFiresOnlyWhenAuthenticated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"token expired"}`))
	}))
	defer server.Close()

	fired := 0
	hook := WithUnauthorizedHook(func() { fired++ })

	// An anonymous 401 (a wrong OTP, say) must not trigger the purge
	anonymous := NewClient(server.URL, staticTokens{}, hook)
	if _, err := anonymous.VerifyAdminOTP(context.Background(), "a@x.com", "000000"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if fired != 0 {
		t.Fatal("hook must not fire for unauthenticated requests")
	}

	authenticated := NewClient(server.URL, staticTokens{participant: "stale"}, hook)
	if err := authenticated.Health(context.Background()); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if fired != 1 {
		t.Errorf("hook fired %d times, want once for the authenticated 401", fired)
	}
}

func TestRateLimitedSentinel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"message":"slow down"}`))
	}))
	defer server.Close()

	portal := NewClient(server.URL, nil)
	err := portal.Health(context.Background())
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}

	apiErr, ok := AsAPIError(err)
	if !ok || apiErr.Status != http.StatusTooManyRequests || apiErr.Message != "slow down" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestRequestParticipantOTPFoldsNewUserError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req OTPRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Name == "" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"isNewUser":true,"error":"profile required"}`))
			return
		}
		w.Write([]byte(`{"isNewUser":false}`))
	}))
	defer server.Close()

	portal := NewClient(server.URL, nil)

	isNew, err := portal.RequestParticipantOTP(context.Background(), OTPRequest{Email: "new@x.com"})
	if err != nil {
		t.Fatalf("a 400 carrying isNewUser must not surface as an error: %v", err)
	}
	if !isNew {
		t.Error("isNewUser must be folded out of the error body")
	}

	isNew, err = portal.RequestParticipantOTP(context.Background(), OTPRequest{
		Email: "new@x.com", Name: "Ada", College: "MEC", Gender: "Female",
	})
	if err != nil || isNew {
		t.Errorf("full request: isNew=%v err=%v", isNew, err)
	}
}

func TestRequestParticipantOTPPlainBadRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid email"}`))
	}))
	defer server.Close()

	portal := NewClient(server.URL, nil)
	_, err := portal.RequestParticipantOTP(context.Background(), OTPRequest{Email: "bad"})
	if err == nil {
		t.Fatal("a 400 without isNewUser must stay an error")
	}
	apiErr, ok := AsAPIError(err)
	if !ok || apiErr.Message != "invalid email" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestEmailNormalization(t *testing.T) {
	var sent struct {
		Email string `json:"email"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&sent)
		w.Write([]byte(`{"isAdmin":false}`))
	}))
	defer server.Close()

	portal := NewClient(server.URL, nil)
	portal.CheckAdmin(context.Background(), "  Ada@X.COM ")

	if sent.Email != "ada@x.com" {
		t.Errorf("sent email = %q, want trimmed and lower-cased", sent.Email)
	}
}

func TestVerifyParticipantOTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"token":"fresh","participant":{"email":"ada@x.com","name":"Ada"}}`))
	}))
	defer server.Close()

	portal := NewClient(server.URL, nil)
	token, profile, err := portal.VerifyParticipantOTP(context.Background(), "ada@x.com", "123456")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if token != "fresh" || profile.Name != "Ada" {
		t.Errorf("token=%q profile=%+v", token, profile)
	}
}

func TestVerifyParticipantOTPMissingToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	portal := NewClient(server.URL, nil)
	if _, _, err := portal.VerifyParticipantOTP(context.Background(), "ada@x.com", "123456"); err == nil {
		t.Fatal("a 200 without a token is a malformed response")
	}
}

func TestValidateParticipantTokenInvalid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"valid":false}`))
	}))
	defer server.Close()

	portal := NewClient(server.URL, staticTokens{participant: "stale"})
	if _, err := portal.ValidateParticipantToken(context.Background()); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized for a soft invalid", err)
	}
}

func TestGetLeaderboardPagination(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/leaderboard" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("page") != "2" || r.URL.Query().Get("limit") != "25" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"leaderboard":[{"name":"Ada","totalPoints":90,"rank":1}],"pagination":{"page":2,"limit":25,"total":51,"totalPages":3}}`))
	}))
	defer server.Close()

	portal := NewClient(server.URL, nil)
	page, err := portal.GetLeaderboard(context.Background(), 2, 25)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(page.Leaderboard) != 1 || *page.Leaderboard[0].Rank != 1 {
		t.Errorf("page = %+v", page)
	}
	if page.Pagination.TotalPages != 3 {
		t.Errorf("pagination = %+v", page.Pagination)
	}
}
