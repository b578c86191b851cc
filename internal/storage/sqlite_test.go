package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/terra-clan/event-portal/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "portal.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteTokensPerDomain(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if token, err := store.Token(ctx, models.DomainParticipant); err != nil || token != "" {
		t.Fatalf("missing token = (%q, %v), want empty and no error", token, err)
	}

	if err := store.SetToken(ctx, models.DomainParticipant, "p-token"); err != nil {
		t.Fatalf("set participant token: %v", err)
	}
	if err := store.SetToken(ctx, models.DomainAdmin, "a-token"); err != nil {
		t.Fatalf("set admin token: %v", err)
	}

	if token, _ := store.Token(ctx, models.DomainParticipant); token != "p-token" {
		t.Errorf("participant token = %q", token)
	}
	if token, _ := store.Token(ctx, models.DomainAdmin); token != "a-token" {
		t.Errorf("admin token = %q", token)
	}

	// The domains are independent keys
	if err := store.DeleteToken(ctx, models.DomainParticipant); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if token, _ := store.Token(ctx, models.DomainParticipant); token != "" {
		t.Error("deleted token must read back empty")
	}
	if token, _ := store.Token(ctx, models.DomainAdmin); token != "a-token" {
		t.Error("the other domain must be untouched")
	}
}

func TestSQLiteTokenOverwrite(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	store.SetToken(ctx, models.DomainAdmin, "old")
	if err := store.SetToken(ctx, models.DomainAdmin, "new"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if token, _ := store.Token(ctx, models.DomainAdmin); token != "new" {
		t.Errorf("token = %q, want the later write", token)
	}
}

func TestSQLiteProfileRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if profile, err := store.Profile(ctx); err != nil || profile != nil {
		t.Fatalf("missing profile = (%v, %v), want nil and no error", profile, err)
	}

	saved := &models.Participant{
		Email:       "ada@x.com",
		Name:        "Ada",
		College:     "MEC",
		Gender:      "Female",
		TotalPoints: 42,
		TaskCount:   3,
	}
	if err := store.SaveProfile(ctx, saved); err != nil {
		t.Fatalf("save profile: %v", err)
	}

	loaded, err := store.Profile(ctx)
	if err != nil {
		t.Fatalf("load profile: %v", err)
	}
	if *loaded != *saved {
		t.Errorf("loaded = %+v, want %+v", loaded, saved)
	}

	if err := store.DeleteProfile(ctx); err != nil {
		t.Fatalf("delete profile: %v", err)
	}
	if profile, _ := store.Profile(ctx); profile != nil {
		t.Error("deleted profile must read back nil")
	}
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "portal.db")

	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	store.SetToken(ctx, models.DomainParticipant, "p-token")
	store.Close()

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer reopened.Close()

	if token, _ := reopened.Token(ctx, models.DomainParticipant); token != "p-token" {
		t.Errorf("token = %q, want the persisted value after reopen", token)
	}
}

func TestSQLiteHealthCheck(t *testing.T) {
	store := newTestStore(t)
	if err := store.HealthCheck(context.Background()); err != nil {
		t.Errorf("health check: %v", err)
	}
}
