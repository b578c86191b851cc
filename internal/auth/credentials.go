package auth

import (
	"context"
	"log/slog"
	"sync"

	"github.com/terra-clan/event-portal/internal/models"
	"github.com/terra-clan/event-portal/internal/storage"
)

// CredentialStore holds the two independent identity-domain
// credentials: a participant bearer token with its profile, and an
// admin bearer token. A new login for a domain replaces any prior
// credential for that domain; the other domain is never touched.
//
// It implements client.TokenSource, so every API request observes
// credential changes synchronously.
type CredentialStore struct {
	mu      sync.RWMutex
	durable storage.Store

	participantToken string
	adminToken       string
	profile          *models.Participant
}

// NewCredentialStore restores any persisted tokens and profile
// snapshot from durable storage. Restored credentials are unvalidated
// until the startup validator has run.
func NewCredentialStore(ctx context.Context, durable storage.Store) (*CredentialStore, error) {
	s := &CredentialStore{durable: durable}

	participantToken, err := durable.Token(ctx, models.DomainParticipant)
	if err != nil {
		return nil, err
	}
	adminToken, err := durable.Token(ctx, models.DomainAdmin)
	if err != nil {
		return nil, err
	}
	profile, err := durable.Profile(ctx)
	if err != nil {
		return nil, err
	}

	s.participantToken = participantToken
	s.adminToken = adminToken
	s.profile = profile
	return s, nil
}

// Login stores a credential for a domain, replacing any prior one.
// The profile is only meaningful for the participant domain. The
// in-memory state always updates; a durable write failure is logged
// and does not fail the login.
func (s *CredentialStore) Login(ctx context.Context, domain models.Domain, token string, profile *models.Participant) {
	s.mu.Lock()
	switch domain {
	case models.DomainAdmin:
		s.adminToken = token
	default:
		s.participantToken = token
		if profile != nil {
			s.profile = profile
		}
	}
	s.mu.Unlock()

	if err := s.durable.SetToken(ctx, domain, token); err != nil {
		slog.Warn("failed to persist token", "domain", domain, "error", err)
	}
	if domain == models.DomainParticipant && profile != nil {
		if err := s.durable.SaveProfile(ctx, profile); err != nil {
			slog.Warn("failed to persist profile snapshot", "error", err)
		}
	}
}

// Logout clears one domain's credential, leaving the other intact
func (s *CredentialStore) Logout(ctx context.Context, domain models.Domain) {
	s.mu.Lock()
	switch domain {
	case models.DomainAdmin:
		s.adminToken = ""
	default:
		s.participantToken = ""
		s.profile = nil
	}
	s.mu.Unlock()

	if err := s.durable.DeleteToken(ctx, domain); err != nil {
		slog.Warn("failed to remove stored token", "domain", domain, "error", err)
	}
	if domain == models.DomainParticipant {
		if err := s.durable.DeleteProfile(ctx); err != nil {
			slog.Warn("failed to remove profile snapshot", "error", err)
		}
	}
}

// LogoutAll clears both domains. This is the global-401 path: the
// session expired server-side and every credential is purged, whether
// or not it existed.
func (s *CredentialStore) LogoutAll(ctx context.Context) {
	s.Logout(ctx, models.DomainParticipant)
	s.Logout(ctx, models.DomainAdmin)
}

// UpdateProfile merges fields into the participant profile without
// requiring a re-login
func (s *CredentialStore) UpdateProfile(ctx context.Context, update models.Participant) {
	s.mu.Lock()
	if s.profile == nil {
		s.profile = &models.Participant{}
	}
	s.profile.Merge(update)
	snapshot := *s.profile
	s.mu.Unlock()

	if err := s.durable.SaveProfile(ctx, &snapshot); err != nil {
		slog.Warn("failed to persist profile snapshot", "error", err)
	}
}

// SetStats updates only the participant's counters, as carried by a
// pushed stats delta. Identity fields are untouched.
func (s *CredentialStore) SetStats(totalPoints, taskCount int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return
	}
	s.profile.TotalPoints = totalPoints
	s.profile.TaskCount = taskCount
}

// ParticipantToken returns the current participant bearer token, or ""
func (s *CredentialStore) ParticipantToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.participantToken
}

// AdminToken returns the current admin bearer token, or ""
func (s *CredentialStore) AdminToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.adminToken
}

// Authenticated reports whether a domain currently holds a token
func (s *CredentialStore) Authenticated(domain models.Domain) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if domain == models.DomainAdmin {
		return s.adminToken != ""
	}
	return s.participantToken != ""
}

// Profile returns a copy of the participant profile, or nil when no
// participant is logged in
func (s *CredentialStore) Profile() *models.Participant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return nil
	}
	p := *s.profile
	return &p
}
