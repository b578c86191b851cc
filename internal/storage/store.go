package storage

import (
	"context"

	"github.com/terra-clan/event-portal/internal/models"
)

// Store is the durable client-side storage behind the credential
// store: the two domain tokens plus a snapshot of the authenticated
// participant's profile for instant hydration before validation
// completes.
//
// A missing token or profile is not an error; Token returns the empty
// string and Profile returns nil.
type Store interface {
	// Token returns the stored bearer token for a domain, or ""
	Token(ctx context.Context, domain models.Domain) (string, error)

	// SetToken stores the bearer token for a domain, replacing any
	// previous value
	SetToken(ctx context.Context, domain models.Domain, token string) error

	// DeleteToken removes the token for a domain; removing an absent
	// token is a no-op
	DeleteToken(ctx context.Context, domain models.Domain) error

	// Profile returns the persisted participant snapshot, or nil
	Profile(ctx context.Context) (*models.Participant, error)

	// SaveProfile persists the participant snapshot
	SaveProfile(ctx context.Context, p *models.Participant) error

	// DeleteProfile removes the participant snapshot
	DeleteProfile(ctx context.Context) error

	// HealthCheck verifies the backing store is usable
	HealthCheck(ctx context.Context) error

	// Close releases the backing store
	Close() error
}
