package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/terra-clan/event-portal/internal/models"
)

// fakeValidatorAPI scripts the token-validate endpoints with
// controllable delays
type fakeValidatorAPI struct {
	participant      *models.Participant
	participantErr   error
	participantDelay time.Duration

	adminValid bool
	adminErr   error
	adminDelay time.Duration
}

func (f *fakeValidatorAPI) ValidateParticipantToken(ctx context.Context) (*models.Participant, error) {
	if f.participantDelay > 0 {
		time.Sleep(f.participantDelay)
	}
	return f.participant, f.participantErr
}

func (f *fakeValidatorAPI) ValidateAdminToken(ctx context.Context) (bool, error) {
	if f.adminDelay > 0 {
		time.Sleep(f.adminDelay)
	}
	return f.adminValid, f.adminErr
}

func seededCredentials(t *testing.T, participant, admin bool) (*CredentialStore, *memStore) {
	t.Helper()
	ctx := context.Background()
	durable := newMemStore()
	if participant {
		durable.SetToken(ctx, models.DomainParticipant, "p-token")
	}
	if admin {
		durable.SetToken(ctx, models.DomainAdmin, "a-token")
	}
	return newTestCredentials(t, durable), durable
}

func TestValidatorBothValid(t *testing.T) {
	creds, _ := seededCredentials(t, true, true)
	api := &fakeValidatorAPI{
		participant: &models.Participant{Email: "ada@x.com", Name: "Ada", TotalPoints: 50},
		adminValid:  true,
	}

	ready := NewValidator(api, creds).Run(context.Background())

	if !ready.Initialized {
		t.Fatal("must be initialized after both checks settle")
	}
	if !ready.ParticipantAuthenticated || !ready.AdminAuthenticated {
		t.Errorf("readiness = %+v, want both authenticated", ready)
	}
	if profile := creds.Profile(); profile == nil || profile.TotalPoints != 50 {
		t.Error("validation must refresh the hydrated profile")
	}
}

func TestValidatorSettlesRegardlessOfOrder(t *testing.T) {
	cases := []struct {
		name                         string
		participantDelay, adminDelay time.Duration
	}{
		{"participant slow", 50 * time.Millisecond, 0},
		{"admin slow", 0, 50 * time.Millisecond},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			creds, _ := seededCredentials(t, true, true)
			api := &fakeValidatorAPI{
				participant:      &models.Participant{Email: "ada@x.com"},
				participantDelay: tt.participantDelay,
				adminValid:       true,
				adminDelay:       tt.adminDelay,
			}
			validator := NewValidator(api, creds)

			if validator.Ready().Initialized {
				t.Fatal("must not be initialized before Run")
			}

			ready := validator.Run(context.Background())
			if !ready.Initialized || !ready.ParticipantAuthenticated || !ready.AdminAuthenticated {
				t.Errorf("readiness = %+v, want fully authenticated", ready)
			}

			select {
			case <-validator.Done():
			default:
				t.Error("Done must be closed after Run returns")
			}
		})
	}
}

func TestValidatorFailureDropsStoredToken(t *testing.T) {
	ctx := context.Background()
	creds, durable := seededCredentials(t, true, true)
	api := &fakeValidatorAPI{
		participantErr: errors.New("connection refused"),
		adminValid:     true,
	}

	ready := NewValidator(api, creds).Run(ctx)

	if !ready.Initialized {
		t.Fatal("a failed check must still settle")
	}
	if ready.ParticipantAuthenticated {
		t.Error("participant must not be authenticated after a failed check")
	}
	if !ready.AdminAuthenticated {
		t.Error("the admin check is independent and must still pass")
	}
	if stored, _ := durable.Token(ctx, models.DomainParticipant); stored != "" {
		t.Error("failed validation must remove the stored token")
	}
	if stored, _ := durable.Token(ctx, models.DomainAdmin); stored != "a-token" {
		t.Error("the admin token must survive")
	}
}

func TestValidatorInvalidAdminToken(t *testing.T) {
	ctx := context.Background()
	creds, durable := seededCredentials(t, false, true)
	api := &fakeValidatorAPI{adminValid: false}

	ready := NewValidator(api, creds).Run(ctx)

	if ready.AdminAuthenticated {
		t.Error("an explicitly invalid token must not authenticate")
	}
	if stored, _ := durable.Token(ctx, models.DomainAdmin); stored != "" {
		t.Error("invalid admin token must be removed")
	}
}

func TestValidatorNoStoredTokens(t *testing.T) {
	creds, _ := seededCredentials(t, false, false)

	ready := NewValidator(&fakeValidatorAPI{}, creds).Run(context.Background())

	if !ready.Initialized {
		t.Fatal("must initialize with nothing to validate")
	}
	if ready.ParticipantAuthenticated || ready.AdminAuthenticated {
		t.Error("no domain may be authenticated without a token")
	}
}

func TestValidatorRunIsIdempotent(t *testing.T) {
	creds, _ := seededCredentials(t, true, false)
	api := &fakeValidatorAPI{participant: &models.Participant{Email: "ada@x.com"}}
	validator := NewValidator(api, creds)

	first := validator.Run(context.Background())
	second := validator.Run(context.Background())
	if first != second {
		t.Errorf("repeat Run = %+v, want recorded %+v", second, first)
	}
}
