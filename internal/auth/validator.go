package auth

import (
	"context"
	"log/slog"
	"sync"

	"github.com/terra-clan/event-portal/internal/models"
)

// ValidatorAPI is the slice of the portal client the startup
// validator needs
type ValidatorAPI interface {
	ValidateParticipantToken(ctx context.Context) (*models.Participant, error)
	ValidateAdminToken(ctx context.Context) (bool, error)
}

// Readiness is the consolidated result of startup validation. Until
// Initialized is true no routing decision may be made: neither domain
// flag carries information yet.
type Readiness struct {
	Initialized              bool
	ParticipantAuthenticated bool
	AdminAuthenticated       bool
}

// Validator checks both stored tokens against the backend once at
// process start. The two checks run concurrently and independently; a
// failed check (network error or explicit invalid) drops that
// domain's stored token and leaves its flag false.
type Validator struct {
	api   ValidatorAPI
	creds *CredentialStore

	mu    sync.Mutex
	ready Readiness
	done  chan struct{}
	once  sync.Once
}

// NewValidator creates a startup validator over the restored
// credential store
func NewValidator(api ValidatorAPI, creds *CredentialStore) *Validator {
	return &Validator{
		api:   api,
		creds: creds,
		done:  make(chan struct{}),
	}
}

// Run validates both domains and blocks until both have settled,
// regardless of order or outcome. It is safe to call once; subsequent
// calls return the recorded result.
func (v *Validator) Run(ctx context.Context) Readiness {
	v.once.Do(func() {
		var wg sync.WaitGroup
		var participantOK, adminOK bool

		if v.creds.Authenticated(models.DomainParticipant) {
			wg.Add(1)
			go func() {
				defer wg.Done()
				participantOK = v.validateParticipant(ctx)
			}()
		}

		if v.creds.Authenticated(models.DomainAdmin) {
			wg.Add(1)
			go func() {
				defer wg.Done()
				adminOK = v.validateAdmin(ctx)
			}()
		}

		wg.Wait()

		v.mu.Lock()
		v.ready = Readiness{
			Initialized:              true,
			ParticipantAuthenticated: participantOK,
			AdminAuthenticated:       adminOK,
		}
		v.mu.Unlock()
		close(v.done)

		slog.Info("session validation settled",
			"participant", participantOK,
			"admin", adminOK,
		)
	})

	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ready
}

// Ready returns the current readiness snapshot without blocking
func (v *Validator) Ready() Readiness {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ready
}

// Done is closed once both checks have settled
func (v *Validator) Done() <-chan struct{} {
	return v.done
}

func (v *Validator) validateParticipant(ctx context.Context) bool {
	profile, err := v.api.ValidateParticipantToken(ctx)
	if err != nil {
		slog.Warn("participant token rejected", "error", err)
		v.creds.Logout(ctx, models.DomainParticipant)
		return false
	}

	// Refresh the hydrated snapshot with the authoritative profile
	token := v.creds.ParticipantToken()
	v.creds.Login(ctx, models.DomainParticipant, token, profile)
	return true
}

func (v *Validator) validateAdmin(ctx context.Context) bool {
	valid, err := v.api.ValidateAdminToken(ctx)
	if err != nil || !valid {
		if err != nil {
			slog.Warn("admin token rejected", "error", err)
		}
		v.creds.Logout(ctx, models.DomainAdmin)
		return false
	}
	return true
}
