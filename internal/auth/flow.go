package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/terra-clan/event-portal/internal/models"
	"github.com/terra-clan/event-portal/pkg/client"
)

// CodeLength is the number of digits in a one-time code
const CodeLength = 6

// ResendCooldown is the number of one-second ticks before another
// code may be requested
const ResendCooldown = 60

// PortalAPI is the slice of the portal client the login flow needs
type PortalAPI interface {
	CheckAdmin(ctx context.Context, email string) (bool, error)
	RequestAdminOTP(ctx context.Context, email string) error
	VerifyAdminOTP(ctx context.Context, email, otp string) (string, error)
	RequestParticipantOTP(ctx context.Context, req client.OTPRequest) (bool, error)
	VerifyParticipantOTP(ctx context.Context, email, otp string) (string, *models.Participant, error)
}

// Step is the current position in the challenge protocol
type Step int

const (
	// StepEmail collects the target email address
	StepEmail Step = iota
	// StepDetails collects name, college and gender for a new
	// participant before a code can be sent
	StepDetails
	// StepOTP collects the six-digit code
	StepOTP
	// StepDone means verification succeeded and a credential was
	// stored
	StepDone
)

func (s Step) String() string {
	switch s {
	case StepEmail:
		return "email"
	case StepDetails:
		return "details"
	case StepOTP:
		return "otp"
	case StepDone:
		return "done"
	}
	return "unknown"
}

// Flow errors detected locally, before any network call.
var (
	ErrInFlight       = errors.New("a request for this step is already in flight")
	ErrWrongStep      = errors.New("operation not valid for the current step")
	ErrEmailRequired  = errors.New("email is required")
	ErrFieldsRequired = errors.New("name, college and gender are required")
	ErrIncompleteCode = errors.New("all six code digits are required")
	ErrCooldownActive = errors.New("resend cooldown has not elapsed")
	ErrInvalidDigit   = errors.New("code slots accept a single digit")
)

// ErrInvalidCode wraps the backend's 401 on code verification: the
// code was wrong or expired. Recoverable by re-entry.
var ErrInvalidCode = errors.New("invalid or expired code")

// EmailResult is the outcome of submitting the email step
type EmailResult struct {
	// Next is the step the flow moved to
	Next Step

	// AdminHandoff is true when the email belongs to an admin
	// account: the caller should switch to an admin-domain flow with
	// the same email and must not auto-send a code.
	AdminHandoff bool

	// AdminCheckFailed is true when the admin probe itself failed and
	// the flow fell back to the participant path. A genuine admin is
	// misrouted in this case; preserved from the original product
	// behavior.
	AdminCheckFailed bool
}

// Flow drives the one-time-code challenge protocol for one identity
// domain. It is a state machine over EMAIL, DETAILS (new participants
// only), OTP and DONE; a successful verification stores the resulting
// credential and the flow is finished.
//
// At most one network submission per flow may be outstanding; a
// concurrent submit fails with ErrInFlight.
type Flow struct {
	api   PortalAPI
	creds *CredentialStore

	mu        sync.Mutex
	domain    models.Domain
	step      Step
	email     string
	isNewUser bool
	name      string
	college   string
	gender    string
	code      [CodeLength]rune
	cooldown  int
	inflight  bool
}

// NewLoginFlow starts the unified sign-in entry point. The flow runs
// in the participant domain; an admin email is detected at the email
// step and handed off via EmailResult.AdminHandoff.
func NewLoginFlow(api PortalAPI, creds *CredentialStore) *Flow {
	return &Flow{api: api, creds: creds, domain: models.DomainParticipant, step: StepEmail}
}

// NewAdminFlow starts an admin-domain flow. A handoff from the
// unified flow passes the already-entered email; no code is sent
// until the admin confirms with SubmitEmail.
func NewAdminFlow(api PortalAPI, creds *CredentialStore, email string) *Flow {
	return &Flow{
		api:    api,
		creds:  creds,
		domain: models.DomainAdmin,
		step:   StepEmail,
		email:  client.NormalizeEmail(email),
	}
}

// Step returns the flow's current step
func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// Email returns the normalized target email
func (f *Flow) Email() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.email
}

// Domain returns the identity domain this flow authenticates
func (f *Flow) Domain() models.Domain {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.domain
}

// begin marks a network submission in flight for the given step
func (f *Flow) begin(step Step) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != step {
		return fmt.Errorf("%w: at %s", ErrWrongStep, f.step)
	}
	if f.inflight {
		return ErrInFlight
	}
	f.inflight = true
	return nil
}

func (f *Flow) end() {
	f.mu.Lock()
	f.inflight = false
	f.mu.Unlock()
}

// SubmitEmail runs the email step. For the unified entry point the
// backend is first asked whether the email is an admin account; if so
// the flow stays at EMAIL and the result requests an admin handoff
// without sending a code. Otherwise a participant code is requested:
// an existing user moves to OTP, a new user moves to DETAILS.
func (f *Flow) SubmitEmail(ctx context.Context, email string) (EmailResult, error) {
	normalized := client.NormalizeEmail(email)
	if normalized == "" {
		f.mu.Lock()
		normalized = f.email // pre-filled by an admin handoff
		f.mu.Unlock()
	}
	if normalized == "" {
		return EmailResult{Next: StepEmail}, ErrEmailRequired
	}

	if err := f.begin(StepEmail); err != nil {
		return EmailResult{Next: StepEmail}, err
	}
	defer f.end()

	f.mu.Lock()
	f.email = normalized
	domain := f.domain
	f.mu.Unlock()

	if domain == models.DomainAdmin {
		return f.submitAdminEmail(ctx, normalized)
	}

	result := EmailResult{Next: StepEmail}

	isAdmin, err := f.api.CheckAdmin(ctx, normalized)
	if err != nil {
		// Fall back to the participant path. A genuine admin whose
		// probe fails lands in the wrong flow; see EmailResult.
		slog.Warn("admin check failed, continuing as participant", "error", err)
		result.AdminCheckFailed = true
	} else if isAdmin {
		result.AdminHandoff = true
		return result, nil
	}

	isNewUser, err := f.api.RequestParticipantOTP(ctx, client.OTPRequest{Email: normalized})
	if err != nil {
		return result, fmt.Errorf("failed to request code: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if isNewUser {
		f.isNewUser = true
		f.step = StepDetails
	} else {
		f.step = StepOTP
		f.cooldown = ResendCooldown
	}
	result.Next = f.step
	return result, nil
}

func (f *Flow) submitAdminEmail(ctx context.Context, email string) (EmailResult, error) {
	if err := f.api.RequestAdminOTP(ctx, email); err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			return EmailResult{Next: StepEmail}, fmt.Errorf("no admin account for this email: %w", err)
		}
		return EmailResult{Next: StepEmail}, fmt.Errorf("failed to request code: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.step = StepOTP
	f.cooldown = ResendCooldown
	return EmailResult{Next: StepOTP}, nil
}

// SubmitDetails runs the new-participant details step. All three
// fields are mandatory and validated locally before the code request.
func (f *Flow) SubmitDetails(ctx context.Context, name, college, gender string) error {
	name = strings.TrimSpace(name)
	college = strings.TrimSpace(college)
	gender = strings.TrimSpace(gender)
	if name == "" || college == "" || gender == "" {
		return ErrFieldsRequired
	}

	if err := f.begin(StepDetails); err != nil {
		return err
	}
	defer f.end()

	f.mu.Lock()
	email := f.email
	f.mu.Unlock()

	_, err := f.api.RequestParticipantOTP(ctx, client.OTPRequest{
		Email:   email,
		Name:    name,
		College: college,
		Gender:  gender,
	})
	if err != nil {
		return fmt.Errorf("failed to request code: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.name = name
	f.college = college
	f.gender = gender
	f.step = StepOTP
	f.cooldown = ResendCooldown
	return nil
}

// SetDigit places a single digit in code slot i and returns the slot
// the caller should focus next (i+1 while not at the last slot).
// An empty rune clears the slot.
func (f *Flow) SetDigit(i int, digit rune) (int, error) {
	if i < 0 || i >= CodeLength {
		return i, fmt.Errorf("%w: slot %d", ErrInvalidDigit, i)
	}
	if digit != 0 && (digit < '0' || digit > '9') {
		return i, ErrInvalidDigit
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.code[i] = digit
	if digit != 0 && i < CodeLength-1 {
		return i + 1, nil
	}
	return i, nil
}

// Backspace handles deletion in slot i: a filled slot is cleared in
// place, an empty slot moves focus back one slot.
func (f *Flow) Backspace(i int) int {
	if i < 0 || i >= CodeLength {
		return 0
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.code[i] != 0 {
		f.code[i] = 0
		return i
	}
	if i > 0 {
		return i - 1
	}
	return i
}

// Code returns the concatenation of the filled slots, in order
func (f *Flow) Code() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.codeLocked()
}

func (f *Flow) codeLocked() string {
	out := make([]rune, 0, CodeLength)
	for _, r := range f.code {
		if r != 0 {
			out = append(out, r)
		}
	}
	return string(out)
}

// CodeComplete reports whether all six slots are filled; submission
// is permitted exactly then
func (f *Flow) CodeComplete() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.codeLocked()) == CodeLength
}

// ClearCode empties the code buffer for re-entry
func (f *Flow) ClearCode() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.code = [CodeLength]rune{}
}

// SubmitCode verifies the entered code. On success the resulting
// credential is stored for the flow's domain and the flow moves to
// DONE. A 401 means the code was wrong or expired: the buffer is
// cleared for re-entry and the flow stays at OTP.
func (f *Flow) SubmitCode(ctx context.Context) error {
	f.mu.Lock()
	code := f.codeLocked()
	f.mu.Unlock()
	if len(code) != CodeLength {
		return ErrIncompleteCode
	}

	if err := f.begin(StepOTP); err != nil {
		return err
	}
	defer f.end()

	f.mu.Lock()
	email := f.email
	domain := f.domain
	f.mu.Unlock()

	if domain == models.DomainAdmin {
		token, err := f.api.VerifyAdminOTP(ctx, email, code)
		if err != nil {
			return f.verifyFailed(err)
		}
		f.creds.Login(ctx, models.DomainAdmin, token, nil)
	} else {
		token, participant, err := f.api.VerifyParticipantOTP(ctx, email, code)
		if err != nil {
			return f.verifyFailed(err)
		}
		f.creds.Login(ctx, models.DomainParticipant, token, participant)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.step = StepDone
	slog.Info("login complete", "domain", domain, "email", email)
	return nil
}

func (f *Flow) verifyFailed(err error) error {
	if errors.Is(err, client.ErrUnauthorized) {
		f.ClearCode()
		return fmt.Errorf("%w: %w", ErrInvalidCode, err)
	}
	return fmt.Errorf("failed to verify code: %w", err)
}

// CanResend reports whether the resend cooldown has elapsed
func (f *Flow) CanResend() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step == StepOTP && f.cooldown == 0
}

// Cooldown returns the seconds remaining before resend is allowed
func (f *Flow) Cooldown() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cooldown
}

// Tick advances the cooldown timer by one second and returns the
// remaining count. The caller drives it from a once-per-second timer.
func (f *Flow) Tick() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cooldown > 0 {
		f.cooldown--
	}
	return f.cooldown
}

// Resend requests a fresh code for the same email and resets the
// cooldown. For an in-progress new-participant flow the collected
// name rides along, matching what the first request sent.
func (f *Flow) Resend(ctx context.Context) error {
	f.mu.Lock()
	if f.step != StepOTP {
		f.mu.Unlock()
		return fmt.Errorf("%w: at %s", ErrWrongStep, f.step)
	}
	if f.cooldown > 0 {
		f.mu.Unlock()
		return ErrCooldownActive
	}
	if f.inflight {
		f.mu.Unlock()
		return ErrInFlight
	}
	f.inflight = true
	email := f.email
	domain := f.domain
	req := client.OTPRequest{Email: email}
	if f.isNewUser && f.name != "" {
		req.Name = f.name
	}
	f.mu.Unlock()
	defer f.end()

	var err error
	if domain == models.DomainAdmin {
		err = f.api.RequestAdminOTP(ctx, email)
	} else {
		_, err = f.api.RequestParticipantOTP(ctx, req)
	}
	if err != nil {
		return fmt.Errorf("failed to resend code: %w", err)
	}

	f.mu.Lock()
	f.cooldown = ResendCooldown
	f.mu.Unlock()
	return nil
}

