package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/terra-clan/event-portal/internal/models"
)

// OTPRequest is the payload for requesting a one-time code. Name,
// College and Gender are only sent for new participants.
type OTPRequest struct {
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	College string `json:"college,omitempty"`
	Gender  string `json:"gender,omitempty"`
}

// otpVerify is the shared verify payload for both identity domains
type otpVerify struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// SubmissionCreate is the payload for submitting a proof link
type SubmissionCreate struct {
	TaskType models.TaskType `json:"taskType"`
	TaskName string          `json:"taskName"`
	FileURL  string          `json:"fileUrl"`
}

// MySubmissions is the my-submissions snapshot: the submission list
// plus the participant's current counters.
type MySubmissions struct {
	Submissions []models.Submission `json:"submissions"`
	Participant models.UserStats    `json:"participant"`
}

// NormalizeEmail trims surrounding whitespace and lower-cases an email
// address. All auth calls normalize before hitting the wire.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CheckAdmin asks the backend whether an email belongs to an admin
// account, without sending a code.
func (c *Client) CheckAdmin(ctx context.Context, email string) (bool, error) {
	resp, err := c.postJSON(ctx, "POST", "/auth/check-admin", map[string]string{
		"email": NormalizeEmail(email),
	})
	if err != nil {
		return false, err
	}

	var result struct {
		IsAdmin bool `json:"isAdmin"`
	}
	if err := decode(resp, &result); err != nil {
		return false, err
	}
	return result.IsAdmin, nil
}

// RequestAdminOTP sends a one-time code to an admin email. A 401
// response means no admin account exists for the email.
func (c *Client) RequestAdminOTP(ctx context.Context, email string) error {
	_, err := c.postJSON(ctx, "POST", "/auth/request-otp", map[string]string{
		"email": NormalizeEmail(email),
	})
	return err
}

// VerifyAdminOTP exchanges an admin email and code for a bearer token
func (c *Client) VerifyAdminOTP(ctx context.Context, email, otp string) (string, error) {
	resp, err := c.postJSON(ctx, "POST", "/auth/verify-otp", otpVerify{
		Email: NormalizeEmail(email),
		OTP:   otp,
	})
	if err != nil {
		return "", err
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := decode(resp, &result); err != nil {
		return "", err
	}
	if result.Token == "" {
		return "", fmt.Errorf("verify response missing token")
	}
	return result.Token, nil
}

// ValidateAdminToken checks the stored admin token against the backend
func (c *Client) ValidateAdminToken(ctx context.Context) (bool, error) {
	resp, err := c.doRequest(ctx, "GET", "/auth/validate-admin-token", nil)
	if err != nil {
		return false, err
	}

	var result struct {
		Valid bool `json:"valid"`
	}
	if err := decode(resp, &result); err != nil {
		return false, err
	}
	return result.Valid, nil
}

// ValidateParticipantToken checks the stored participant token and,
// when valid, returns the current profile.
func (c *Client) ValidateParticipantToken(ctx context.Context) (*models.Participant, error) {
	resp, err := c.doRequest(ctx, "GET", "/auth/validate-participant-token", nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Valid       bool                `json:"valid"`
		Participant *models.Participant `json:"participant"`
	}
	if err := decode(resp, &result); err != nil {
		return nil, err
	}
	if !result.Valid || result.Participant == nil {
		return nil, ErrUnauthorized
	}
	return result.Participant, nil
}

// RequestParticipantOTP requests a one-time code for a participant.
// isNewUser is true when the backend has no profile for the email and
// needs name/college/gender before a code can be sent. Some backend
// versions report this as a 400 carrying isNewUser, which is folded
// into the same result.
func (c *Client) RequestParticipantOTP(ctx context.Context, req OTPRequest) (isNewUser bool, err error) {
	req.Email = NormalizeEmail(req.Email)
	resp, err := c.postJSON(ctx, "POST", "/participant/request-otp", req)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest {
			var body struct {
				IsNewUser bool `json:"isNewUser"`
			}
			if json.Unmarshal(apiErr.Body, &body) == nil && body.IsNewUser {
				return true, nil
			}
		}
		return false, err
	}

	var result struct {
		IsNewUser bool `json:"isNewUser"`
	}
	if err := decode(resp, &result); err != nil {
		return false, err
	}
	return result.IsNewUser, nil
}

// VerifyParticipantOTP exchanges a participant email and code for a
// bearer token and the participant profile.
func (c *Client) VerifyParticipantOTP(ctx context.Context, email, otp string) (string, *models.Participant, error) {
	resp, err := c.postJSON(ctx, "POST", "/participant/verify-otp", otpVerify{
		Email: NormalizeEmail(email),
		OTP:   otp,
	})
	if err != nil {
		return "", nil, err
	}

	var result struct {
		Token       string              `json:"token"`
		Participant *models.Participant `json:"participant"`
	}
	if err := decode(resp, &result); err != nil {
		return "", nil, err
	}
	if result.Token == "" || result.Participant == nil {
		return "", nil, fmt.Errorf("verify response missing token or participant")
	}
	return result.Token, result.Participant, nil
}

// UpdateProfile updates the authenticated participant's profile fields
func (c *Client) UpdateProfile(ctx context.Context, update models.Participant) (*models.Participant, error) {
	resp, err := c.postJSON(ctx, "PUT", "/participant/profile", update)
	if err != nil {
		return nil, err
	}

	var result struct {
		Participant *models.Participant `json:"participant"`
	}
	if err := decode(resp, &result); err != nil {
		return nil, err
	}
	return result.Participant, nil
}

// CreateSubmission submits a proof-of-completion link for a task
func (c *Client) CreateSubmission(ctx context.Context, req SubmissionCreate) (*models.Submission, error) {
	resp, err := c.postJSON(ctx, "POST", "/submissions", req)
	if err != nil {
		return nil, err
	}

	var result struct {
		Submission *models.Submission `json:"submission"`
	}
	if err := decode(resp, &result); err != nil {
		return nil, err
	}
	if result.Submission == nil {
		return nil, fmt.Errorf("create response missing submission")
	}
	return result.Submission, nil
}

// GetMySubmissions retrieves the authenticated participant's
// submissions and current counters.
func (c *Client) GetMySubmissions(ctx context.Context) (*MySubmissions, error) {
	resp, err := c.doRequest(ctx, "GET", "/submissions/my-submissions", nil)
	if err != nil {
		return nil, err
	}

	var result MySubmissions
	if err := decode(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetTasks retrieves the published task list
func (c *Client) GetTasks(ctx context.Context) ([]models.Task, error) {
	resp, err := c.doRequest(ctx, "GET", "/tasks", nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Tasks []models.Task `json:"tasks"`
	}
	if err := decode(resp, &result); err != nil {
		return nil, err
	}
	return result.Tasks, nil
}

// GetLeaderboard retrieves one page of the ranked leaderboard
func (c *Client) GetLeaderboard(ctx context.Context, page, limit int) (*models.LeaderboardPage, error) {
	resp, err := c.doRequest(ctx, "GET", fmt.Sprintf("/leaderboard?page=%d&limit=%d", page, limit), nil)
	if err != nil {
		return nil, err
	}

	var result models.LeaderboardPage
	if err := decode(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetCollegeLeaderboard retrieves the per-institution aggregate board
func (c *Client) GetCollegeLeaderboard(ctx context.Context) ([]models.CollegeStanding, error) {
	resp, err := c.doRequest(ctx, "GET", "/leaderboard/colleges", nil)
	if err != nil {
		return nil, err
	}

	var result models.CollegeBoard
	if err := decode(resp, &result); err != nil {
		return nil, err
	}
	return result.Colleges, nil
}
