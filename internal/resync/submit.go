package resync

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/terra-clan/event-portal/internal/models"
	"github.com/terra-clan/event-portal/internal/state"
	"github.com/terra-clan/event-portal/pkg/client"
)

// SubmitAPI is the slice of the portal client task submission needs
type SubmitAPI interface {
	CreateSubmission(ctx context.Context, req client.SubmissionCreate) (*models.Submission, error)
}

// Submission errors detected locally, before any network call.
var (
	ErrFileURLRequired = errors.New("a proof link is required")
	ErrInvalidFileURL  = errors.New("the proof link is not a valid URL")
)

// ErrSlowDown wraps the backend's 429: the participant is submitting
// too fast. Distinct from validation failures.
var ErrSlowDown = errors.New("too many submissions, wait before submitting again")

// Submit validates and creates a proof-of-completion submission for a
// task, then appends it to the board optimistically so the task's
// derived status flips to PENDING without waiting for the next pull.
func Submit(ctx context.Context, api SubmitAPI, board *state.TaskBoard, task models.Task, fileURL string) (*models.Submission, error) {
	if fileURL == "" {
		return nil, ErrFileURLRequired
	}
	if parsed, err := url.Parse(fileURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, ErrInvalidFileURL
	}

	submission, err := api.CreateSubmission(ctx, client.SubmissionCreate{
		TaskType: task.Type,
		TaskName: task.Name,
		FileURL:  fileURL,
	})
	if err != nil {
		if errors.Is(err, client.ErrRateLimited) {
			return nil, fmt.Errorf("%w: %w", ErrSlowDown, err)
		}
		return nil, err
	}

	board.AddSubmission(*submission)
	return submission, nil
}
