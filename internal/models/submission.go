package models

import "time"

// SubmissionStatus represents the review state of a submission
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "PENDING"
	SubmissionApproved SubmissionStatus = "APPROVED"
	SubmissionRejected SubmissionStatus = "REJECTED"
)

// Submission represents a proof-of-completion link submitted for a task
type Submission struct {
	ID        string           `json:"id"`
	TaskName  string           `json:"taskName"`
	TaskType  TaskType         `json:"taskType"`
	FileURL   string           `json:"fileUrl"`
	Status    SubmissionStatus `json:"status"`
	Points    *int             `json:"points,omitempty"`
	Note      string           `json:"note,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}

// TaskStatus maps the review state onto the derived task status
func (s SubmissionStatus) TaskStatus() TaskStatus {
	switch s {
	case SubmissionApproved:
		return StatusApproved
	case SubmissionRejected:
		return StatusRejected
	default:
		return StatusPending
	}
}
