package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/terra-clan/event-portal/internal/models"
)

// TaskCreate is the payload for creating or updating a task
type TaskCreate struct {
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	Type             models.TaskType `json:"type"`
	Points           int             `json:"points"`
	IsVariablePoints bool            `json:"isVariablePoints"`
}

// SubmissionReview patches a submission's review state. Nil fields are
// omitted and left unchanged.
type SubmissionReview struct {
	Status *models.SubmissionStatus `json:"status,omitempty"`
	Points *int                     `json:"points,omitempty"`
	Note   *string                  `json:"note,omitempty"`
}

// AdminSubmissionFilter narrows the admin submission listing
type AdminSubmissionFilter struct {
	Page     int
	Limit    int
	Status   models.SubmissionStatus
	TaskType models.TaskType
	Email    string
}

// AdminSubmissionsPage is one page of the admin submission listing
type AdminSubmissionsPage struct {
	Submissions []models.Submission `json:"submissions"`
	Pagination  models.Pagination   `json:"pagination"`
}

// TaskStats is the aggregate counters shown on the admin dashboard
type TaskStats struct {
	TotalTasks        int `json:"totalTasks"`
	TotalSubmissions  int `json:"totalSubmissions"`
	PendingReviews    int `json:"pendingReviews"`
	TotalParticipants int `json:"totalParticipants"`
}

// CreateTask creates a new task
func (c *Client) CreateTask(ctx context.Context, req TaskCreate) (*models.Task, error) {
	resp, err := c.postJSON(ctx, "POST", "/admin/tasks", req)
	if err != nil {
		return nil, err
	}

	var result struct {
		Task *models.Task `json:"task"`
	}
	if err := decode(resp, &result); err != nil {
		return nil, err
	}
	return result.Task, nil
}

// AdminTasks lists all tasks, including unpublished ones
func (c *Client) AdminTasks(ctx context.Context) ([]models.Task, error) {
	resp, err := c.doRequest(ctx, "GET", "/admin/tasks", nil)
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

// UpdateTask updates an existing task
func (c *Client) UpdateTask(ctx context.Context, id string, req TaskCreate) (*models.Task, error) {
	resp, err := c.postJSON(ctx, "PUT", fmt.Sprintf("/admin/tasks/%s", id), req)
	if err != nil {
		return nil, err
	}

	var result struct {
		Task *models.Task `json:"task"`
	}
	if err := decode(resp, &result); err != nil {
		return nil, err
	}
	return result.Task, nil
}

// DeleteTask removes a task
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	_, err := c.doRequest(ctx, "DELETE", fmt.Sprintf("/admin/tasks/%s", id), nil)
	return err
}

// GetTaskStats retrieves the admin dashboard counters
func (c *Client) GetTaskStats(ctx context.Context) (*TaskStats, error) {
	resp, err := c.doRequest(ctx, "GET", "/admin/tasks/stats", nil)
	if err != nil {
		return nil, err
	}

	var result TaskStats
	if err := decode(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AdminSubmissions lists submissions matching the filter
func (c *Client) AdminSubmissions(ctx context.Context, filter AdminSubmissionFilter) (*AdminSubmissionsPage, error) {
	query := url.Values{}
	if filter.Page > 0 {
		query.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Status != "" {
		query.Set("status", string(filter.Status))
	}
	if filter.TaskType != "" {
		query.Set("taskType", string(filter.TaskType))
	}
	if filter.Email != "" {
		query.Set("email", NormalizeEmail(filter.Email))
	}

	path := "/admin/submissions"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	resp, err := c.doRequest(ctx, "GET", path, nil)
	if err != nil {
		return nil, err
	}

	var result AdminSubmissionsPage
	if err := decode(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ReviewSubmission patches a submission's status, points or note
func (c *Client) ReviewSubmission(ctx context.Context, id string, review SubmissionReview) (*models.Submission, error) {
	resp, err := c.postJSON(ctx, "PATCH", fmt.Sprintf("/admin/submissions/%s", id), review)
	if err != nil {
		return nil, err
	}

	var result struct {
		Submission *models.Submission `json:"submission"`
	}
	if err := decode(resp, &result); err != nil {
		return nil, err
	}
	return result.Submission, nil
}

// ExportExcel downloads the submissions spreadsheet as raw bytes
func (c *Client) ExportExcel(ctx context.Context) ([]byte, error) {
	return c.doRequest(ctx, "GET", "/admin/export/excel", nil)
}

// ExportParticipants downloads the participant export
func (c *Client) ExportParticipants(ctx context.Context) ([]byte, error) {
	return c.doRequest(ctx, "GET", "/admin/export/participants", nil)
}
