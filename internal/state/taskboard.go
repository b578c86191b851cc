package state

import (
	"strings"
	"sync"

	"github.com/terra-clan/event-portal/internal/models"
)

// TaskView is a task with its derived participant-visible status
type TaskView struct {
	models.Task
	Status models.TaskStatus
}

// TaskFilter narrows the displayed task list. Zero values match
// everything.
type TaskFilter struct {
	Search string
	Status models.TaskStatus
	Type   models.TaskType
}

// TaskBoard reconciles the pulled task and submission snapshots with
// pushed stats deltas and local optimistic appends into the state the
// participant dashboard shows.
type TaskBoard struct {
	mu          sync.Mutex
	gen         uint64
	email       string
	tasks       []models.Task
	submissions []models.Submission
	totalPoints int
	taskCount   int
}

// NewTaskBoard creates a task board for the participant identified by
// email; pushed stats deltas for any other email are ignored.
func NewTaskBoard(email string) *TaskBoard {
	return &TaskBoard{email: email}
}

// Generation returns the token a pull must present to apply its
// response
func (b *TaskBoard) Generation() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gen
}

// Teardown invalidates in-flight pulls and clears the board
func (b *TaskBoard) Teardown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gen++
	b.tasks = nil
	b.submissions = nil
}

// SetTasks replaces the task snapshot from a pull, unless the board
// was torn down while the request was in flight
func (b *TaskBoard) SetTasks(gen uint64, tasks []models.Task) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if gen != b.gen {
		return false
	}
	b.tasks = tasks
	return true
}

// SetSubmissions replaces the submission snapshot and the counters
// from a my-submissions pull
func (b *TaskBoard) SetSubmissions(gen uint64, submissions []models.Submission, stats models.UserStats) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if gen != b.gen {
		return false
	}
	b.submissions = submissions
	b.totalPoints = stats.TotalPoints
	b.taskCount = stats.TaskCount
	return true
}

// AddSubmission appends a locally created submission so its task
// flips to PENDING without waiting for the next pull
func (b *TaskBoard) AddSubmission(submission models.Submission) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.submissions = append(b.submissions, submission)
}

// UpdateSubmission merges review fields into a stored submission
func (b *TaskBoard) UpdateSubmission(id string, status models.SubmissionStatus, points *int, note string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.submissions {
		if b.submissions[i].ID != id {
			continue
		}
		if status != "" {
			b.submissions[i].Status = status
		}
		if points != nil {
			b.submissions[i].Points = points
		}
		if note != "" {
			b.submissions[i].Note = note
		}
		return
	}
}

// ApplyStats folds a pushed counter delta in. Deltas for a different
// participant are dropped; identity fields never ride in this payload
// so nothing else changes.
func (b *TaskBoard) ApplyStats(stats models.UserStats) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !strings.EqualFold(stats.Email, b.email) {
		return false
	}
	b.totalPoints = stats.TotalPoints
	b.taskCount = stats.TaskCount
	return true
}

// Stats returns the displayed counters
func (b *TaskBoard) Stats() (totalPoints, taskCount int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.totalPoints, b.taskCount
}

// Submissions returns a copy of the current submission list
func (b *TaskBoard) Submissions() []models.Submission {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.Submission, len(b.submissions))
	copy(out, b.submissions)
	return out
}

// Tasks returns the task list with derived statuses, narrowed by the
// filter. The filter is pure and order-preserving; the underlying
// snapshots are never mutated.
func (b *TaskBoard) Tasks(filter TaskFilter) []TaskView {
	b.mu.Lock()
	defer b.mu.Unlock()

	statuses := deriveStatuses(b.tasks, b.submissions)

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	out := make([]TaskView, 0, len(b.tasks))
	for _, task := range b.tasks {
		status := statuses[task.Name]

		if search != "" &&
			!strings.Contains(strings.ToLower(task.Name), search) &&
			!strings.Contains(strings.ToLower(task.Description), search) {
			continue
		}
		if filter.Status != "" && status != filter.Status {
			continue
		}
		if filter.Type != "" && task.Type != filter.Type {
			continue
		}

		out = append(out, TaskView{Task: task, Status: status})
	}
	return out
}

// Status returns the derived status for a single task name
func (b *TaskBoard) Status(taskName string) models.TaskStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return deriveStatuses(b.tasks, b.submissions)[taskName]
}

// deriveStatuses is the single place the task/submission join lives.
// Matching is by task name: a server-side rename orphans prior
// submissions, which is a known coupling with the backend. Keeping the
// join here means the key can switch to task IDs without touching any
// call site.
func deriveStatuses(tasks []models.Task, submissions []models.Submission) map[string]models.TaskStatus {
	latest := make(map[string]models.Submission, len(submissions))
	for _, sub := range submissions {
		prev, ok := latest[sub.TaskName]
		if !ok || !sub.CreatedAt.Before(prev.CreatedAt) {
			latest[sub.TaskName] = sub
		}
	}

	statuses := make(map[string]models.TaskStatus, len(tasks))
	for _, task := range tasks {
		if sub, ok := latest[task.Name]; ok {
			statuses[task.Name] = sub.Status.TaskStatus()
		} else {
			statuses[task.Name] = models.StatusNotSubmitted
		}
	}
	return statuses
}
