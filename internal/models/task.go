package models

// TaskType categorizes event tasks
type TaskType string

const (
	TypeChallenge        TaskType = "CHALLENGE"
	TypeMentorSession    TaskType = "MENTOR_SESSION"
	TypePowerupChallenge TaskType = "POWERUP_CHALLENGE"
	TypeEasterEgg        TaskType = "EASTER_EGG"
)

// Valid returns true for a known task type
func (t TaskType) Valid() bool {
	switch t {
	case TypeChallenge, TypeMentorSession, TypePowerupChallenge, TypeEasterEgg:
		return true
	}
	return false
}

// Task represents a task published for the event
type Task struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	Type             TaskType `json:"type"`
	Points           int      `json:"points"`
	IsVariablePoints bool     `json:"isVariablePoints"`
}

// TaskStatus is the participant-visible state of a task, derived by
// joining the task list with the participant's submissions
type TaskStatus string

const (
	StatusNotSubmitted TaskStatus = "NOT_SUBMITTED"
	StatusPending      TaskStatus = "PENDING"
	StatusApproved     TaskStatus = "APPROVED"
	StatusRejected     TaskStatus = "REJECTED"
)
