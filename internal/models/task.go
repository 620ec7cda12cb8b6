package models

import "time"

const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Statuses and Priorities are the only values the validator accepts.
var (
	Statuses   = []string{StatusPending, StatusInProgress, StatusDone}
	Priorities = []string{PriorityLow, PriorityMedium, PriorityHigh}
)

type Task struct {
	ID          int64
	Title       string
	Description string
	Status      string
	Priority    string
	DueDate     *time.Time
	AssignedTo  *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
