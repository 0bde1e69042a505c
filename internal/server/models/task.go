package models

import "time"

// Priority is the task priority level.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priority levels.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task is an owned to-do item. OwnerID is set at creation from the
// authenticated caller and is never reassigned. CreatedAt is immutable and
// is the default ordering key (newest first).
type Task struct {
	ID          string
	Title       string
	Description string
	Priority    Priority
	DueDate     *time.Time
	Completed   bool
	OwnerID     string
	CreatedAt   time.Time
}
