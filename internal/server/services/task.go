package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/tasks"
	"github.com/google/uuid"
)

// TaskFields carries the client-supplied fields of a task. Pointer fields
// distinguish "absent" from zero values, which is what makes partial updates
// possible; Create treats absent optional fields as their defaults.
type TaskFields struct {
	Title       *string
	Description *string
	Priority    *models.Priority
	DueDate     *time.Time
	Completed   *bool
}

// TaskService performs task CRUD. Every operation takes the owner id as an
// implicit scoping predicate; the id always originates from the
// authentication gate, never from client-controlled parameters.
type TaskService struct {
	repo tasks.Repository
}

// NewTaskService constructs a TaskService over the tasks repository.
func NewTaskService(repo tasks.Repository) *TaskService {
	return &TaskService{repo: repo}
}

// Create validates the supplied fields, assigns ownership to ownerID, and
// persists the task.
func (s *TaskService) Create(ctx context.Context, ownerID string, fields TaskFields) (*models.Task, error) {
	task := &models.Task{
		ID:       uuid.NewString(),
		Priority: models.PriorityLow,
		OwnerID:  ownerID,
	}
	applyFields(task, fields)

	if err := validateTask(task); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, task)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return created, nil
}

// List returns all of the owner's tasks, newest-created first. Each call
// recomputes from current state.
func (s *TaskService) List(ctx context.Context, ownerID string) ([]*models.Task, error) {
	result, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return result, nil
}

// GetByID fetches one task through the combined id+owner predicate. A task
// owned by someone else fails exactly like a missing one.
func (s *TaskService) GetByID(ctx context.Context, ownerID, taskID string) (*models.Task, error) {
	task, err := s.repo.GetByIDAndOwner(ctx, taskID, ownerID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}
	return task, nil
}

// Update applies only the supplied fields on top of the stored task,
// re-validates the merged result, and writes it back through the combined
// id+owner predicate. The load and the write both carry the predicate, so a
// foreign task can neither be read nor raced into an update.
func (s *TaskService) Update(ctx context.Context, ownerID, taskID string, fields TaskFields) (*models.Task, error) {
	task, err := s.repo.GetByIDAndOwner(ctx, taskID, ownerID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}

	applyFields(task, fields)

	if err := validateTask(task); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, task)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}
	return updated, nil
}

// Delete removes the task through the combined id+owner predicate.
func (s *TaskService) Delete(ctx context.Context, ownerID, taskID string) error {
	if err := s.repo.Delete(ctx, taskID, ownerID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return common.ErrorInternal
	}
	return nil
}

func applyFields(task *models.Task, fields TaskFields) {
	if fields.Title != nil {
		task.Title = *fields.Title
	}
	if fields.Description != nil {
		task.Description = *fields.Description
	}
	if fields.Priority != nil {
		task.Priority = *fields.Priority
	}
	if fields.DueDate != nil {
		task.DueDate = fields.DueDate
	}
	if fields.Completed != nil {
		task.Completed = *fields.Completed
	}
}

func validateTask(task *models.Task) error {
	if task.Title == "" {
		return fmt.Errorf("%w: title is required", common.ErrorValidation)
	}
	if !task.Priority.Valid() {
		return fmt.Errorf("%w: priority must be low, medium or high", common.ErrorValidation)
	}
	return nil
}
