package services

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/mzhavoronkov/task-tracker/internal/models"
)

type taskServiceImpl struct {
	logger  zerolog.Logger
	storage Storage
}

func NewTaskService(
	logger zerolog.Logger,
	storage Storage,
) TaskService {
	return &taskServiceImpl{
		logger:  logger,
		storage: storage,
	}
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error) {
	now := time.Now()
	task := &models.Task{
		Title:       params.Title,
		Description: params.Description,
		Status:      params.Status,
		Priority:    params.Priority,
		DueDate:     params.DueDate,
		AssignedTo:  params.AssignedTo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if task.Status == "" {
		task.Status = models.StatusPending
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}

	// Validation order is fixed: priority, status, due date, assignee.
	// The first failing check wins and nothing is written before all
	// of them pass.
	if !slices.Contains(models.Priorities, task.Priority) {
		s.logger.Error().
			Str("priority", task.Priority).
			Msg("invalid task priority")
		return nil, &FieldError{Field: "priority", Allowed: models.Priorities}
	}
	if !slices.Contains(models.Statuses, task.Status) {
		s.logger.Error().
			Str("status", task.Status).
			Msg("invalid task status")
		return nil, &FieldError{Field: "status", Allowed: models.Statuses}
	}
	if task.DueDate != nil && beforeToday(*task.DueDate) {
		s.logger.Error().
			Time("due_date", *task.DueDate).
			Msg("task due date is in the past")
		return nil, &FieldError{Field: "due_date", Reason: "must not be in the past"}
	}
	if task.AssignedTo != nil {
		err := s.checkAssignee(ctx, *task.AssignedTo)
		if err != nil {
			return nil, err
		}
	}

	err := s.storage.CreateTask(ctx, task)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to insert task")
		return nil, err
	}

	s.logger.Info().
		Int64("task_id", task.ID).
		Msg("created task")
	return task, nil
}

func (s *taskServiceImpl) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	task, err := s.storage.GetTaskByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			s.logger.Error().
				Int64("task_id", id).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Int64("task_id", id).
			Msg("failed to select task by id")
		return nil, err
	}
	return task, nil
}

func (s *taskServiceImpl) ListTasks(ctx context.Context, filter TaskFilter) ([]*models.Task, error) {
	// Filter values are validated against the same closed sets, in the
	// same order, before storage is touched.
	if filter.Priority != nil && !slices.Contains(models.Priorities, *filter.Priority) {
		s.logger.Error().
			Str("priority", *filter.Priority).
			Msg("invalid priority filter")
		return nil, &FieldError{Field: "priority", Allowed: models.Priorities}
	}
	if filter.Status != nil && !slices.Contains(models.Statuses, *filter.Status) {
		s.logger.Error().
			Str("status", *filter.Status).
			Msg("invalid status filter")
		return nil, &FieldError{Field: "status", Allowed: models.Statuses}
	}

	tasks, err := s.storage.ListTasks(ctx, filter)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select tasks")
		return nil, err
	}

	s.logger.Debug().
		Int("count", len(tasks)).
		Msg("selected tasks")
	return tasks, nil
}

func (s *taskServiceImpl) ListTasksByAssignee(ctx context.Context, userID string) ([]*models.Task, error) {
	tasks, err := s.storage.ListTasksByAssignee(ctx, userID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to select tasks by assignee")
		return nil, err
	}

	s.logger.Debug().
		Int("count", len(tasks)).
		Str("user_id", userID).
		Msg("selected tasks by assignee")
	return tasks, nil
}

func (s *taskServiceImpl) UpdateTask(ctx context.Context, id int64, patch TaskPatch) (*models.Task, error) {
	task, err := s.storage.GetTaskByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			s.logger.Error().
				Int64("task_id", id).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Int64("task_id", id).
			Msg("failed to select task by id")
		return nil, err
	}

	// Only fields present in the patch are checked, same order as on
	// create. Nothing is applied until every present field passes.
	if patch.Priority != nil && !slices.Contains(models.Priorities, *patch.Priority) {
		s.logger.Error().
			Str("priority", *patch.Priority).
			Msg("invalid task priority")
		return nil, &FieldError{Field: "priority", Allowed: models.Priorities}
	}
	if patch.Status != nil && !slices.Contains(models.Statuses, *patch.Status) {
		s.logger.Error().
			Str("status", *patch.Status).
			Msg("invalid task status")
		return nil, &FieldError{Field: "status", Allowed: models.Statuses}
	}
	if patch.DueDate != nil && beforeToday(*patch.DueDate) {
		s.logger.Error().
			Time("due_date", *patch.DueDate).
			Msg("task due date is in the past")
		return nil, &FieldError{Field: "due_date", Reason: "must not be in the past"}
	}
	if patch.AssignedTo != nil {
		err = s.checkAssignee(ctx, *patch.AssignedTo)
		if err != nil {
			return nil, err
		}
	}

	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Status != nil {
		task.Status = *patch.Status
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.DueDate != nil {
		task.DueDate = patch.DueDate
	}
	if patch.AssignedTo != nil {
		task.AssignedTo = patch.AssignedTo
	}
	task.UpdatedAt = time.Now()

	err = s.storage.UpdateTask(ctx, task)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("task_id", task.ID).
			Msg("failed to update task")
		return nil, err
	}

	s.logger.Info().
		Int64("task_id", task.ID).
		Msg("updated task")
	return task, nil
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, id int64) error {
	err := s.storage.DeleteTask(ctx, id)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			s.logger.Error().
				Int64("task_id", id).
				Msg("task not found")
			return ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Int64("task_id", id).
			Msg("failed to delete task")
		return err
	}

	s.logger.Info().
		Int64("task_id", id).
		Msg("deleted task")
	return nil
}

func (s *taskServiceImpl) checkAssignee(ctx context.Context, userID string) error {
	user, err := s.storage.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.logger.Error().
				Str("user_id", userID).
				Msg("assignee not found")
			return ErrUserNotFound
		}

		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to select assignee")
		return err
	}
	if !user.IsActive {
		s.logger.Error().
			Str("user_id", userID).
			Msg("assignee is deactivated")
		return ErrUserNotFound
	}
	return nil
}

// beforeToday compares at date granularity, ignoring the time of day.
// Today is derived in the due date's own zone, so a date parsed as UTC
// midnight is judged against the UTC calendar date regardless of the
// server's zone.
func beforeToday(d time.Time) bool {
	year, month, day := time.Now().In(d.Location()).Date()
	today := time.Date(year, month, day, 0, 0, 0, 0, d.Location())
	return d.Before(today)
}
