package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mzhavoronkov/task-tracker/internal/models"
	"github.com/mzhavoronkov/task-tracker/internal/services"
)

func newTaskService(storage services.Storage) services.TaskService {
	return services.NewTaskService(zerolog.Nop(), storage)
}

func mustCreateUser(t *testing.T, storage *fakeStorage, email string, active bool) string {
	t.Helper()

	now := time.Now()
	user := &models.User{
		ID:        uuid.NewString(),
		Name:      "user",
		Email:     email,
		Password:  "irrelevant-hash",
		IsActive:  active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := storage.CreateUser(context.Background(), user)
	if err != nil {
		t.Fatalf("failed to prepare user: %v", err)
	}
	return user.ID
}

func mustCreateTask(t *testing.T, svc services.TaskService, params services.CreateTaskParams) *models.Task {
	t.Helper()

	task, err := svc.CreateTask(context.Background(), params)
	if err != nil {
		t.Fatalf("failed to prepare task: %v", err)
	}
	return task
}

func requireFieldError(t *testing.T, err error, field string) {
	t.Helper()

	var fieldErr *services.FieldError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("expected FieldError, got %v", err)
	}
	if fieldErr.Field != field {
		t.Fatalf("expected field %q rejected, got %q", field, fieldErr.Field)
	}
}

func TestCreateTask_Defaults(t *testing.T) {
	t.Parallel()

	svc := newTaskService(newFakeStorage())

	task := mustCreateTask(t, svc, services.CreateTaskParams{Title: "bare minimum"})

	if task.Status != models.StatusPending {
		t.Fatalf("expected default status pending, got %s", task.Status)
	}
	if task.Priority != models.PriorityMedium {
		t.Fatalf("expected default priority medium, got %s", task.Priority)
	}
}

func TestCreateTask_InvalidPriority(t *testing.T) {
	t.Parallel()

	svc := newTaskService(newFakeStorage())

	_, err := svc.CreateTask(context.Background(), services.CreateTaskParams{
		Title:    "task",
		Priority: "urgent",
	})
	requireFieldError(t, err, "priority")
}

func TestCreateTask_PriorityCheckedBeforeStatus(t *testing.T) {
	t.Parallel()

	svc := newTaskService(newFakeStorage())

	// Both fields are illegal; priority must be the one reported.
	_, err := svc.CreateTask(context.Background(), services.CreateTaskParams{
		Title:    "task",
		Status:   "archived",
		Priority: "urgent",
	})
	requireFieldError(t, err, "priority")
}

func TestCreateTask_InvalidStatus(t *testing.T) {
	t.Parallel()

	svc := newTaskService(newFakeStorage())

	_, err := svc.CreateTask(context.Background(), services.CreateTaskParams{
		Title:  "task",
		Status: "archived",
	})
	requireFieldError(t, err, "status")
}

func TestCreateTask_DueDateYesterday(t *testing.T) {
	t.Parallel()

	svc := newTaskService(newFakeStorage())

	yesterday := time.Now().AddDate(0, 0, -1)
	_, err := svc.CreateTask(context.Background(), services.CreateTaskParams{
		Title:   "task",
		DueDate: &yesterday,
	})
	requireFieldError(t, err, "due_date")
}

func TestCreateTask_DueDateToday(t *testing.T) {
	t.Parallel()

	svc := newTaskService(newFakeStorage())

	today := time.Now()
	task := mustCreateTask(t, svc, services.CreateTaskParams{
		Title:   "task",
		DueDate: &today,
	})
	if task.DueDate == nil {
		t.Fatal("expected due date to be kept")
	}
}

func TestCreateTask_AssigneeNotFound(t *testing.T) {
	t.Parallel()

	svc := newTaskService(newFakeStorage())

	missing := uuid.NewString()
	_, err := svc.CreateTask(context.Background(), services.CreateTaskParams{
		Title:      "task",
		AssignedTo: &missing,
	})
	if !errors.Is(err, services.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestCreateTask_DeactivatedAssignee(t *testing.T) {
	t.Parallel()

	storage := newFakeStorage()
	svc := newTaskService(storage)

	userID := mustCreateUser(t, storage, "ghost@example.com", false)

	_, err := svc.CreateTask(context.Background(), services.CreateTaskParams{
		Title:      "task",
		AssignedTo: &userID,
	})
	if !errors.Is(err, services.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUpdateTask_PartialPatch(t *testing.T) {
	t.Parallel()

	storage := newFakeStorage()
	svc := newTaskService(storage)

	task := mustCreateTask(t, svc, services.CreateTaskParams{
		Title:    "original title",
		Priority: models.PriorityLow,
	})

	status := models.StatusDone
	updated, err := svc.UpdateTask(context.Background(), task.ID, services.TaskPatch{
		Status: &status,
	})
	if err != nil {
		t.Fatalf("UpdateTask returned error: %v", err)
	}

	if updated.Status != models.StatusDone {
		t.Fatalf("expected status done, got %s", updated.Status)
	}
	if updated.Title != "original title" {
		t.Fatalf("expected title unchanged, got %q", updated.Title)
	}
	if updated.Priority != models.PriorityLow {
		t.Fatalf("expected priority unchanged, got %s", updated.Priority)
	}
}

func TestUpdateTask_InvalidPatchLeavesTaskUntouched(t *testing.T) {
	t.Parallel()

	storage := newFakeStorage()
	svc := newTaskService(storage)

	task := mustCreateTask(t, svc, services.CreateTaskParams{Title: "task"})

	title := "new title"
	priority := "urgent"
	_, err := svc.UpdateTask(context.Background(), task.ID, services.TaskPatch{
		Title:    &title,
		Priority: &priority,
	})
	requireFieldError(t, err, "priority")

	persisted, err := svc.GetTask(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("GetTask returned error: %v", err)
	}
	if persisted.Title != "task" {
		t.Fatalf("expected title unchanged after failed patch, got %q", persisted.Title)
	}
}

func TestUpdateTask_NotFound(t *testing.T) {
	t.Parallel()

	svc := newTaskService(newFakeStorage())

	status := models.StatusDone
	_, err := svc.UpdateTask(context.Background(), 999, services.TaskPatch{Status: &status})
	if !errors.Is(err, services.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestDeleteTask_NotFound(t *testing.T) {
	t.Parallel()

	svc := newTaskService(newFakeStorage())

	err := svc.DeleteTask(context.Background(), 999)
	if !errors.Is(err, services.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestListTasks_InvalidStatusFilter(t *testing.T) {
	t.Parallel()

	svc := newTaskService(newFakeStorage())

	// The other filters are legal; the bad status must still fail.
	status := "archived"
	priority := models.PriorityHigh
	dueBefore := time.Now().AddDate(0, 0, 30)
	_, err := svc.ListTasks(context.Background(), services.TaskFilter{
		Status:    &status,
		Priority:  &priority,
		DueBefore: &dueBefore,
	})
	requireFieldError(t, err, "status")
}

func TestListTasks_PriorityValidatedFirst(t *testing.T) {
	t.Parallel()

	svc := newTaskService(newFakeStorage())

	status := "archived"
	priority := "urgent"
	_, err := svc.ListTasks(context.Background(), services.TaskFilter{
		Status:   &status,
		Priority: &priority,
	})
	requireFieldError(t, err, "priority")
}

func TestListTasks_OrderedByDueDateNullsLast(t *testing.T) {
	t.Parallel()

	svc := newTaskService(newFakeStorage())

	later := time.Now().AddDate(0, 0, 3)
	sooner := time.Now().AddDate(0, 0, 1)

	noDue := mustCreateTask(t, svc, services.CreateTaskParams{Title: "no due date"})
	lateTask := mustCreateTask(t, svc, services.CreateTaskParams{Title: "later", DueDate: &later})
	soonTask := mustCreateTask(t, svc, services.CreateTaskParams{Title: "sooner", DueDate: &sooner})

	tasks, err := svc.ListTasks(context.Background(), services.TaskFilter{})
	if err != nil {
		t.Fatalf("ListTasks returned error: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(tasks))
	}

	if tasks[0].ID != soonTask.ID {
		t.Fatalf("expected soonest task first, got %q", tasks[0].Title)
	}
	if tasks[1].ID != lateTask.ID {
		t.Fatalf("expected later task second, got %q", tasks[1].Title)
	}
	if tasks[2].ID != noDue.ID {
		t.Fatalf("expected task without due date last, got %q", tasks[2].Title)
	}
}

func TestListTasks_DueBeforeExcludesTasksWithoutDueDate(t *testing.T) {
	t.Parallel()

	svc := newTaskService(newFakeStorage())

	soon := time.Now().AddDate(0, 0, 1)
	mustCreateTask(t, svc, services.CreateTaskParams{Title: "dated", DueDate: &soon})
	mustCreateTask(t, svc, services.CreateTaskParams{Title: "undated"})

	dueBefore := time.Now().AddDate(0, 0, 10)
	tasks, err := svc.ListTasks(context.Background(), services.TaskFilter{DueBefore: &dueBefore})
	if err != nil {
		t.Fatalf("ListTasks returned error: %v", err)
	}

	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if tasks[0].Title != "dated" {
		t.Fatalf("expected only the dated task, got %q", tasks[0].Title)
	}
}

func TestListTasks_FiltersCombineWithAnd(t *testing.T) {
	t.Parallel()

	storage := newFakeStorage()
	svc := newTaskService(storage)

	alice := mustCreateUser(t, storage, "alice@example.com", true)
	bob := mustCreateUser(t, storage, "bob@example.com", true)

	done := models.StatusDone
	high := models.PriorityHigh

	match := mustCreateTask(t, svc, services.CreateTaskParams{
		Title:      "match",
		Status:     done,
		Priority:   high,
		AssignedTo: &alice,
	})
	mustCreateTask(t, svc, services.CreateTaskParams{
		Title:      "wrong priority",
		Status:     done,
		Priority:   models.PriorityLow,
		AssignedTo: &alice,
	})
	mustCreateTask(t, svc, services.CreateTaskParams{
		Title:      "wrong assignee",
		Status:     done,
		Priority:   high,
		AssignedTo: &bob,
	})

	tasks, err := svc.ListTasks(context.Background(), services.TaskFilter{
		Status:     &done,
		Priority:   &high,
		AssignedTo: &alice,
	})
	if err != nil {
		t.Fatalf("ListTasks returned error: %v", err)
	}

	if len(tasks) != 1 || tasks[0].ID != match.ID {
		t.Fatalf("expected only the matching task, got %d tasks", len(tasks))
	}
}

func TestListTasksByAssignee(t *testing.T) {
	t.Parallel()

	storage := newFakeStorage()
	svc := newTaskService(storage)

	alice := mustCreateUser(t, storage, "alice@example.com", true)
	bob := mustCreateUser(t, storage, "bob@example.com", true)

	mustCreateTask(t, svc, services.CreateTaskParams{Title: "for alice", AssignedTo: &alice})
	mustCreateTask(t, svc, services.CreateTaskParams{Title: "for bob", AssignedTo: &bob})

	tasks, err := svc.ListTasksByAssignee(context.Background(), alice)
	if err != nil {
		t.Fatalf("ListTasksByAssignee returned error: %v", err)
	}

	if len(tasks) != 1 || tasks[0].Title != "for alice" {
		t.Fatalf("expected only alice's task, got %d tasks", len(tasks))
	}
}
