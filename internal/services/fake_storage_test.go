package services_test

import (
	"context"
	"sort"
	"sync"

	"github.com/mzhavoronkov/task-tracker/internal/models"
	"github.com/mzhavoronkov/task-tracker/internal/services"
)

// fakeStorage is an in-memory services.Storage used by the service
// tests. It mirrors the Postgres adapter's contract: the same
// sentinel errors, atomic duplicate-email rejection and the
// NULLS LAST due date ordering.
type fakeStorage struct {
	mu sync.RWMutex

	nextTaskID    int64
	nextCommentID int64

	users    map[string]models.User
	tasks    map[int64]models.Task
	comments map[int64]models.Comment
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		nextTaskID:    1,
		nextCommentID: 1,
		users:         make(map[string]models.User),
		tasks:         make(map[int64]models.Task),
		comments:      make(map[int64]models.Comment),
	}
}

func cloneTask(t models.Task) models.Task {
	out := t
	if t.DueDate != nil {
		due := *t.DueDate
		out.DueDate = &due
	}
	if t.AssignedTo != nil {
		assignee := *t.AssignedTo
		out.AssignedTo = &assignee
	}
	return out
}

func (f *fakeStorage) CreateUser(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.users {
		if existing.Email == user.Email {
			return services.ErrEmailTaken
		}
	}
	f.users[user.ID] = *user
	return nil
}

func (f *fakeStorage) GetUserByID(_ context.Context, id string) (*models.User, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	user, ok := f.users[id]
	if !ok {
		return nil, services.ErrUserNotFound
	}
	return &user, nil
}

func (f *fakeStorage) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, user := range f.users {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, services.ErrUserNotFound
}

func (f *fakeStorage) UpdateUser(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.users[user.ID]; !ok {
		return services.ErrUserNotFound
	}
	for id, existing := range f.users {
		if id != user.ID && existing.Email == user.Email {
			return services.ErrEmailTaken
		}
	}
	f.users[user.ID] = *user
	return nil
}

func (f *fakeStorage) DeactivateUser(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[id]
	if !ok {
		return services.ErrUserNotFound
	}
	user.IsActive = false
	f.users[id] = user
	return nil
}

func (f *fakeStorage) CreateTask(_ context.Context, task *models.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	task.ID = f.nextTaskID
	f.nextTaskID++
	f.tasks[task.ID] = cloneTask(*task)
	return nil
}

func (f *fakeStorage) GetTaskByID(_ context.Context, id int64) (*models.Task, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	task, ok := f.tasks[id]
	if !ok {
		return nil, services.ErrTaskNotFound
	}
	out := cloneTask(task)
	return &out, nil
}

func (f *fakeStorage) ListTasks(_ context.Context, filter services.TaskFilter) ([]*models.Task, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var out []*models.Task
	for _, task := range f.tasks {
		if filter.Status != nil && task.Status != *filter.Status {
			continue
		}
		if filter.Priority != nil && task.Priority != *filter.Priority {
			continue
		}
		if filter.DueBefore != nil {
			if task.DueDate == nil || !task.DueDate.Before(*filter.DueBefore) {
				continue
			}
		}
		if filter.AssignedTo != nil {
			if task.AssignedTo == nil || *task.AssignedTo != *filter.AssignedTo {
				continue
			}
		}
		cloned := cloneTask(task)
		out = append(out, &cloned)
	}

	sortTasksByDueDate(out)
	return out, nil
}

func (f *fakeStorage) ListTasksByAssignee(_ context.Context, userID string) ([]*models.Task, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var out []*models.Task
	for _, task := range f.tasks {
		if task.AssignedTo != nil && *task.AssignedTo == userID {
			cloned := cloneTask(task)
			out = append(out, &cloned)
		}
	}

	sortTasksByDueDate(out)
	return out, nil
}

func (f *fakeStorage) UpdateTask(_ context.Context, task *models.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.tasks[task.ID]; !ok {
		return services.ErrTaskNotFound
	}
	f.tasks[task.ID] = cloneTask(*task)
	return nil
}

func (f *fakeStorage) DeleteTask(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.tasks[id]; !ok {
		return services.ErrTaskNotFound
	}
	delete(f.tasks, id)
	return nil
}

func (f *fakeStorage) CreateComment(_ context.Context, comment *models.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	comment.ID = f.nextCommentID
	f.nextCommentID++
	f.comments[comment.ID] = *comment
	return nil
}

func (f *fakeStorage) GetCommentByID(_ context.Context, id int64) (*models.Comment, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	comment, ok := f.comments[id]
	if !ok {
		return nil, services.ErrCommentNotFound
	}
	return &comment, nil
}

func (f *fakeStorage) ListCommentsByTask(_ context.Context, taskID int64) ([]*models.Comment, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var out []*models.Comment
	for _, comment := range f.comments {
		if comment.TaskID == taskID {
			cloned := comment
			out = append(out, &cloned)
		}
	}

	// Newest first, id as the tie breaker.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (f *fakeStorage) DeleteComment(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.comments[id]; !ok {
		return services.ErrCommentNotFound
	}
	delete(f.comments, id)
	return nil
}

func (f *fakeStorage) commentCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.comments)
}

// sortTasksByDueDate orders ascending by due date with tasks lacking
// one last, matching ORDER BY due_date ASC NULLS LAST, id ASC.
func sortTasksByDueDate(tasks []*models.Task) {
	sort.Slice(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		switch {
		case a.DueDate == nil && b.DueDate == nil:
			return a.ID < b.ID
		case a.DueDate == nil:
			return false
		case b.DueDate == nil:
			return true
		case !a.DueDate.Equal(*b.DueDate):
			return a.DueDate.Before(*b.DueDate)
		default:
			return a.ID < b.ID
		}
	})
}
