package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mzhavoronkov/task-tracker/internal/models"
)

var (
	// ErrUnauthenticated covers every failed identity resolution:
	// missing, malformed, expired or forged tokens and tokens whose
	// user is gone or deactivated. Callers must not learn which.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrInvalidCredentials is the single login failure. It does not
	// say whether the email or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrEmailTaken       = errors.New("email already taken")
	ErrUserNotFound     = errors.New("user not found")
	ErrTaskNotFound     = errors.New("task not found")
	ErrCommentNotFound  = errors.New("comment not found")
	ErrNotCommentAuthor = errors.New("not the comment author")
)

// FieldError rejects a value outside its closed set or range.
// It carries the offending field and, where the set is enumerable,
// the allowed values for caller feedback.
type FieldError struct {
	Field   string
	Allowed []string
	Reason  string
}

func (e *FieldError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s: must be one of %s",
		e.Field, strings.Join(e.Allowed, ", "))
}

type AuthService interface {
	// Register creates a user with a hashed password.
	//
	// It returns ErrEmailTaken if a user with the
	// given email already exists.
	Register(ctx context.Context, params RegisterParams) (*models.User, error)

	// Login authenticates the user by email and password and issues
	// an access token.
	//
	// It returns ErrInvalidCredentials on any failure: unknown email,
	// deactivated user or password mismatch.
	Login(ctx context.Context, params LoginParams) (*LoginResult, error)

	// Authenticate resolves a bearer token into an active user.
	//
	// It returns ErrUnauthenticated on any failure.
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

type UserService interface {
	// GetUser returns the active user with the given ID or
	// ErrUserNotFound. Deactivated users are invisible here.
	GetUser(ctx context.Context, id string) (*models.User, error)

	// UpdateUser applies the non-nil fields of the patch. A new
	// password is re-hashed, an email collision returns ErrEmailTaken.
	UpdateUser(ctx context.Context, id string, patch UserPatch) (*models.User, error)

	// DeactivateUser soft-deletes the user. The row stays behind for
	// referential integrity of past tasks and comments.
	DeactivateUser(ctx context.Context, id string) error
}

type TaskService interface {
	// CreateTask validates priority, status, due date and assignee in
	// that order, then persists the task in a single write.
	CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error)

	GetTask(ctx context.Context, id int64) (*models.Task, error)

	// ListTasks returns tasks matching every present filter, ordered
	// by due date ascending with tasks lacking a due date last.
	ListTasks(ctx context.Context, filter TaskFilter) ([]*models.Task, error)

	ListTasksByAssignee(ctx context.Context, userID string) ([]*models.Task, error)

	// UpdateTask validates and applies the non-nil fields of the
	// patch, then persists the task in a single write.
	UpdateTask(ctx context.Context, id int64, patch TaskPatch) (*models.Task, error)

	DeleteTask(ctx context.Context, id int64) error
}

type CommentService interface {
	// CreateComment attaches a comment to an existing task. The author
	// is always the authenticated identity, never client-supplied.
	CreateComment(ctx context.Context, taskID int64, authorID, content string) (*models.Comment, error)

	// ListComments returns the comments of an existing task,
	// newest first.
	ListComments(ctx context.Context, taskID int64) ([]*models.Comment, error)

	// DeleteComment deletes a comment if and only if the requester is
	// its author; otherwise it returns ErrNotCommentAuthor.
	DeleteComment(ctx context.Context, commentID int64, requesterID string) error
}

// Storage is the persistence port the services depend on. The
// Postgres adapter lives in internal/storage; tests substitute an
// in-memory fake.
type Storage interface {
	// CreateUser returns ErrEmailTaken on a duplicate email. The
	// uniqueness check and the insert are atomic at the storage layer.
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeactivateUser(ctx context.Context, id string) error

	CreateTask(ctx context.Context, task *models.Task) error
	GetTaskByID(ctx context.Context, id int64) (*models.Task, error)
	ListTasks(ctx context.Context, filter TaskFilter) ([]*models.Task, error)
	ListTasksByAssignee(ctx context.Context, userID string) ([]*models.Task, error)
	UpdateTask(ctx context.Context, task *models.Task) error
	DeleteTask(ctx context.Context, id int64) error

	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentByID(ctx context.Context, id int64) (*models.Comment, error)
	ListCommentsByTask(ctx context.Context, taskID int64) ([]*models.Comment, error)
	DeleteComment(ctx context.Context, id int64) error
}

type RegisterParams struct {
	Name     string
	Email    string
	Password string
}

type LoginParams struct {
	Email    string
	Password string
}

type LoginResult struct {
	UserID               string
	AccessToken          string
	AccessTokenExpiresAt time.Time
}

type UserPatch struct {
	Name     *string
	Email    *string
	Password *string
}

type CreateTaskParams struct {
	Title       string
	Description string
	Status      string
	Priority    string
	DueDate     *time.Time
	AssignedTo  *string
}

type TaskPatch struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	DueDate     *time.Time
	AssignedTo  *string
}

// TaskFilter fields are independent and AND-combined when present.
type TaskFilter struct {
	Status     *string
	Priority   *string
	DueBefore  *time.Time
	AssignedTo *string
}
