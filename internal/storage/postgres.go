package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/mzhavoronkov/task-tracker/internal/models"
	"github.com/mzhavoronkov/task-tracker/internal/services"
)

// Postgres implements services.Storage on top of a pgx pool.
type Postgres struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

func NewPostgres(logger zerolog.Logger, pgPool *pgxpool.Pool) *Postgres {
	return &Postgres{
		logger: logger,
		pgPool: pgPool,
	}
}

func (p *Postgres) CreateUser(ctx context.Context, user *models.User) error {
	const insertUserQuery = `
INSERT INTO users (id,
                   name,
                   email,
                   password,
                   is_active,
                   created_at,
                   updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`
	_, err := p.pgPool.Exec(
		ctx,
		insertUserQuery,
		user.ID,
		user.Name,
		user.Email,
		user.Password,
		user.IsActive,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return services.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}

	p.logger.Debug().
		Str("user_id", user.ID).
		Msg("inserted user")
	return nil
}

func (p *Postgres) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user := &models.User{ID: id}

	const selectUserByIDQuery = `
SELECT name,
       email,
       password,
       is_active,
       created_at,
       updated_at
FROM users
WHERE id = $1
`
	err := p.pgPool.QueryRow(
		ctx,
		selectUserByIDQuery,
		user.ID,
	).Scan(
		&user.Name,
		&user.Email,
		&user.Password,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, services.ErrUserNotFound
		}
		return nil, fmt.Errorf("select user by id: %w", err)
	}
	return user, nil
}

func (p *Postgres) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{Email: email}

	const selectUserByEmailQuery = `
SELECT id,
       name,
       password,
       is_active,
       created_at,
       updated_at
FROM users
WHERE email = $1
`
	err := p.pgPool.QueryRow(
		ctx,
		selectUserByEmailQuery,
		user.Email,
	).Scan(
		&user.ID,
		&user.Name,
		&user.Password,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, services.ErrUserNotFound
		}
		return nil, fmt.Errorf("select user by email: %w", err)
	}
	return user, nil
}

func (p *Postgres) UpdateUser(ctx context.Context, user *models.User) error {
	const updateUserQuery = `
UPDATE users
SET name = $1,
    email = $2,
    password = $3,
    updated_at = $4
WHERE id = $5
`
	tag, err := p.pgPool.Exec(
		ctx,
		updateUserQuery,
		user.Name,
		user.Email,
		user.Password,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return services.ErrEmailTaken
		}
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return services.ErrUserNotFound
	}

	p.logger.Debug().
		Str("user_id", user.ID).
		Msg("updated user")
	return nil
}

func (p *Postgres) DeactivateUser(ctx context.Context, id string) error {
	const deactivateUserQuery = `
UPDATE users
SET is_active = FALSE,
    updated_at = NOW()
WHERE id = $1
`
	tag, err := p.pgPool.Exec(
		ctx,
		deactivateUserQuery,
		id,
	)
	if err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return services.ErrUserNotFound
	}

	p.logger.Debug().
		Str("user_id", id).
		Msg("deactivated user")
	return nil
}

func (p *Postgres) CreateTask(ctx context.Context, task *models.Task) error {
	const insertTaskQuery = `
INSERT INTO tasks (title,
                   description,
                   status,
                   priority,
                   due_date,
                   assigned_to,
                   created_at,
                   updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id
`
	err := p.pgPool.QueryRow(
		ctx,
		insertTaskQuery,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.DueDate,
		task.AssignedTo,
		task.CreatedAt,
		task.UpdatedAt,
	).Scan(&task.ID)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}

	p.logger.Debug().
		Int64("task_id", task.ID).
		Msg("inserted task")
	return nil
}

func (p *Postgres) GetTaskByID(ctx context.Context, id int64) (*models.Task, error) {
	task := &models.Task{ID: id}

	const selectTaskByIDQuery = `
SELECT title,
       description,
       status,
       priority,
       due_date,
       assigned_to,
       created_at,
       updated_at
FROM tasks
WHERE id = $1
`
	err := p.pgPool.QueryRow(
		ctx,
		selectTaskByIDQuery,
		task.ID,
	).Scan(
		&task.Title,
		&task.Description,
		&task.Status,
		&task.Priority,
		&task.DueDate,
		&task.AssignedTo,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, services.ErrTaskNotFound
		}
		return nil, fmt.Errorf("select task by id: %w", err)
	}
	return task, nil
}

func (p *Postgres) ListTasks(ctx context.Context, filter services.TaskFilter) ([]*models.Task, error) {
	var sb strings.Builder
	sb.WriteString(`
SELECT id,
       title,
       description,
       status,
       priority,
       due_date,
       assigned_to,
       created_at,
       updated_at
FROM tasks
`)

	var (
		conds []string
		args  []any
	)
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		conds = append(conds, fmt.Sprintf("priority = $%d", len(args)))
	}
	if filter.DueBefore != nil {
		args = append(args, *filter.DueBefore)
		conds = append(conds, "due_date IS NOT NULL")
		conds = append(conds, fmt.Sprintf("due_date < $%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		conds = append(conds, fmt.Sprintf("assigned_to = $%d", len(args)))
	}
	if len(conds) > 0 {
		sb.WriteString("WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
		sb.WriteString("\n")
	}
	sb.WriteString("ORDER BY due_date ASC NULLS LAST, id ASC")

	rows, err := p.pgPool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("select tasks: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

func (p *Postgres) ListTasksByAssignee(ctx context.Context, userID string) ([]*models.Task, error) {
	const selectTasksByAssigneeQuery = `
SELECT id,
       title,
       description,
       status,
       priority,
       due_date,
       assigned_to,
       created_at,
       updated_at
FROM tasks
WHERE assigned_to = $1
ORDER BY due_date ASC NULLS LAST, id ASC
`
	rows, err := p.pgPool.Query(
		ctx,
		selectTasksByAssigneeQuery,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select tasks by assignee: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

func (p *Postgres) UpdateTask(ctx context.Context, task *models.Task) error {
	const updateTaskQuery = `
UPDATE tasks
SET title = $1,
    description = $2,
    status = $3,
    priority = $4,
    due_date = $5,
    assigned_to = $6,
    updated_at = $7
WHERE id = $8
`
	tag, err := p.pgPool.Exec(
		ctx,
		updateTaskQuery,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.DueDate,
		task.AssignedTo,
		task.UpdatedAt,
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return services.ErrTaskNotFound
	}

	p.logger.Debug().
		Int64("task_id", task.ID).
		Msg("updated task")
	return nil
}

func (p *Postgres) DeleteTask(ctx context.Context, id int64) error {
	const deleteTaskQuery = `
DELETE FROM tasks
WHERE id = $1
`
	tag, err := p.pgPool.Exec(
		ctx,
		deleteTaskQuery,
		id,
	)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return services.ErrTaskNotFound
	}

	p.logger.Debug().
		Int64("task_id", id).
		Msg("deleted task")
	return nil
}

func (p *Postgres) CreateComment(ctx context.Context, comment *models.Comment) error {
	const insertCommentQuery = `
INSERT INTO comments (content,
                      task_id,
                      user_id,
                      created_at)
VALUES ($1, $2, $3, $4)
RETURNING id
`
	err := p.pgPool.QueryRow(
		ctx,
		insertCommentQuery,
		comment.Content,
		comment.TaskID,
		comment.UserID,
		comment.CreatedAt,
	).Scan(&comment.ID)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}

	p.logger.Debug().
		Int64("comment_id", comment.ID).
		Msg("inserted comment")
	return nil
}

func (p *Postgres) GetCommentByID(ctx context.Context, id int64) (*models.Comment, error) {
	comment := &models.Comment{ID: id}

	const selectCommentByIDQuery = `
SELECT content,
       task_id,
       user_id,
       created_at
FROM comments
WHERE id = $1
`
	err := p.pgPool.QueryRow(
		ctx,
		selectCommentByIDQuery,
		comment.ID,
	).Scan(
		&comment.Content,
		&comment.TaskID,
		&comment.UserID,
		&comment.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, services.ErrCommentNotFound
		}
		return nil, fmt.Errorf("select comment by id: %w", err)
	}
	return comment, nil
}

func (p *Postgres) ListCommentsByTask(ctx context.Context, taskID int64) ([]*models.Comment, error) {
	const selectCommentsByTaskQuery = `
SELECT id,
       content,
       user_id,
       created_at
FROM comments
WHERE task_id = $1
ORDER BY created_at DESC, id DESC
`
	rows, err := p.pgPool.Query(
		ctx,
		selectCommentsByTaskQuery,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("select comments by task: %w", err)
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		comment := &models.Comment{TaskID: taskID}
		err = rows.Scan(
			&comment.ID,
			&comment.Content,
			&comment.UserID,
			&comment.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, comment)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return comments, nil
}

func (p *Postgres) DeleteComment(ctx context.Context, id int64) error {
	const deleteCommentQuery = `
DELETE FROM comments
WHERE id = $1
`
	tag, err := p.pgPool.Exec(
		ctx,
		deleteCommentQuery,
		id,
	)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return services.ErrCommentNotFound
	}

	p.logger.Debug().
		Int64("comment_id", id).
		Msg("deleted comment")
	return nil
}

func scanTasks(rows pgx.Rows) ([]*models.Task, error) {
	var tasks []*models.Task
	for rows.Next() {
		task := &models.Task{}
		err := rows.Scan(
			&task.ID,
			&task.Title,
			&task.Description,
			&task.Status,
			&task.Priority,
			&task.DueDate,
			&task.AssignedTo,
			&task.CreatedAt,
			&task.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
