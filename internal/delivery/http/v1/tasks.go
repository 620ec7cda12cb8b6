package v1

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mzhavoronkov/task-tracker/internal/models"
	"github.com/mzhavoronkov/task-tracker/internal/services"
)

const dateOnlyLayout = "2006-01-02"

// dateOnly accepts and renders bare dates, which is what due dates
// are. encoding/json alone would insist on RFC 3339 timestamps.
type dateOnly struct {
	time.Time
}

func (d *dateOnly) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	// The quoted layout rejects anything that is not a quoted date,
	// including an explicit empty string.
	t, err := time.Parse(`"`+dateOnlyLayout+`"`, string(data))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d dateOnly) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(dateOnlyLayout) + `"`), nil
}

type getTaskResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	DueDate     *dateOnly `json:"due_date"`
	AssignedTo  *string   `json:"assigned_to"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newGetTaskResponse(task *models.Task) getTaskResponse {
	resp := getTaskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		AssignedTo:  task.AssignedTo,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
	if task.DueDate != nil {
		resp.DueDate = &dateOnly{*task.DueDate}
	}
	return resp
}

func newGetTasksResponse(tasks []*models.Task) []getTaskResponse {
	resp := make([]getTaskResponse, 0, len(tasks))
	for _, task := range tasks {
		resp = append(resp, newGetTaskResponse(task))
	}
	return resp
}

type createTaskRequest struct {
	Title       string    `json:"title" binding:"required,max=255"`
	Description *string   `json:"description,omitempty"`
	Status      *string   `json:"status,omitempty"`
	Priority    *string   `json:"priority,omitempty"`
	DueDate     *dateOnly `json:"due_date,omitempty"`
	AssignedTo  *string   `json:"assigned_to,omitempty"`
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	var req createTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	params := services.CreateTaskParams{
		Title:      req.Title,
		AssignedTo: req.AssignedTo,
	}
	if req.Description != nil {
		params.Description = *req.Description
	}
	if req.Status != nil {
		params.Status = *req.Status
	}
	if req.Priority != nil {
		params.Priority = *req.Priority
	}
	if req.DueDate != nil && !req.DueDate.IsZero() {
		due := req.DueDate.Time
		params.DueDate = &due
	}

	task, err := h.tasks.CreateTask(c, params)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to create task")
		abortTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newGetTaskResponse(task))
}

func (h *handlerImpl) HandleGetTask(c *gin.Context) {
	taskID, ok := parseTaskID(c)
	if !ok {
		return
	}

	task, err := h.tasks.GetTask(c, taskID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to get task")
		abortTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, newGetTaskResponse(task))
}

type listTasksRequest struct {
	Status     *string    `form:"status"`
	Priority   *string    `form:"priority"`
	DueBefore  *time.Time `form:"due_before" time_format:"2006-01-02"`
	AssignedTo *string    `form:"assigned_to"`
}

func (h *handlerImpl) HandleListTasks(c *gin.Context) {
	var req listTasksRequest
	err := c.ShouldBindQuery(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind query")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	tasks, err := h.tasks.ListTasks(c, services.TaskFilter{
		Status:     req.Status,
		Priority:   req.Priority,
		DueBefore:  req.DueBefore,
		AssignedTo: req.AssignedTo,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to list tasks")
		abortTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, newGetTasksResponse(tasks))
}

func (h *handlerImpl) HandleListTasksByUser(c *gin.Context) {
	tasks, err := h.tasks.ListTasksByAssignee(c, c.Param("id"))
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to list tasks by user")
		abortTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, newGetTasksResponse(tasks))
}

type updateTaskRequest struct {
	Title       *string   `json:"title,omitempty" binding:"omitempty,max=255"`
	Description *string   `json:"description,omitempty"`
	Status      *string   `json:"status,omitempty"`
	Priority    *string   `json:"priority,omitempty"`
	DueDate     *dateOnly `json:"due_date,omitempty"`
	AssignedTo  *string   `json:"assigned_to,omitempty"`
}

func (h *handlerImpl) HandleUpdateTask(c *gin.Context) {
	taskID, ok := parseTaskID(c)
	if !ok {
		return
	}

	var req updateTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	patch := services.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		AssignedTo:  req.AssignedTo,
	}
	if req.DueDate != nil && !req.DueDate.IsZero() {
		due := req.DueDate.Time
		patch.DueDate = &due
	}

	task, err := h.tasks.UpdateTask(c, taskID, patch)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to update task")
		abortTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, newGetTaskResponse(task))
}

func (h *handlerImpl) HandleDeleteTask(c *gin.Context) {
	taskID, ok := parseTaskID(c)
	if !ok {
		return
	}

	err := h.tasks.DeleteTask(c, taskID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to delete task")
		abortTaskError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func parseTaskID(c *gin.Context) (int64, bool) {
	taskID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		abort(c, newBadRequestError("invalid task id"))
		return 0, false
	}
	return taskID, true
}

// abortTaskError maps task service failures to responses: field
// rejections carry their message into a 400, missing tasks and
// assignees turn into 404.
func abortTaskError(c *gin.Context, err error) {
	var fieldErr *services.FieldError
	switch {
	case errors.As(err, &fieldErr):
		abort(c, newBadRequestError(fieldErr.Error()))
	case errors.Is(err, services.ErrTaskNotFound):
		abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
	case errors.Is(err, services.ErrUserNotFound):
		abort(c, newNotFoundError(services.ErrUserNotFound.Error()))
	default:
		abort(c, newStatusTextError(http.StatusInternalServerError))
	}
}
