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

type getCommentResponse struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	TaskID    int64     `json:"task_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func newGetCommentResponse(comment *models.Comment) getCommentResponse {
	return getCommentResponse{
		ID:        comment.ID,
		Content:   comment.Content,
		TaskID:    comment.TaskID,
		UserID:    comment.UserID,
		CreatedAt: comment.CreatedAt,
	}
}

type createCommentRequest struct {
	Content string `json:"content" binding:"required,min=1,max=500"`
}

func (h *handlerImpl) HandleCreateComment(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	taskID, ok := parseTaskID(c)
	if !ok {
		return
	}

	var req createCommentRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	comment, err := h.comments.CreateComment(c, taskID, userID, req.Content)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to create comment")
		abortCommentError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newGetCommentResponse(comment))
}

func (h *handlerImpl) HandleListComments(c *gin.Context) {
	taskID, ok := parseTaskID(c)
	if !ok {
		return
	}

	comments, err := h.comments.ListComments(c, taskID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to list comments")
		abortCommentError(c, err)
		return
	}

	resp := make([]getCommentResponse, 0, len(comments))
	for _, comment := range comments {
		resp = append(resp, newGetCommentResponse(comment))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlerImpl) HandleDeleteComment(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	commentID, err := strconv.ParseInt(c.Param("commentID"), 10, 64)
	if err != nil {
		abort(c, newBadRequestError("invalid comment id"))
		return
	}

	err = h.comments.DeleteComment(c, commentID, userID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to delete comment")
		abortCommentError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func abortCommentError(c *gin.Context, err error) {
	var fieldErr *services.FieldError
	switch {
	case errors.As(err, &fieldErr):
		abort(c, newBadRequestError(fieldErr.Error()))
	case errors.Is(err, services.ErrTaskNotFound):
		abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
	case errors.Is(err, services.ErrCommentNotFound):
		abort(c, newNotFoundError(services.ErrCommentNotFound.Error()))
	case errors.Is(err, services.ErrNotCommentAuthor):
		abort(c, newForbiddenError(services.ErrNotCommentAuthor.Error()))
	default:
		abort(c, newStatusTextError(http.StatusInternalServerError))
	}
}
