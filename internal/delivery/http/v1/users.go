package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mzhavoronkov/task-tracker/internal/models"
	"github.com/mzhavoronkov/task-tracker/internal/services"
)

type getUserResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}

func newGetUserResponse(user *models.User) getUserResponse {
	return getUserResponse{
		ID:       user.ID,
		Name:     user.Name,
		Email:    user.Email,
		IsActive: user.IsActive,
	}
}

func (h *handlerImpl) HandleGetUser(c *gin.Context) {
	user, err := h.users.GetUser(c, c.Param("id"))
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to get user")
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			abort(c, newNotFoundError(services.ErrUserNotFound.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	c.JSON(http.StatusOK, newGetUserResponse(user))
}

type updateUserRequest struct {
	Name     *string `json:"name,omitempty" binding:"omitempty,max=255"`
	Email    *string `json:"email,omitempty" binding:"omitempty,email,max=255"`
	Password *string `json:"password,omitempty" binding:"omitempty,min=6,max=255"`
}

func (h *handlerImpl) HandleUpdateUser(c *gin.Context) {
	var req updateUserRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	user, err := h.users.UpdateUser(c, c.Param("id"), services.UserPatch{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to update user")
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			abort(c, newNotFoundError(services.ErrUserNotFound.Error()))
		case errors.Is(err, services.ErrEmailTaken):
			abort(c, newConflictError(services.ErrEmailTaken.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	c.JSON(http.StatusOK, newGetUserResponse(user))
}

func (h *handlerImpl) HandleDeleteUser(c *gin.Context) {
	err := h.users.DeactivateUser(c, c.Param("id"))
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to deactivate user")
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			abort(c, newNotFoundError(services.ErrUserNotFound.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	c.Status(http.StatusNoContent)
}
