package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mzhavoronkov/task-tracker/internal/services"
)

type Handler interface {
	HandleRegister(c *gin.Context)
	HandleLogin(c *gin.Context)
	HandleAuthMiddleware(c *gin.Context)

	HandleGetUser(c *gin.Context)
	HandleUpdateUser(c *gin.Context)
	HandleDeleteUser(c *gin.Context)

	HandleCreateTask(c *gin.Context)
	HandleGetTask(c *gin.Context)
	HandleListTasks(c *gin.Context)
	HandleListTasksByUser(c *gin.Context)
	HandleUpdateTask(c *gin.Context)
	HandleDeleteTask(c *gin.Context)

	HandleCreateComment(c *gin.Context)
	HandleListComments(c *gin.Context)
	HandleDeleteComment(c *gin.Context)
}

type handlerImpl struct {
	logger   zerolog.Logger
	auth     services.AuthService
	users    services.UserService
	tasks    services.TaskService
	comments services.CommentService
}

func New(
	logger zerolog.Logger,
	authService services.AuthService,
	userService services.UserService,
	taskService services.TaskService,
	commentService services.CommentService,
) Handler {
	return &handlerImpl{
		logger:   logger,
		auth:     authService,
		users:    userService,
		tasks:    taskService,
		comments: commentService,
	}
}
