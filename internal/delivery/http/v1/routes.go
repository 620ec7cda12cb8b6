package v1

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts every v1 endpoint under /api/v1. The server and
// the tests share it so the route table cannot drift between them.
func RegisterRoutes(router gin.IRouter, h Handler) {
	api := router.Group("/api/v1")

	authRouter := api.Group("/auth")
	authRouter.POST("/register", h.HandleRegister)
	authRouter.POST("/login", h.HandleLogin)

	userRouter := api.Group("/users", h.HandleAuthMiddleware)
	userRouter.GET("/:id", h.HandleGetUser)
	userRouter.PUT("/:id", h.HandleUpdateUser)
	userRouter.DELETE("/:id", h.HandleDeleteUser)

	taskRouter := api.Group("/tasks", h.HandleAuthMiddleware)
	taskRouter.POST("", h.HandleCreateTask)
	taskRouter.GET("", h.HandleListTasks)
	taskRouter.GET("/:id", h.HandleGetTask)
	taskRouter.GET("/user/:id", h.HandleListTasksByUser)
	taskRouter.PUT("/:id", h.HandleUpdateTask)
	taskRouter.DELETE("/:id", h.HandleDeleteTask)

	taskRouter.POST("/:id/comments", h.HandleCreateComment)
	taskRouter.GET("/:id/comments", h.HandleListComments)
	taskRouter.DELETE("/:id/comments/:commentID", h.HandleDeleteComment)
}
