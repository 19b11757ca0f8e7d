package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/photocard-archive/api-go/controllers"
)

func SetupUserRoutes(admin *gin.RouterGroup, userController *controllers.UserController) {
	users := admin.Group("/users")
	{
		users.GET("", userController.GetUsers)
		users.GET("/counts", userController.GetUserCounts)
		users.PUT("/:userId/block", userController.BlockUser)
		users.PUT("/:userId/unblock", userController.UnblockUser)
		users.DELETE("/:userId", userController.DeleteUser)
	}
}
