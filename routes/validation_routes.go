package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/photocard-archive/api-go/controllers"
)

// SetupValidationRoutes mounts the signup availability checks.
func SetupValidationRoutes(public *gin.RouterGroup, validationController *controllers.ValidationController) {
	validation := public.Group("/validation")
	{
		validation.GET("/username/:username", validationController.ValidateUsername)
		validation.GET("/email/:email", validationController.ValidateEmail)
	}
}
