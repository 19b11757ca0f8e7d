package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/photocard-archive/api-go/controllers"
)

func SetupPhotocardRoutes(protected *gin.RouterGroup, photocardController *controllers.PhotocardController) {
	photocards := protected.Group("/photocards")
	{
		photocards.POST("", photocardController.CreatePhotocard)

		// Duplicate checks
		photocards.GET("/duplicates", photocardController.GetPotentialDuplicates)
		photocards.GET("/check-name", photocardController.CheckName)

		// Owner actions
		photocards.GET("/user/mine", photocardController.GetUserPhotocards)
		photocards.PUT("/user/:id", photocardController.UpdatePhotocard)
		photocards.DELETE("/user/:id", photocardController.DeletePhotocard)
	}
}

func SetupAdminPhotocardRoutes(admin *gin.RouterGroup, adminController *controllers.AdminController) {
	photocards := admin.Group("/photocards")
	{
		// Dashboard views
		photocards.GET("", adminController.GetPhotocardsByStatus)
		photocards.GET("/counts", adminController.GetCounts)
		photocards.GET("/deleted", adminController.GetDeletedPhotocards)
		photocards.GET("/:id", adminController.GetPhotocard)

		// Duplicates
		photocards.GET("/duplicates", adminController.GetDuplicates)
		photocards.GET("/compare/:id", adminController.CompareDuplicate)
		photocards.GET("/compare-suspected/:duplicateId/:originalId", adminController.CompareSuspectedDuplicate)
		photocards.PUT("/confirm-duplicate", adminController.ConfirmDuplicate)
		photocards.PUT("/:id/unflag-duplicate", adminController.UnflagDuplicate)

		// Moderation
		photocards.PUT("/:id/unflag", adminController.UnflagPhotocard)
		photocards.PUT("/:id/block", adminController.BlockPhotocard)
		photocards.PUT("/:id/unblock", adminController.UnblockPhotocard)

		// Delete lifecycle
		photocards.DELETE("/:id/soft-delete", adminController.SoftDeletePhotocard)
		photocards.PUT("/:id/restore", adminController.RestorePhotocard)
		photocards.DELETE("/:id", adminController.DeletePhotocardPermanently)
	}
}
