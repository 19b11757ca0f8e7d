package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/photocard-archive/api-go/controllers"
)

func SetupVerificationRoutes(protected *gin.RouterGroup, verificationController *controllers.VerificationController) {
	protected.POST("/verifications/photocards/:photocardId/identify", verificationController.SubmitIdentification)
}

func SetupAdminVerificationRoutes(admin *gin.RouterGroup, verificationController *controllers.VerificationController) {
	verifications := admin.Group("/verifications")
	{
		verifications.GET("/pending", verificationController.GetPendingVerifications)
		verifications.GET("/:id", verificationController.GetVerification)
		verifications.PATCH("/:id/approve", verificationController.ApproveVerification)
		verifications.PATCH("/:id/reject", verificationController.RejectVerification)
	}
}
