package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/photocard-archive/api-go/controllers"
)

func SetupReportRoutes(protected *gin.RouterGroup, reportController *controllers.ReportController) {
	protected.POST("/reports", reportController.CreateReport)
}

func SetupAdminReportRoutes(admin *gin.RouterGroup, reportController *controllers.ReportController) {
	reports := admin.Group("/reports")
	{
		reports.GET("", reportController.GetReports)
		reports.GET("/counts", reportController.GetReportCounts)
		reports.GET("/:itemId", reportController.GetReportsByItem)
		reports.PUT("/:reportId/status", reportController.UpdateReportStatus)
	}
}
