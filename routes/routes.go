package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/photocard-archive/api-go/config"
	"github.com/photocard-archive/api-go/controllers"
	"github.com/photocard-archive/api-go/middleware"
	"github.com/photocard-archive/api-go/storage"
	"gorm.io/gorm"
)

func SetupRoutes(r *gin.Engine, db *gorm.DB, images storage.ImageStore, cfg *config.AppConfig) {
	// Initialize controllers
	authController := controllers.NewAuthController(db, cfg)
	photocardController := controllers.NewPhotocardController(db, images)
	adminController := controllers.NewAdminController(db, images)
	reportController := controllers.NewReportController(db)
	verificationController := controllers.NewVerificationController(db)
	userController := controllers.NewUserController(db, images)
	uploadController := controllers.NewUploadController(db, images)
	validationController := controllers.NewValidationController(db)

	// Public routes
	public := r.Group("/api")
	{
		public.POST("/auth/signup", authController.Signup)
		public.POST("/auth/login", authController.Login)
		public.POST("/auth/refresh", authController.RefreshToken)
		public.POST("/auth/logout", authController.Logout)
		SetupValidationRoutes(public, validationController)

		public.GET("/photocards", photocardController.GetPhotocards)
		public.GET("/photocards/search", photocardController.SearchPhotocards)
		public.GET("/photocards/:id", photocardController.GetPhotocard)
	}

	// Protected routes
	protected := r.Group("/api")
	protected.Use(middleware.AuthMiddleware(db, cfg))
	{
		protected.GET("/auth/user", authController.GetProfile)

		SetupPhotocardRoutes(protected, photocardController)
		SetupReportRoutes(protected, reportController)
		SetupVerificationRoutes(protected, verificationController)
		SetupUploadRoutes(protected, uploadController)
	}

	// Admin routes
	admin := r.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(db, cfg), middleware.AdminOnly())
	{
		SetupAdminPhotocardRoutes(admin, adminController)
		SetupAdminReportRoutes(admin, reportController)
		SetupAdminVerificationRoutes(admin, verificationController)
		SetupUserRoutes(admin, userController)
	}
}
