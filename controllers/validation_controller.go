package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/photocard-archive/api-go/models"
	"gorm.io/gorm"
)

// ValidationController answers the signup form's availability checks.
type ValidationController struct {
	DB *gorm.DB
}

func NewValidationController(db *gorm.DB) *ValidationController {
	return &ValidationController{DB: db}
}

func (vc *ValidationController) ValidateUsername(c *gin.Context) {
	username := strings.TrimSpace(c.Param("username"))
	if username == "" {
		_ = c.Error(errInvalidBody)
		return
	}
	vc.respondExists(c, "username = ?", username)
}

func (vc *ValidationController) ValidateEmail(c *gin.Context) {
	email := strings.ToLower(strings.TrimSpace(c.Param("email")))
	if email == "" {
		_ = c.Error(errInvalidBody)
		return
	}
	vc.respondExists(c, "email = ?", email)
}

func (vc *ValidationController) respondExists(c *gin.Context, where string, value string) {
	var count int64
	if err := vc.DB.WithContext(c.Request.Context()).Model(&models.User{}).Where(where, value).Count(&count).Error; err != nil {
		_ = c.Error(err)
		return
	}
	sendJSON(c, http.StatusOK, "Availability checked successfully.", gin.H{"exists": count > 0})
}
