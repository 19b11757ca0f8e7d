package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/photocard-archive/api-go/services"
	"github.com/photocard-archive/api-go/storage"
	"gorm.io/gorm"
)

// UserController is the admin side of user moderation.
type UserController struct {
	DB     *gorm.DB
	Images storage.ImageStore
}

func NewUserController(db *gorm.DB, images storage.ImageStore) *UserController {
	return &UserController{DB: db, Images: images}
}

func (uc *UserController) GetUsers(c *gin.Context) {
	users, err := services.ListUsers(c.Request.Context(), uc.DB)
	if err != nil {
		_ = c.Error(err)
		return
	}
	sendJSON(c, http.StatusOK, "Users fetched successfully.", gin.H{"users": users})
}

func (uc *UserController) GetUserCounts(c *gin.Context) {
	counts, err := services.CountUsers(c.Request.Context(), uc.DB)
	if err != nil {
		_ = c.Error(err)
		return
	}
	sendJSON(c, http.StatusOK, "User counts fetched successfully.", gin.H{"counts": counts})
}

func (uc *UserController) BlockUser(c *gin.Context) {
	admin, err := currentUser(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	userID, err := paramID(c, "userId")
	if err != nil {
		_ = c.Error(err)
		return
	}

	user, err := services.BlockUser(c.Request.Context(), uc.DB, userID, admin.UserID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	sendJSON(c, http.StatusOK, fmt.Sprintf("User %q has been blocked and related reports resolved.", user.Username), gin.H{"user": user})
}

func (uc *UserController) UnblockUser(c *gin.Context) {
	admin, err := currentUser(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	userID, err := paramID(c, "userId")
	if err != nil {
		_ = c.Error(err)
		return
	}

	user, err := services.UnblockUser(c.Request.Context(), uc.DB, userID, admin.UserID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	sendJSON(c, http.StatusOK, fmt.Sprintf("User %q has been unblocked.", user.Username), gin.H{"user": user})
}

func (uc *UserController) DeleteUser(c *gin.Context) {
	admin, err := currentUser(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	userID, err := paramID(c, "userId")
	if err != nil {
		_ = c.Error(err)
		return
	}

	user, err := services.DeleteUser(c.Request.Context(), uc.DB, uc.Images, userID, admin.UserID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	sendJSON(c, http.StatusOK, fmt.Sprintf("User %q and their associated photocards and reports have been deleted.", user.Username), nil)
}
