package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/photocard-archive/api-go/services"
	"github.com/photocard-archive/api-go/storage"
	"gorm.io/gorm"
)

// AdminController drives the photocard moderation state machine.
type AdminController struct {
	DB     *gorm.DB
	Images storage.ImageStore
}

func NewAdminController(db *gorm.DB, images storage.ImageStore) *AdminController {
	return &AdminController{DB: db, Images: images}
}

// photocardAction resolves the :id param and the acting admin for the
// single-record transitions below.
func photocardAction(c *gin.Context) (id, adminID uint, ok bool) {
	user, err := currentUser(c)
	if err != nil {
		_ = c.Error(err)
		return 0, 0, false
	}
	id, err = paramID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return 0, 0, false
	}
	return id, user.UserID, true
}

func (ac *AdminController) GetCounts(c *gin.Context) {
	counts, err := services.CountPhotocards(c.Request.Context(), ac.DB)
	if err != nil {
		_ = c.Error(err)
		return
	}
	sendJSON(c, http.StatusOK, "Photocard counts fetched successfully.", gin.H{"counts": counts})
}

func (ac *AdminController) GetPhotocardsByStatus(c *gin.Context) {
	status := c.Query("status")
	photocards, err := services.ListPhotocardsByStatus(c.Request.Context(), ac.DB, status)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if len(photocards) == 0 {
		sendJSON(c, http.StatusOK, fmt.Sprintf("No photocards found for status: %s.", status), gin.H{"photocards": photocards})
		return
	}
	sendJSON(c, http.StatusOK, "Photocards fetched successfully.", gin.H{"photocards": photocards})
}

func (ac *AdminController) GetPhotocard(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	photocard, err := services.GetPhotocardAdmin(c.Request.Context(), ac.DB, id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	sendJSON(c, http.StatusOK, "Photocard fetched successfully.", gin.H{"photocard": photocard})
}

func (ac *AdminController) GetDeletedPhotocards(c *gin.Context) {
	deleted, err := services.ListDeletedPhotocards(c.Request.Context(), ac.DB)
	if err != nil {
		_ = c.Error(err)
		return
	}
	sendJSON(c, http.StatusOK, "Deleted photocards fetched successfully.", gin.H{"deletedPhotocards": deleted})
}

func (ac *AdminController) UnflagPhotocard(c *gin.Context) {
	id, adminID, ok := photocardAction(c)
	if !ok {
		return
	}
	photocard, err := services.UnflagPhotocard(c.Request.Context(), ac.DB, id, adminID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	sendJSON(c, http.StatusOK, "Photocard unflagged and related reports resolved successfully.", gin.H{"photocard": photocard})
}

func (ac *AdminController) BlockPhotocard(c *gin.Context) {
	id, adminID, ok := photocardAction(c)
	if !ok {
		return
	}
	photocard, err := services.BlockPhotocard(c.Request.Context(), ac.DB, id, adminID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	sendJSON(c, http.StatusOK, "Photocard has been blocked and related reports resolved.", gin.H{"photocard": photocard})
}

func (ac *AdminController) UnblockPhotocard(c *gin.Context) {
	id, adminID, ok := photocardAction(c)
	if !ok {
		return
	}
	photocard, err := services.UnblockPhotocard(c.Request.Context(), ac.DB, id, adminID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	sendJSON(c, http.StatusOK, "Photocard has been unblocked.", gin.H{"photocard": photocard})
}

func (ac *AdminController) SoftDeletePhotocard(c *gin.Context) {
	id, adminID, ok := photocardAction(c)
	if !ok {
		return
	}
	actor := services.Actor{UserID: adminID, IsAdmin: true}
	if err := services.SoftDeletePhotocard(c.Request.Context(), ac.DB, ac.Images, id, actor); err != nil {
		_ = c.Error(err)
		return
	}
	sendJSON(c, http.StatusOK, "Photocard marked as deleted by admin and reports resolved.", nil)
}

func (ac *AdminController) RestorePhotocard(c *gin.Context) {
	id, adminID, ok := photocardAction(c)
	if !ok {
		return
	}
	photocard, err := services.RestorePhotocard(c.Request.Context(), ac.DB, id, adminID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	sendJSON(c, http.StatusOK, "Photocard restored successfully.", gin.H{"photocard": photocard})
}

func (ac *AdminController) DeletePhotocardPermanently(c *gin.Context) {
	id, adminID, ok := photocardAction(c)
	if !ok {
		return
	}
	if err := services.HardDeletePhotocard(c.Request.Context(), ac.DB, id, adminID); err != nil {
		_ = c.Error(err)
		return
	}
	sendJSON(c, http.StatusOK, "Photocard permanently deleted successfully.", nil)
}

func (ac *AdminController) GetDuplicates(c *gin.Context) {
	photocards, err := services.ListDuplicatesForReview(c.Request.Context(), ac.DB)
	if err != nil {
		_ = c.Error(err)
		return
	}
	sendJSON(c, http.StatusOK, "Duplicate photocards fetched successfully.", gin.H{"photocards": photocards})
}

func (ac *AdminController) CompareDuplicate(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	duplicate, original, err := services.DuplicateComparison(c.Request.Context(), ac.DB, id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	sendJSON(c, http.StatusOK, "Duplicate comparison data fetched successfully.", gin.H{
		"duplicatePhotocard": duplicate,
		"originalPhotocard":  original,
	})
}

func (ac *AdminController) CompareSuspectedDuplicate(c *gin.Context) {
	duplicateID, err := paramID(c, "duplicateId")
	if err != nil {
		_ = c.Error(err)
		return
	}
	originalID, err := paramID(c, "originalId")
	if err != nil {
		_ = c.Error(err)
		return
	}
	duplicate, original, err := services.SuspectedDuplicateComparison(c.Request.Context(), ac.DB, duplicateID, originalID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	sendJSON(c, http.StatusOK, "Suspected duplicate comparison data fetched successfully.", gin.H{
		"duplicatePhotocard": duplicate,
		"originalPhotocard":  original,
	})
}

func (ac *AdminController) ConfirmDuplicate(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	var input struct {
		DuplicatePhotocardID uint `json:"duplicatePhotocardId" binding:"required"`
		OriginalPhotocardID  uint `json:"originalPhotocardId" binding:"required"`
	}
	if err := bindJSON(c, &input); err != nil {
		_ = c.Error(err)
		return
	}

	photocard, err := services.ConfirmDuplicate(c.Request.Context(), ac.DB, input.DuplicatePhotocardID, input.OriginalPhotocardID, user.UserID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	sendJSON(c, http.StatusOK, "Photocard confirmed as duplicate and reports resolved.", gin.H{"photocard": photocard})
}

func (ac *AdminController) UnflagDuplicate(c *gin.Context) {
	id, adminID, ok := photocardAction(c)
	if !ok {
		return
	}
	photocard, err := services.UnflagDuplicate(c.Request.Context(), ac.DB, id, adminID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	sendJSON(c, http.StatusOK, "Photocard unmarked as duplicate and related reports resolved.", gin.H{"photocard": photocard})
}
