package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/photocard-archive/api-go/models"
	"github.com/photocard-archive/api-go/storage"
	"github.com/photocard-archive/api-go/utils"
	"gorm.io/gorm"
)

// UploadController hands out presigned upload URLs. Clients PUT the image
// straight to the bucket and then store the returned key on a photocard.
type UploadController struct {
	DB     *gorm.DB
	Images storage.ImageStore
}

type PresignedURLRequest struct {
	FileName    string `json:"fileName" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
	FileSize    int64  `json:"fileSize" binding:"required"`
}

type PresignedURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	FileURL   string `json:"fileUrl"`
	Key       string `json:"key"`
	ExpiresIn int    `json:"expiresIn"`
}

type UploadCompleteRequest struct {
	Key string `json:"key" binding:"required"`
}

func NewUploadController(db *gorm.DB, images storage.ImageStore) *UploadController {
	return &UploadController{DB: db, Images: images}
}

func (uc *UploadController) GetPresignedURL(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req PresignedURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(utils.Validation("fileName, contentType and fileSize are required."))
		return
	}
	if err := storage.ValidImage(req.ContentType, req.FileSize); err != nil {
		_ = c.Error(utils.Validation("Only JPEG, PNG or WebP images up to 5MB are allowed."))
		return
	}

	key := storage.NewObjectKey(user.UserID, req.FileName)
	uploadURL, err := uc.Images.PresignUpload(c.Request.Context(), key, req.ContentType)
	if err != nil {
		_ = c.Error(utils.Internal("Failed to create upload URL.", err))
		return
	}

	sendJSON(c, http.StatusOK, "Presigned URL generated successfully.", gin.H{
		"data": PresignedURLResponse{
			UploadURL: uploadURL,
			FileURL:   uc.Images.PublicURL(key),
			Key:       key,
			ExpiresIn: int(storage.UploadURLExpiry.Seconds()),
		},
	})
}

func (uc *UploadController) ConfirmUpload(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req UploadCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(utils.Validation("key is required."))
		return
	}
	if !storage.OwnsKey(req.Key, user.UserID) {
		_ = c.Error(utils.Forbidden("Access denied."))
		return
	}

	exists, err := uc.Images.Exists(c.Request.Context(), req.Key)
	if err != nil {
		_ = c.Error(utils.Internal("Failed to verify file upload.", err))
		return
	}
	if !exists {
		_ = c.Error(utils.NotFound("File not found in storage."))
		return
	}

	sendJSON(c, http.StatusOK, "Upload confirmed successfully.", gin.H{
		"data": gin.H{
			"key":     req.Key,
			"fileUrl": uc.Images.PublicURL(req.Key),
		},
	})
}

// DeleteFile removes an uploaded image the caller owns that no photocard
// references, such as one abandoned before the photocard was saved.
func (uc *UploadController) DeleteFile(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		_ = c.Error(utils.Validation("File key is required."))
		return
	}
	if !storage.OwnsKey(key, user.UserID) {
		_ = c.Error(utils.Forbidden("Access denied."))
		return
	}

	var refs int64
	if err := uc.DB.WithContext(c.Request.Context()).Model(&models.Photocard{}).Where("image = ?", key).Count(&refs).Error; err != nil {
		_ = c.Error(err)
		return
	}
	if refs > 0 {
		_ = c.Error(utils.Conflict("File is still used by a photocard."))
		return
	}

	if err := uc.Images.Delete(c.Request.Context(), key); err != nil {
		_ = c.Error(utils.Internal("Failed to delete file.", err))
		return
	}
	sendJSON(c, http.StatusOK, "File deleted successfully.", nil)
}
