package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/photocard-archive/api-go/services"
	"gorm.io/gorm"
)

// VerificationController runs the identification workflow.
type VerificationController struct {
	DB *gorm.DB
}

func NewVerificationController(db *gorm.DB) *VerificationController {
	return &VerificationController{DB: db}
}

func (vc *VerificationController) SubmitIdentification(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	photocardID, err := paramID(c, "photocardId")
	if err != nil {
		_ = c.Error(err)
		return
	}
	var input struct {
		Name      string  `json:"name"`
		Age       *int    `json:"age" binding:"omitempty,min=0"`
		Months    *int    `json:"months" binding:"omitempty,min=0,max=11"`
		Condition *string `json:"condition" binding:"omitempty,oneof=injured missing deceased"`
		Biography string  `json:"biography"`
	}
	if err := bindJSON(c, &input); err != nil {
		_ = c.Error(err)
		return
	}

	verification, err := services.SubmitIdentification(c.Request.Context(), vc.DB, photocardID, user.UserID, services.IdentificationInput{
		Name:      input.Name,
		Age:       input.Age,
		Months:    input.Months,
		Condition: input.Condition,
		Biography: input.Biography,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	sendJSON(c, http.StatusCreated, "Identification submitted for review.", gin.H{
		"verification": gin.H{"id": verification.ID, "status": verification.Status},
	})
}

func (vc *VerificationController) GetPendingVerifications(c *gin.Context) {
	page := pageQuery(c).Normalize(20, 100)
	verifications, total, err := services.ListPendingVerifications(c.Request.Context(), vc.DB, page)
	if err != nil {
		_ = c.Error(err)
		return
	}
	sendJSON(c, http.StatusOK, "Pending verifications fetched successfully.", gin.H{
		"verifications": verifications,
		"pagination":    newPaginationMeta(page, total),
	})
}

func (vc *VerificationController) GetVerification(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	verification, err := services.GetVerification(c.Request.Context(), vc.DB, id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	sendJSON(c, http.StatusOK, "Verification fetched successfully.", gin.H{"verification": verification})
}

func (vc *VerificationController) ApproveVerification(c *gin.Context) {
	admin, err := currentUser(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	id, err := paramID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	var input struct {
		Comments string `json:"comments"`
	}
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		_ = c.Error(errInvalidBody)
		return
	}

	approval, err := services.ApproveVerification(c.Request.Context(), vc.DB, id, admin.UserID, input.Comments)
	if err != nil {
		_ = c.Error(err)
		return
	}
	sendJSON(c, http.StatusOK, "Verification approved successfully.", gin.H{
		"newPhotocard": gin.H{
			"id":              approval.Promoted.ID,
			"name":            approval.Promoted.Name,
			"photocardNumber": approval.Promoted.PhotocardNumber,
		},
		"originalPhotocard": gin.H{
			"id":              approval.Retired.ID,
			"photocardNumber": approval.Retired.PhotocardNumber,
		},
	})
}

func (vc *VerificationController) RejectVerification(c *gin.Context) {
	admin, err := currentUser(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	id, err := paramID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	var input struct {
		Comments string `json:"comments"`
	}
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		_ = c.Error(errInvalidBody)
		return
	}

	rejection, err := services.RejectVerification(c.Request.Context(), vc.DB, id, admin.UserID, input.Comments)
	if err != nil {
		_ = c.Error(err)
		return
	}
	sendJSON(c, http.StatusOK, "Verification rejected successfully.", gin.H{
		"verification": gin.H{
			"id":             rejection.Verification.ID,
			"status":         rejection.Verification.Status,
			"reviewComments": rejection.Verification.ReviewComments,
		},
	})
}
