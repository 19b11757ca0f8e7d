package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/photocard-archive/api-go/services"
	"gorm.io/gorm"
)

type ReportController struct {
	DB *gorm.DB
}

func NewReportController(db *gorm.DB) *ReportController {
	return &ReportController{DB: db}
}

func (rc *ReportController) CreateReport(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	var input struct {
		ItemID        uint   `json:"itemId" binding:"required"`
		ReportType    string `json:"reportType" binding:"required,oneof=photocard user"`
		Reason        string `json:"reason"`
		ReasonType    string `json:"reasonType" binding:"required,oneof=duplicate inappropriate misleading other"`
		DuplicateOfID *uint  `json:"duplicateOfId"`
	}
	if err := bindJSON(c, &input); err != nil {
		_ = c.Error(err)
		return
	}

	report, err := services.CreateReport(c.Request.Context(), rc.DB, user.UserID, services.ReportInput{
		ItemID:        input.ItemID,
		ReportType:    input.ReportType,
		ReasonType:    input.ReasonType,
		Reason:        input.Reason,
		DuplicateOfID: input.DuplicateOfID,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	sendJSON(c, http.StatusCreated, "Report submitted successfully.", gin.H{"report": report})
}

func (rc *ReportController) GetReports(c *gin.Context) {
	reports, err := services.ListReports(c.Request.Context(), rc.DB)
	if err != nil {
		_ = c.Error(err)
		return
	}
	sendJSON(c, http.StatusOK, "Reports fetched successfully.", gin.H{"reports": reports})
}

func (rc *ReportController) GetReportsByItem(c *gin.Context) {
	itemID, err := paramID(c, "itemId")
	if err != nil {
		_ = c.Error(err)
		return
	}
	itemType := c.Query("itemType")

	reports, err := services.ReportsForItem(c.Request.Context(), rc.DB, itemType, itemID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	sendJSON(c, http.StatusOK, fmt.Sprintf("Reports for %s fetched successfully.", itemType), gin.H{"reports": reports})
}

func (rc *ReportController) GetReportCounts(c *gin.Context) {
	counts, err := services.CountReports(c.Request.Context(), rc.DB)
	if err != nil {
		_ = c.Error(err)
		return
	}
	sendJSON(c, http.StatusOK, "Report counts fetched successfully.", gin.H{"counts": counts})
}

func (rc *ReportController) UpdateReportStatus(c *gin.Context) {
	admin, err := currentUser(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	reportID, err := paramID(c, "reportId")
	if err != nil {
		_ = c.Error(err)
		return
	}
	var input struct {
		Status string `json:"status" binding:"required,oneof=reviewed resolved dismissed"`
	}
	if err := bindJSON(c, &input); err != nil {
		_ = c.Error(err)
		return
	}

	report, err := services.UpdateReportStatus(c.Request.Context(), rc.DB, reportID, admin.UserID, input.Status)
	if err != nil {
		_ = c.Error(err)
		return
	}
	sendJSON(c, http.StatusOK, "Report status updated successfully.", gin.H{"report": report})
}
