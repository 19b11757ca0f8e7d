package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/photocard-archive/api-go/models"
	"github.com/photocard-archive/api-go/utils"
	"gorm.io/gorm"
)

// Justifications written onto reports when an admin action resolves them.
const (
	ReasonResolvedByAdmin    = "Resolved by admin"
	ReasonFlagCleared        = "Admin cleared flag."
	ReasonBlockedByAdmin     = "Photocard blocked by admin."
	ReasonDeletedByAdmin     = "Admin deleted photocard."
	ReasonNotDuplicate       = "Admin marked as not a duplicate."
	ReasonReplacedByIdentity = "Photocard replaced by an approved identification."
	ReasonUserBlocked        = "User blocked by admin."
)

// ResolvePendingReports marks every pending report on a photocard as
// resolved by adminID, overwriting the reason. It is a no-op when nothing
// is pending.
func ResolvePendingReports(tx *gorm.DB, photocardID, adminID uint, reason string) (int64, error) {
	return resolvePending(tx, "photocard_id = ?", photocardID, adminID, reason)
}

// ResolvePendingUserReports is ResolvePendingReports for reports against a user.
func ResolvePendingUserReports(tx *gorm.DB, userID, adminID uint, reason string) (int64, error) {
	return resolvePending(tx, "reported_user_id = ?", userID, adminID, reason)
}

func resolvePending(tx *gorm.DB, target string, id, adminID uint, reason string) (int64, error) {
	at := now()
	res := tx.Model(&models.Report{}).
		Where(target, id).
		Where("status = ?", models.ReportPending).
		UpdateColumns(map[string]any{
			"status":         models.ReportResolved,
			"reviewed_by_id": adminID,
			"reviewed_at":    at,
			"reason":         reason,
			"updated_at":     at,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("resolve pending reports: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func hasPendingReports(tx *gorm.DB, photocardID uint) (bool, error) {
	var count int64
	err := tx.Model(&models.Report{}).
		Where("photocard_id = ? AND status = ?", photocardID, models.ReportPending).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("count pending reports: %w", err)
	}
	return count > 0, nil
}

type ReportInput struct {
	ItemID        uint
	ReportType    string
	ReasonType    string
	Reason        string
	DuplicateOfID *uint
}

// CreateReport files a report and flags its target: photocards get
// flagged, users get their flag count bumped.
func CreateReport(ctx context.Context, db *gorm.DB, reporterID uint, in ReportInput) (*models.Report, error) {
	in.Reason = strings.TrimSpace(in.Reason)
	if in.ItemID == 0 || in.ReasonType == "" || (in.Reason == "" && in.ReasonType != models.ReasonDuplicate) {
		return nil, utils.Validation("Please provide all required fields: itemId, reportType, reason, reasonType.")
	}
	if in.ReportType != models.ReportTypePhotocard && in.ReportType != models.ReportTypeUser {
		return nil, utils.Validation(`Invalid reportType. Must be "photocard" or "user".`)
	}
	if !models.ValidReasonType(in.ReasonType) {
		return nil, utils.Validation("Invalid reasonType provided.")
	}

	report := &models.Report{
		ReportedByID: reporterID,
		ReportType:   in.ReportType,
		ReasonType:   in.ReasonType,
		Reason:       in.Reason,
		Status:       models.ReportPending,
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		switch in.ReportType {
		case models.ReportTypePhotocard:
			if err := flagPhotocardReport(tx, reporterID, report, in); err != nil {
				return err
			}
		case models.ReportTypeUser:
			if err := flagUserReport(tx, reporterID, report, in); err != nil {
				return err
			}
		}

		if err := tx.Create(report).Error; err != nil {
			return storeErr(err, "Report not found.")
		}
		return nil
	})
	if err != nil {
		return nil, wrap("create report", err)
	}

	log.Printf("report %d filed by user %d against %s %d (%s)", report.ID, reporterID, in.ReportType, in.ItemID, in.ReasonType)
	return report, nil
}

func flagPhotocardReport(tx *gorm.DB, reporterID uint, report *models.Report, in ReportInput) error {
	photocard, err := findPhotocard(tx, in.ItemID, "Photocard not found.")
	if err != nil {
		return err
	}
	if !photocard.Visible() && !photocard.Blocked {
		return utils.NotFound("Photocard not found.")
	}
	if photocard.IsOwnedBy(reporterID) {
		return utils.Forbidden("You cannot report your own photocard.")
	}

	if in.ReasonType == models.ReasonDuplicate && in.DuplicateOfID != nil {
		if *in.DuplicateOfID == photocard.ID {
			return utils.Validation("A photocard cannot be reported as a duplicate of itself.")
		}
		if _, err := findLivePhotocard(tx, *in.DuplicateOfID, "Duplicate photocard reference not found."); err != nil {
			return err
		}
		report.DuplicateOfID = in.DuplicateOfID
	}

	var existing int64
	err = tx.Model(&models.Report{}).
		Where("reported_by_id = ? AND photocard_id = ? AND reason_type = ? AND status = ?",
			reporterID, photocard.ID, in.ReasonType, models.ReportPending).
		Count(&existing).Error
	if err != nil {
		return fmt.Errorf("count existing reports: %w", err)
	}
	if existing > 0 {
		return utils.Conflict("You have already reported this photocard for this reason.")
	}

	photocard.Flagged = true
	if err := savePhotocard(tx, photocard); err != nil {
		return err
	}
	report.PhotocardID = &photocard.ID
	return nil
}

func flagUserReport(tx *gorm.DB, reporterID uint, report *models.Report, in ReportInput) error {
	var user models.User
	if err := tx.First(&user, in.ItemID).Error; err != nil {
		return storeErr(err, "User not found.")
	}
	if user.ID == reporterID {
		return utils.Forbidden("You cannot report yourself.")
	}

	var existing int64
	err := tx.Model(&models.Report{}).
		Where("reported_by_id = ? AND reported_user_id = ? AND reason_type = ? AND status = ?",
			reporterID, user.ID, in.ReasonType, models.ReportPending).
		Count(&existing).Error
	if err != nil {
		return fmt.Errorf("count existing reports: %w", err)
	}
	if existing > 0 {
		return utils.Conflict("You have already reported this user for this reason.")
	}

	err = tx.Model(&models.User{}).Where("id = ?", user.ID).UpdateColumns(map[string]any{
		"flagged_count":   gorm.Expr("flagged_count + ?", 1),
		"flagged_reason":  report.Reason,
		"last_flagged_at": now(),
	}).Error
	if err != nil {
		return fmt.Errorf("flag user %d: %w", user.ID, err)
	}
	report.ReportedUserID = &user.ID
	return nil
}

func withReportDetails(tx *gorm.DB) *gorm.DB {
	return tx.Preload("ReportedBy").
		Preload("Photocard").
		Preload("ReportedUser").
		Preload("DuplicateOf").
		Preload("ReviewedBy")
}

func ListReports(ctx context.Context, db *gorm.DB) ([]models.Report, error) {
	var reports []models.Report
	err := withReportDetails(db.WithContext(ctx)).
		Order("created_at DESC, id DESC").
		Find(&reports).Error
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

// ReportsForItem lists the reports filed against one photocard or user.
func ReportsForItem(ctx context.Context, db *gorm.DB, itemType string, itemID uint) ([]models.Report, error) {
	db = db.WithContext(ctx)

	var column string
	switch itemType {
	case models.ReportTypePhotocard:
		if _, err := findPhotocard(db, itemID, "photocard not found."); err != nil {
			return nil, err
		}
		column = "photocard_id"
	case models.ReportTypeUser:
		var user models.User
		if err := db.First(&user, itemID).Error; err != nil {
			return nil, storeErr(err, "user not found.")
		}
		column = "reported_user_id"
	default:
		return nil, utils.Validation(`Invalid itemType. Must be "photocard" or "user".`)
	}

	var reports []models.Report
	err := withReportDetails(db).
		Where(column+" = ? AND report_type = ?", itemID, itemType).
		Order("created_at DESC, id DESC").
		Find(&reports).Error
	if err != nil {
		return nil, fmt.Errorf("list reports for %s %d: %w", itemType, itemID, err)
	}
	if len(reports) == 0 {
		return nil, utils.NotFound(fmt.Sprintf("No reports found for this %s.", itemType))
	}
	return reports, nil
}

type ReportCounts struct {
	PendingPhotocardReports int64 `json:"pendingPhotocardReports"`
	PendingUserReports      int64 `json:"pendingUserReports"`
	TotalReports            int64 `json:"totalReports"`
}

func CountReports(ctx context.Context, db *gorm.DB) (*ReportCounts, error) {
	db = db.WithContext(ctx)
	var counts ReportCounts

	if err := db.Model(&models.Report{}).
		Where("report_type = ? AND status = ?", models.ReportTypePhotocard, models.ReportPending).
		Count(&counts.PendingPhotocardReports).Error; err != nil {
		return nil, fmt.Errorf("count photocard reports: %w", err)
	}
	if err := db.Model(&models.Report{}).
		Where("report_type = ? AND status = ?", models.ReportTypeUser, models.ReportPending).
		Count(&counts.PendingUserReports).Error; err != nil {
		return nil, fmt.Errorf("count user reports: %w", err)
	}
	if err := db.Model(&models.Report{}).Count(&counts.TotalReports).Error; err != nil {
		return nil, fmt.Errorf("count reports: %w", err)
	}
	return &counts, nil
}

// UpdateReportStatus records an admin review of a single report.
func UpdateReportStatus(ctx context.Context, db *gorm.DB, reportID, adminID uint, status string) (*models.Report, error) {
	var report models.Report
	if err := db.WithContext(ctx).First(&report, reportID).Error; err != nil {
		return nil, storeErr(err, "Report not found.")
	}

	switch status {
	case models.ReportReviewed, models.ReportResolved, models.ReportDismissed:
	default:
		return nil, utils.Validation("Invalid status provided.")
	}

	at := now()
	report.Status = status
	report.ReviewedByID = &adminID
	report.ReviewedAt = &at
	if err := db.WithContext(ctx).Save(&report).Error; err != nil {
		return nil, wrap("update report status", storeErr(err, "Report not found."))
	}

	log.Printf("report %d marked %s by admin %d", report.ID, status, adminID)
	return &report, nil
}
