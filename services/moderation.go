package services

import (
	"context"
	"fmt"
	"log"

	"github.com/photocard-archive/api-go/models"
	"github.com/photocard-archive/api-go/storage"
	"github.com/photocard-archive/api-go/utils"
	"gorm.io/gorm"
)

// Actor is the authenticated user performing an action.
type Actor struct {
	UserID  uint
	IsAdmin bool
}

func UnflagPhotocard(ctx context.Context, db *gorm.DB, photocardID, adminID uint) (*models.Photocard, error) {
	var photocard *models.Photocard
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		photocard, err = findPhotocard(tx, photocardID, "Photocard not found.")
		if err != nil {
			return err
		}

		photocard.Flagged = false
		if err := savePhotocard(tx, photocard); err != nil {
			return err
		}

		_, err = ResolvePendingReports(tx, photocardID, adminID, ReasonFlagCleared)
		return err
	})
	if err != nil {
		return nil, wrap("unflag photocard", err)
	}

	log.Printf("photocard %d unflagged by admin %d", photocardID, adminID)
	return photocard, nil
}

// BlockPhotocard hides a photocard from public listings. Pending reports
// are resolved; without any, a resolved report documenting the block is
// filed instead.
func BlockPhotocard(ctx context.Context, db *gorm.DB, photocardID, adminID uint) (*models.Photocard, error) {
	var photocard *models.Photocard
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		photocard, err = findPhotocard(tx, photocardID, "Photocard not found.")
		if err != nil {
			return err
		}

		photocard.Blocked = true
		photocard.Flagged = true
		if err := savePhotocard(tx, photocard); err != nil {
			return err
		}

		pending, err := hasPendingReports(tx, photocardID)
		if err != nil {
			return err
		}
		if pending {
			_, err = ResolvePendingReports(tx, photocardID, adminID, ReasonBlockedByAdmin)
			return err
		}

		at := now()
		report := &models.Report{
			ReportedByID: adminID,
			ReportType:   models.ReportTypePhotocard,
			PhotocardID:  &photocard.ID,
			ReasonType:   models.ReasonOther,
			Reason:       ReasonBlockedByAdmin,
			Status:       models.ReportResolved,
			ReviewedByID: &adminID,
			ReviewedAt:   &at,
		}
		if err := tx.Create(report).Error; err != nil {
			return fmt.Errorf("file block report: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, wrap("block photocard", err)
	}

	log.Printf("photocard %d blocked by admin %d", photocardID, adminID)
	return photocard, nil
}

func UnblockPhotocard(ctx context.Context, db *gorm.DB, photocardID, adminID uint) (*models.Photocard, error) {
	db = db.WithContext(ctx)

	photocard, err := findPhotocard(db, photocardID, "Photocard not found.")
	if err != nil {
		return nil, err
	}
	if !photocard.Blocked {
		return nil, utils.Conflict("Photocard is not blocked.")
	}

	photocard.Blocked = false
	if err := savePhotocard(db, photocard); err != nil {
		return nil, wrap("unblock photocard", err)
	}

	log.Printf("photocard %d unblocked by admin %d", photocardID, adminID)
	return photocard, nil
}

// SoftDeletePhotocard hides a photocard on behalf of its owner or an
// admin. The image object is removed once no live record uses it.
func SoftDeletePhotocard(ctx context.Context, db *gorm.DB, images storage.ImageStore, photocardID uint, actor Actor) error {
	var orphanedImage string
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		photocard, err := findPhotocard(tx, photocardID, "Photocard not found.")
		if err != nil {
			return err
		}
		if !photocard.IsOwnedBy(actor.UserID) && !actor.IsAdmin {
			return utils.Forbidden("Not authorized to delete this photocard.")
		}
		if photocard.IsDeleted {
			return utils.Conflict("Photocard is already deleted.")
		}

		pending, err := hasPendingVerification(tx, photocardID)
		if err != nil {
			return err
		}
		if pending {
			return utils.Conflict("An identification is pending for this photocard. Review it before deleting.")
		}

		var reason *string
		if actor.IsAdmin {
			reason = strPtr(models.DeleteReasonDeletedByAdmin)
		}
		photocard.MarkDeleted(now(), reason)
		if err := savePhotocard(tx, photocard); err != nil {
			return err
		}

		if actor.IsAdmin {
			if _, err := ResolvePendingReports(tx, photocardID, actor.UserID, ReasonDeletedByAdmin); err != nil {
				return err
			}
		}

		shared, err := imageInUse(tx, photocard.Image, photocard.ID)
		if err != nil {
			return err
		}
		if !shared {
			orphanedImage = photocard.Image
		}
		return nil
	})
	if err != nil {
		return wrap("soft delete photocard", err)
	}

	log.Printf("photocard %d soft-deleted by user %d (admin=%t)", photocardID, actor.UserID, actor.IsAdmin)
	removeImage(ctx, images, orphanedImage)
	return nil
}

// imageInUse reports whether a live record other than exceptID references key.
// Provisional and promoted records share the original's image.
func imageInUse(tx *gorm.DB, key string, exceptID uint) (bool, error) {
	if !storage.IsRealImage(key) {
		return true, nil
	}
	var count int64
	err := tx.Model(&models.Photocard{}).
		Where("image = ? AND is_deleted = ? AND id <> ?", key, false, exceptID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("count image references: %w", err)
	}
	return count > 0, nil
}

// removeImage deletes an object after the owning transaction committed.
// Failures are logged; the record change already happened.
func removeImage(ctx context.Context, images storage.ImageStore, key string) {
	if images == nil || !storage.IsRealImage(key) {
		return
	}
	if err := images.Delete(ctx, key); err != nil {
		log.Printf("Error deleting image %s: %v", key, err)
		return
	}
	log.Printf("Deleted image %s", key)
}

// RestorePhotocard brings a soft-deleted photocard back. Records retired
// by an identification review stay deleted.
func RestorePhotocard(ctx context.Context, db *gorm.DB, photocardID, adminID uint) (*models.Photocard, error) {
	db = db.WithContext(ctx)

	photocard, err := findPhotocard(db, photocardID, "Photocard not found.")
	if err != nil {
		return nil, err
	}
	if !photocard.IsDeleted {
		return nil, utils.Conflict("Photocard is not deleted.")
	}
	if photocard.DeleteReason != nil {
		switch *photocard.DeleteReason {
		case models.DeleteReasonReplacedByIdentification, models.DeleteReasonRejectedIdentification:
			return nil, utils.Conflict("Photocards retired by an identification review cannot be restored.")
		}
	}

	photocard.Restore()
	if err := savePhotocard(db, photocard); err != nil {
		return nil, wrap("restore photocard", err)
	}

	log.Printf("photocard %d restored by admin %d", photocardID, adminID)
	return photocard, nil
}

// detachPhotocards clears every reference to the given photocards ahead
// of their removal: duplicate and replacement links on other records, the
// reports about them and report duplicate references.
func detachPhotocards(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	err := tx.Model(&models.Photocard{}).
		Where("duplicate_of_id IN ?", ids).
		UpdateColumns(map[string]any{"is_confirmed_duplicate": false, "duplicate_of_id": nil}).Error
	if err != nil {
		return fmt.Errorf("detach duplicates: %w", err)
	}
	err = tx.Model(&models.Photocard{}).
		Where("replaced_by_id IN ?", ids).
		UpdateColumn("replaced_by_id", nil).Error
	if err != nil {
		return fmt.Errorf("detach replacements: %w", err)
	}
	if err := tx.Where("photocard_id IN ?", ids).Delete(&models.Report{}).Error; err != nil {
		return fmt.Errorf("delete reports: %w", err)
	}
	err = tx.Model(&models.Report{}).
		Where("duplicate_of_id IN ?", ids).
		UpdateColumn("duplicate_of_id", nil).Error
	if err != nil {
		return fmt.Errorf("detach report references: %w", err)
	}
	err = tx.Where("original_photocard_id IN ? OR provisional_photocard_id IN ?", ids, ids).
		Delete(&models.Verification{}).Error
	if err != nil {
		return fmt.Errorf("delete verifications: %w", err)
	}
	return nil
}

// HardDeletePhotocard permanently removes a soft-deleted photocard and
// detaches everything that pointed at it.
func HardDeletePhotocard(ctx context.Context, db *gorm.DB, photocardID, adminID uint) error {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		photocard, err := findPhotocard(tx, photocardID, "Photocard not found.")
		if err != nil {
			return err
		}
		if !photocard.IsDeleted {
			return utils.Validation("Photocard must be soft-deleted before permanent deletion. Please soft-delete it first.")
		}

		if err := detachPhotocards(tx, []uint{photocardID}); err != nil {
			return err
		}
		if err := tx.Delete(&models.Photocard{}, photocardID).Error; err != nil {
			return fmt.Errorf("delete photocard: %w", err)
		}
		return nil
	})
	if err != nil {
		return wrap("hard delete photocard", err)
	}

	log.Printf("photocard %d permanently deleted by admin %d", photocardID, adminID)
	return nil
}

type PhotocardCounts struct {
	Flagged      int64 `json:"flagged"`
	Blocked      int64 `json:"blocked"`
	Deleted      int64 `json:"deleted"`
	Duplicates   int64 `json:"duplicates"`
	Unidentified int64 `json:"unidentified"`
	Provisional  int64 `json:"provisional"`
	Total        int64 `json:"total"`
}

func CountPhotocards(ctx context.Context, db *gorm.DB) (*PhotocardCounts, error) {
	db = db.WithContext(ctx)

	var counts PhotocardCounts
	queries := []struct {
		dest  *int64
		where string
		args  []any
	}{
		{&counts.Flagged, "flagged = ? AND blocked = ? AND is_deleted = ?", []any{true, false, false}},
		{&counts.Blocked, "blocked = ? AND is_deleted = ?", []any{true, false}},
		{&counts.Deleted, "is_deleted = ?", []any{true}},
		{&counts.Duplicates, "is_confirmed_duplicate = ? AND is_deleted = ?", []any{true, false}},
		{&counts.Unidentified, "is_unidentified = ? AND is_deleted = ?", []any{true, false}},
		{&counts.Provisional, "is_provisional = ?", []any{true}},
	}
	for _, q := range queries {
		if err := db.Model(&models.Photocard{}).Where(q.where, q.args...).Count(q.dest).Error; err != nil {
			return nil, fmt.Errorf("count photocards: %w", err)
		}
	}
	if err := db.Model(&models.Photocard{}).Count(&counts.Total).Error; err != nil {
		return nil, fmt.Errorf("count photocards: %w", err)
	}
	return &counts, nil
}

// ListPhotocardsByStatus backs the moderation queue. Status is flagged,
// blocked or both; anything else yields an empty list.
func ListPhotocardsByStatus(ctx context.Context, db *gorm.DB, status string) ([]models.Photocard, error) {
	query := db.WithContext(ctx).Preload("CreatedBy").Where("is_deleted = ?", false)

	switch status {
	case "flagged":
		query = query.Where("flagged = ? AND blocked = ?", true, false)
	case "blocked":
		query = query.Where("blocked = ?", true)
	case "both":
		query = query.Where("flagged = ? OR blocked = ?", true, true)
	default:
		return []models.Photocard{}, nil
	}

	var photocards []models.Photocard
	if err := query.Order("created_at DESC, id DESC").Find(&photocards).Error; err != nil {
		return nil, fmt.Errorf("list photocards by status: %w", err)
	}
	return photocards, nil
}

func ListDeletedPhotocards(ctx context.Context, db *gorm.DB) ([]models.Photocard, error) {
	var photocards []models.Photocard
	err := db.WithContext(ctx).
		Preload("CreatedBy").
		Where("is_deleted = ?", true).
		Order("deleted_at DESC, id DESC").
		Find(&photocards).Error
	if err != nil {
		return nil, fmt.Errorf("list deleted photocards: %w", err)
	}
	return photocards, nil
}

// GetPhotocardAdmin loads any photocard, deleted and provisional included.
func GetPhotocardAdmin(ctx context.Context, db *gorm.DB, photocardID uint) (*models.Photocard, error) {
	return findPhotocard(db.WithContext(ctx).Preload("CreatedBy"), photocardID, "Photocard not found.")
}
