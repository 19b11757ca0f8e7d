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

// IdentificationInput is the identity proposed for an unidentified photocard.
type IdentificationInput struct {
	Name      string
	Age       *int
	Months    *int
	Condition *string
	Biography string
}

func hasPendingVerification(tx *gorm.DB, photocardID uint) (bool, error) {
	var count int64
	err := tx.Model(&models.Verification{}).
		Where("status = ?", models.VerificationStatusPending).
		Where("original_photocard_id = ? OR provisional_photocard_id = ?", photocardID, photocardID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("count pending verifications: %w", err)
	}
	return count > 0, nil
}

// SubmitIdentification proposes an identity for an unidentified photocard.
// A provisional record carrying the proposal is created next to the
// original and a pending verification links the two.
func SubmitIdentification(ctx context.Context, db *gorm.DB, photocardID, submitterID uint, in IdentificationInput) (*models.Verification, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, utils.Validation("Name is required for identification.")
	}

	var verification *models.Verification
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		original, err := findPhotocard(tx, photocardID, "Photocard not found.")
		if err != nil {
			return err
		}
		if original.IsDeleted || original.IsProvisional {
			return utils.NotFound("Photocard not found.")
		}
		if !original.IsUnidentified {
			return utils.Conflict("Photocard is already identified.")
		}

		pending, err := hasPendingVerification(tx, original.ID)
		if err != nil {
			return err
		}
		if pending {
			return utils.Conflict("A verification is already pending for this photocard.")
		}

		provisional := &models.Photocard{
			Name:               in.Name,
			Age:                in.Age,
			Months:             in.Months,
			Condition:          in.Condition,
			Biography:          in.Biography,
			Image:              original.Image,
			CreatedByID:        original.CreatedByID,
			IsProvisional:      true,
			ProvisionalOfID:    &original.ID,
			VerificationStatus: models.VerificationPending,
		}
		if err := tx.Create(provisional).Error; err != nil {
			return storeErr(err, "Photocard not found.")
		}

		verification = &models.Verification{
			OriginalPhotocardID:    original.ID,
			ProvisionalPhotocardID: provisional.ID,
			SubmittedByID:          submitterID,
			Status:                 models.VerificationStatusPending,
		}
		if err := tx.Create(verification).Error; err != nil {
			if isUniqueViolation(err) {
				return utils.Conflict("A verification is already pending for this photocard.")
			}
			return fmt.Errorf("create verification: %w", err)
		}

		original.VerificationStatus = models.VerificationPending
		return savePhotocard(tx, original)
	})
	if err != nil {
		return nil, wrap("submit identification", err)
	}

	log.Printf("identification %d submitted for photocard %d by user %d", verification.ID, photocardID, submitterID)
	return verification, nil
}

// claimVerification moves a pending verification to its final status. The
// status guard makes a concurrent second review fail with Conflict.
func claimVerification(tx *gorm.DB, verificationID, adminID uint, status, comments string) (*models.Verification, error) {
	var verification models.Verification
	if err := tx.First(&verification, verificationID).Error; err != nil {
		return nil, storeErr(err, "Verification not found.")
	}
	if !verification.IsPending() {
		return nil, utils.Conflict("Verification has already been processed.")
	}

	at := now()
	res := tx.Model(&models.Verification{}).
		Where("id = ? AND status = ?", verificationID, models.VerificationStatusPending).
		UpdateColumns(map[string]any{
			"status":          status,
			"reviewed_by_id":  adminID,
			"reviewed_at":     at,
			"review_comments": comments,
			"updated_at":      at,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("update verification: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, utils.Conflict("Verification has already been processed.")
	}

	verification.Status = status
	verification.ReviewedByID = &adminID
	verification.ReviewedAt = &at
	verification.ReviewComments = comments
	return &verification, nil
}

// Approval is the outcome of an approved identification.
type Approval struct {
	Verification *models.Verification
	Promoted     *models.Photocard
	Retired      *models.Photocard
}

// ApproveVerification promotes the provisional record to the original's
// catalogue number and retires the original under its "ID" number. The
// number moves in three writes: tombstone the original, promote, retire.
func ApproveVerification(ctx context.Context, db *gorm.DB, verificationID, adminID uint, comments string) (*Approval, error) {
	var approval Approval
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		verification, err := claimVerification(tx, verificationID, adminID, models.VerificationStatusApproved, comments)
		if err != nil {
			return err
		}

		original, err := findPhotocard(tx, verification.OriginalPhotocardID, "Original photocard not found.")
		if err != nil {
			return err
		}
		promoted, err := findPhotocard(tx, verification.ProvisionalPhotocardID, "Provisional photocard not found.")
		if err != nil {
			return err
		}

		number := original.PhotocardNumber
		identified, err := number.Identified()
		if err != nil {
			return utils.Conflict("Original photocard has no catalogue number to transfer.")
		}
		at := now()

		original.PhotocardNumber = number.Tombstone(at)
		if err := savePhotocard(tx, original); err != nil {
			return err
		}

		promoted.IsProvisional = false
		promoted.ProvisionalOfID = nil
		promoted.IsUnidentified = false
		promoted.PhotocardNumber = number
		promoted.VerificationStatus = models.VerificationVerified
		if err := savePhotocard(tx, promoted); err != nil {
			return err
		}

		original.PhotocardNumber = identified
		original.VerificationStatus = models.VerificationVerified
		original.ReplacedByID = &promoted.ID
		original.MarkDeleted(at, strPtr(models.DeleteReasonReplacedByIdentification))
		if err := savePhotocard(tx, original); err != nil {
			return err
		}

		if _, err := ResolvePendingReports(tx, original.ID, adminID, ReasonReplacedByIdentity); err != nil {
			return err
		}

		approval = Approval{Verification: verification, Promoted: promoted, Retired: original}
		return nil
	})
	if err != nil {
		return nil, wrap("approve verification", err)
	}

	log.Printf("verification %d approved by admin %d: photocard %d replaces %d as %s",
		verificationID, adminID, approval.Promoted.ID, approval.Retired.ID, approval.Promoted.PhotocardNumber.Display())
	return &approval, nil
}

// Rejection is the outcome of a rejected identification.
type Rejection struct {
	Verification *models.Verification
	Original     *models.Photocard
	Provisional  *models.Photocard
}

// discardProposal retires the provisional record of a verification and
// returns the original to unverified.
func discardProposal(tx *gorm.DB, verification *models.Verification, comments string) (original, provisional *models.Photocard, err error) {
	provisional, err = findPhotocard(tx, verification.ProvisionalPhotocardID, "Provisional photocard not found.")
	if err != nil {
		return nil, nil, err
	}
	original, err = findPhotocard(tx, verification.OriginalPhotocardID, "Original photocard not found.")
	if err != nil {
		return nil, nil, err
	}

	provisional.IsProvisional = false
	provisional.VerificationStatus = models.VerificationRejected
	provisional.RejectionComments = nil
	if comments != "" {
		provisional.RejectionComments = &comments
	}
	provisional.MarkDeleted(now(), strPtr(models.DeleteReasonRejectedIdentification))
	if err := savePhotocard(tx, provisional); err != nil {
		return nil, nil, err
	}

	original.VerificationStatus = models.VerificationUnverified
	original.Restore()
	if err := savePhotocard(tx, original); err != nil {
		return nil, nil, err
	}
	return original, provisional, nil
}

// RejectVerification discards the proposal and returns the original to
// unverified.
func RejectVerification(ctx context.Context, db *gorm.DB, verificationID, adminID uint, comments string) (*Rejection, error) {
	var rejection Rejection
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		verification, err := claimVerification(tx, verificationID, adminID, models.VerificationStatusRejected, comments)
		if err != nil {
			return err
		}

		original, provisional, err := discardProposal(tx, verification, comments)
		if err != nil {
			return err
		}

		rejection = Rejection{Verification: verification, Original: original, Provisional: provisional}
		return nil
	})
	if err != nil {
		return nil, wrap("reject verification", err)
	}

	log.Printf("verification %d rejected by admin %d", verificationID, adminID)
	return &rejection, nil
}

func ListPendingVerifications(ctx context.Context, db *gorm.DB, page Page) ([]models.Verification, int64, error) {
	db = db.WithContext(ctx)
	page = page.Normalize(20, 100)

	var total int64
	if err := db.Model(&models.Verification{}).
		Where("status = ?", models.VerificationStatusPending).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count pending verifications: %w", err)
	}

	var verifications []models.Verification
	err := db.Preload("OriginalPhotocard").
		Preload("ProvisionalPhotocard").
		Preload("SubmittedBy").
		Where("status = ?", models.VerificationStatusPending).
		Order("created_at DESC, id DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&verifications).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list pending verifications: %w", err)
	}
	return verifications, total, nil
}

func GetVerification(ctx context.Context, db *gorm.DB, verificationID uint) (*models.Verification, error) {
	var verification models.Verification
	err := db.WithContext(ctx).
		Preload("OriginalPhotocard").
		Preload("ProvisionalPhotocard").
		Preload("SubmittedBy").
		Preload("ReviewedBy").
		First(&verification, verificationID).Error
	if err != nil {
		return nil, storeErr(err, "Verification not found.")
	}
	return &verification, nil
}
