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

const (
	ageRange    = 3
	monthsRange = 3
)

// DuplicateQuery describes the person a new or reported photocard is
// about. ExcludeID drops the record being reported from the results.
type DuplicateQuery struct {
	Name      string
	Age       *int
	Months    *int
	ExcludeID *uint
}

// duplicateScope matches the name case-insensitively as a whole, the age
// less than three years apart and, for children under three, the months
// less than three months apart. Only established, live records are
// candidates.
func duplicateScope(q DuplicateQuery) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		tx = tx.Where("LOWER(name) = LOWER(?)", strings.TrimSpace(q.Name)).
			Where("is_unidentified = ? AND is_deleted = ? AND is_provisional = ?", false, false, false)

		if q.Age != nil {
			tx = tx.Where("age > ? AND age < ?", *q.Age-ageRange, *q.Age+ageRange)
			if *q.Age < models.MonthsAgeLimit && q.Months != nil {
				tx = tx.Where("months > ? AND months < ?", *q.Months-monthsRange, *q.Months+monthsRange)
			}
		}
		if q.ExcludeID != nil {
			tx = tx.Where("id <> ?", *q.ExcludeID)
		}
		return tx
	}
}

// FindDuplicateCandidates is the pre-submission check run while a
// photocard is being created or edited.
func FindDuplicateCandidates(ctx context.Context, db *gorm.DB, q DuplicateQuery) ([]models.Photocard, error) {
	if strings.TrimSpace(q.Name) == "" {
		return nil, utils.Validation("A name is required for this check.")
	}

	var candidates []models.Photocard
	err := db.WithContext(ctx).
		Scopes(duplicateScope(q)).
		Order("created_at DESC, id DESC").
		Find(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("find duplicate candidates: %w", err)
	}
	return candidates, nil
}

// FindReportableDuplicates lists records a user may name as the original
// when reporting a duplicate. Blocked records are never offered.
func FindReportableDuplicates(ctx context.Context, db *gorm.DB, q DuplicateQuery) ([]models.Photocard, error) {
	if strings.TrimSpace(q.Name) == "" {
		return nil, utils.Validation("A name is required for this duplicate check.")
	}

	var candidates []models.Photocard
	err := db.WithContext(ctx).
		Scopes(duplicateScope(q)).
		Where("blocked = ?", false).
		Order("created_at DESC, id DESC").
		Find(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("find reportable duplicates: %w", err)
	}
	return candidates, nil
}

// ConfirmDuplicate links duplicateID to originalID and resolves the
// reports raised against the duplicate.
func ConfirmDuplicate(ctx context.Context, db *gorm.DB, duplicateID, originalID, adminID uint) (*models.Photocard, error) {
	if duplicateID == 0 || originalID == 0 {
		return nil, utils.Validation("Missing duplicate or original photocard ID.")
	}
	if duplicateID == originalID {
		return nil, utils.Validation("A photocard cannot be a duplicate of itself.")
	}

	var duplicate *models.Photocard
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		duplicate, err = findLivePhotocard(tx, duplicateID, "One or both photocards not found.")
		if err != nil {
			return err
		}
		if _, err := findLivePhotocard(tx, originalID, "One or both photocards not found."); err != nil {
			return err
		}

		duplicate.MarkDuplicateOf(originalID)
		if err := savePhotocard(tx, duplicate); err != nil {
			return err
		}

		_, err = ResolvePendingReports(tx, duplicateID, adminID, ReasonResolvedByAdmin)
		return err
	})
	if err != nil {
		return nil, wrap("confirm duplicate", err)
	}

	log.Printf("photocard %d confirmed as duplicate of %d by admin %d", duplicateID, originalID, adminID)
	return duplicate, nil
}

// UnflagDuplicate clears a duplicate link and the flag that came with it.
func UnflagDuplicate(ctx context.Context, db *gorm.DB, photocardID, adminID uint) (*models.Photocard, error) {
	var photocard *models.Photocard
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		photocard, err = findPhotocard(tx, photocardID, "Photocard not found.")
		if err != nil {
			return err
		}

		photocard.ClearDuplicate()
		if err := savePhotocard(tx, photocard); err != nil {
			return err
		}

		_, err = ResolvePendingReports(tx, photocardID, adminID, ReasonNotDuplicate)
		return err
	})
	if err != nil {
		return nil, wrap("unflag duplicate", err)
	}

	log.Printf("photocard %d unmarked as duplicate by admin %d", photocardID, adminID)
	return photocard, nil
}

// ListDuplicatesForReview returns confirmed duplicates together with
// records that have a pending duplicate report, newest first. Each record
// appears once.
func ListDuplicatesForReview(ctx context.Context, db *gorm.DB) ([]models.Photocard, error) {
	db = db.WithContext(ctx)

	suspected := db.Model(&models.Report{}).
		Select("photocard_id").
		Where("reason_type = ? AND status = ? AND photocard_id IS NOT NULL", models.ReasonDuplicate, models.ReportPending)

	var photocards []models.Photocard
	err := db.Preload("CreatedBy").
		Where("is_deleted = ?", false).
		Where("is_confirmed_duplicate = ? OR id IN (?)", true, suspected).
		Order("created_at DESC, id DESC").
		Find(&photocards).Error
	if err != nil {
		return nil, fmt.Errorf("list duplicates: %w", err)
	}
	return photocards, nil
}

// DuplicateComparison loads a confirmed duplicate and the record it
// duplicates.
func DuplicateComparison(ctx context.Context, db *gorm.DB, duplicateID uint) (duplicate, original *models.Photocard, err error) {
	db = db.WithContext(ctx)

	duplicate, err = findPhotocard(db.Preload("CreatedBy"), duplicateID, "No photocard found with that ID.")
	if err != nil {
		return nil, nil, err
	}
	if !duplicate.IsConfirmedDuplicate || duplicate.DuplicateOfID == nil {
		return nil, nil, utils.Validation("This photocard is not a confirmed duplicate.")
	}

	original, err = findPhotocard(db.Preload("CreatedBy"), *duplicate.DuplicateOfID, "Original photocard not found.")
	if err != nil {
		return nil, nil, err
	}
	return duplicate, original, nil
}

// SuspectedDuplicateComparison loads two records a report claims are the
// same person.
func SuspectedDuplicateComparison(ctx context.Context, db *gorm.DB, duplicateID, originalID uint) (duplicate, original *models.Photocard, err error) {
	db = db.WithContext(ctx)

	duplicate, err = findPhotocard(db.Preload("CreatedBy"), duplicateID, "One or both photocards not found.")
	if err != nil {
		return nil, nil, err
	}
	original, err = findPhotocard(db.Preload("CreatedBy"), originalID, "One or both photocards not found.")
	if err != nil {
		return nil, nil, err
	}
	return duplicate, original, nil
}
