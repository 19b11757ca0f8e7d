package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/photocard-archive/api-go/models"
	"github.com/photocard-archive/api-go/storage"
	"github.com/photocard-archive/api-go/types"
	"github.com/photocard-archive/api-go/utils"
	"gorm.io/gorm"
)

// PhotocardInput carries the owner-editable fields of a photocard. A nil
// Image leaves the current image alone; an empty one clears it. A nil
// IsConfirmedDuplicate keeps the current duplicate link.
type PhotocardInput struct {
	Name                 string
	Age                  *int
	Months               *int
	Condition            *string
	Biography            string
	Image                *string
	IsUnidentified       bool
	IsConfirmedDuplicate *bool
	DuplicateOfID        *uint
}

func (in *PhotocardInput) apply(p *models.Photocard) {
	p.Name = strings.TrimSpace(in.Name)
	p.Age = in.Age
	p.Months = in.Months
	p.Condition = in.Condition
	p.Biography = in.Biography
	if in.Image != nil {
		p.Image = *in.Image
	}
	switch {
	case in.IsConfirmedDuplicate == nil:
	case *in.IsConfirmedDuplicate && in.DuplicateOfID != nil:
		p.IsConfirmedDuplicate = true
		p.DuplicateOfID = in.DuplicateOfID
	default:
		p.IsConfirmedDuplicate = false
		p.DuplicateOfID = nil
	}
}

func checkImage(ctx context.Context, images storage.ImageStore, ownerID uint, key *string) error {
	if key == nil || !storage.IsRealImage(*key) {
		return nil
	}
	if !storage.OwnsKey(*key, ownerID) {
		return utils.Forbidden("Image does not belong to you.")
	}
	if images == nil {
		return nil
	}
	ok, err := images.Exists(ctx, *key)
	if err != nil {
		return utils.Internal("Failed to process image.", err)
	}
	if !ok {
		return utils.Validation("Uploaded image not found.")
	}
	return nil
}

func checkDuplicateLink(tx *gorm.DB, in *PhotocardInput, selfID uint) error {
	if in.IsConfirmedDuplicate == nil || !*in.IsConfirmedDuplicate {
		return nil
	}
	if in.DuplicateOfID == nil || *in.DuplicateOfID == 0 || *in.DuplicateOfID == selfID {
		return utils.Validation("Invalid original photocard ID provided for duplicate.")
	}
	var count int64
	err := tx.Model(&models.Photocard{}).
		Where("id = ? AND is_deleted = ? AND is_provisional = ?", *in.DuplicateOfID, false, false).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("check duplicate reference: %w", err)
	}
	if count == 0 {
		return utils.Validation("Invalid original photocard ID provided for duplicate.")
	}
	return nil
}

// CreatePhotocard catalogues a new photocard under the next sequence number.
func CreatePhotocard(ctx context.Context, db *gorm.DB, images storage.ImageStore, ownerID uint, in PhotocardInput) (*models.Photocard, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, utils.Validation("Missing required fields.").WithDetails(map[string]any{"missing": []string{"name"}})
	}
	if err := checkImage(ctx, images, ownerID, in.Image); err != nil {
		return nil, err
	}

	photocard := &models.Photocard{CreatedByID: ownerID, IsUnidentified: in.IsUnidentified}
	in.apply(photocard)
	if in.IsUnidentified {
		photocard.VerificationStatus = models.VerificationUnverified
	} else {
		photocard.VerificationStatus = models.VerificationVerified
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkDuplicateLink(tx, &in, 0); err != nil {
			return err
		}

		seq, err := NextSequenceValue(tx, models.PhotocardCounter)
		if err != nil {
			return utils.Internal("Failed to generate photocard number.", err)
		}
		photocard.PhotocardNumber = types.Sequential(uint32(seq))

		if err := tx.Create(photocard).Error; err != nil {
			return storeErr(err, "Photocard not found.")
		}
		return nil
	})
	if err != nil {
		return nil, wrap("create photocard", err)
	}

	log.Printf("photocard %d created as %s by user %d", photocard.ID, photocard.PhotocardNumber.Display(), ownerID)
	return photocard, nil
}

// UpdatePhotocard applies an owner's edit. A replaced or cleared image is
// removed from storage once nothing else uses it.
func UpdatePhotocard(ctx context.Context, db *gorm.DB, images storage.ImageStore, photocardID, ownerID uint, in PhotocardInput) (*models.Photocard, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, utils.Validation("Missing required fields.").WithDetails(map[string]any{"missing": []string{"name"}})
	}

	var photocard *models.Photocard
	var orphanedImage string
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		photocard, err = findPhotocard(tx, photocardID, "Photocard not found.")
		if err != nil {
			return err
		}
		if !photocard.IsOwnedBy(ownerID) {
			return utils.Forbidden("Not authorized to update this photocard.")
		}
		if photocard.IsDeleted || photocard.IsProvisional {
			return utils.Conflict("This photocard can no longer be edited.")
		}
		if err := checkImage(ctx, images, ownerID, in.Image); err != nil {
			return err
		}
		if err := checkDuplicateLink(tx, &in, photocard.ID); err != nil {
			return err
		}

		previousImage := photocard.Image
		in.apply(photocard)
		if err := savePhotocard(tx, photocard); err != nil {
			return err
		}

		if previousImage != photocard.Image {
			shared, err := imageInUse(tx, previousImage, 0)
			if err != nil {
				return err
			}
			if !shared {
				orphanedImage = previousImage
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrap("update photocard", err)
	}

	log.Printf("photocard %d updated by owner %d", photocardID, ownerID)
	removeImage(ctx, images, orphanedImage)
	return photocard, nil
}

// ListOptions filters the public catalogue.
type ListOptions struct {
	Page
	ExcludeUnidentified bool
}

type ConditionCounts struct {
	Missing  int64 `json:"missing"`
	Deceased int64 `json:"deceased"`
	Injured  int64 `json:"injured"`
	Total    int64 `json:"total"`
}

type PhotocardList struct {
	Photocards []models.Photocard
	Counts     ConditionCounts
	Total      int64
	Page       Page
}

func publicScope(excludeUnidentified bool) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		tx = tx.Where("blocked = ? AND is_deleted = ? AND is_provisional = ?", false, false, false)
		if excludeUnidentified {
			tx = tx.Where("is_unidentified = ?", false)
		}
		return tx
	}
}

// ListPublicPhotocards pages through the visible catalogue. Condition
// counts cover the whole filtered catalogue, confirmed duplicates excluded.
func ListPublicPhotocards(ctx context.Context, db *gorm.DB, opts ListOptions) (*PhotocardList, error) {
	db = db.WithContext(ctx)
	page := opts.Page.Normalize(100, 500)

	list := &PhotocardList{Page: page}
	if err := db.Model(&models.Photocard{}).Scopes(publicScope(opts.ExcludeUnidentified)).Count(&list.Total).Error; err != nil {
		return nil, fmt.Errorf("count photocards: %w", err)
	}

	err := db.Preload("CreatedBy").
		Scopes(publicScope(opts.ExcludeUnidentified)).
		Order("created_at DESC, id DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&list.Photocards).Error
	if err != nil {
		return nil, fmt.Errorf("list photocards: %w", err)
	}

	var rows []struct {
		Condition *string
		Count     int64
	}
	err = db.Model(&models.Photocard{}).
		Select("condition, COUNT(*) AS count").
		Scopes(publicScope(opts.ExcludeUnidentified)).
		Where("is_confirmed_duplicate = ?", false).
		Group("condition").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count conditions: %w", err)
	}
	for _, row := range rows {
		list.Counts.Total += row.Count
		if row.Condition == nil {
			continue
		}
		switch *row.Condition {
		case models.ConditionMissing:
			list.Counts.Missing += row.Count
		case models.ConditionDeceased:
			list.Counts.Deceased += row.Count
		case models.ConditionInjured:
			list.Counts.Injured += row.Count
		}
	}

	return list, nil
}

const searchLimit = 100

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// SearchPhotocards matches visible photocards by a case-insensitive name
// fragment or by number ("17", "#017", "#017ID"), newest first.
func SearchPhotocards(ctx context.Context, db *gorm.DB, query string) ([]models.Photocard, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, utils.Validation("Search query is required.")
	}

	match := db.WithContext(ctx).Where(`LOWER(name) LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(strings.ToLower(query))+"%")
	if number, err := types.ParsePhotocardNumber(strings.TrimPrefix(query, "#")); err == nil && !number.IsZero() {
		match = match.Or("photocard_number = ?", number.String())
	}

	var photocards []models.Photocard
	err := db.WithContext(ctx).
		Preload("CreatedBy").
		Scopes(publicScope(false)).
		Where(match).
		Order("created_at DESC, id DESC").
		Limit(searchLimit).
		Find(&photocards).Error
	if err != nil {
		return nil, fmt.Errorf("search photocards: %w", err)
	}
	return photocards, nil
}

// GetPublicPhotocard loads a photocard visible in the public catalogue.
func GetPublicPhotocard(ctx context.Context, db *gorm.DB, photocardID uint) (*models.Photocard, error) {
	photocard, err := findPhotocard(db.WithContext(ctx).Preload("CreatedBy"), photocardID, "Photocard not found.")
	if err != nil {
		return nil, err
	}
	if !photocard.Visible() {
		return nil, utils.NotFound("Photocard not found.")
	}
	return photocard, nil
}

// ListUserPhotocards lists the live photocards a user created.
func ListUserPhotocards(ctx context.Context, db *gorm.DB, userID uint) ([]models.Photocard, error) {
	var photocards []models.Photocard
	err := db.WithContext(ctx).
		Preload("CreatedBy").
		Where("created_by_id = ? AND is_deleted = ? AND is_provisional = ?", userID, false, false).
		Order("created_at DESC, id DESC").
		Find(&photocards).Error
	if err != nil {
		return nil, fmt.Errorf("list user photocards: %w", err)
	}
	return photocards, nil
}
