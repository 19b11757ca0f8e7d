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

func ListUsers(ctx context.Context, db *gorm.DB) ([]models.User, error) {
	var users []models.User
	if err := db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

type UserCounts struct {
	Flagged int64 `json:"flagged"`
	Blocked int64 `json:"blocked"`
	Total   int64 `json:"total"`
}

// CountUsers reports totals for the admin dashboard. Flagged counts
// pending reports against users.
func CountUsers(ctx context.Context, db *gorm.DB) (*UserCounts, error) {
	db = db.WithContext(ctx)

	var counts UserCounts
	if err := db.Model(&models.User{}).Count(&counts.Total).Error; err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if err := db.Model(&models.User{}).Where("is_blocked = ?", true).Count(&counts.Blocked).Error; err != nil {
		return nil, fmt.Errorf("count blocked users: %w", err)
	}
	if err := db.Model(&models.Report{}).
		Where("report_type = ? AND status = ?", models.ReportTypeUser, models.ReportPending).
		Count(&counts.Flagged).Error; err != nil {
		return nil, fmt.Errorf("count flagged users: %w", err)
	}
	return &counts, nil
}

// BlockUser locks a user out, revokes their refresh tokens and resolves
// the reports filed against them.
func BlockUser(ctx context.Context, db *gorm.DB, userID, adminID uint) (*models.User, error) {
	var user models.User
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, userID).Error; err != nil {
			return storeErr(err, "User not found.")
		}
		if user.IsAdmin {
			return utils.Forbidden("You cannot block another administrator account!")
		}
		if user.ID == adminID {
			return utils.Forbidden("You cannot block your own account.")
		}
		if user.IsBlocked {
			return utils.Conflict("User is already blocked.")
		}

		user.IsBlocked = true
		if err := tx.Save(&user).Error; err != nil {
			return fmt.Errorf("block user: %w", err)
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.RefreshToken{}).Error; err != nil {
			return fmt.Errorf("revoke refresh tokens: %w", err)
		}

		_, err := ResolvePendingUserReports(tx, user.ID, adminID, ReasonUserBlocked)
		return err
	})
	if err != nil {
		return nil, wrap("block user", err)
	}

	log.Printf("user %d blocked by admin %d", userID, adminID)
	return &user, nil
}

func UnblockUser(ctx context.Context, db *gorm.DB, userID, adminID uint) (*models.User, error) {
	db = db.WithContext(ctx)

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return nil, storeErr(err, "User not found.")
	}
	if !user.IsBlocked {
		return nil, utils.Conflict("User is not blocked.")
	}

	user.IsBlocked = false
	if err := db.Save(&user).Error; err != nil {
		return nil, fmt.Errorf("unblock user: %w", err)
	}

	log.Printf("user %d unblocked by admin %d", userID, adminID)
	return &user, nil
}

// DeleteUser removes a non-admin account with its photocards, the reports
// filed by or against it and its refresh tokens. Identifications it still
// has pending are discarded as if rejected. Images nothing else uses are
// deleted after the commit.
func DeleteUser(ctx context.Context, db *gorm.DB, images storage.ImageStore, userID, adminID uint) (*models.User, error) {
	if userID == adminID {
		return nil, utils.Forbidden("Administrator cannot delete their own account.")
	}

	var user models.User
	var orphaned []string
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, userID).Error; err != nil {
			return storeErr(err, "User not found.")
		}
		if user.IsAdmin {
			return utils.Forbidden("Cannot delete another administrator account.")
		}

		var photocards []models.Photocard
		if err := tx.Select("id", "image").Where("created_by_id = ?", user.ID).Find(&photocards).Error; err != nil {
			return fmt.Errorf("list user photocards: %w", err)
		}
		ids := make([]uint, 0, len(photocards))
		keys := make(map[string]struct{})
		for _, p := range photocards {
			ids = append(ids, p.ID)
			if storage.IsRealImage(p.Image) {
				keys[p.Image] = struct{}{}
			}
		}

		if len(ids) > 0 {
			if err := detachPhotocards(tx, ids); err != nil {
				return err
			}
			if err := tx.Where("id IN ?", ids).Delete(&models.Photocard{}).Error; err != nil {
				return fmt.Errorf("delete photocards: %w", err)
			}
		}

		var proposals []models.Verification
		err := tx.Where("submitted_by_id = ? AND status = ?", user.ID, models.VerificationStatusPending).Find(&proposals).Error
		if err != nil {
			return fmt.Errorf("list pending verifications: %w", err)
		}
		for i := range proposals {
			if _, _, err := discardProposal(tx, &proposals[i], ""); err != nil {
				return err
			}
		}
		if err := tx.Where("submitted_by_id = ?", user.ID).Delete(&models.Verification{}).Error; err != nil {
			return fmt.Errorf("delete submitted verifications: %w", err)
		}

		err = tx.Where("reported_by_id = ? OR reported_user_id = ?", user.ID, user.ID).Delete(&models.Report{}).Error
		if err != nil {
			return fmt.Errorf("delete reports: %w", err)
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.RefreshToken{}).Error; err != nil {
			return fmt.Errorf("delete refresh tokens: %w", err)
		}
		if err := tx.Delete(&user).Error; err != nil {
			return fmt.Errorf("delete user: %w", err)
		}

		for key := range keys {
			shared, err := imageInUse(tx, key, 0)
			if err != nil {
				return err
			}
			if !shared {
				orphaned = append(orphaned, key)
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrap("delete user", err)
	}

	log.Printf("user %d deleted by admin %d, %d images orphaned", userID, adminID, len(orphaned))
	for _, key := range orphaned {
		removeImage(ctx, images, key)
	}
	return &user, nil
}
