// Package services holds the photocard lifecycle: catalogue writes, the
// moderation state machine, duplicate resolution, the identification
// workflow and the report ledger. Functions that write more than one row
// run inside a single transaction.
package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/photocard-archive/api-go/models"
	"github.com/photocard-archive/api-go/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// now is replaced in tests that need a fixed clock.
var now = time.Now

// storeErr maps store failures onto client-facing error kinds.
func storeErr(err error, notFound string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return utils.NotFound(notFound)
	case errors.Is(err, models.ErrInvalidRecord):
		msg := strings.TrimPrefix(err.Error(), models.ErrInvalidRecord.Error()+": ")
		return &utils.AppError{Kind: utils.KindValidation, Message: msg, Err: err}
	case isUniqueViolation(err):
		return &utils.AppError{Kind: utils.KindConflict, Message: "Record conflicts with an existing one.", Err: err}
	}
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}

func findPhotocard(tx *gorm.DB, id uint, notFound string) (*models.Photocard, error) {
	var p models.Photocard
	if err := tx.First(&p, id).Error; err != nil {
		return nil, storeErr(err, notFound)
	}
	return &p, nil
}

// findLivePhotocard is findPhotocard for records that may be linked to:
// deleted and provisional records count as missing.
func findLivePhotocard(tx *gorm.DB, id uint, notFound string) (*models.Photocard, error) {
	p, err := findPhotocard(tx, id, notFound)
	if err != nil {
		return nil, err
	}
	if p.IsDeleted || p.IsProvisional {
		return nil, utils.NotFound(notFound)
	}
	return p, nil
}

// savePhotocard writes every column of p without touching preloaded
// associations. Save hooks validate the record first.
func savePhotocard(tx *gorm.DB, p *models.Photocard) error {
	if err := tx.Omit(clause.Associations).Save(p).Error; err != nil {
		return storeErr(err, "Photocard not found.")
	}
	return nil
}

func strPtr(s string) *string { return &s }

// Page is a 1-based page request.
type Page struct {
	Page  int
	Limit int
}

// Normalize clamps the request to sane bounds, using defaultLimit when no
// limit was given.
func (p Page) Normalize(defaultLimit, maxLimit int) Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := utils.AsAppError(err); ok {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
