package services

import (
	"fmt"

	"github.com/photocard-archive/api-go/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NextSequenceValue increments the named counter and returns the new value.
// It must run inside the transaction that consumes the value; the row
// lock taken by the UPDATE serializes concurrent callers.
func NextSequenceValue(tx *gorm.DB, name string) (int64, error) {
	err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Sequence{ID: name}).Error
	if err != nil {
		return 0, fmt.Errorf("create sequence %s: %w", name, err)
	}

	err = tx.Model(&models.Sequence{}).
		Where("id = ?", name).
		UpdateColumn("value", gorm.Expr("value + ?", 1)).Error
	if err != nil {
		return 0, fmt.Errorf("increment sequence %s: %w", name, err)
	}

	var seq models.Sequence
	if err := tx.First(&seq, "id = ?", name).Error; err != nil {
		return 0, fmt.Errorf("read sequence %s: %w", name, err)
	}
	return seq.Value, nil
}
