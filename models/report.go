package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

const (
	ReportTypePhotocard = "photocard"
	ReportTypeUser      = "user"
)

const (
	ReasonDuplicate     = "duplicate"
	ReasonInappropriate = "inappropriate"
	ReasonMisleading    = "misleading"
	ReasonOther         = "other"
)

const (
	ReportPending   = "pending"
	ReportReviewed  = "reviewed"
	ReportResolved  = "resolved"
	ReportDismissed = "dismissed"
)

const DefaultDuplicateReason = "User reported as duplicate"

type Report struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	ReportedByID uint   `gorm:"not null;index" json:"reportedById"`
	ReportedBy   *User  `gorm:"foreignKey:ReportedByID" json:"reportedBy,omitempty"`
	ReportType   string `gorm:"type:varchar(16);not null" json:"reportType"`

	PhotocardID    *uint      `gorm:"index" json:"photocardId"`
	Photocard      *Photocard `gorm:"foreignKey:PhotocardID" json:"photocard,omitempty"`
	ReportedUserID *uint      `gorm:"index" json:"reportedUserId"`
	ReportedUser   *User      `gorm:"foreignKey:ReportedUserID" json:"reportedUser,omitempty"`

	ReasonType    string     `gorm:"type:varchar(16);not null" json:"reasonType"`
	Reason        string     `json:"reason"`
	DuplicateOfID *uint      `gorm:"index" json:"duplicateOfId"`
	DuplicateOf   *Photocard `gorm:"foreignKey:DuplicateOfID" json:"duplicateOf,omitempty"`

	Status       string     `gorm:"type:varchar(16);not null;default:pending;index" json:"status"` // pending, reviewed, resolved, dismissed
	ReviewedByID *uint      `json:"reviewedById"`
	ReviewedBy   *User      `gorm:"foreignKey:ReviewedByID" json:"reviewedBy,omitempty"`
	ReviewedAt   *time.Time `json:"reviewedAt"`
}

func ValidReasonType(r string) bool {
	switch r {
	case ReasonDuplicate, ReasonInappropriate, ReasonMisleading, ReasonOther:
		return true
	}
	return false
}

func ValidReportStatus(s string) bool {
	switch s {
	case ReportPending, ReportReviewed, ReportResolved, ReportDismissed:
		return true
	}
	return false
}

// BeforeSave keeps exactly one report target set and fills in the default
// duplicate reason.
func (r *Report) BeforeSave(tx *gorm.DB) error {
	switch r.ReportType {
	case ReportTypePhotocard:
		if r.PhotocardID == nil {
			return fmt.Errorf("%w: photocard ID is required for photocard reports", ErrInvalidRecord)
		}
		r.ReportedUserID = nil
	case ReportTypeUser:
		if r.ReportedUserID == nil {
			return fmt.Errorf("%w: user ID is required for user reports", ErrInvalidRecord)
		}
		r.PhotocardID = nil
	default:
		return fmt.Errorf("%w: report type must be photocard or user", ErrInvalidRecord)
	}

	if !ValidReasonType(r.ReasonType) {
		return fmt.Errorf("%w: unknown reason type %q", ErrInvalidRecord, r.ReasonType)
	}
	if r.ReasonType == ReasonDuplicate && r.Reason == "" {
		r.Reason = DefaultDuplicateReason
	}
	if r.Reason == "" {
		return fmt.Errorf("%w: reason is required", ErrInvalidRecord)
	}
	if r.ReasonType != ReasonDuplicate {
		r.DuplicateOfID = nil
	}

	if r.Status == "" {
		r.Status = ReportPending
	}
	if !ValidReportStatus(r.Status) {
		return fmt.Errorf("%w: unknown report status %q", ErrInvalidRecord, r.Status)
	}
	return nil
}
