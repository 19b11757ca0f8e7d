package models

import (
	"time"
)

const (
	VerificationStatusPending  = "pending"
	VerificationStatusApproved = "approved"
	VerificationStatusRejected = "rejected"
)

// Verification tracks one identification proposal for an unidentified
// photocard. At most one pending verification exists per original.
type Verification struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	OriginalPhotocardID    uint       `gorm:"not null;index" json:"originalPhotocardId"`
	OriginalPhotocard      *Photocard `gorm:"foreignKey:OriginalPhotocardID" json:"originalPhotocard,omitempty"`
	ProvisionalPhotocardID uint       `gorm:"not null" json:"provisionalPhotocardId"`
	ProvisionalPhotocard   *Photocard `gorm:"foreignKey:ProvisionalPhotocardID" json:"provisionalPhotocard,omitempty"`

	SubmittedByID uint  `gorm:"not null" json:"submittedById"`
	SubmittedBy   *User `gorm:"foreignKey:SubmittedByID" json:"submittedBy,omitempty"`

	Status         string     `gorm:"type:varchar(16);not null;default:pending;index" json:"status"`
	ReviewedByID   *uint      `json:"reviewedById"`
	ReviewedBy     *User      `gorm:"foreignKey:ReviewedByID" json:"reviewedBy,omitempty"`
	ReviewedAt     *time.Time `json:"reviewedAt"`
	ReviewComments string     `json:"reviewComments"`
}

func (v *Verification) IsPending() bool {
	return v.Status == VerificationStatusPending
}
