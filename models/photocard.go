package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/photocard-archive/api-go/types"
	"gorm.io/gorm"
)

// ErrInvalidRecord is returned by save hooks when a record would be stored
// in a state the lifecycle does not allow.
var ErrInvalidRecord = errors.New("invalid record")

const (
	ConditionInjured  = "injured"
	ConditionMissing  = "missing"
	ConditionDeceased = "deceased"
)

const (
	VerificationUnverified = "unverified"
	VerificationPending    = "verification_pending"
	VerificationVerified   = "verified"
	VerificationRejected   = "rejected"
)

const (
	DeleteReasonRejectedIdentification   = "rejected_identification"
	DeleteReasonRestoredOriginal         = "restored_original"
	DeleteReasonDeletedByAdmin           = "deleted_by_admin"
	DeleteReasonReplacedByIdentification = "replaced_by_identification"
)

const (
	StatusActive      = "active"
	StatusProvisional = "provisional"
	StatusDeleted     = "deleted"
)

// MonthsAgeLimit is the age below which months are tracked.
const MonthsAgeLimit = 3

type Photocard struct {
	ID                 uint                  `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt          time.Time             `gorm:"index" json:"createdAt"`
	UpdatedAt          time.Time             `json:"updatedAt"`
	PhotocardNumber    types.PhotocardNumber `gorm:"type:varchar(64);uniqueIndex" json:"photocardNumber"`
	Name               string                `gorm:"not null;index" json:"name"`
	Age                *int                  `json:"age"`
	Months             *int                  `json:"months"`
	Condition          *string               `gorm:"type:varchar(16)" json:"condition"`
	Biography          string                `json:"biography"`
	Image              string                `json:"image"`
	CreatedByID        uint                  `gorm:"not null;index" json:"createdById"`
	CreatedBy          *User                 `gorm:"foreignKey:CreatedByID" json:"createdBy,omitempty"`
	IsUnidentified     bool                  `gorm:"not null;default:false" json:"isUnidentified"`
	VerificationStatus string                `gorm:"type:varchar(32);not null;default:unverified" json:"verificationStatus"`
	Status             string                `gorm:"type:varchar(16);not null;default:active;index" json:"status"`
	Blocked            bool                  `gorm:"not null;default:false" json:"blocked"`
	Flagged            bool                  `gorm:"not null;default:false" json:"flagged"`

	IsConfirmedDuplicate bool  `gorm:"not null;default:false" json:"isConfirmedDuplicate"`
	DuplicateOfID        *uint `gorm:"index" json:"duplicateOf"`

	IsProvisional   bool  `gorm:"not null;default:false;index" json:"isProvisional"`
	ProvisionalOfID *uint `json:"provisionalOf"`

	IsDeleted         bool       `gorm:"not null;default:false;index" json:"isDeleted"`
	DeletedAt         *time.Time `json:"deletedAt"`
	DeleteReason      *string    `gorm:"type:varchar(32)" json:"deleteReason"`
	RejectionComments *string    `json:"rejectionComments"`
	ReplacedByID      *uint      `json:"replacedBy"`
}

// PhotocardState is the lifecycle position of a photocard, derived from
// its stored flags.
type PhotocardState uint8

const (
	StateActive PhotocardState = iota
	StateBlocked
	StateProvisional
	StateSoftDeleted
)

func (s PhotocardState) String() string {
	switch s {
	case StateBlocked:
		return "blocked"
	case StateProvisional:
		return "provisional"
	case StateSoftDeleted:
		return "deleted"
	default:
		return "active"
	}
}

func (p *Photocard) State() PhotocardState {
	switch {
	case p.IsDeleted:
		return StateSoftDeleted
	case p.IsProvisional:
		return StateProvisional
	case p.Blocked:
		return StateBlocked
	default:
		return StateActive
	}
}

// Visible reports whether the record may appear in public listings.
func (p *Photocard) Visible() bool {
	return p.State() == StateActive
}

func (p *Photocard) IsOwnedBy(userID uint) bool {
	return p.CreatedByID == userID
}

// HasNumber reports whether the record holds a catalogue number.
func (p *Photocard) HasNumber() bool {
	return !p.PhotocardNumber.IsZero()
}

// MarkDeleted moves the record into the soft-deleted state.
func (p *Photocard) MarkDeleted(at time.Time, reason *string) {
	p.IsDeleted = true
	p.DeletedAt = &at
	p.DeleteReason = reason
}

// Restore clears the soft-deleted state.
func (p *Photocard) Restore() {
	p.IsDeleted = false
	p.DeletedAt = nil
	p.DeleteReason = nil
}

// MarkDuplicateOf links the record to the one it duplicates.
func (p *Photocard) MarkDuplicateOf(originalID uint) {
	p.IsConfirmedDuplicate = true
	p.DuplicateOfID = &originalID
	p.Flagged = false
}

func (p *Photocard) ClearDuplicate() {
	p.IsConfirmedDuplicate = false
	p.DuplicateOfID = nil
	p.Flagged = false
}

func ValidCondition(c string) bool {
	switch c {
	case ConditionInjured, ConditionMissing, ConditionDeceased:
		return true
	}
	return false
}

func ValidDeleteReason(r string) bool {
	switch r {
	case DeleteReasonRejectedIdentification, DeleteReasonRestoredOriginal,
		DeleteReasonDeletedByAdmin, DeleteReasonReplacedByIdentification:
		return true
	}
	return false
}

func ValidVerificationStatus(s string) bool {
	switch s {
	case VerificationUnverified, VerificationPending, VerificationVerified, VerificationRejected:
		return true
	}
	return false
}

// Normalize applies the field rules that hold on every save.
func (p *Photocard) Normalize() {
	if p.Age != nil && *p.Age >= MonthsAgeLimit {
		p.Months = nil
	}
	if p.Condition != nil && *p.Condition == "" {
		p.Condition = nil
	}
	if !p.IsDeleted {
		p.DeletedAt = nil
		p.DeleteReason = nil
	}
	if p.VerificationStatus == "" {
		p.VerificationStatus = VerificationUnverified
	}
	switch p.State() {
	case StateSoftDeleted:
		p.Status = StatusDeleted
	case StateProvisional:
		p.Status = StatusProvisional
	default:
		p.Status = StatusActive
	}
}

// Validate checks the cross-field rules of a photocard.
func (p *Photocard) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRecord)
	}
	if p.Age != nil && *p.Age < 0 {
		return fmt.Errorf("%w: age must not be negative", ErrInvalidRecord)
	}
	if p.Months != nil && (*p.Months < 0 || *p.Months > 11) {
		return fmt.Errorf("%w: months must be between 0 and 11", ErrInvalidRecord)
	}
	if p.Condition != nil && !ValidCondition(*p.Condition) {
		return fmt.Errorf("%w: condition must be one of injured, missing, deceased", ErrInvalidRecord)
	}
	if !ValidVerificationStatus(p.VerificationStatus) {
		return fmt.Errorf("%w: unknown verification status %q", ErrInvalidRecord, p.VerificationStatus)
	}
	if p.IsConfirmedDuplicate != (p.DuplicateOfID != nil) {
		return fmt.Errorf("%w: isConfirmedDuplicate and duplicateOf must be set together", ErrInvalidRecord)
	}
	if p.DuplicateOfID != nil && p.ID != 0 && *p.DuplicateOfID == p.ID {
		return fmt.Errorf("%w: a photocard cannot duplicate itself", ErrInvalidRecord)
	}
	if p.IsProvisional && p.ProvisionalOfID == nil {
		return fmt.Errorf("%w: provisional photocards need provisionalOf", ErrInvalidRecord)
	}
	if p.IsProvisional && p.IsDeleted {
		return fmt.Errorf("%w: a photocard cannot be both provisional and deleted", ErrInvalidRecord)
	}
	if p.DeleteReason != nil && !ValidDeleteReason(*p.DeleteReason) {
		return fmt.Errorf("%w: unknown delete reason %q", ErrInvalidRecord, *p.DeleteReason)
	}
	return nil
}

func (p *Photocard) BeforeSave(tx *gorm.DB) error {
	p.Normalize()
	return p.Validate()
}
