package models

import (
	"time"
)

type User struct {
	ID            uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	Username      string     `gorm:"unique;not null;size:30" json:"username"`
	Email         string     `gorm:"unique;not null" json:"email"`
	Password      string     `gorm:"not null" json:"-"` // Don't expose password in JSON
	IsAdmin       bool       `gorm:"not null;default:false" json:"isAdmin"`
	IsBlocked     bool       `gorm:"not null;default:false" json:"isBlocked"`
	FlaggedCount  int        `gorm:"not null;default:0" json:"flaggedCount"`
	FlaggedReason *string    `json:"flaggedReason"`
	LastFlaggedAt *time.Time `json:"lastFlaggedAt"`
}

// Role is the claim value carried in access tokens.
func (u *User) Role() string {
	if u.IsAdmin {
		return RoleAdmin
	}
	return RoleUser
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)
