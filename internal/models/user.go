package models

import "time"

// User roles. Only RoleUser gets owner-scoped summary listings; the
// privileged roles see every record.
const (
	RoleUser     = "user"
	RoleAdmin    = "admin"
	RoleEditor   = "editor"
	RoleReviewer = "reviewer"
)

// Account statuses toggled by the inactivity sweep.
const (
	StatusActive      = "Active"
	StatusDeactivated = "Deactivated"
)

// DefaultCredits is the signup credit grant.
const DefaultCredits = 5

// UserModel represents an authenticated principal with a credit balance.
type UserModel struct {
	Base
	UserName  string     `json:"userName"  gorm:"uniqueIndex;not null"`
	Email     string     `json:"email"     gorm:"uniqueIndex;not null"`
	Password  string     `json:"-"         gorm:"not null"`
	Credits   int        `json:"credits"   gorm:"not null"`
	Role      string     `json:"role"      gorm:"not null;default:user"`
	Status    string     `json:"status"    gorm:"not null;default:Active"`
	LastLogin *time.Time `json:"lastLogin"`
}

func (UserModel) TableName() string { return "users" }

func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleAdmin, RoleEditor, RoleReviewer:
		return true
	}
	return false
}
