package entity

import (
	"time"
)

// Role is the closed set of account roles. Role strings are stored as-is and
// compared only through these constants.
type Role string

const (
	RoleSuperadmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleTechnician Role = "technician"
	RoleReception  Role = "reception"
	RoleUser       Role = "user"
)

// ParseRole validates a raw role string.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleSuperadmin, RoleAdmin, RoleTechnician, RoleReception, RoleUser:
		return Role(s), true
	}
	return "", false
}

// CanReceiveRepairs reports whether the role may perform front-desk intake.
func (r Role) CanReceiveRepairs() bool {
	return r == RoleReception || r == RoleAdmin || r == RoleSuperadmin
}

// CanUpdateRepairs reports whether the role may change a repair's status.
func (r Role) CanUpdateRepairs() bool {
	return r == RoleTechnician || r == RoleAdmin || r == RoleSuperadmin
}

// User is an account. Role is assigned at creation (default "user") and only
// changed by administrative action. The password column is select-excluded by
// the repository; credential and OAuth sign-in are handled outside this
// service.
type User struct {
	ID         string     `json:"id" gorm:"primaryKey;size:32"`
	Email      string     `json:"email" gorm:"size:128;not null;uniqueIndex"`
	Password   string     `json:"-" gorm:"size:128"`
	Fullname   string     `json:"fullname" gorm:"size:50;not null"`
	Provider   string     `json:"provider" gorm:"size:32;default:credentials"`
	GoogleID   string     `json:"google_id,omitempty" gorm:"size:64"`
	Image      string     `json:"image,omitempty" gorm:"size:256"`
	Role       Role       `json:"role" gorm:"size:16;not null;default:user"`
	Country    string     `json:"country" gorm:"size:64"`
	State      string     `json:"state" gorm:"size:64"`
	Locality   string     `json:"locality" gorm:"size:64"`
	Address    string     `json:"address" gorm:"size:128"`
	Whatsapp   string     `json:"whatsapp" gorm:"size:32"`
	Postalcode string     `json:"postalcode" gorm:"size:16"`
	Status     string     `json:"status" gorm:"size:16;default:activo"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

// Account status values (kept in Spanish, matching the persisted data).
const (
	UserStatusActive    = "activo"
	UserStatusInactive  = "inactivo"
	UserStatusSuspended = "suspendido"
)
