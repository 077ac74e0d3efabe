package model

import (
	"time"

	"gorm.io/gorm"
)

// User is the basic identity of the system.
type User struct {
	gorm.Model
	Username      string       `gorm:"uniqueIndex;type:varchar(32);not null;comment:generated login name (US0001...)"`
	FirstName     string       `gorm:"type:varchar(64);not null"`
	LastName      string       `gorm:"type:varchar(64)"`
	Email         string       `gorm:"uniqueIndex;type:varchar(128);not null"`
	Password      string       `gorm:"type:varchar(128);not null;comment:bcrypt hash"`
	Role          PlatformRole `gorm:"type:smallint;not null;default:2;comment:platform role (guest, user, admin)"`
	DesignationID *uint        `gorm:"index"`
	Designation   *Designation
	Phone         *string    `gorm:"type:varchar(32)"`
	IsActive      bool       `gorm:"not null;default:true;index"`
	LastLogin     *time.Time `gorm:"comment:updated on every successful login"`
}

// Designation is reference data describing a user's job title.
type Designation struct {
	gorm.Model
	Name     string `gorm:"uniqueIndex;type:varchar(64);not null"`
	IsActive bool   `gorm:"not null;default:true"`
}
