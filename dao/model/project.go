package model

import (
	"time"

	"gorm.io/gorm"
)

type Project struct {
	gorm.Model
	Name        string `gorm:"uniqueIndex;type:varchar(128);not null"`
	Description string `gorm:"type:text"`
	OwnerID     uint   `gorm:"not null;index;comment:user who created the project"`
	Owner       User   `gorm:"foreignKey:OwnerID"`
	StartDate   *time.Time
	EndDate     *time.Time
	IsActive    bool `gorm:"not null;default:true;index"`
	Modules     []Module
	Allocations []ProjectAllocation
}

// Module is a functional area of a project; defects and test cases hang
// off modules and sub-modules.
type Module struct {
	gorm.Model
	ProjectID   uint `gorm:"not null;index"`
	Project     Project
	Name        string `gorm:"type:varchar(128);not null"`
	Description string `gorm:"type:text"`
	IsActive    bool   `gorm:"not null;default:true;index"`
	SubModules  []SubModule
}

type SubModule struct {
	gorm.Model
	ModuleID    uint `gorm:"not null;index"`
	Module      Module
	Name        string `gorm:"type:varchar(128);not null"`
	Description string `gorm:"type:text"`
	IsActive    bool   `gorm:"not null;default:true"`
}

// ProjectAllocation is the time-bounded membership of a user in a project
// with exactly one role. Only one active row per (user, project) is
// consulted during authorization; the allocate endpoint rejects a second
// active row and resolution tie-breaks on the newest id.
type ProjectAllocation struct {
	gorm.Model
	UserID               uint `gorm:"not null;index:idx_allocation_user_project"`
	User                 User
	ProjectID            uint `gorm:"not null;index:idx_allocation_user_project"`
	Project              Project
	RoleID               uint `gorm:"not null;index"`
	Role                 Role
	AllocationPercentage int    `gorm:"not null;default:100"`
	Notes                string `gorm:"type:text"`
	StartDate            *time.Time
	EndDate              *time.Time `gorm:"comment:membership ends; swept by cron"`
	IsActive             bool       `gorm:"not null;default:true;index"`
}

// ProjectAllocationHistory records every allocation mutation. Written in
// the same transaction as the allocation change itself.
type ProjectAllocationHistory struct {
	gorm.Model
	AllocationID uint `gorm:"not null;index"`
	Allocation   ProjectAllocation `gorm:"foreignKey:AllocationID"`
	ProjectID    uint `gorm:"not null;index"`
	UserID       uint `gorm:"not null"`
	Action       HistoryAction `gorm:"type:varchar(32);not null"`
	FieldName    string        `gorm:"type:varchar(64)"`
	OldValue     string        `gorm:"type:varchar(255)"`
	NewValue     string        `gorm:"type:varchar(255)"`
	ChangedBy    uint          `gorm:"not null"`
}
