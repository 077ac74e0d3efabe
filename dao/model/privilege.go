package model

import (
	"time"

	"gorm.io/gorm"
)

// Privilege is static reference data identifying one capability as a
// (module, action) pair, e.g. (projects, CREATE).
type Privilege struct {
	gorm.Model
	Module      string `gorm:"type:varchar(32);not null;uniqueIndex:idx_privilege_key"`
	Action      Action `gorm:"type:varchar(16);not null;uniqueIndex:idx_privilege_key"`
	Description string `gorm:"type:varchar(255)"`
	IsActive    bool   `gorm:"not null;default:true"`
}

// UserPrivilege grants one privilege directly to one user. ProjectID is
// optional: a NULL scope is a project-independent grant and matches any
// project during resolution. At most one active row may exist per
// (user, privilege, project) tuple; the grant endpoint enforces this.
type UserPrivilege struct {
	gorm.Model
	UserID      uint `gorm:"not null;index:idx_user_privilege"`
	User        User
	PrivilegeID uint `gorm:"not null;index:idx_user_privilege"`
	Privilege   Privilege
	ProjectID   *uint `gorm:"index:idx_user_privilege"`
	Project     *Project
	GrantedBy   uint       `gorm:"not null;comment:admin user who created the grant"`
	ExpiresAt   *time.Time `gorm:"comment:grant is ignored after this instant; swept by cron"`
	IsActive    bool       `gorm:"not null;default:true;index"`
}

// ProjectUserPrivilege grants one privilege to one user within exactly one
// project. Unlike UserPrivilege the project scope is mandatory.
type ProjectUserPrivilege struct {
	gorm.Model
	UserID      uint `gorm:"not null;index:idx_project_user_privilege"`
	User        User
	ProjectID   uint `gorm:"not null;index:idx_project_user_privilege"`
	Project     Project
	PrivilegeID uint `gorm:"not null;index:idx_project_user_privilege"`
	Privilege   Privilege
	GrantedBy   uint `gorm:"not null"`
	IsActive    bool `gorm:"not null;default:true;index"`
}

// Role is a named bundle of privileges, assignable to a user via a
// project allocation.
type Role struct {
	gorm.Model
	Name            string `gorm:"uniqueIndex;type:varchar(64);not null"`
	Description     string `gorm:"type:varchar(255)"`
	IsActive        bool   `gorm:"not null;default:true"`
	GroupPrivileges []GroupPrivilege
}

// GroupPrivilege links a role to a privilege. IsActive toggles the link
// without deleting history.
type GroupPrivilege struct {
	gorm.Model
	RoleID      uint `gorm:"not null;index:idx_group_privilege"`
	Role        Role
	PrivilegeID uint `gorm:"not null;index:idx_group_privilege"`
	Privilege   Privilege
	IsActive    bool `gorm:"not null;default:true;index"`
}
