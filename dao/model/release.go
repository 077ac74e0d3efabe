package model

import (
	"time"

	"gorm.io/gorm"
)

type ReleaseType struct {
	gorm.Model
	Name     string `gorm:"uniqueIndex;type:varchar(64);not null"`
	IsActive bool   `gorm:"not null;default:true"`
}

type Release struct {
	gorm.Model
	ProjectID     uint `gorm:"not null;index"`
	Project       Project
	ReleaseTypeID uint `gorm:"not null;index"`
	ReleaseType   ReleaseType
	Name          string `gorm:"type:varchar(128);not null"`
	Version       string `gorm:"type:varchar(64);not null"`
	Description   string `gorm:"type:text"`
	ReleaseDate   *time.Time
	IsActive      bool `gorm:"not null;default:true;index"`
}

type TestCase struct {
	gorm.Model
	ProjectID      uint `gorm:"not null;index"`
	Project        Project
	ModuleID       *uint `gorm:"index"`
	Module         *Module
	SubModuleID    *uint `gorm:"index"`
	Title          string `gorm:"type:varchar(500);not null"`
	Description    string `gorm:"type:text"`
	Steps          string `gorm:"type:text"`
	ExpectedResult string `gorm:"type:text"`
	CreatedBy      uint   `gorm:"not null"`
	IsActive       bool   `gorm:"not null;default:true;index"`
}

// ReleaseTestCase maps a test case into a release run; defects reference
// the mapping so a bug is traceable to the run that found it.
type ReleaseTestCase struct {
	gorm.Model
	ReleaseID  uint `gorm:"not null;index:idx_release_test_case"`
	Release    Release
	TestCaseID uint `gorm:"not null;index:idx_release_test_case"`
	TestCase   TestCase
	Status     string `gorm:"type:varchar(32);not null;default:'pending';comment:pending, passed, failed, blocked"`
	ExecutedBy *uint
	ExecutedAt *time.Time
	IsActive   bool `gorm:"not null;default:true"`
}
