package model

import "gorm.io/gorm"

// Reference entities classifying defects. Seeded at bootstrap, managed by
// admins through the lookups API.

// Severity weighting in the dashboard engine matches on the lower-cased
// Name; Level (1-10) is kept for ordering and future stable-key matching.
type Severity struct {
	gorm.Model
	Name     string `gorm:"uniqueIndex;type:varchar(32);not null"`
	Level    int    `gorm:"not null;comment:1 (lowest) to 10 (highest)"`
	IsActive bool   `gorm:"not null;default:true"`
}

type Priority struct {
	gorm.Model
	Name     string `gorm:"uniqueIndex;type:varchar(32);not null"`
	Level    int    `gorm:"not null"`
	IsActive bool   `gorm:"not null;default:true"`
}

type DefectStatus struct {
	gorm.Model
	Name           string `gorm:"uniqueIndex;type:varchar(64);not null"`
	IsClosedStatus bool   `gorm:"not null;default:false;comment:defect lifecycle terminates here"`
	IsActive       bool   `gorm:"not null;default:true"`
}

type DefectType struct {
	gorm.Model
	Name     string `gorm:"uniqueIndex;type:varchar(64);not null"`
	IsActive bool   `gorm:"not null;default:true"`
}
