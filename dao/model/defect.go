package model

import "gorm.io/gorm"

// Defect is the central entity: a logged bug inside a project, optionally
// tied to a module/sub-module and a release test case.
type Defect struct {
	gorm.Model
	Title             string `gorm:"type:varchar(500);not null"`
	Description       string `gorm:"type:text;not null"`
	StepsToReproduce  string `gorm:"type:text"`
	ExpectedResult    string `gorm:"type:text"`
	ActualResult      string `gorm:"type:text"`
	ProjectID         uint   `gorm:"not null;index"`
	Project           Project
	ModuleID          *uint `gorm:"index"`
	Module            *Module
	SubModuleID       *uint `gorm:"index"`
	SubModule         *SubModule
	ReleaseTestCaseID *uint `gorm:"index"`
	ReleaseTestCase   *ReleaseTestCase
	AssignedBy        *uint `gorm:"index"`
	AssignedTo        *uint `gorm:"index"`
	Assignee          *User `gorm:"foreignKey:AssignedTo"`
	DefectStatusID    uint  `gorm:"not null;index"`
	DefectStatus      DefectStatus
	TypeID            uint       `gorm:"not null;index"`
	DefectType        DefectType `gorm:"foreignKey:TypeID"`
	PriorityID        uint       `gorm:"not null;index"`
	Priority          Priority
	SeverityID        uint `gorm:"not null;index"`
	Severity          Severity
	Environment       string `gorm:"type:varchar(100)"`
	Browser           string `gorm:"type:varchar(100)"`
	OS                string `gorm:"type:varchar(100)"`
	ResolutionNotes   string `gorm:"type:text"`
	IsDuplicate       bool   `gorm:"not null;default:false;index"`
	DuplicateOf       *uint  `gorm:"index"`
	IsActive          bool   `gorm:"not null;default:true;index"`
}

// DefectHistory is an append-only audit trail; one row per mutation,
// written inside the mutation's transaction.
type DefectHistory struct {
	gorm.Model
	DefectID  uint `gorm:"not null;index"`
	Defect    Defect
	Action    HistoryAction `gorm:"type:varchar(32);not null"`
	FieldName string        `gorm:"type:varchar(64)"`
	OldValue  string        `gorm:"type:varchar(500)"`
	NewValue  string        `gorm:"type:varchar(500)"`
	ChangedBy uint          `gorm:"not null;index"`
	Author    User          `gorm:"foreignKey:ChangedBy"`
}

// Comment is a free-text remark on a defect. The dashboard's remark ratio
// only ever counts these rows.
type Comment struct {
	gorm.Model
	DefectID uint `gorm:"not null;index"`
	Defect   Defect
	UserID   uint `gorm:"not null;index"`
	User     User
	Body     string `gorm:"type:text;not null"`
	IsActive bool   `gorm:"not null;default:true"`
}
