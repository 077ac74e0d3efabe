package query

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/trackforge/defecttrack/dao/model"
)

// Migrate creates or updates the schema for every entity. Versioned
// migrations are intentionally not used; the schema is owned by the
// models themselves.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.Designation{},
		&model.User{},
		&model.Privilege{},
		&model.Role{},
		&model.GroupPrivilege{},
		&model.Project{},
		&model.Module{},
		&model.SubModule{},
		&model.UserPrivilege{},
		&model.ProjectUserPrivilege{},
		&model.ProjectAllocation{},
		&model.ProjectAllocationHistory{},
		&model.Severity{},
		&model.Priority{},
		&model.DefectStatus{},
		&model.DefectType{},
		&model.ReleaseType{},
		&model.Release{},
		&model.TestCase{},
		&model.ReleaseTestCase{},
		&model.Defect{},
		&model.DefectHistory{},
		&model.Comment{},
		&model.SMTPSetting{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
