package query

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/trackforge/defecttrack/dao/model"
	"github.com/trackforge/defecttrack/pkg/logutils"
)

// Seed inserts the reference data every deployment needs: privileges,
// roles with the Admin role holding every privilege, lookups and
// designations. Idempotent; existing rows are left untouched.
func Seed(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := seedPrivileges(tx); err != nil {
			return err
		}
		if err := seedRoles(tx); err != nil {
			return err
		}
		if err := seedLookups(tx); err != nil {
			return err
		}
		logutils.Log.Info("seed reference data done")
		return nil
	})
}

func seedPrivileges(tx *gorm.DB) error {
	modules := []string{
		model.ModuleUsers, model.ModuleProjects, model.ModuleModules,
		model.ModuleDefects, model.ModuleReleases, model.ModuleReports,
	}
	actions := []model.Action{
		model.ActionCreate, model.ActionRead, model.ActionUpdate,
		model.ActionDelete, model.ActionManage,
	}
	var privileges []model.Privilege
	for _, m := range modules {
		for _, a := range actions {
			privileges = append(privileges, model.Privilege{
				Module:   m,
				Action:   a,
				IsActive: true,
			})
		}
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&privileges).Error
}

func seedRoles(tx *gorm.DB) error {
	roles := []model.Role{
		{Name: "Admin", Description: "Full access to everything", IsActive: true},
		{Name: "Project Manager", Description: "Manages projects and allocations", IsActive: true},
		{Name: "Test Manager", Description: "Manages test cases and releases", IsActive: true},
		{Name: "Tester", Description: "Logs and verifies defects", IsActive: true},
		{Name: "Developer", Description: "Fixes assigned defects", IsActive: true},
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&roles).Error; err != nil {
		return err
	}

	// The Admin role carries every active privilege.
	var admin model.Role
	if err := tx.Where("name = ?", "Admin").First(&admin).Error; err != nil {
		return err
	}
	var privileges []model.Privilege
	if err := tx.Where("is_active = ?", true).Find(&privileges).Error; err != nil {
		return err
	}
	for i := range privileges {
		gp := model.GroupPrivilege{RoleID: admin.ID, PrivilegeID: privileges[i].ID, IsActive: true}
		if err := tx.Where("role_id = ? AND privilege_id = ?", admin.ID, privileges[i].ID).
			FirstOrCreate(&gp).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedLookups(tx *gorm.DB) error {
	severities := []model.Severity{
		{Name: "Critical", Level: 10, IsActive: true},
		{Name: "High", Level: 8, IsActive: true},
		{Name: "Medium", Level: 5, IsActive: true},
		{Name: "Low", Level: 2, IsActive: true},
	}
	priorities := []model.Priority{
		{Name: "Critical", Level: 1, IsActive: true},
		{Name: "High", Level: 2, IsActive: true},
		{Name: "Medium", Level: 3, IsActive: true},
		{Name: "Low", Level: 4, IsActive: true},
	}
	statuses := []model.DefectStatus{
		{Name: "New", IsActive: true},
		{Name: "Assigned", IsActive: true},
		{Name: "In Progress", IsActive: true},
		{Name: "Fixed", IsActive: true},
		{Name: "Reopened", IsActive: true},
		{Name: "Closed", IsClosedStatus: true, IsActive: true},
		{Name: "Rejected", IsClosedStatus: true, IsActive: true},
	}
	types := []model.DefectType{
		{Name: "Functional", IsActive: true},
		{Name: "UI/UX", IsActive: true},
		{Name: "Performance", IsActive: true},
		{Name: "Security", IsActive: true},
		{Name: "Compatibility", IsActive: true},
	}
	releaseTypes := []model.ReleaseType{
		{Name: "Major Release", IsActive: true},
		{Name: "Minor Release", IsActive: true},
		{Name: "Hotfix", IsActive: true},
		{Name: "Beta Release", IsActive: true},
	}
	designations := []model.Designation{
		{Name: "Administrator", IsActive: true},
		{Name: "Project Manager", IsActive: true},
		{Name: "Test Lead", IsActive: true},
		{Name: "Test Engineer", IsActive: true},
		{Name: "Developer", IsActive: true},
	}

	for _, batch := range []any{&severities, &priorities, &statuses, &types, &releaseTypes, &designations} {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(batch).Error; err != nil {
			return err
		}
	}
	return nil
}
