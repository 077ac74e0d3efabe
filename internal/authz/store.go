package authz

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/trackforge/defecttrack/dao/model"
)

// GormStore implements Store with point lookups against Postgres. Every
// query filters on the is_active flags of both the grant row and the
// linked privilege.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) HasUserPrivilege(ctx context.Context, userID uint, module string, action model.Action, projectID *uint) (bool, error) {
	q := s.db.WithContext(ctx).Model(&model.UserPrivilege{}).
		Joins("JOIN privileges ON privileges.id = user_privileges.privilege_id").
		Where("user_privileges.user_id = ?", userID).
		Where("user_privileges.is_active = ?", true).
		Where("user_privileges.expires_at IS NULL OR user_privileges.expires_at > ?", time.Now()).
		Where("privileges.module = ? AND privileges.action = ? AND privileges.is_active = ?", module, action, true)
	if projectID != nil {
		// NULL scope is a project-independent grant and matches any project.
		q = q.Where("user_privileges.project_id IS NULL OR user_privileges.project_id = ?", *projectID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *GormStore) HasProjectPrivilege(ctx context.Context, userID, projectID uint, module string, action model.Action) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.ProjectUserPrivilege{}).
		Joins("JOIN privileges ON privileges.id = project_user_privileges.privilege_id").
		Where("project_user_privileges.user_id = ?", userID).
		Where("project_user_privileges.project_id = ?", projectID).
		Where("project_user_privileges.is_active = ?", true).
		Where("privileges.module = ? AND privileges.action = ? AND privileges.is_active = ?", module, action, true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *GormStore) ActiveAllocationRole(ctx context.Context, userID uint, projectID *uint) (uint, bool, error) {
	q := s.db.WithContext(ctx).Model(&model.ProjectAllocation{}).
		Where("user_id = ? AND is_active = ?", userID, true)
	if projectID != nil {
		q = q.Where("project_id = ?", *projectID)
	}
	var allocation model.ProjectAllocation
	// Newest active row wins when duplicates exist.
	err := q.Order("id DESC").First(&allocation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return allocation.RoleID, true, nil
}

func (s *GormStore) HasGroupPrivilege(ctx context.Context, roleID uint, module string, action model.Action) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.GroupPrivilege{}).
		Joins("JOIN privileges ON privileges.id = group_privileges.privilege_id").
		Where("group_privileges.role_id = ?", roleID).
		Where("group_privileges.is_active = ?", true).
		Where("privileges.module = ? AND privileges.action = ? AND privileges.is_active = ?", module, action, true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *GormStore) IsProjectOwner(ctx context.Context, userID, projectID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Project{}).
		Where("id = ? AND owner_id = ? AND is_active = ?", projectID, userID, true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *GormStore) HasActiveAllocation(ctx context.Context, userID, projectID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.ProjectAllocation{}).
		Where("user_id = ? AND project_id = ? AND is_active = ?", userID, projectID, true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
