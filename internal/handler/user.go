package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/trackforge/defecttrack/dao/model"
	"github.com/trackforge/defecttrack/internal/authz"
	"github.com/trackforge/defecttrack/internal/middleware"
	"github.com/trackforge/defecttrack/internal/payload"
	"github.com/trackforge/defecttrack/internal/resputil"
	"github.com/trackforge/defecttrack/internal/util"
	"github.com/trackforge/defecttrack/pkg/notify"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewUserMgr)
}

type UserMgr struct {
	name     string
	db       *gorm.DB
	resolver *authz.Resolver
	notifier notify.Notifier
}

func NewUserMgr(conf *RegisterConfig) Manager {
	return &UserMgr{
		name:     "users",
		db:       conf.DB,
		resolver: conf.Resolver,
		notifier: conf.Notifier,
	}
}

func (mgr *UserMgr) GetName() string { return mgr.name }

func (mgr *UserMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *UserMgr) RegisterProtected(g *gin.RouterGroup) {
	g.GET("", middleware.RequirePrivilege(mgr.resolver, model.ModuleUsers, model.ActionRead, false), mgr.List)
	g.GET("/privileges", mgr.MyPrivileges)
}

func (mgr *UserMgr) RegisterAdmin(g *gin.RouterGroup) {
	g.GET("", mgr.List)
	g.POST("", mgr.Create)
	g.GET(":userId", mgr.Get)
	g.PUT(":userId", mgr.Update)
	g.DELETE(":userId", mgr.Deactivate)
	g.PUT(":userId/password", mgr.ResetPassword)
	g.GET(":userId/privileges", mgr.ListGrants)
	g.POST(":userId/privileges", mgr.Grant)
	g.DELETE(":userId/privileges/:grantId", mgr.Revoke)
	g.GET(":userId/effective-privileges", mgr.InspectPrivileges)
	g.POST(":userId/project-privileges", mgr.GrantProjectPrivilege)
	g.DELETE(":userId/project-privileges/:grantId", mgr.RevokeProjectPrivilege)
}

type (
	UserListReq struct {
		PageIndex *int    `form:"pageIndex" binding:"required"`
		PageSize  *int    `form:"pageSize" binding:"required"`
		NameLike  *string `form:"nameLike"`
		Active    *bool   `form:"active"`
	}

	UserResp struct {
		ID            uint               `json:"id"`
		Username      string             `json:"username"`
		FirstName     string             `json:"firstName"`
		LastName      string             `json:"lastName"`
		Email         string             `json:"email"`
		Role          model.PlatformRole `json:"role"`
		DesignationID *uint              `json:"designationId"`
		IsActive      bool               `json:"isActive"`
		LastLogin     *time.Time         `json:"lastLogin"`
	}
)

func toUserResp(u model.User) UserResp {
	return UserResp{
		ID:            u.ID,
		Username:      u.Username,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Email:         u.Email,
		Role:          u.Role,
		DesignationID: u.DesignationID,
		IsActive:      u.IsActive,
		LastLogin:     u.LastLogin,
	}
}

// List godoc
// @Summary List users
// @Description Paged user listing with optional name filter
// @Tags User
// @Produce json
// @Security Bearer
// @Param page query UserListReq true "pagination"
// @Success 200 {object} resputil.Response[payload.ListResp[UserResp]] "user page"
// @Failure 400 {object} resputil.Response[any] "validation error"
// @Router /v1/users [get]
func (mgr *UserMgr) List(c *gin.Context) {
	var req UserListReq
	if err := c.ShouldBindQuery(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	q := mgr.db.WithContext(c).Model(&model.User{})
	if req.NameLike != nil {
		pattern := "%" + *req.NameLike + "%"
		q = q.Where("first_name ILIKE ? OR last_name ILIKE ? OR username ILIKE ?", pattern, pattern, pattern)
	}
	if req.Active != nil {
		q = q.Where("is_active = ?", *req.Active)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}

	var users []model.User
	err := q.Order("id ASC").
		Offset(*req.PageIndex * *req.PageSize).
		Limit(*req.PageSize).
		Find(&users).Error
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}

	resputil.Success(c, payload.ListResp[UserResp]{
		Rows:  lo.Map(users, func(u model.User, _ int) UserResp { return toUserResp(u) }),
		Count: count,
	})
}

// Get godoc
// @Summary Get one user
// @Tags User
// @Produce json
// @Security Bearer
// @Success 200 {object} resputil.Response[UserResp] "user detail"
// @Failure 404 {object} resputil.Response[any] "unknown user"
// @Router /v1/admin/users/{userId} [get]
func (mgr *UserMgr) Get(c *gin.Context) {
	var user model.User
	err := mgr.db.WithContext(c).First(&user, c.Param("userId")).Error
	if err != nil {
		resputil.NotFoundError(c, "User not found")
		return
	}
	resputil.Success(c, toUserResp(user))
}

type UserUpdateReq struct {
	FirstName     *string             `json:"firstName"`
	LastName      *string             `json:"lastName"`
	Role          *model.PlatformRole `json:"role"`
	DesignationID *uint               `json:"designationId"`
	Phone         *string             `json:"phone"`
	IsActive      *bool               `json:"isActive"`
}

// Update godoc
// @Summary Update a user
// @Description Partial update of profile fields, platform role and active flag
// @Tags User
// @Accept json
// @Produce json
// @Security Bearer
// @Param data body UserUpdateReq true "fields to change"
// @Success 200 {object} resputil.Response[UserResp] "updated user"
// @Failure 404 {object} resputil.Response[any] "unknown user"
// @Router /v1/admin/users/{userId} [put]
func (mgr *UserMgr) Update(c *gin.Context) {
	var req UserUpdateReq
	if err := c.ShouldBind(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	var user model.User
	if err := mgr.db.WithContext(c).First(&user, c.Param("userId")).Error; err != nil {
		resputil.NotFoundError(c, "User not found")
		return
	}

	updates := map[string]any{}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if req.Role != nil {
		updates["role"] = *req.Role
	}
	if req.DesignationID != nil {
		updates["designation_id"] = *req.DesignationID
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		resputil.BadRequestError(c, "No fields to update")
		return
	}

	if err := mgr.db.WithContext(c).Model(&user).Updates(updates).Error; err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, toUserResp(user))
}

// Deactivate godoc
// @Summary Deactivate a user
// @Description Clears the active flag; the row is kept for history and audit joins
// @Tags User
// @Produce json
// @Security Bearer
// @Success 200 {object} resputil.Response[any] "deactivated"
// @Failure 404 {object} resputil.Response[any] "unknown user"
// @Router /v1/admin/users/{userId} [delete]
func (mgr *UserMgr) Deactivate(c *gin.Context) {
	var user model.User
	if err := mgr.db.WithContext(c).First(&user, c.Param("userId")).Error; err != nil {
		resputil.NotFoundError(c, "User not found")
		return
	}
	if err := mgr.db.WithContext(c).Model(&user).Update("is_active", false).Error; err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, gin.H{"id": user.ID})
}

type UserCreateReq struct {
	FirstName     string              `json:"firstName" binding:"required"`
	LastName      string              `json:"lastName"`
	Email         string              `json:"email" binding:"required,email"`
	Password      string              `json:"password" binding:"required,min=8"`
	Role          *model.PlatformRole `json:"role"`
	DesignationID *uint               `json:"designationId"`
	Phone         *string             `json:"phone"`
}

// Create godoc
// @Summary Create a user
// @Description Same flow as self-registration, with an optional platform role
// @Tags User
// @Accept json
// @Produce json
// @Security Bearer
// @Param data body UserCreateReq true "user form"
// @Success 200 {object} resputil.Response[UserResp] "created user"
// @Failure 400 {object} resputil.Response[any] "validation error or duplicate email"
// @Router /v1/admin/users [post]
func (mgr *UserMgr) Create(c *gin.Context) {
	var req UserCreateReq
	if err := c.ShouldBind(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	var existing model.User
	err := mgr.db.WithContext(c).Where("email = ?", req.Email).First(&existing).Error
	if err == nil {
		resputil.BadRequestError(c, "Email already registered")
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		resputil.Error(c, "Password hashing failed", resputil.NotSpecified)
		return
	}

	role := model.RoleUser
	if req.Role != nil {
		role = *req.Role
	}
	user := model.User{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		Password:      string(hash),
		Role:          role,
		DesignationID: req.DesignationID,
		Phone:         req.Phone,
		IsActive:      true,
	}
	err = mgr.db.WithContext(c).Transaction(func(tx *gorm.DB) error {
		username, inErr := nextUsername(tx)
		if inErr != nil {
			return inErr
		}
		user.Username = username
		return tx.Create(&user).Error
	})
	if err != nil {
		resputil.Error(c, "Create user failed", resputil.NotSpecified)
		return
	}

	mgr.notifier.Welcome(c, user.Email, user.Username, req.Password, user.FirstName)

	resputil.Success(c, toUserResp(user))
}

type ResetPasswordReq struct {
	Password string `json:"password" binding:"required,min=8"`
}

// ResetPassword godoc
// @Summary Reset a user's password
// @Tags User
// @Accept json
// @Produce json
// @Security Bearer
// @Param data body ResetPasswordReq true "new password"
// @Success 200 {object} resputil.Response[any] "password replaced"
// @Failure 404 {object} resputil.Response[any] "unknown user"
// @Router /v1/admin/users/{userId}/password [put]
func (mgr *UserMgr) ResetPassword(c *gin.Context) {
	var req ResetPasswordReq
	if err := c.ShouldBind(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	var user model.User
	if err := mgr.db.WithContext(c).First(&user, c.Param("userId")).Error; err != nil {
		resputil.NotFoundError(c, "User not found")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		resputil.Error(c, "Password hashing failed", resputil.NotSpecified)
		return
	}
	if err := mgr.db.WithContext(c).Model(&user).Update("password", string(hash)).Error; err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, gin.H{"id": user.ID})
}

type (
	GrantReq struct {
		PrivilegeID uint       `json:"privilegeId" binding:"required"`
		ProjectID   *uint      `json:"projectId"` // omit for a project-independent grant
		ExpiresAt   *time.Time `json:"expiresAt"`
	}

	GrantResp struct {
		ID          uint         `json:"id"`
		UserID      uint         `json:"userId"`
		PrivilegeID uint         `json:"privilegeId"`
		Module      string       `json:"module"`
		Action      model.Action `json:"action"`
		ProjectID   *uint        `json:"projectId"`
		ExpiresAt   *time.Time   `json:"expiresAt"`
		IsActive    bool         `json:"isActive"`
	}
)

// Grant godoc
// @Summary Grant a privilege to a user
// @Description Creates a direct grant; a second active grant for the same capability and scope is rejected
// @Tags User
// @Accept json
// @Produce json
// @Security Bearer
// @Param data body GrantReq true "privilege and optional project scope"
// @Success 200 {object} resputil.Response[GrantResp] "created grant"
// @Failure 400 {object} resputil.Response[any] "duplicate active grant or unknown privilege"
// @Router /v1/admin/users/{userId}/privileges [post]
func (mgr *UserMgr) Grant(c *gin.Context) {
	token := util.GetToken(c)

	var req GrantReq
	if err := c.ShouldBind(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	var user model.User
	if err := mgr.db.WithContext(c).First(&user, c.Param("userId")).Error; err != nil {
		resputil.NotFoundError(c, "User not found")
		return
	}

	var privilege model.Privilege
	if err := mgr.db.WithContext(c).First(&privilege, req.PrivilegeID).Error; err != nil {
		resputil.BadRequestError(c, "Privilege not found")
		return
	}

	grant := model.UserPrivilege{
		UserID:      user.ID,
		PrivilegeID: privilege.ID,
		ProjectID:   req.ProjectID,
		GrantedBy:   token.UserID,
		ExpiresAt:   req.ExpiresAt,
		IsActive:    true,
	}
	err := mgr.db.WithContext(c).Transaction(func(tx *gorm.DB) error {
		dup := tx.Model(&model.UserPrivilege{}).
			Where("user_id = ? AND privilege_id = ? AND is_active = ?", user.ID, privilege.ID, true)
		if req.ProjectID == nil {
			dup = dup.Where("project_id IS NULL")
		} else {
			dup = dup.Where("project_id = ?", *req.ProjectID)
		}
		var count int64
		if inErr := dup.Count(&count).Error; inErr != nil {
			return inErr
		}
		if count > 0 {
			return errDuplicateGrant
		}
		return tx.Create(&grant).Error
	})
	if errors.Is(err, errDuplicateGrant) {
		resputil.BadRequestError(c, "An active grant for this privilege and scope already exists")
		return
	}
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}

	resputil.Success(c, GrantResp{
		ID:          grant.ID,
		UserID:      grant.UserID,
		PrivilegeID: grant.PrivilegeID,
		Module:      privilege.Module,
		Action:      privilege.Action,
		ProjectID:   grant.ProjectID,
		ExpiresAt:   grant.ExpiresAt,
		IsActive:    grant.IsActive,
	})
}

var errDuplicateGrant = errors.New("duplicate active grant")

// Revoke godoc
// @Summary Revoke a direct grant
// @Description Deactivates the grant; the row remains for audit
// @Tags User
// @Produce json
// @Security Bearer
// @Success 200 {object} resputil.Response[any] "revoked"
// @Failure 404 {object} resputil.Response[any] "unknown grant"
// @Router /v1/admin/users/{userId}/privileges/{grantId} [delete]
func (mgr *UserMgr) Revoke(c *gin.Context) {
	var grant model.UserPrivilege
	err := mgr.db.WithContext(c).
		Where("user_id = ?", c.Param("userId")).
		First(&grant, c.Param("grantId")).Error
	if err != nil {
		resputil.NotFoundError(c, "Grant not found")
		return
	}
	if err := mgr.db.WithContext(c).Model(&grant).Update("is_active", false).Error; err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, gin.H{"id": grant.ID})
}

type (
	ProjectGrantReq struct {
		PrivilegeID uint `json:"privilegeId" binding:"required"`
		ProjectID   uint `json:"projectId" binding:"required"`
	}

	ProjectGrantResp struct {
		ID          uint         `json:"id"`
		UserID      uint         `json:"userId"`
		PrivilegeID uint         `json:"privilegeId"`
		Module      string       `json:"module"`
		Action      model.Action `json:"action"`
		ProjectID   uint         `json:"projectId"`
		IsActive    bool         `json:"isActive"`
	}
)

var errDuplicateProjectGrant = errors.New("duplicate active project grant")

// GrantProjectPrivilege godoc
// @Summary Grant a project-scoped privilege to a user
// @Description Unlike a direct grant the project scope is mandatory and never expires
// @Tags User
// @Accept json
// @Produce json
// @Security Bearer
// @Param data body ProjectGrantReq true "privilege and project"
// @Success 200 {object} resputil.Response[ProjectGrantResp] "created grant"
// @Failure 400 {object} resputil.Response[any] "duplicate active grant, unknown privilege or project"
// @Router /v1/admin/users/{userId}/project-privileges [post]
func (mgr *UserMgr) GrantProjectPrivilege(c *gin.Context) {
	token := util.GetToken(c)

	var req ProjectGrantReq
	if err := c.ShouldBind(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	var user model.User
	if err := mgr.db.WithContext(c).First(&user, c.Param("userId")).Error; err != nil {
		resputil.NotFoundError(c, "User not found")
		return
	}
	var privilege model.Privilege
	if err := mgr.db.WithContext(c).First(&privilege, req.PrivilegeID).Error; err != nil {
		resputil.BadRequestError(c, "Privilege not found")
		return
	}
	var project model.Project
	if err := mgr.db.WithContext(c).First(&project, req.ProjectID).Error; err != nil {
		resputil.BadRequestError(c, "Project not found")
		return
	}

	grant := model.ProjectUserPrivilege{
		UserID:      user.ID,
		ProjectID:   project.ID,
		PrivilegeID: privilege.ID,
		GrantedBy:   token.UserID,
		IsActive:    true,
	}
	err := mgr.db.WithContext(c).Transaction(func(tx *gorm.DB) error {
		var count int64
		inErr := tx.Model(&model.ProjectUserPrivilege{}).
			Where("user_id = ? AND privilege_id = ? AND project_id = ? AND is_active = ?",
				user.ID, privilege.ID, project.ID, true).
			Count(&count).Error
		if inErr != nil {
			return inErr
		}
		if count > 0 {
			return errDuplicateProjectGrant
		}
		return tx.Create(&grant).Error
	})
	if errors.Is(err, errDuplicateProjectGrant) {
		resputil.BadRequestError(c, "An active grant for this privilege and project already exists")
		return
	}
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}

	resputil.Success(c, ProjectGrantResp{
		ID:          grant.ID,
		UserID:      grant.UserID,
		PrivilegeID: grant.PrivilegeID,
		Module:      privilege.Module,
		Action:      privilege.Action,
		ProjectID:   grant.ProjectID,
		IsActive:    grant.IsActive,
	})
}

// RevokeProjectPrivilege godoc
// @Summary Revoke a project-scoped grant
// @Tags User
// @Produce json
// @Security Bearer
// @Success 200 {object} resputil.Response[any] "revoked"
// @Failure 404 {object} resputil.Response[any] "unknown grant"
// @Router /v1/admin/users/{userId}/project-privileges/{grantId} [delete]
func (mgr *UserMgr) RevokeProjectPrivilege(c *gin.Context) {
	var grant model.ProjectUserPrivilege
	err := mgr.db.WithContext(c).
		Where("user_id = ?", c.Param("userId")).
		First(&grant, c.Param("grantId")).Error
	if err != nil {
		resputil.NotFoundError(c, "Grant not found")
		return
	}
	if err := mgr.db.WithContext(c).Model(&grant).Update("is_active", false).Error; err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, gin.H{"id": grant.ID})
}

// ListGrants godoc
// @Summary List a user's direct grants
// @Tags User
// @Produce json
// @Security Bearer
// @Success 200 {object} resputil.Response[[]GrantResp] "all grants, active first"
// @Router /v1/admin/users/{userId}/privileges [get]
func (mgr *UserMgr) ListGrants(c *gin.Context) {
	var grants []model.UserPrivilege
	err := mgr.db.WithContext(c).
		Preload("Privilege").
		Where("user_id = ?", c.Param("userId")).
		Order("is_active DESC, id DESC").
		Find(&grants).Error
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}

	resp := lo.Map(grants, func(g model.UserPrivilege, _ int) GrantResp {
		return GrantResp{
			ID:          g.ID,
			UserID:      g.UserID,
			PrivilegeID: g.PrivilegeID,
			Module:      g.Privilege.Module,
			Action:      g.Privilege.Action,
			ProjectID:   g.ProjectID,
			ExpiresAt:   g.ExpiresAt,
			IsActive:    g.IsActive,
		}
	})
	resputil.Success(c, resp)
}

type EffectivePrivilege struct {
	Module    string       `json:"module"`
	Action    model.Action `json:"action"`
	ProjectID *uint        `json:"projectId"` // nil means any project
	Source    string       `json:"source"`    // user-grant, project-grant or role-grant
}

// effectivePrivileges unions direct grants, project-scoped grants and the
// privileges inherited through active allocations for one user.
func (mgr *UserMgr) effectivePrivileges(c *gin.Context, userID uint) ([]EffectivePrivilege, error) {
	now := time.Now()

	var out []EffectivePrivilege

	var direct []model.UserPrivilege
	err := mgr.db.WithContext(c).
		Preload("Privilege").
		Where("user_id = ? AND is_active = ?", userID, true).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Find(&direct).Error
	if err != nil {
		return nil, err
	}
	for i := range direct {
		out = append(out, EffectivePrivilege{
			Module:    direct[i].Privilege.Module,
			Action:    direct[i].Privilege.Action,
			ProjectID: direct[i].ProjectID,
			Source:    "user-grant",
		})
	}

	var scoped []model.ProjectUserPrivilege
	err = mgr.db.WithContext(c).
		Preload("Privilege").
		Where("user_id = ? AND is_active = ?", userID, true).
		Find(&scoped).Error
	if err != nil {
		return nil, err
	}
	for i := range scoped {
		projectID := scoped[i].ProjectID
		out = append(out, EffectivePrivilege{
			Module:    scoped[i].Privilege.Module,
			Action:    scoped[i].Privilege.Action,
			ProjectID: &projectID,
			Source:    "project-grant",
		})
	}

	var allocations []model.ProjectAllocation
	err = mgr.db.WithContext(c).
		Where("user_id = ? AND is_active = ?", userID, true).
		Find(&allocations).Error
	if err != nil {
		return nil, err
	}
	for i := range allocations {
		var links []model.GroupPrivilege
		err = mgr.db.WithContext(c).
			Preload("Privilege").
			Where("role_id = ? AND is_active = ?", allocations[i].RoleID, true).
			Find(&links).Error
		if err != nil {
			return nil, err
		}
		projectID := allocations[i].ProjectID
		for j := range links {
			out = append(out, EffectivePrivilege{
				Module:    links[j].Privilege.Module,
				Action:    links[j].Privilege.Action,
				ProjectID: &projectID,
				Source:    "role-grant",
			})
		}
	}

	return out, nil
}

// MyPrivileges godoc
// @Summary Effective privileges of the current user
// @Description Union of direct grants, project-scoped grants and privileges inherited through active allocations
// @Tags User
// @Produce json
// @Security Bearer
// @Success 200 {object} resputil.Response[[]EffectivePrivilege] "capability list"
// @Router /v1/users/privileges [get]
func (mgr *UserMgr) MyPrivileges(c *gin.Context) {
	token := util.GetToken(c)
	out, err := mgr.effectivePrivileges(c, token.UserID)
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, out)
}

// InspectPrivileges godoc
// @Summary Effective privileges of any user
// @Tags User
// @Produce json
// @Security Bearer
// @Success 200 {object} resputil.Response[[]EffectivePrivilege] "capability list"
// @Failure 404 {object} resputil.Response[any] "unknown user"
// @Router /v1/admin/users/{userId}/effective-privileges [get]
func (mgr *UserMgr) InspectPrivileges(c *gin.Context) {
	var user model.User
	if err := mgr.db.WithContext(c).First(&user, c.Param("userId")).Error; err != nil {
		resputil.NotFoundError(c, "User not found")
		return
	}
	out, err := mgr.effectivePrivileges(c, user.ID)
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, out)
}
