package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/trackforge/defecttrack/dao/model"
	"github.com/trackforge/defecttrack/internal/resputil"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewRoleMgr)
}

// RoleMgr manages the named privilege bundles users inherit through their
// project allocations.
type RoleMgr struct {
	name string
	db   *gorm.DB
}

func NewRoleMgr(conf *RegisterConfig) Manager {
	return &RoleMgr{
		name: "roles",
		db:   conf.DB,
	}
}

func (mgr *RoleMgr) GetName() string { return mgr.name }

func (mgr *RoleMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *RoleMgr) RegisterProtected(g *gin.RouterGroup) {
	g.GET("", mgr.List)
}

func (mgr *RoleMgr) RegisterAdmin(g *gin.RouterGroup) {
	g.POST("", mgr.Create)
	g.GET(":roleId", mgr.Get)
	g.POST(":roleId/privileges", mgr.AttachPrivilege)
	g.DELETE(":roleId/privileges/:privilegeId", mgr.DetachPrivilege)
}

type RoleResp struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    bool   `json:"isActive"`
}

// List godoc
// @Summary List roles
// @Tags Role
// @Produce json
// @Security Bearer
// @Success 200 {object} resputil.Response[[]RoleResp] "assignable roles"
// @Router /v1/roles [get]
func (mgr *RoleMgr) List(c *gin.Context) {
	var roles []model.Role
	err := mgr.db.WithContext(c).Where("is_active = ?", true).Order("id ASC").Find(&roles).Error
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, lo.Map(roles, func(r model.Role, _ int) RoleResp {
		return RoleResp{ID: r.ID, Name: r.Name, Description: r.Description, IsActive: r.IsActive}
	}))
}

type RoleCreateReq struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// Create godoc
// @Summary Create a role
// @Tags Role
// @Accept json
// @Produce json
// @Security Bearer
// @Param data body RoleCreateReq true "role form"
// @Success 200 {object} resputil.Response[RoleResp] "created role"
// @Failure 400 {object} resputil.Response[any] "duplicate name"
// @Router /v1/admin/roles [post]
func (mgr *RoleMgr) Create(c *gin.Context) {
	var req RoleCreateReq
	if err := c.ShouldBind(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	role := model.Role{Name: req.Name, Description: req.Description, IsActive: true}
	if err := mgr.db.WithContext(c).Create(&role).Error; err != nil {
		resputil.BadRequestError(c, "Create role failed: "+err.Error())
		return
	}
	resputil.Success(c, RoleResp{ID: role.ID, Name: role.Name, Description: role.Description, IsActive: role.IsActive})
}

type RoleDetailResp struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	IsActive    bool            `json:"isActive"`
	Privileges  []PrivilegeResp `json:"privileges"`
}

// Get godoc
// @Summary Get a role with its privileges
// @Tags Role
// @Produce json
// @Security Bearer
// @Success 200 {object} resputil.Response[RoleDetailResp] "role and active privilege links"
// @Failure 404 {object} resputil.Response[any] "unknown role"
// @Router /v1/admin/roles/{roleId} [get]
func (mgr *RoleMgr) Get(c *gin.Context) {
	var role model.Role
	if err := mgr.db.WithContext(c).First(&role, c.Param("roleId")).Error; err != nil {
		resputil.NotFoundError(c, "Role not found")
		return
	}

	var links []model.GroupPrivilege
	err := mgr.db.WithContext(c).
		Preload("Privilege").
		Where("role_id = ? AND is_active = ?", role.ID, true).
		Find(&links).Error
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}

	resputil.Success(c, RoleDetailResp{
		ID:          role.ID,
		Name:        role.Name,
		Description: role.Description,
		IsActive:    role.IsActive,
		Privileges: lo.Map(links, func(l model.GroupPrivilege, _ int) PrivilegeResp {
			return PrivilegeResp{
				ID:          l.Privilege.ID,
				Module:      l.Privilege.Module,
				Action:      l.Privilege.Action,
				Description: l.Privilege.Description,
			}
		}),
	})
}

type AttachPrivilegeReq struct {
	PrivilegeID uint `json:"privilegeId" binding:"required"`
}

// AttachPrivilege godoc
// @Summary Attach a privilege to a role
// @Description Reactivates the link when it already exists
// @Tags Role
// @Accept json
// @Produce json
// @Security Bearer
// @Param data body AttachPrivilegeReq true "privilege to attach"
// @Success 200 {object} resputil.Response[any] "attached"
// @Failure 400 {object} resputil.Response[any] "unknown privilege"
// @Router /v1/admin/roles/{roleId}/privileges [post]
func (mgr *RoleMgr) AttachPrivilege(c *gin.Context) {
	var req AttachPrivilegeReq
	if err := c.ShouldBind(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	var role model.Role
	if err := mgr.db.WithContext(c).First(&role, c.Param("roleId")).Error; err != nil {
		resputil.NotFoundError(c, "Role not found")
		return
	}
	var privilege model.Privilege
	if err := mgr.db.WithContext(c).First(&privilege, req.PrivilegeID).Error; err != nil {
		resputil.BadRequestError(c, "Privilege not found")
		return
	}

	var link model.GroupPrivilege
	err := mgr.db.WithContext(c).
		Where("role_id = ? AND privilege_id = ?", role.ID, privilege.ID).
		First(&link).Error
	switch {
	case err == nil:
		err = mgr.db.WithContext(c).Model(&link).Update("is_active", true).Error
	default:
		link = model.GroupPrivilege{RoleID: role.ID, PrivilegeID: privilege.ID, IsActive: true}
		err = mgr.db.WithContext(c).Create(&link).Error
	}
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, gin.H{"id": link.ID})
}

// DetachPrivilege godoc
// @Summary Detach a privilege from a role
// @Description Deactivates the link; users allocated with the role lose the capability immediately
// @Tags Role
// @Produce json
// @Security Bearer
// @Success 200 {object} resputil.Response[any] "detached"
// @Failure 404 {object} resputil.Response[any] "unknown link"
// @Router /v1/admin/roles/{roleId}/privileges/{privilegeId} [delete]
func (mgr *RoleMgr) DetachPrivilege(c *gin.Context) {
	var link model.GroupPrivilege
	err := mgr.db.WithContext(c).
		Where("role_id = ? AND privilege_id = ?", c.Param("roleId"), c.Param("privilegeId")).
		First(&link).Error
	if err != nil {
		resputil.NotFoundError(c, "Privilege link not found")
		return
	}
	if err := mgr.db.WithContext(c).Model(&link).Update("is_active", false).Error; err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, gin.H{"id": link.ID})
}
