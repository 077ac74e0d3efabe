package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/trackforge/defecttrack/dao/model"
	"github.com/trackforge/defecttrack/internal/authz"
	"github.com/trackforge/defecttrack/internal/middleware"
	"github.com/trackforge/defecttrack/internal/resputil"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewModuleMgr)
}

// ModuleMgr manages the functional breakdown of a project. All routes are
// project-scoped through the projectId query parameter.
type ModuleMgr struct {
	name     string
	db       *gorm.DB
	resolver *authz.Resolver
}

func NewModuleMgr(conf *RegisterConfig) Manager {
	return &ModuleMgr{
		name:     "modules",
		db:       conf.DB,
		resolver: conf.Resolver,
	}
}

func (mgr *ModuleMgr) GetName() string { return mgr.name }

func (mgr *ModuleMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *ModuleMgr) RegisterProtected(g *gin.RouterGroup) {
	g.GET("", middleware.RequireProjectAccess(mgr.resolver), mgr.List)
	g.POST("", middleware.RequirePrivilege(mgr.resolver, model.ModuleModules, model.ActionCreate, true), mgr.Create)

	write := g.Group("", middleware.RequirePrivilege(mgr.resolver, model.ModuleModules, model.ActionUpdate, true))
	write.PUT(":moduleId", mgr.Update)
	write.POST(":moduleId/submodules", mgr.CreateSub)
	write.PUT(":moduleId/submodules/:subModuleId", mgr.UpdateSub)

	remove := g.Group("", middleware.RequirePrivilege(mgr.resolver, model.ModuleModules, model.ActionDelete, true))
	remove.DELETE(":moduleId", mgr.Deactivate)
	remove.DELETE(":moduleId/submodules/:subModuleId", mgr.DeactivateSub)
}

func (mgr *ModuleMgr) RegisterAdmin(_ *gin.RouterGroup) {}

// projectModule loads the module and verifies it belongs to the project
// the request was authorized against.
func (mgr *ModuleMgr) projectModule(c *gin.Context) (*model.Module, bool) {
	projectID, err := strconv.ParseUint(c.Query("projectId"), 10, 32)
	if err != nil {
		resputil.BadRequestError(c, "Project ID is required")
		return nil, false
	}
	var module model.Module
	dbErr := mgr.db.WithContext(c).
		Where("project_id = ?", uint(projectID)).
		First(&module, c.Param("moduleId")).Error
	if dbErr != nil {
		resputil.NotFoundError(c, "Module not found")
		return nil, false
	}
	return &module, true
}

type (
	SubModuleResp struct {
		ID          uint   `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
		IsActive    bool   `json:"isActive"`
	}

	ModuleResp struct {
		ID          uint            `json:"id"`
		ProjectID   uint            `json:"projectId"`
		Name        string          `json:"name"`
		Description string          `json:"description"`
		IsActive    bool            `json:"isActive"`
		SubModules  []SubModuleResp `json:"subModules"`
	}
)

func toModuleResp(m model.Module) ModuleResp {
	return ModuleResp{
		ID:          m.ID,
		ProjectID:   m.ProjectID,
		Name:        m.Name,
		Description: m.Description,
		IsActive:    m.IsActive,
		SubModules: lo.Map(m.SubModules, func(s model.SubModule, _ int) SubModuleResp {
			return SubModuleResp{
				ID:          s.ID,
				Name:        s.Name,
				Description: s.Description,
				IsActive:    s.IsActive,
			}
		}),
	}
}

// List godoc
// @Summary List modules of a project
// @Description Modules with their sub-modules, inactive ones included
// @Tags Module
// @Produce json
// @Security Bearer
// @Param projectId query int true "project id"
// @Success 200 {object} resputil.Response[[]ModuleResp] "module tree"
// @Router /v1/modules [get]
func (mgr *ModuleMgr) List(c *gin.Context) {
	var modules []model.Module
	err := mgr.db.WithContext(c).
		Preload("SubModules").
		Where("project_id = ?", c.Query("projectId")).
		Order("id ASC").
		Find(&modules).Error
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, lo.Map(modules, func(m model.Module, _ int) ModuleResp { return toModuleResp(m) }))
}

type ModuleCreateReq struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// Create godoc
// @Summary Create a module
// @Tags Module
// @Accept json
// @Produce json
// @Security Bearer
// @Param projectId query int true "project id"
// @Param data body ModuleCreateReq true "module form"
// @Success 200 {object} resputil.Response[ModuleResp] "created module"
// @Router /v1/modules [post]
func (mgr *ModuleMgr) Create(c *gin.Context) {
	var req ModuleCreateReq
	if err := c.ShouldBind(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	projectID, err := strconv.ParseUint(c.Query("projectId"), 10, 32)
	if err != nil {
		resputil.BadRequestError(c, "Project ID is required")
		return
	}

	module := model.Module{
		ProjectID:   uint(projectID),
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
	}
	if err := mgr.db.WithContext(c).Create(&module).Error; err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, toModuleResp(module))
}

type ModuleUpdateReq struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"isActive"`
}

// Update godoc
// @Summary Update a module
// @Tags Module
// @Accept json
// @Produce json
// @Security Bearer
// @Param projectId query int true "project id"
// @Param data body ModuleUpdateReq true "fields to change"
// @Success 200 {object} resputil.Response[ModuleResp] "updated module"
// @Failure 404 {object} resputil.Response[any] "module not in this project"
// @Router /v1/modules/{moduleId} [put]
func (mgr *ModuleMgr) Update(c *gin.Context) {
	var req ModuleUpdateReq
	if err := c.ShouldBind(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	module, ok := mgr.projectModule(c)
	if !ok {
		return
	}

	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		resputil.BadRequestError(c, "No fields to update")
		return
	}
	if err := mgr.db.WithContext(c).Model(module).Updates(updates).Error; err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, toModuleResp(*module))
}

// Deactivate godoc
// @Summary Deactivate a module
// @Tags Module
// @Produce json
// @Security Bearer
// @Param projectId query int true "project id"
// @Success 200 {object} resputil.Response[any] "deactivated"
// @Failure 404 {object} resputil.Response[any] "module not in this project"
// @Router /v1/modules/{moduleId} [delete]
func (mgr *ModuleMgr) Deactivate(c *gin.Context) {
	module, ok := mgr.projectModule(c)
	if !ok {
		return
	}
	if err := mgr.db.WithContext(c).Model(module).Update("is_active", false).Error; err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, gin.H{"id": module.ID})
}

type SubModuleCreateReq struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// CreateSub godoc
// @Summary Create a sub-module
// @Tags Module
// @Accept json
// @Produce json
// @Security Bearer
// @Param projectId query int true "project id"
// @Param data body SubModuleCreateReq true "sub-module form"
// @Success 200 {object} resputil.Response[SubModuleResp] "created sub-module"
// @Router /v1/modules/{moduleId}/submodules [post]
func (mgr *ModuleMgr) CreateSub(c *gin.Context) {
	var req SubModuleCreateReq
	if err := c.ShouldBind(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	module, ok := mgr.projectModule(c)
	if !ok {
		return
	}

	sub := model.SubModule{
		ModuleID:    module.ID,
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
	}
	if err := mgr.db.WithContext(c).Create(&sub).Error; err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, SubModuleResp{
		ID:          sub.ID,
		Name:        sub.Name,
		Description: sub.Description,
		IsActive:    sub.IsActive,
	})
}

// UpdateSub godoc
// @Summary Update a sub-module
// @Tags Module
// @Accept json
// @Produce json
// @Security Bearer
// @Param projectId query int true "project id"
// @Param data body ModuleUpdateReq true "fields to change"
// @Success 200 {object} resputil.Response[SubModuleResp] "updated sub-module"
// @Failure 404 {object} resputil.Response[any] "unknown sub-module"
// @Router /v1/modules/{moduleId}/submodules/{subModuleId} [put]
func (mgr *ModuleMgr) UpdateSub(c *gin.Context) {
	var req ModuleUpdateReq
	if err := c.ShouldBind(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	module, ok := mgr.projectModule(c)
	if !ok {
		return
	}

	var sub model.SubModule
	err := mgr.db.WithContext(c).
		Where("module_id = ?", module.ID).
		First(&sub, c.Param("subModuleId")).Error
	if err != nil {
		resputil.NotFoundError(c, "Sub-module not found")
		return
	}

	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		resputil.BadRequestError(c, "No fields to update")
		return
	}
	if err := mgr.db.WithContext(c).Model(&sub).Updates(updates).Error; err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, SubModuleResp{
		ID:          sub.ID,
		Name:        sub.Name,
		Description: sub.Description,
		IsActive:    sub.IsActive,
	})
}

// DeactivateSub godoc
// @Summary Deactivate a sub-module
// @Tags Module
// @Produce json
// @Security Bearer
// @Param projectId query int true "project id"
// @Success 200 {object} resputil.Response[any] "deactivated"
// @Failure 404 {object} resputil.Response[any] "unknown sub-module"
// @Router /v1/modules/{moduleId}/submodules/{subModuleId} [delete]
func (mgr *ModuleMgr) DeactivateSub(c *gin.Context) {
	module, ok := mgr.projectModule(c)
	if !ok {
		return
	}
	var sub model.SubModule
	err := mgr.db.WithContext(c).
		Where("module_id = ?", module.ID).
		First(&sub, c.Param("subModuleId")).Error
	if err != nil {
		resputil.NotFoundError(c, "Sub-module not found")
		return
	}
	if err := mgr.db.WithContext(c).Model(&sub).Update("is_active", false).Error; err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, gin.H{"id": sub.ID})
}
