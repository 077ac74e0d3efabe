package handler

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/trackforge/defecttrack/dao/model"
	"github.com/trackforge/defecttrack/internal/authz"
	"github.com/trackforge/defecttrack/internal/middleware"
	"github.com/trackforge/defecttrack/internal/resputil"
	"github.com/trackforge/defecttrack/internal/util"
	"github.com/trackforge/defecttrack/pkg/notify"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewProjectMgr)
}

type ProjectMgr struct {
	name     string
	db       *gorm.DB
	resolver *authz.Resolver
	notifier notify.Notifier
}

func NewProjectMgr(conf *RegisterConfig) Manager {
	return &ProjectMgr{
		name:     "projects",
		db:       conf.DB,
		resolver: conf.Resolver,
		notifier: conf.Notifier,
	}
}

func (mgr *ProjectMgr) GetName() string { return mgr.name }

func (mgr *ProjectMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *ProjectMgr) RegisterProtected(g *gin.RouterGroup) {
	g.GET("", mgr.ListForUser)
	g.POST("", middleware.RequirePrivilege(mgr.resolver, model.ModuleProjects, model.ActionCreate, false), mgr.Create)

	member := g.Group(":projectId", middleware.RequireProjectAccess(mgr.resolver))
	member.GET("", mgr.Get)
	member.GET("/allocations", mgr.ListAllocations)
	member.GET("/allocations/history", mgr.AllocationHistory)

	g.PUT(":projectId", middleware.RequirePrivilege(mgr.resolver, model.ModuleProjects, model.ActionUpdate, true), mgr.Update)
	g.DELETE(":projectId", middleware.RequirePrivilege(mgr.resolver, model.ModuleProjects, model.ActionDelete, true), mgr.Deactivate)

	manage := g.Group(":projectId/allocations",
		middleware.RequirePrivilege(mgr.resolver, model.ModuleProjects, model.ActionManage, true))
	manage.POST("", mgr.Allocate)
	manage.PUT(":allocationId", mgr.UpdateAllocation)
	manage.DELETE(":allocationId", mgr.EndAllocation)
}

func (mgr *ProjectMgr) RegisterAdmin(g *gin.RouterGroup) {
	g.GET("", mgr.ListAll)
}

type (
	ProjectCreateReq struct {
		Name        string     `json:"name" binding:"required"`
		Description string     `json:"description"`
		StartDate   *time.Time `json:"startDate"`
		EndDate     *time.Time `json:"endDate"`
	}

	ProjectResp struct {
		ID          uint       `json:"id"`
		Name        string     `json:"name"`
		Description string     `json:"description"`
		OwnerID     uint       `json:"ownerId"`
		StartDate   *time.Time `json:"startDate"`
		EndDate     *time.Time `json:"endDate"`
		IsActive    bool       `json:"isActive"`
	}
)

func toProjectResp(p model.Project) ProjectResp {
	return ProjectResp{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		OwnerID:     p.OwnerID,
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
		IsActive:    p.IsActive,
	}
}

// ListForUser godoc
// @Summary List the caller's projects
// @Description Projects the user owns plus those with an active allocation
// @Tags Project
// @Produce json
// @Security Bearer
// @Success 200 {object} resputil.Response[[]ProjectResp] "visible projects"
// @Router /v1/projects [get]
func (mgr *ProjectMgr) ListForUser(c *gin.Context) {
	token := util.GetToken(c)

	var projects []model.Project
	err := mgr.db.WithContext(c).
		Distinct("projects.*").
		Joins("LEFT JOIN project_allocations ON project_allocations.project_id = projects.id "+
			"AND project_allocations.user_id = ? AND project_allocations.is_active = ? "+
			"AND project_allocations.deleted_at IS NULL", token.UserID, true).
		Where("projects.is_active = ?", true).
		Where("projects.owner_id = ? OR project_allocations.id IS NOT NULL", token.UserID).
		Order("projects.id DESC").
		Find(&projects).Error
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}

	resputil.Success(c, lo.Map(projects, func(p model.Project, _ int) ProjectResp { return toProjectResp(p) }))
}

// ListAll godoc
// @Summary List every project
// @Tags Project
// @Produce json
// @Security Bearer
// @Success 200 {object} resputil.Response[[]ProjectResp] "all projects including inactive"
// @Router /v1/admin/projects [get]
func (mgr *ProjectMgr) ListAll(c *gin.Context) {
	var projects []model.Project
	if err := mgr.db.WithContext(c).Order("id DESC").Find(&projects).Error; err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, lo.Map(projects, func(p model.Project, _ int) ProjectResp { return toProjectResp(p) }))
}

// Create godoc
// @Summary Create a project
// @Description The caller becomes the project owner
// @Tags Project
// @Accept json
// @Produce json
// @Security Bearer
// @Param data body ProjectCreateReq true "project form"
// @Success 200 {object} resputil.Response[ProjectResp] "created project"
// @Failure 400 {object} resputil.Response[any] "validation error or duplicate name"
// @Router /v1/projects [post]
func (mgr *ProjectMgr) Create(c *gin.Context) {
	token := util.GetToken(c)

	var req ProjectCreateReq
	if err := c.ShouldBind(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	project := model.Project{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     token.UserID,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		IsActive:    true,
	}
	if err := mgr.db.WithContext(c).Create(&project).Error; err != nil {
		resputil.BadRequestError(c, "Create project failed: "+err.Error())
		return
	}
	resputil.Success(c, toProjectResp(project))
}

// Get godoc
// @Summary Get one project
// @Tags Project
// @Produce json
// @Security Bearer
// @Success 200 {object} resputil.Response[ProjectResp] "project detail"
// @Failure 404 {object} resputil.Response[any] "unknown project"
// @Router /v1/projects/{projectId} [get]
func (mgr *ProjectMgr) Get(c *gin.Context) {
	var project model.Project
	if err := mgr.db.WithContext(c).First(&project, c.Param("projectId")).Error; err != nil {
		resputil.NotFoundError(c, "Project not found")
		return
	}
	resputil.Success(c, toProjectResp(project))
}

type ProjectUpdateReq struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
}

// Update godoc
// @Summary Update a project
// @Tags Project
// @Accept json
// @Produce json
// @Security Bearer
// @Param data body ProjectUpdateReq true "fields to change"
// @Success 200 {object} resputil.Response[ProjectResp] "updated project"
// @Failure 404 {object} resputil.Response[any] "unknown project"
// @Router /v1/projects/{projectId} [put]
func (mgr *ProjectMgr) Update(c *gin.Context) {
	var req ProjectUpdateReq
	if err := c.ShouldBind(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	var project model.Project
	if err := mgr.db.WithContext(c).First(&project, c.Param("projectId")).Error; err != nil {
		resputil.NotFoundError(c, "Project not found")
		return
	}

	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.StartDate != nil {
		updates["start_date"] = *req.StartDate
	}
	if req.EndDate != nil {
		updates["end_date"] = *req.EndDate
	}
	if len(updates) == 0 {
		resputil.BadRequestError(c, "No fields to update")
		return
	}

	if err := mgr.db.WithContext(c).Model(&project).Updates(updates).Error; err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, toProjectResp(project))
}

// Deactivate godoc
// @Summary Deactivate a project
// @Description Clears the active flag; defects and history remain queryable
// @Tags Project
// @Produce json
// @Security Bearer
// @Success 200 {object} resputil.Response[any] "deactivated"
// @Failure 404 {object} resputil.Response[any] "unknown project"
// @Router /v1/projects/{projectId} [delete]
func (mgr *ProjectMgr) Deactivate(c *gin.Context) {
	var project model.Project
	if err := mgr.db.WithContext(c).First(&project, c.Param("projectId")).Error; err != nil {
		resputil.NotFoundError(c, "Project not found")
		return
	}
	if err := mgr.db.WithContext(c).Model(&project).Update("is_active", false).Error; err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, gin.H{"id": project.ID})
}

type (
	AllocateReq struct {
		UserID               uint       `json:"userId" binding:"required"`
		RoleID               uint       `json:"roleId" binding:"required"`
		AllocationPercentage *int       `json:"allocationPercentage"`
		Notes                string     `json:"notes"`
		StartDate            *time.Time `json:"startDate"`
		EndDate              *time.Time `json:"endDate"`
	}

	AllocationResp struct {
		ID                   uint       `json:"id"`
		UserID               uint       `json:"userId"`
		ProjectID            uint       `json:"projectId"`
		RoleID               uint       `json:"roleId"`
		AllocationPercentage int        `json:"allocationPercentage"`
		Notes                string     `json:"notes"`
		StartDate            *time.Time `json:"startDate"`
		EndDate              *time.Time `json:"endDate"`
		IsActive             bool       `json:"isActive"`
	}
)

func toAllocationResp(a model.ProjectAllocation) AllocationResp {
	return AllocationResp{
		ID:                   a.ID,
		UserID:               a.UserID,
		ProjectID:            a.ProjectID,
		RoleID:               a.RoleID,
		AllocationPercentage: a.AllocationPercentage,
		Notes:                a.Notes,
		StartDate:            a.StartDate,
		EndDate:              a.EndDate,
		IsActive:             a.IsActive,
	}
}

var errDuplicateAllocation = errors.New("duplicate active allocation")

// Allocate godoc
// @Summary Allocate a user to the project
// @Description One active allocation per user and project; a history row is written in the same transaction
// @Tags Project
// @Accept json
// @Produce json
// @Security Bearer
// @Param data body AllocateReq true "user, role and period"
// @Success 200 {object} resputil.Response[AllocationResp] "created allocation"
// @Failure 400 {object} resputil.Response[any] "user already allocated or unknown role"
// @Router /v1/projects/{projectId}/allocations [post]
func (mgr *ProjectMgr) Allocate(c *gin.Context) {
	token := util.GetToken(c)

	var req AllocateReq
	if err := c.ShouldBind(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	var project model.Project
	if err := mgr.db.WithContext(c).First(&project, c.Param("projectId")).Error; err != nil {
		resputil.NotFoundError(c, "Project not found")
		return
	}
	var role model.Role
	if err := mgr.db.WithContext(c).First(&role, req.RoleID).Error; err != nil {
		resputil.BadRequestError(c, "Role not found")
		return
	}
	var user model.User
	if err := mgr.db.WithContext(c).First(&user, req.UserID).Error; err != nil {
		resputil.BadRequestError(c, "User not found")
		return
	}

	percentage := 100
	if req.AllocationPercentage != nil {
		percentage = *req.AllocationPercentage
	}
	allocation := model.ProjectAllocation{
		UserID:               user.ID,
		ProjectID:            project.ID,
		RoleID:               role.ID,
		AllocationPercentage: percentage,
		Notes:                req.Notes,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		IsActive:             true,
	}
	err := mgr.db.WithContext(c).Transaction(func(tx *gorm.DB) error {
		var count int64
		inErr := tx.Model(&model.ProjectAllocation{}).
			Where("user_id = ? AND project_id = ? AND is_active = ?", user.ID, project.ID, true).
			Count(&count).Error
		if inErr != nil {
			return inErr
		}
		if count > 0 {
			return errDuplicateAllocation
		}
		if inErr = tx.Create(&allocation).Error; inErr != nil {
			return inErr
		}
		return tx.Create(&model.ProjectAllocationHistory{
			AllocationID: allocation.ID,
			ProjectID:    project.ID,
			UserID:       user.ID,
			Action:       model.HistoryCreated,
			NewValue:     role.Name,
			ChangedBy:    token.UserID,
		}).Error
	})
	if errors.Is(err, errDuplicateAllocation) {
		resputil.BadRequestError(c, "User already has an active allocation in this project")
		return
	}
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}

	mgr.notifier.ProjectAssigned(c, user.Email, project.Name, role.Name, token.Username)

	resputil.Success(c, toAllocationResp(allocation))
}

type AllocationUpdateReq struct {
	RoleID               *uint      `json:"roleId"`
	AllocationPercentage *int       `json:"allocationPercentage"`
	Notes                *string    `json:"notes"`
	EndDate              *time.Time `json:"endDate"`
}

// UpdateAllocation godoc
// @Summary Update an allocation
// @Description Every changed field is recorded as its own history row
// @Tags Project
// @Accept json
// @Produce json
// @Security Bearer
// @Param data body AllocationUpdateReq true "fields to change"
// @Success 200 {object} resputil.Response[AllocationResp] "updated allocation"
// @Failure 404 {object} resputil.Response[any] "unknown allocation"
// @Router /v1/projects/{projectId}/allocations/{allocationId} [put]
func (mgr *ProjectMgr) UpdateAllocation(c *gin.Context) {
	token := util.GetToken(c)

	var req AllocationUpdateReq
	if err := c.ShouldBind(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	var allocation model.ProjectAllocation
	err := mgr.db.WithContext(c).
		Where("project_id = ?", c.Param("projectId")).
		First(&allocation, c.Param("allocationId")).Error
	if err != nil {
		resputil.NotFoundError(c, "Allocation not found")
		return
	}

	type change struct {
		field    string
		oldValue string
		newValue string
	}
	updates := map[string]any{}
	var changes []change
	if req.RoleID != nil && *req.RoleID != allocation.RoleID {
		updates["role_id"] = *req.RoleID
		changes = append(changes, change{"role_id",
			fmt.Sprint(allocation.RoleID), fmt.Sprint(*req.RoleID)})
	}
	if req.AllocationPercentage != nil && *req.AllocationPercentage != allocation.AllocationPercentage {
		updates["allocation_percentage"] = *req.AllocationPercentage
		changes = append(changes, change{"allocation_percentage",
			fmt.Sprint(allocation.AllocationPercentage), fmt.Sprint(*req.AllocationPercentage)})
	}
	if req.Notes != nil && *req.Notes != allocation.Notes {
		updates["notes"] = *req.Notes
		changes = append(changes, change{"notes", allocation.Notes, *req.Notes})
	}
	if req.EndDate != nil {
		updates["end_date"] = *req.EndDate
		changes = append(changes, change{"end_date", "", req.EndDate.Format(time.RFC3339)})
	}
	if len(updates) == 0 {
		resputil.BadRequestError(c, "No fields to update")
		return
	}

	err = mgr.db.WithContext(c).Transaction(func(tx *gorm.DB) error {
		if inErr := tx.Model(&allocation).Updates(updates).Error; inErr != nil {
			return inErr
		}
		for _, ch := range changes {
			history := model.ProjectAllocationHistory{
				AllocationID: allocation.ID,
				ProjectID:    allocation.ProjectID,
				UserID:       allocation.UserID,
				Action:       model.HistoryUpdated,
				FieldName:    ch.field,
				OldValue:     ch.oldValue,
				NewValue:     ch.newValue,
				ChangedBy:    token.UserID,
			}
			if inErr := tx.Create(&history).Error; inErr != nil {
				return inErr
			}
		}
		return nil
	})
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, toAllocationResp(allocation))
}

// EndAllocation godoc
// @Summary End an allocation
// @Description Deactivates the membership and stamps the end date
// @Tags Project
// @Produce json
// @Security Bearer
// @Success 200 {object} resputil.Response[any] "ended"
// @Failure 404 {object} resputil.Response[any] "unknown allocation"
// @Router /v1/projects/{projectId}/allocations/{allocationId} [delete]
func (mgr *ProjectMgr) EndAllocation(c *gin.Context) {
	token := util.GetToken(c)

	var allocation model.ProjectAllocation
	err := mgr.db.WithContext(c).
		Where("project_id = ?", c.Param("projectId")).
		First(&allocation, c.Param("allocationId")).Error
	if err != nil {
		resputil.NotFoundError(c, "Allocation not found")
		return
	}

	now := time.Now()
	err = mgr.db.WithContext(c).Transaction(func(tx *gorm.DB) error {
		inErr := tx.Model(&allocation).
			Updates(map[string]any{"is_active": false, "end_date": now}).Error
		if inErr != nil {
			return inErr
		}
		return tx.Create(&model.ProjectAllocationHistory{
			AllocationID: allocation.ID,
			ProjectID:    allocation.ProjectID,
			UserID:       allocation.UserID,
			Action:       model.HistoryDeleted,
			ChangedBy:    token.UserID,
		}).Error
	})
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, gin.H{"id": allocation.ID})
}

// ListAllocations godoc
// @Summary List project allocations
// @Tags Project
// @Produce json
// @Security Bearer
// @Success 200 {object} resputil.Response[[]AllocationResp] "allocations, active first"
// @Router /v1/projects/{projectId}/allocations [get]
func (mgr *ProjectMgr) ListAllocations(c *gin.Context) {
	var allocations []model.ProjectAllocation
	err := mgr.db.WithContext(c).
		Where("project_id = ?", c.Param("projectId")).
		Order("is_active DESC, id DESC").
		Find(&allocations).Error
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, lo.Map(allocations,
		func(a model.ProjectAllocation, _ int) AllocationResp { return toAllocationResp(a) }))
}

type AllocationHistoryResp struct {
	ID           uint                `json:"id"`
	AllocationID uint                `json:"allocationId"`
	UserID       uint                `json:"userId"`
	Action       model.HistoryAction `json:"action"`
	FieldName    string              `json:"fieldName"`
	OldValue     string              `json:"oldValue"`
	NewValue     string              `json:"newValue"`
	ChangedBy    uint                `json:"changedBy"`
	ChangedAt    time.Time           `json:"changedAt"`
}

// AllocationHistory godoc
// @Summary Allocation audit trail of the project
// @Tags Project
// @Produce json
// @Security Bearer
// @Success 200 {object} resputil.Response[[]AllocationHistoryResp] "newest first"
// @Router /v1/projects/{projectId}/allocations/history [get]
func (mgr *ProjectMgr) AllocationHistory(c *gin.Context) {
	var rows []model.ProjectAllocationHistory
	err := mgr.db.WithContext(c).
		Where("project_id = ?", c.Param("projectId")).
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, lo.Map(rows, func(h model.ProjectAllocationHistory, _ int) AllocationHistoryResp {
		return AllocationHistoryResp{
			ID:           h.ID,
			AllocationID: h.AllocationID,
			UserID:       h.UserID,
			Action:       h.Action,
			FieldName:    h.FieldName,
			OldValue:     h.OldValue,
			NewValue:     h.NewValue,
			ChangedBy:    h.ChangedBy,
			ChangedAt:    h.CreatedAt,
		}
	}))
}
