package handler

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/trackforge/defecttrack/dao/model"
	"github.com/trackforge/defecttrack/internal/resputil"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewLookupMgr)
}

// LookupMgr serves the reference tables every form in the frontend needs:
// severities, priorities, statuses, defect types, release types and
// designations. Reads are open to any logged-in user; writes are admin only.
type LookupMgr struct {
	name string
	db   *gorm.DB
}

func NewLookupMgr(conf *RegisterConfig) Manager {
	return &LookupMgr{
		name: "lookups",
		db:   conf.DB,
	}
}

func (mgr *LookupMgr) GetName() string { return mgr.name }

func (mgr *LookupMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *LookupMgr) RegisterProtected(g *gin.RouterGroup) {
	g.GET("/severities", mgr.ListSeverities)
	g.GET("/priorities", mgr.ListPriorities)
	g.GET("/statuses", mgr.ListStatuses)
	g.GET("/defect-types", mgr.ListDefectTypes)
	g.GET("/release-types", mgr.ListReleaseTypes)
	g.GET("/designations", mgr.ListDesignations)
	g.GET("/privileges", mgr.ListPrivileges)
}

func (mgr *LookupMgr) RegisterAdmin(g *gin.RouterGroup) {
	g.POST("/severities", mgr.CreateSeverity)
	g.POST("/priorities", mgr.CreatePriority)
	g.POST("/statuses", mgr.CreateStatus)
	g.POST("/defect-types", mgr.CreateDefectType)
	g.POST("/release-types", mgr.CreateReleaseType)
	g.POST("/designations", mgr.CreateDesignation)
}

type LevelledLookupResp struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Level    int    `json:"level"`
	IsActive bool   `json:"isActive"`
}

// ListSeverities godoc
// @Summary List severities
// @Tags Lookup
// @Produce json
// @Security Bearer
// @Success 200 {object} resputil.Response[[]LevelledLookupResp] "highest level first"
// @Router /v1/lookups/severities [get]
func (mgr *LookupMgr) ListSeverities(c *gin.Context) {
	var rows []model.Severity
	err := mgr.db.WithContext(c).
		Where("is_active = ?", true).
		Order("level DESC").
		Find(&rows).Error
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resp := make([]LevelledLookupResp, len(rows))
	for i, r := range rows {
		resp[i] = LevelledLookupResp{ID: r.ID, Name: r.Name, Level: r.Level, IsActive: r.IsActive}
	}
	resputil.Success(c, resp)
}

// ListPriorities godoc
// @Summary List priorities
// @Tags Lookup
// @Produce json
// @Security Bearer
// @Success 200 {object} resputil.Response[[]LevelledLookupResp] "highest level first"
// @Router /v1/lookups/priorities [get]
func (mgr *LookupMgr) ListPriorities(c *gin.Context) {
	var rows []model.Priority
	err := mgr.db.WithContext(c).
		Where("is_active = ?", true).
		Order("level DESC").
		Find(&rows).Error
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resp := make([]LevelledLookupResp, len(rows))
	for i, r := range rows {
		resp[i] = LevelledLookupResp{ID: r.ID, Name: r.Name, Level: r.Level, IsActive: r.IsActive}
	}
	resputil.Success(c, resp)
}

type StatusResp struct {
	ID             uint   `json:"id"`
	Name           string `json:"name"`
	IsClosedStatus bool   `json:"isClosedStatus"`
	IsActive       bool   `json:"isActive"`
}

// ListStatuses godoc
// @Summary List defect statuses
// @Tags Lookup
// @Produce json
// @Security Bearer
// @Success 200 {object} resputil.Response[[]StatusResp] "lifecycle statuses"
// @Router /v1/lookups/statuses [get]
func (mgr *LookupMgr) ListStatuses(c *gin.Context) {
	var rows []model.DefectStatus
	err := mgr.db.WithContext(c).
		Where("is_active = ?", true).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resp := make([]StatusResp, len(rows))
	for i, r := range rows {
		resp[i] = StatusResp{ID: r.ID, Name: r.Name, IsClosedStatus: r.IsClosedStatus, IsActive: r.IsActive}
	}
	resputil.Success(c, resp)
}

type NamedLookupResp struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"isActive"`
}

// ListDefectTypes godoc
// @Summary List defect types
// @Tags Lookup
// @Produce json
// @Security Bearer
// @Success 200 {object} resputil.Response[[]NamedLookupResp] "defect classifications"
// @Router /v1/lookups/defect-types [get]
func (mgr *LookupMgr) ListDefectTypes(c *gin.Context) {
	var rows []model.DefectType
	err := mgr.db.WithContext(c).Where("is_active = ?", true).Order("id ASC").Find(&rows).Error
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resp := make([]NamedLookupResp, len(rows))
	for i, r := range rows {
		resp[i] = NamedLookupResp{ID: r.ID, Name: r.Name, IsActive: r.IsActive}
	}
	resputil.Success(c, resp)
}

// ListReleaseTypes godoc
// @Summary List release types
// @Tags Lookup
// @Produce json
// @Security Bearer
// @Success 200 {object} resputil.Response[[]NamedLookupResp] "release classifications"
// @Router /v1/lookups/release-types [get]
func (mgr *LookupMgr) ListReleaseTypes(c *gin.Context) {
	var rows []model.ReleaseType
	err := mgr.db.WithContext(c).Where("is_active = ?", true).Order("id ASC").Find(&rows).Error
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resp := make([]NamedLookupResp, len(rows))
	for i, r := range rows {
		resp[i] = NamedLookupResp{ID: r.ID, Name: r.Name, IsActive: r.IsActive}
	}
	resputil.Success(c, resp)
}

// ListDesignations godoc
// @Summary List designations
// @Tags Lookup
// @Produce json
// @Security Bearer
// @Success 200 {object} resputil.Response[[]NamedLookupResp] "job titles"
// @Router /v1/lookups/designations [get]
func (mgr *LookupMgr) ListDesignations(c *gin.Context) {
	var rows []model.Designation
	err := mgr.db.WithContext(c).Where("is_active = ?", true).Order("id ASC").Find(&rows).Error
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resp := make([]NamedLookupResp, len(rows))
	for i, r := range rows {
		resp[i] = NamedLookupResp{ID: r.ID, Name: r.Name, IsActive: r.IsActive}
	}
	resputil.Success(c, resp)
}

type PrivilegeResp struct {
	ID          uint         `json:"id"`
	Module      string       `json:"module"`
	Action      model.Action `json:"action"`
	Description string       `json:"description"`
}

// ListPrivileges godoc
// @Summary List the privilege catalog
// @Tags Lookup
// @Produce json
// @Security Bearer
// @Success 200 {object} resputil.Response[[]PrivilegeResp] "grantable capabilities"
// @Router /v1/lookups/privileges [get]
func (mgr *LookupMgr) ListPrivileges(c *gin.Context) {
	var rows []model.Privilege
	err := mgr.db.WithContext(c).
		Where("is_active = ?", true).
		Order("module ASC, action ASC").
		Find(&rows).Error
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resp := make([]PrivilegeResp, len(rows))
	for i, r := range rows {
		resp[i] = PrivilegeResp{ID: r.ID, Module: r.Module, Action: r.Action, Description: r.Description}
	}
	resputil.Success(c, resp)
}

type LevelledLookupCreateReq struct {
	Name  string `json:"name" binding:"required"`
	Level int    `json:"level" binding:"required"`
}

// CreateSeverity godoc
// @Summary Create a severity
// @Tags Lookup
// @Accept json
// @Produce json
// @Security Bearer
// @Param data body LevelledLookupCreateReq true "name and level"
// @Success 200 {object} resputil.Response[LevelledLookupResp] "created severity"
// @Router /v1/admin/lookups/severities [post]
func (mgr *LookupMgr) CreateSeverity(c *gin.Context) {
	var req LevelledLookupCreateReq
	if err := c.ShouldBind(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	row := model.Severity{Name: req.Name, Level: req.Level, IsActive: true}
	if err := mgr.db.WithContext(c).Create(&row).Error; err != nil {
		resputil.BadRequestError(c, "Create severity failed: "+err.Error())
		return
	}
	resputil.Success(c, LevelledLookupResp{ID: row.ID, Name: row.Name, Level: row.Level, IsActive: row.IsActive})
}

// CreatePriority godoc
// @Summary Create a priority
// @Tags Lookup
// @Accept json
// @Produce json
// @Security Bearer
// @Param data body LevelledLookupCreateReq true "name and level"
// @Success 200 {object} resputil.Response[LevelledLookupResp] "created priority"
// @Router /v1/admin/lookups/priorities [post]
func (mgr *LookupMgr) CreatePriority(c *gin.Context) {
	var req LevelledLookupCreateReq
	if err := c.ShouldBind(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	row := model.Priority{Name: req.Name, Level: req.Level, IsActive: true}
	if err := mgr.db.WithContext(c).Create(&row).Error; err != nil {
		resputil.BadRequestError(c, "Create priority failed: "+err.Error())
		return
	}
	resputil.Success(c, LevelledLookupResp{ID: row.ID, Name: row.Name, Level: row.Level, IsActive: row.IsActive})
}

type StatusCreateReq struct {
	Name           string `json:"name" binding:"required"`
	IsClosedStatus bool   `json:"isClosedStatus"`
}

// CreateStatus godoc
// @Summary Create a defect status
// @Tags Lookup
// @Accept json
// @Produce json
// @Security Bearer
// @Param data body StatusCreateReq true "name and terminal flag"
// @Success 200 {object} resputil.Response[StatusResp] "created status"
// @Router /v1/admin/lookups/statuses [post]
func (mgr *LookupMgr) CreateStatus(c *gin.Context) {
	var req StatusCreateReq
	if err := c.ShouldBind(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	row := model.DefectStatus{Name: req.Name, IsClosedStatus: req.IsClosedStatus, IsActive: true}
	if err := mgr.db.WithContext(c).Create(&row).Error; err != nil {
		resputil.BadRequestError(c, "Create status failed: "+err.Error())
		return
	}
	resputil.Success(c, StatusResp{ID: row.ID, Name: row.Name, IsClosedStatus: row.IsClosedStatus, IsActive: row.IsActive})
}

type NamedLookupCreateReq struct {
	Name string `json:"name" binding:"required"`
}

// CreateDefectType godoc
// @Summary Create a defect type
// @Tags Lookup
// @Accept json
// @Produce json
// @Security Bearer
// @Param data body NamedLookupCreateReq true "type name"
// @Success 200 {object} resputil.Response[NamedLookupResp] "created type"
// @Router /v1/admin/lookups/defect-types [post]
func (mgr *LookupMgr) CreateDefectType(c *gin.Context) {
	var req NamedLookupCreateReq
	if err := c.ShouldBind(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	row := model.DefectType{Name: req.Name, IsActive: true}
	if err := mgr.db.WithContext(c).Create(&row).Error; err != nil {
		resputil.BadRequestError(c, "Create defect type failed: "+err.Error())
		return
	}
	resputil.Success(c, NamedLookupResp{ID: row.ID, Name: row.Name, IsActive: row.IsActive})
}

// CreateReleaseType godoc
// @Summary Create a release type
// @Tags Lookup
// @Accept json
// @Produce json
// @Security Bearer
// @Param data body NamedLookupCreateReq true "type name"
// @Success 200 {object} resputil.Response[NamedLookupResp] "created type"
// @Router /v1/admin/lookups/release-types [post]
func (mgr *LookupMgr) CreateReleaseType(c *gin.Context) {
	var req NamedLookupCreateReq
	if err := c.ShouldBind(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	row := model.ReleaseType{Name: req.Name, IsActive: true}
	if err := mgr.db.WithContext(c).Create(&row).Error; err != nil {
		resputil.BadRequestError(c, "Create release type failed: "+err.Error())
		return
	}
	resputil.Success(c, NamedLookupResp{ID: row.ID, Name: row.Name, IsActive: row.IsActive})
}

// CreateDesignation godoc
// @Summary Create a designation
// @Tags Lookup
// @Accept json
// @Produce json
// @Security Bearer
// @Param data body NamedLookupCreateReq true "job title"
// @Success 200 {object} resputil.Response[NamedLookupResp] "created designation"
// @Router /v1/admin/lookups/designations [post]
func (mgr *LookupMgr) CreateDesignation(c *gin.Context) {
	var req NamedLookupCreateReq
	if err := c.ShouldBind(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	row := model.Designation{Name: req.Name, IsActive: true}
	if err := mgr.db.WithContext(c).Create(&row).Error; err != nil {
		resputil.BadRequestError(c, "Create designation failed: "+err.Error())
		return
	}
	resputil.Success(c, NamedLookupResp{ID: row.ID, Name: row.Name, IsActive: row.IsActive})
}
