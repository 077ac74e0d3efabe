package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/trackforge/defecttrack/dao/model"
	"github.com/trackforge/defecttrack/internal/authz"
	"github.com/trackforge/defecttrack/internal/dashboard"
	"github.com/trackforge/defecttrack/internal/middleware"
	"github.com/trackforge/defecttrack/internal/resputil"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewDashboardMgr)
}

// DashboardMgr exposes the per-project health indicators. Every route is
// gated on project membership; the aggregation itself lives in the
// dashboard engine.
type DashboardMgr struct {
	name     string
	db       *gorm.DB
	engine   *dashboard.Engine
	resolver *authz.Resolver
}

func NewDashboardMgr(conf *RegisterConfig) Manager {
	return &DashboardMgr{
		name:     "dashboard",
		db:       conf.DB,
		engine:   conf.Engine,
		resolver: conf.Resolver,
	}
}

func (mgr *DashboardMgr) GetName() string { return mgr.name }

func (mgr *DashboardMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *DashboardMgr) RegisterProtected(g *gin.RouterGroup) {
	p := g.Group(":projectId", middleware.RequireProjectAccess(mgr.resolver))
	p.GET("/dsi", mgr.DSI)
	p.GET("/severity-summary", mgr.SeveritySummary)
	p.GET("/remark-ratio", mgr.RemarkRatio)
	p.GET("/density", mgr.Density)
	p.GET("/reopen-count", mgr.ReopenCount)
	p.GET("/card-color", mgr.CardColor)
	p.GET("/defect-types", mgr.DefectTypes)
	p.GET("/defects-by-module", mgr.DefectsByModule)
	p.GET("/summary", mgr.Summary)
}

func (mgr *DashboardMgr) RegisterAdmin(_ *gin.RouterGroup) {}

func pathProjectID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("projectId"), 10, 32)
	if err != nil {
		resputil.BadRequestError(c, "Project ID is required")
		return 0, false
	}
	return uint(id), true
}

// DSI godoc
// @Summary Defect severity index
// @Description Severity-weighted percentage of the project's active defects with its risk band
// @Tags Dashboard
// @Produce json
// @Security Bearer
// @Success 200 {object} resputil.Response[dashboard.DSIResult] "index and interpretation"
// @Router /v1/dashboard/{projectId}/dsi [get]
func (mgr *DashboardMgr) DSI(c *gin.Context) {
	projectID, ok := pathProjectID(c)
	if !ok {
		return
	}
	result, err := mgr.engine.DSI(c, projectID)
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, result)
}

// SeveritySummary godoc
// @Summary Defects by severity and status
// @Description Fixed high/medium/low buckets, zero-filled when empty
// @Tags Dashboard
// @Produce json
// @Security Bearer
// @Success 200 {object} resputil.Response[dashboard.SeveritySummaryResult] "bucketed counts"
// @Router /v1/dashboard/{projectId}/severity-summary [get]
func (mgr *DashboardMgr) SeveritySummary(c *gin.Context) {
	projectID, ok := pathProjectID(c)
	if !ok {
		return
	}
	result, err := mgr.engine.SeveritySummary(c, projectID)
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, result)
}

// RemarkRatio godoc
// @Summary Comments-per-defect ratio
// @Tags Dashboard
// @Produce json
// @Security Bearer
// @Success 200 {object} resputil.Response[dashboard.RemarkRatioResult] "ratio with category and color"
// @Router /v1/dashboard/{projectId}/remark-ratio [get]
func (mgr *DashboardMgr) RemarkRatio(c *gin.Context) {
	projectID, ok := pathProjectID(c)
	if !ok {
		return
	}
	result, err := mgr.engine.DefectRemarkRatio(c, projectID)
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, result)
}

// Density godoc
// @Summary Defects per module
// @Description Raw defect count when the project has no modules
// @Tags Dashboard
// @Produce json
// @Security Bearer
// @Success 200 {object} resputil.Response[dashboard.DensityResult] "density value"
// @Router /v1/dashboard/{projectId}/density [get]
func (mgr *DashboardMgr) Density(c *gin.Context) {
	projectID, ok := pathProjectID(c)
	if !ok {
		return
	}
	result, err := mgr.engine.DefectDensity(c, projectID)
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, result)
}

// ReopenCount godoc
// @Summary Reopened defect count
// @Tags Dashboard
// @Produce json
// @Security Bearer
// @Success 200 {object} resputil.Response[dashboard.ReopenResult] "defects currently in a reopened status"
// @Router /v1/dashboard/{projectId}/reopen-count [get]
func (mgr *DashboardMgr) ReopenCount(c *gin.Context) {
	projectID, ok := pathProjectID(c)
	if !ok {
		return
	}
	result, err := mgr.engine.ReopenCount(c, projectID)
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, result)
}

// CardColor godoc
// @Summary Project card gradient
// @Tags Dashboard
// @Produce json
// @Security Bearer
// @Success 200 {object} resputil.Response[dashboard.CardColorResult] "gradient class with the DSI it derives from"
// @Router /v1/dashboard/{projectId}/card-color [get]
func (mgr *DashboardMgr) CardColor(c *gin.Context) {
	projectID, ok := pathProjectID(c)
	if !ok {
		return
	}
	result, err := mgr.engine.ProjectCardColor(c, projectID)
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, result)
}

// DefectTypes godoc
// @Summary Defect counts per type
// @Tags Dashboard
// @Produce json
// @Security Bearer
// @Success 200 {object} resputil.Response[[]dashboard.TypeCount] "highest count first"
// @Router /v1/dashboard/{projectId}/defect-types [get]
func (mgr *DashboardMgr) DefectTypes(c *gin.Context) {
	projectID, ok := pathProjectID(c)
	if !ok {
		return
	}
	result, err := mgr.engine.DefectTypes(c, projectID)
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, result)
}

// DefectsByModule godoc
// @Summary Defect counts per module
// @Description Defects without a module land in the Unassigned bucket
// @Tags Dashboard
// @Produce json
// @Security Bearer
// @Success 200 {object} resputil.Response[[]dashboard.ModuleCount] "per-module distribution"
// @Router /v1/dashboard/{projectId}/defects-by-module [get]
func (mgr *DashboardMgr) DefectsByModule(c *gin.Context) {
	projectID, ok := pathProjectID(c)
	if !ok {
		return
	}
	result, err := mgr.engine.DefectsByModule(c, projectID)
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, result)
}

type DashboardSummaryResp struct {
	ProjectID   uint                            `json:"projectId"`
	ProjectName string                          `json:"projectName"`
	DSI         dashboard.DSIResult             `json:"dsi"`
	Severity    dashboard.SeveritySummaryResult `json:"severity"`
	RemarkRatio dashboard.RemarkRatioResult     `json:"remarkRatio"`
	Density     dashboard.DensityResult         `json:"density"`
	Reopen      dashboard.ReopenResult          `json:"reopen"`
	CardColor   dashboard.CardColorResult       `json:"cardColor"`
	Types       []dashboard.TypeCount           `json:"types"`
	Modules     []dashboard.ModuleCount         `json:"modules"`
}

// Summary godoc
// @Summary Everything the dashboard page needs in one call
// @Tags Dashboard
// @Produce json
// @Security Bearer
// @Success 200 {object} resputil.Response[DashboardSummaryResp] "all indicators"
// @Failure 404 {object} resputil.Response[any] "unknown project"
// @Router /v1/dashboard/{projectId}/summary [get]
func (mgr *DashboardMgr) Summary(c *gin.Context) {
	projectID, ok := pathProjectID(c)
	if !ok {
		return
	}

	var project model.Project
	if err := mgr.db.WithContext(c).First(&project, projectID).Error; err != nil {
		resputil.NotFoundError(c, "Project not found")
		return
	}

	resp := DashboardSummaryResp{ProjectID: projectID, ProjectName: project.Name}
	var err error
	if resp.DSI, err = mgr.engine.DSI(c, projectID); err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	if resp.Severity, err = mgr.engine.SeveritySummary(c, projectID); err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	if resp.RemarkRatio, err = mgr.engine.DefectRemarkRatio(c, projectID); err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	if resp.Density, err = mgr.engine.DefectDensity(c, projectID); err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	if resp.Reopen, err = mgr.engine.ReopenCount(c, projectID); err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	if resp.CardColor, err = mgr.engine.ProjectCardColor(c, projectID); err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	if resp.Types, err = mgr.engine.DefectTypes(c, projectID); err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	if resp.Modules, err = mgr.engine.DefectsByModule(c, projectID); err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}

	resputil.Success(c, resp)
}
