package handler

import (
	"strconv"
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
	Registers = append(Registers, NewReleaseMgr)
}

// ReleaseMgr covers releases, the project's test case pool and the mapping
// of test cases into a release run.
type ReleaseMgr struct {
	name     string
	db       *gorm.DB
	resolver *authz.Resolver
	notifier notify.Notifier
}

func NewReleaseMgr(conf *RegisterConfig) Manager {
	return &ReleaseMgr{
		name:     "releases",
		db:       conf.DB,
		resolver: conf.Resolver,
		notifier: conf.Notifier,
	}
}

func (mgr *ReleaseMgr) GetName() string { return mgr.name }

func (mgr *ReleaseMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *ReleaseMgr) RegisterProtected(g *gin.RouterGroup) {
	read := g.Group("", middleware.RequireProjectAccess(mgr.resolver))
	read.GET("", mgr.List)
	read.GET(":releaseId", mgr.Get)
	read.GET(":releaseId/testcases", mgr.ListRunCases)
	read.GET("/testcases", mgr.ListTestCases)

	create := g.Group("", middleware.RequirePrivilege(mgr.resolver, model.ModuleReleases, model.ActionCreate, true))
	create.POST("", mgr.Create)
	create.POST("/testcases", mgr.CreateTestCase)
	create.POST(":releaseId/testcases", mgr.MapTestCase)

	write := g.Group("", middleware.RequirePrivilege(mgr.resolver, model.ModuleReleases, model.ActionUpdate, true))
	write.PUT(":releaseId", mgr.Update)
	write.PUT(":releaseId/testcases/:runCaseId", mgr.RecordExecution)
	write.PUT("/testcases/:testCaseId", mgr.UpdateTestCase)

	g.DELETE(":releaseId",
		middleware.RequirePrivilege(mgr.resolver, model.ModuleReleases, model.ActionDelete, true), mgr.Deactivate)
}

func (mgr *ReleaseMgr) RegisterAdmin(_ *gin.RouterGroup) {}

func queryProjectID(c *gin.Context) (uint, bool) {
	projectID, err := strconv.ParseUint(c.Query("projectId"), 10, 32)
	if err != nil {
		resputil.BadRequestError(c, "Project ID is required")
		return 0, false
	}
	return uint(projectID), true
}

func (mgr *ReleaseMgr) projectRelease(c *gin.Context) (*model.Release, bool) {
	projectID, ok := queryProjectID(c)
	if !ok {
		return nil, false
	}
	var release model.Release
	err := mgr.db.WithContext(c).
		Preload("ReleaseType").
		Where("project_id = ?", projectID).
		First(&release, c.Param("releaseId")).Error
	if err != nil {
		resputil.NotFoundError(c, "Release not found")
		return nil, false
	}
	return &release, true
}

type (
	ReleaseCreateReq struct {
		Name          string     `json:"name" binding:"required"`
		Version       string     `json:"version" binding:"required"`
		ReleaseTypeID uint       `json:"releaseTypeId" binding:"required"`
		Description   string     `json:"description"`
		ReleaseDate   *time.Time `json:"releaseDate"`
	}

	ReleaseResp struct {
		ID          uint       `json:"id"`
		ProjectID   uint       `json:"projectId"`
		Name        string     `json:"name"`
		Version     string     `json:"version"`
		Type        string     `json:"type"`
		Description string     `json:"description"`
		ReleaseDate *time.Time `json:"releaseDate"`
		IsActive    bool       `json:"isActive"`
	}
)

func toReleaseResp(r model.Release) ReleaseResp {
	return ReleaseResp{
		ID:          r.ID,
		ProjectID:   r.ProjectID,
		Name:        r.Name,
		Version:     r.Version,
		Type:        r.ReleaseType.Name,
		Description: r.Description,
		ReleaseDate: r.ReleaseDate,
		IsActive:    r.IsActive,
	}
}

// List godoc
// @Summary List releases of a project
// @Tags Release
// @Produce json
// @Security Bearer
// @Param projectId query int true "project id"
// @Success 200 {object} resputil.Response[[]ReleaseResp] "newest first"
// @Router /v1/releases [get]
func (mgr *ReleaseMgr) List(c *gin.Context) {
	projectID, ok := queryProjectID(c)
	if !ok {
		return
	}
	var releases []model.Release
	err := mgr.db.WithContext(c).
		Preload("ReleaseType").
		Where("project_id = ?", projectID).
		Order("id DESC").
		Find(&releases).Error
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, lo.Map(releases, func(r model.Release, _ int) ReleaseResp { return toReleaseResp(r) }))
}

// Create godoc
// @Summary Create a release
// @Description Active members of the project are mailed after the release is created
// @Tags Release
// @Accept json
// @Produce json
// @Security Bearer
// @Param projectId query int true "project id"
// @Param data body ReleaseCreateReq true "release form"
// @Success 200 {object} resputil.Response[ReleaseResp] "created release"
// @Failure 400 {object} resputil.Response[any] "unknown release type"
// @Router /v1/releases [post]
func (mgr *ReleaseMgr) Create(c *gin.Context) {
	var req ReleaseCreateReq
	if err := c.ShouldBind(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	projectID, ok := queryProjectID(c)
	if !ok {
		return
	}

	var project model.Project
	if err := mgr.db.WithContext(c).First(&project, projectID).Error; err != nil {
		resputil.NotFoundError(c, "Project not found")
		return
	}
	var releaseType model.ReleaseType
	if err := mgr.db.WithContext(c).First(&releaseType, req.ReleaseTypeID).Error; err != nil {
		resputil.BadRequestError(c, "Release type not found")
		return
	}

	release := model.Release{
		ProjectID:     projectID,
		ReleaseTypeID: releaseType.ID,
		Name:          req.Name,
		Version:       req.Version,
		Description:   req.Description,
		ReleaseDate:   req.ReleaseDate,
		IsActive:      true,
	}
	if err := mgr.db.WithContext(c).Create(&release).Error; err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	release.ReleaseType = releaseType

	mgr.notifyMembers(c, &project, &release)

	resputil.Success(c, toReleaseResp(release))
}

// notifyMembers mails every active member of the project. Failures only
// cost the notification.
func (mgr *ReleaseMgr) notifyMembers(c *gin.Context, project *model.Project, release *model.Release) {
	var emails []string
	err := mgr.db.WithContext(c).
		Table("users").
		Distinct("users.email").
		Joins("JOIN project_allocations ON project_allocations.user_id = users.id").
		Where("project_allocations.project_id = ? AND project_allocations.is_active = ?", project.ID, true).
		Where("project_allocations.deleted_at IS NULL AND users.is_active = ?", true).
		Pluck("users.email", &emails).Error
	if err != nil || len(emails) == 0 {
		return
	}
	mgr.notifier.ReleaseCreated(c, emails, release.Name, release.Version, project.Name)
}

// Get godoc
// @Summary Get one release
// @Tags Release
// @Produce json
// @Security Bearer
// @Param projectId query int true "project id"
// @Success 200 {object} resputil.Response[ReleaseResp] "release detail"
// @Failure 404 {object} resputil.Response[any] "release not in this project"
// @Router /v1/releases/{releaseId} [get]
func (mgr *ReleaseMgr) Get(c *gin.Context) {
	release, ok := mgr.projectRelease(c)
	if !ok {
		return
	}
	resputil.Success(c, toReleaseResp(*release))
}

type ReleaseUpdateReq struct {
	Name        *string    `json:"name"`
	Version     *string    `json:"version"`
	Description *string    `json:"description"`
	ReleaseDate *time.Time `json:"releaseDate"`
}

// Update godoc
// @Summary Update a release
// @Tags Release
// @Accept json
// @Produce json
// @Security Bearer
// @Param projectId query int true "project id"
// @Param data body ReleaseUpdateReq true "fields to change"
// @Success 200 {object} resputil.Response[ReleaseResp] "updated release"
// @Failure 404 {object} resputil.Response[any] "release not in this project"
// @Router /v1/releases/{releaseId} [put]
func (mgr *ReleaseMgr) Update(c *gin.Context) {
	var req ReleaseUpdateReq
	if err := c.ShouldBind(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	release, ok := mgr.projectRelease(c)
	if !ok {
		return
	}

	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Version != nil {
		updates["version"] = *req.Version
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.ReleaseDate != nil {
		updates["release_date"] = *req.ReleaseDate
	}
	if len(updates) == 0 {
		resputil.BadRequestError(c, "No fields to update")
		return
	}
	if err := mgr.db.WithContext(c).Model(release).Updates(updates).Error; err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, toReleaseResp(*release))
}

// Deactivate godoc
// @Summary Deactivate a release
// @Tags Release
// @Produce json
// @Security Bearer
// @Param projectId query int true "project id"
// @Success 200 {object} resputil.Response[any] "deactivated"
// @Failure 404 {object} resputil.Response[any] "release not in this project"
// @Router /v1/releases/{releaseId} [delete]
func (mgr *ReleaseMgr) Deactivate(c *gin.Context) {
	release, ok := mgr.projectRelease(c)
	if !ok {
		return
	}
	if err := mgr.db.WithContext(c).Model(release).Update("is_active", false).Error; err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, gin.H{"id": release.ID})
}

type (
	TestCaseCreateReq struct {
		Title          string `json:"title" binding:"required"`
		Description    string `json:"description"`
		Steps          string `json:"steps"`
		ExpectedResult string `json:"expectedResult"`
		ModuleID       *uint  `json:"moduleId"`
		SubModuleID    *uint  `json:"subModuleId"`
	}

	TestCaseResp struct {
		ID             uint   `json:"id"`
		ProjectID      uint   `json:"projectId"`
		ModuleID       *uint  `json:"moduleId"`
		SubModuleID    *uint  `json:"subModuleId"`
		Title          string `json:"title"`
		Description    string `json:"description"`
		Steps          string `json:"steps"`
		ExpectedResult string `json:"expectedResult"`
		IsActive       bool   `json:"isActive"`
	}
)

func toTestCaseResp(tc model.TestCase) TestCaseResp {
	return TestCaseResp{
		ID:             tc.ID,
		ProjectID:      tc.ProjectID,
		ModuleID:       tc.ModuleID,
		SubModuleID:    tc.SubModuleID,
		Title:          tc.Title,
		Description:    tc.Description,
		Steps:          tc.Steps,
		ExpectedResult: tc.ExpectedResult,
		IsActive:       tc.IsActive,
	}
}

// ListTestCases godoc
// @Summary List test cases of a project
// @Tags Release
// @Produce json
// @Security Bearer
// @Param projectId query int true "project id"
// @Success 200 {object} resputil.Response[[]TestCaseResp] "test case pool"
// @Router /v1/releases/testcases [get]
func (mgr *ReleaseMgr) ListTestCases(c *gin.Context) {
	projectID, ok := queryProjectID(c)
	if !ok {
		return
	}
	var cases []model.TestCase
	err := mgr.db.WithContext(c).
		Where("project_id = ? AND is_active = ?", projectID, true).
		Order("id ASC").
		Find(&cases).Error
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, lo.Map(cases, func(tc model.TestCase, _ int) TestCaseResp { return toTestCaseResp(tc) }))
}

// CreateTestCase godoc
// @Summary Create a test case
// @Tags Release
// @Accept json
// @Produce json
// @Security Bearer
// @Param projectId query int true "project id"
// @Param data body TestCaseCreateReq true "test case form"
// @Success 200 {object} resputil.Response[TestCaseResp] "created test case"
// @Router /v1/releases/testcases [post]
func (mgr *ReleaseMgr) CreateTestCase(c *gin.Context) {
	token := util.GetToken(c)

	var req TestCaseCreateReq
	if err := c.ShouldBind(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	projectID, ok := queryProjectID(c)
	if !ok {
		return
	}

	testCase := model.TestCase{
		ProjectID:      projectID,
		ModuleID:       req.ModuleID,
		SubModuleID:    req.SubModuleID,
		Title:          req.Title,
		Description:    req.Description,
		Steps:          req.Steps,
		ExpectedResult: req.ExpectedResult,
		CreatedBy:      token.UserID,
		IsActive:       true,
	}
	if err := mgr.db.WithContext(c).Create(&testCase).Error; err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, toTestCaseResp(testCase))
}

type TestCaseUpdateReq struct {
	Title          *string `json:"title"`
	Description    *string `json:"description"`
	Steps          *string `json:"steps"`
	ExpectedResult *string `json:"expectedResult"`
	IsActive       *bool   `json:"isActive"`
}

// UpdateTestCase godoc
// @Summary Update a test case
// @Tags Release
// @Accept json
// @Produce json
// @Security Bearer
// @Param projectId query int true "project id"
// @Param data body TestCaseUpdateReq true "fields to change"
// @Success 200 {object} resputil.Response[TestCaseResp] "updated test case"
// @Failure 404 {object} resputil.Response[any] "test case not in this project"
// @Router /v1/releases/testcases/{testCaseId} [put]
func (mgr *ReleaseMgr) UpdateTestCase(c *gin.Context) {
	var req TestCaseUpdateReq
	if err := c.ShouldBind(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	projectID, ok := queryProjectID(c)
	if !ok {
		return
	}

	var testCase model.TestCase
	err := mgr.db.WithContext(c).
		Where("project_id = ?", projectID).
		First(&testCase, c.Param("testCaseId")).Error
	if err != nil {
		resputil.NotFoundError(c, "Test case not found")
		return
	}

	updates := map[string]any{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Steps != nil {
		updates["steps"] = *req.Steps
	}
	if req.ExpectedResult != nil {
		updates["expected_result"] = *req.ExpectedResult
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		resputil.BadRequestError(c, "No fields to update")
		return
	}
	if err := mgr.db.WithContext(c).Model(&testCase).Updates(updates).Error; err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, toTestCaseResp(testCase))
}

type (
	MapTestCaseReq struct {
		TestCaseID uint `json:"testCaseId" binding:"required"`
	}

	RunCaseResp struct {
		ID         uint       `json:"id"`
		ReleaseID  uint       `json:"releaseId"`
		TestCaseID uint       `json:"testCaseId"`
		Title      string     `json:"title"`
		Status     string     `json:"status"`
		ExecutedBy *uint      `json:"executedBy"`
		ExecutedAt *time.Time `json:"executedAt"`
	}
)

// MapTestCase godoc
// @Summary Add a test case to a release run
// @Description The mapping starts in pending status; defects logged during execution reference it
// @Tags Release
// @Accept json
// @Produce json
// @Security Bearer
// @Param projectId query int true "project id"
// @Param data body MapTestCaseReq true "test case to map"
// @Success 200 {object} resputil.Response[RunCaseResp] "created mapping"
// @Failure 400 {object} resputil.Response[any] "test case not in this project or already mapped"
// @Router /v1/releases/{releaseId}/testcases [post]
func (mgr *ReleaseMgr) MapTestCase(c *gin.Context) {
	var req MapTestCaseReq
	if err := c.ShouldBind(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	release, ok := mgr.projectRelease(c)
	if !ok {
		return
	}

	var testCase model.TestCase
	err := mgr.db.WithContext(c).
		Where("project_id = ?", release.ProjectID).
		First(&testCase, req.TestCaseID).Error
	if err != nil {
		resputil.BadRequestError(c, "Test case not found in this project")
		return
	}

	var count int64
	err = mgr.db.WithContext(c).Model(&model.ReleaseTestCase{}).
		Where("release_id = ? AND test_case_id = ? AND is_active = ?", release.ID, testCase.ID, true).
		Count(&count).Error
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	if count > 0 {
		resputil.BadRequestError(c, "Test case already mapped to this release")
		return
	}

	runCase := model.ReleaseTestCase{
		ReleaseID:  release.ID,
		TestCaseID: testCase.ID,
		Status:     "pending",
		IsActive:   true,
	}
	if err := mgr.db.WithContext(c).Create(&runCase).Error; err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, RunCaseResp{
		ID:         runCase.ID,
		ReleaseID:  runCase.ReleaseID,
		TestCaseID: runCase.TestCaseID,
		Title:      testCase.Title,
		Status:     runCase.Status,
	})
}

// ListRunCases godoc
// @Summary List the test cases of a release run
// @Tags Release
// @Produce json
// @Security Bearer
// @Param projectId query int true "project id"
// @Success 200 {object} resputil.Response[[]RunCaseResp] "run progress"
// @Router /v1/releases/{releaseId}/testcases [get]
func (mgr *ReleaseMgr) ListRunCases(c *gin.Context) {
	release, ok := mgr.projectRelease(c)
	if !ok {
		return
	}
	var runCases []model.ReleaseTestCase
	err := mgr.db.WithContext(c).
		Preload("TestCase").
		Where("release_id = ? AND is_active = ?", release.ID, true).
		Order("id ASC").
		Find(&runCases).Error
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, lo.Map(runCases, func(rc model.ReleaseTestCase, _ int) RunCaseResp {
		return RunCaseResp{
			ID:         rc.ID,
			ReleaseID:  rc.ReleaseID,
			TestCaseID: rc.TestCaseID,
			Title:      rc.TestCase.Title,
			Status:     rc.Status,
			ExecutedBy: rc.ExecutedBy,
			ExecutedAt: rc.ExecutedAt,
		}
	}))
}

type ExecutionReq struct {
	Status string `json:"status" binding:"required,oneof=pending passed failed blocked"`
}

// RecordExecution godoc
// @Summary Record a test execution result
// @Tags Release
// @Accept json
// @Produce json
// @Security Bearer
// @Param projectId query int true "project id"
// @Param data body ExecutionReq true "execution outcome"
// @Success 200 {object} resputil.Response[RunCaseResp] "updated mapping"
// @Failure 404 {object} resputil.Response[any] "unknown mapping"
// @Router /v1/releases/{releaseId}/testcases/{runCaseId} [put]
func (mgr *ReleaseMgr) RecordExecution(c *gin.Context) {
	token := util.GetToken(c)

	var req ExecutionReq
	if err := c.ShouldBind(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	release, ok := mgr.projectRelease(c)
	if !ok {
		return
	}

	var runCase model.ReleaseTestCase
	err := mgr.db.WithContext(c).
		Where("release_id = ?", release.ID).
		First(&runCase, c.Param("runCaseId")).Error
	if err != nil {
		resputil.NotFoundError(c, "Release test case not found")
		return
	}

	now := time.Now()
	err = mgr.db.WithContext(c).Model(&runCase).Updates(map[string]any{
		"status":      req.Status,
		"executed_by": token.UserID,
		"executed_at": now,
	}).Error
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, RunCaseResp{
		ID:         runCase.ID,
		ReleaseID:  runCase.ReleaseID,
		TestCaseID: runCase.TestCaseID,
		Status:     req.Status,
		ExecutedBy: &token.UserID,
		ExecutedAt: &now,
	})
}
