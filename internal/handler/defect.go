package handler

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
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
	Registers = append(Registers, NewDefectMgr)
}

type DefectMgr struct {
	name     string
	db       *gorm.DB
	resolver *authz.Resolver
	notifier notify.Notifier
}

func NewDefectMgr(conf *RegisterConfig) Manager {
	return &DefectMgr{
		name:     "defects",
		db:       conf.DB,
		resolver: conf.Resolver,
		notifier: conf.Notifier,
	}
}

func (mgr *DefectMgr) GetName() string { return mgr.name }

func (mgr *DefectMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *DefectMgr) RegisterProtected(g *gin.RouterGroup) {
	read := g.Group("", middleware.RequireProjectAccess(mgr.resolver))
	read.GET("", mgr.List)
	read.GET(":defectId", mgr.Get)
	read.GET(":defectId/history", mgr.History)
	read.GET(":defectId/comments", mgr.ListComments)
	read.POST(":defectId/comments", mgr.AddComment)

	g.POST("", middleware.RequirePrivilege(mgr.resolver, model.ModuleDefects, model.ActionCreate, true), mgr.Create)

	write := g.Group("", middleware.RequirePrivilege(mgr.resolver, model.ModuleDefects, model.ActionUpdate, true))
	write.PUT(":defectId", mgr.Update)
	write.PUT(":defectId/status", mgr.ChangeStatus)
	write.PUT(":defectId/assign", mgr.Assign)

	g.DELETE(":defectId",
		middleware.RequirePrivilege(mgr.resolver, model.ModuleDefects, model.ActionDelete, true), mgr.Deactivate)
}

func (mgr *DefectMgr) RegisterAdmin(_ *gin.RouterGroup) {}

// projectDefect loads a defect and checks it belongs to the project the
// request was authorized against.
func (mgr *DefectMgr) projectDefect(c *gin.Context, preload bool) (*model.Defect, bool) {
	projectID, err := strconv.ParseUint(c.Query("projectId"), 10, 32)
	if err != nil {
		resputil.BadRequestError(c, "Project ID is required")
		return nil, false
	}
	q := mgr.db.WithContext(c).Where("project_id = ?", uint(projectID))
	if preload {
		q = q.Preload("DefectStatus").Preload("Severity").Preload("Priority").
			Preload("DefectType").Preload("Module").Preload("SubModule").Preload("Assignee")
	}
	var defect model.Defect
	if dbErr := q.First(&defect, c.Param("defectId")).Error; dbErr != nil {
		resputil.NotFoundError(c, "Defect not found")
		return nil, false
	}
	return &defect, true
}

// fmtIDPtr renders an optional foreign key for the audit trail. A nil
// pointer means the field was unset, recorded as the empty string.
func fmtIDPtr(id *uint) string {
	if id == nil {
		return ""
	}
	return fmt.Sprint(*id)
}

type (
	DefectListReq struct {
		PageIndex  *int    `form:"pageIndex" binding:"required"`
		PageSize   *int    `form:"pageSize" binding:"required"`
		StatusID   *uint   `form:"statusId"`
		SeverityID *uint   `form:"severityId"`
		PriorityID *uint   `form:"priorityId"`
		ModuleID   *uint   `form:"moduleId"`
		AssignedTo *uint   `form:"assignedTo"`
		TitleLike  *string `form:"titleLike"`
	}

	DefectResp struct {
		ID               uint   `json:"id"`
		Title            string `json:"title"`
		Description      string `json:"description"`
		StepsToReproduce string `json:"stepsToReproduce"`
		ExpectedResult   string `json:"expectedResult"`
		ActualResult     string `json:"actualResult"`
		ProjectID        uint   `json:"projectId"`
		ModuleID         *uint  `json:"moduleId"`
		SubModuleID      *uint  `json:"subModuleId"`
		AssignedBy       *uint  `json:"assignedBy"`
		AssignedTo       *uint  `json:"assignedTo"`
		Status           string `json:"status"`
		Severity         string `json:"severity"`
		Priority         string `json:"priority"`
		Type             string `json:"type"`
		Environment      string `json:"environment"`
		Browser          string `json:"browser"`
		OS               string `json:"os"`
		ResolutionNotes  string `json:"resolutionNotes"`
		IsDuplicate      bool   `json:"isDuplicate"`
		DuplicateOf      *uint  `json:"duplicateOf"`
		IsActive         bool   `json:"isActive"`
	}
)

func toDefectResp(d model.Defect) DefectResp {
	return DefectResp{
		ID:               d.ID,
		Title:            d.Title,
		Description:      d.Description,
		StepsToReproduce: d.StepsToReproduce,
		ExpectedResult:   d.ExpectedResult,
		ActualResult:     d.ActualResult,
		ProjectID:        d.ProjectID,
		ModuleID:         d.ModuleID,
		SubModuleID:      d.SubModuleID,
		AssignedBy:       d.AssignedBy,
		AssignedTo:       d.AssignedTo,
		Status:           d.DefectStatus.Name,
		Severity:         d.Severity.Name,
		Priority:         d.Priority.Name,
		Type:             d.DefectType.Name,
		Environment:      d.Environment,
		Browser:          d.Browser,
		OS:               d.OS,
		ResolutionNotes:  d.ResolutionNotes,
		IsDuplicate:      d.IsDuplicate,
		DuplicateOf:      d.DuplicateOf,
		IsActive:         d.IsActive,
	}
}

// List godoc
// @Summary List defects of a project
// @Description Paged defect listing with status, severity, priority, module, assignee and title filters
// @Tags Defect
// @Produce json
// @Security Bearer
// @Param projectId query int true "project id"
// @Param page query DefectListReq true "pagination and filters"
// @Success 200 {object} resputil.Response[payload.ListResp[DefectResp]] "defect page"
// @Router /v1/defects [get]
func (mgr *DefectMgr) List(c *gin.Context) {
	var req DefectListReq
	if err := c.ShouldBindQuery(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	q := mgr.db.WithContext(c).Model(&model.Defect{}).
		Where("project_id = ? AND is_active = ?", c.Query("projectId"), true)
	if req.StatusID != nil {
		q = q.Where("defect_status_id = ?", *req.StatusID)
	}
	if req.SeverityID != nil {
		q = q.Where("severity_id = ?", *req.SeverityID)
	}
	if req.PriorityID != nil {
		q = q.Where("priority_id = ?", *req.PriorityID)
	}
	if req.ModuleID != nil {
		q = q.Where("module_id = ?", *req.ModuleID)
	}
	if req.AssignedTo != nil {
		q = q.Where("assigned_to = ?", *req.AssignedTo)
	}
	if req.TitleLike != nil {
		q = q.Where("title ILIKE ?", "%"+*req.TitleLike+"%")
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}

	var defects []model.Defect
	err := q.Preload("DefectStatus").Preload("Severity").Preload("Priority").Preload("DefectType").
		Order("id DESC").
		Offset(*req.PageIndex * *req.PageSize).
		Limit(*req.PageSize).
		Find(&defects).Error
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}

	resputil.Success(c, payload.ListResp[DefectResp]{
		Rows:  lo.Map(defects, func(d model.Defect, _ int) DefectResp { return toDefectResp(d) }),
		Count: count,
	})
}

type DefectCreateReq struct {
	Title             string `json:"title" binding:"required"`
	Description       string `json:"description" binding:"required"`
	StepsToReproduce  string `json:"stepsToReproduce"`
	ExpectedResult    string `json:"expectedResult"`
	ActualResult      string `json:"actualResult"`
	ModuleID          *uint  `json:"moduleId"`
	SubModuleID       *uint  `json:"subModuleId"`
	ReleaseTestCaseID *uint  `json:"releaseTestCaseId"`
	AssignedTo        *uint  `json:"assignedTo"`
	DefectStatusID    uint   `json:"defectStatusId" binding:"required"`
	TypeID            uint   `json:"typeId" binding:"required"`
	PriorityID        uint   `json:"priorityId" binding:"required"`
	SeverityID        uint   `json:"severityId" binding:"required"`
	Environment       string `json:"environment"`
	Browser           string `json:"browser"`
	OS                string `json:"os"`
}

// Create godoc
// @Summary Log a defect
// @Description Creates the defect and its first history row in one transaction; the assignee is mailed afterwards
// @Tags Defect
// @Accept json
// @Produce json
// @Security Bearer
// @Param projectId query int true "project id"
// @Param data body DefectCreateReq true "defect form"
// @Success 200 {object} resputil.Response[DefectResp] "created defect"
// @Failure 400 {object} resputil.Response[any] "validation error"
// @Router /v1/defects [post]
func (mgr *DefectMgr) Create(c *gin.Context) {
	token := util.GetToken(c)

	var req DefectCreateReq
	if err := c.ShouldBind(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	projectID, err := strconv.ParseUint(c.Query("projectId"), 10, 32)
	if err != nil {
		resputil.BadRequestError(c, "Project ID is required")
		return
	}

	defect := model.Defect{
		Title:             req.Title,
		Description:       req.Description,
		StepsToReproduce:  req.StepsToReproduce,
		ExpectedResult:    req.ExpectedResult,
		ActualResult:      req.ActualResult,
		ProjectID:         uint(projectID),
		ModuleID:          req.ModuleID,
		SubModuleID:       req.SubModuleID,
		ReleaseTestCaseID: req.ReleaseTestCaseID,
		AssignedTo:        req.AssignedTo,
		DefectStatusID:    req.DefectStatusID,
		TypeID:            req.TypeID,
		PriorityID:        req.PriorityID,
		SeverityID:        req.SeverityID,
		Environment:       req.Environment,
		Browser:           req.Browser,
		OS:                req.OS,
		IsActive:          true,
	}
	if req.AssignedTo != nil {
		defect.AssignedBy = &token.UserID
	}

	err = mgr.db.WithContext(c).Transaction(func(tx *gorm.DB) error {
		if inErr := tx.Create(&defect).Error; inErr != nil {
			return inErr
		}
		return tx.Create(&model.DefectHistory{
			DefectID:  defect.ID,
			Action:    model.HistoryCreated,
			NewValue:  defect.Title,
			ChangedBy: token.UserID,
		}).Error
	})
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}

	if defect.AssignedTo != nil {
		mgr.notifyAssignment(c, &defect, token.Username)
	}

	resputil.Success(c, toDefectResp(defect))
}

// notifyAssignment mails the assignee. Lookup failures only cost the
// notification, never the request.
func (mgr *DefectMgr) notifyAssignment(c *gin.Context, defect *model.Defect, assignerName string) {
	var assignee model.User
	if err := mgr.db.WithContext(c).First(&assignee, *defect.AssignedTo).Error; err != nil {
		return
	}
	mgr.notifier.DefectAssigned(c, assignee.Email, defect.Title, assignee.FirstName, assignerName)
}

// Get godoc
// @Summary Get one defect
// @Tags Defect
// @Produce json
// @Security Bearer
// @Param projectId query int true "project id"
// @Success 200 {object} resputil.Response[DefectResp] "defect detail"
// @Failure 404 {object} resputil.Response[any] "defect not in this project"
// @Router /v1/defects/{defectId} [get]
func (mgr *DefectMgr) Get(c *gin.Context) {
	defect, ok := mgr.projectDefect(c, true)
	if !ok {
		return
	}
	resputil.Success(c, toDefectResp(*defect))
}

type DefectUpdateReq struct {
	Title            *string `json:"title"`
	Description      *string `json:"description"`
	StepsToReproduce *string `json:"stepsToReproduce"`
	ExpectedResult   *string `json:"expectedResult"`
	ActualResult     *string `json:"actualResult"`
	ModuleID         *uint   `json:"moduleId"`
	SubModuleID      *uint   `json:"subModuleId"`
	TypeID           *uint   `json:"typeId"`
	PriorityID       *uint   `json:"priorityId"`
	SeverityID       *uint   `json:"severityId"`
	Environment      *string `json:"environment"`
	Browser          *string `json:"browser"`
	OS               *string `json:"os"`
	ResolutionNotes  *string `json:"resolutionNotes"`
	IsDuplicate      *bool   `json:"isDuplicate"`
	DuplicateOf      *uint   `json:"duplicateOf"`
}

// Update godoc
// @Summary Update a defect
// @Description Partial update; each changed field becomes its own history row in the same transaction
// @Tags Defect
// @Accept json
// @Produce json
// @Security Bearer
// @Param projectId query int true "project id"
// @Param data body DefectUpdateReq true "fields to change"
// @Success 200 {object} resputil.Response[DefectResp] "updated defect"
// @Failure 404 {object} resputil.Response[any] "defect not in this project"
// @Router /v1/defects/{defectId} [put]
func (mgr *DefectMgr) Update(c *gin.Context) {
	token := util.GetToken(c)

	var req DefectUpdateReq
	if err := c.ShouldBind(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	defect, ok := mgr.projectDefect(c, false)
	if !ok {
		return
	}

	type change struct {
		field    string
		oldValue string
		newValue string
	}
	updates := map[string]any{}
	var changes []change
	set := func(field, oldValue, newValue string, value any) {
		updates[field] = value
		changes = append(changes, change{field, oldValue, newValue})
	}
	if req.Title != nil && *req.Title != defect.Title {
		set("title", defect.Title, *req.Title, *req.Title)
	}
	if req.Description != nil && *req.Description != defect.Description {
		set("description", defect.Description, *req.Description, *req.Description)
	}
	if req.StepsToReproduce != nil {
		set("steps_to_reproduce", defect.StepsToReproduce, *req.StepsToReproduce, *req.StepsToReproduce)
	}
	if req.ExpectedResult != nil {
		set("expected_result", defect.ExpectedResult, *req.ExpectedResult, *req.ExpectedResult)
	}
	if req.ActualResult != nil {
		set("actual_result", defect.ActualResult, *req.ActualResult, *req.ActualResult)
	}
	if req.ModuleID != nil {
		set("module_id", fmtIDPtr(defect.ModuleID), fmt.Sprint(*req.ModuleID), *req.ModuleID)
	}
	if req.SubModuleID != nil {
		set("sub_module_id", fmtIDPtr(defect.SubModuleID), fmt.Sprint(*req.SubModuleID), *req.SubModuleID)
	}
	if req.TypeID != nil && *req.TypeID != defect.TypeID {
		set("type_id", fmt.Sprint(defect.TypeID), fmt.Sprint(*req.TypeID), *req.TypeID)
	}
	if req.PriorityID != nil && *req.PriorityID != defect.PriorityID {
		set("priority_id", fmt.Sprint(defect.PriorityID), fmt.Sprint(*req.PriorityID), *req.PriorityID)
	}
	if req.SeverityID != nil && *req.SeverityID != defect.SeverityID {
		set("severity_id", fmt.Sprint(defect.SeverityID), fmt.Sprint(*req.SeverityID), *req.SeverityID)
	}
	if req.Environment != nil {
		set("environment", defect.Environment, *req.Environment, *req.Environment)
	}
	if req.Browser != nil {
		set("browser", defect.Browser, *req.Browser, *req.Browser)
	}
	if req.OS != nil {
		set("os", defect.OS, *req.OS, *req.OS)
	}
	if req.ResolutionNotes != nil {
		set("resolution_notes", defect.ResolutionNotes, *req.ResolutionNotes, *req.ResolutionNotes)
	}
	if req.IsDuplicate != nil {
		set("is_duplicate", fmt.Sprint(defect.IsDuplicate), fmt.Sprint(*req.IsDuplicate), *req.IsDuplicate)
		if req.DuplicateOf != nil {
			updates["duplicate_of"] = *req.DuplicateOf
		}
	}
	if len(updates) == 0 {
		resputil.BadRequestError(c, "No fields to update")
		return
	}

	err := mgr.db.WithContext(c).Transaction(func(tx *gorm.DB) error {
		if inErr := tx.Model(defect).Updates(updates).Error; inErr != nil {
			return inErr
		}
		for _, ch := range changes {
			history := model.DefectHistory{
				DefectID:  defect.ID,
				Action:    model.HistoryUpdated,
				FieldName: ch.field,
				OldValue:  ch.oldValue,
				NewValue:  ch.newValue,
				ChangedBy: token.UserID,
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
	resputil.Success(c, toDefectResp(*defect))
}

type StatusChangeReq struct {
	DefectStatusID  uint    `json:"defectStatusId" binding:"required"`
	ResolutionNotes *string `json:"resolutionNotes"`
}

// ChangeStatus godoc
// @Summary Move a defect to another status
// @Description Writes a status_changed history row; the assignee is mailed after commit
// @Tags Defect
// @Accept json
// @Produce json
// @Security Bearer
// @Param projectId query int true "project id"
// @Param data body StatusChangeReq true "target status"
// @Success 200 {object} resputil.Response[DefectResp] "defect in its new status"
// @Failure 400 {object} resputil.Response[any] "unknown status"
// @Router /v1/defects/{defectId}/status [put]
func (mgr *DefectMgr) ChangeStatus(c *gin.Context) {
	token := util.GetToken(c)

	var req StatusChangeReq
	if err := c.ShouldBind(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	defect, ok := mgr.projectDefect(c, true)
	if !ok {
		return
	}

	var newStatus model.DefectStatus
	if err := mgr.db.WithContext(c).First(&newStatus, req.DefectStatusID).Error; err != nil {
		resputil.BadRequestError(c, "Status not found")
		return
	}
	oldStatus := defect.DefectStatus.Name

	updates := map[string]any{"defect_status_id": newStatus.ID}
	if req.ResolutionNotes != nil {
		updates["resolution_notes"] = *req.ResolutionNotes
	}
	err := mgr.db.WithContext(c).Transaction(func(tx *gorm.DB) error {
		if inErr := tx.Model(defect).Updates(updates).Error; inErr != nil {
			return inErr
		}
		return tx.Create(&model.DefectHistory{
			DefectID:  defect.ID,
			Action:    model.HistoryStatusChanged,
			FieldName: "defect_status_id",
			OldValue:  oldStatus,
			NewValue:  newStatus.Name,
			ChangedBy: token.UserID,
		}).Error
	})
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}

	var recipients []string
	if defect.AssignedTo != nil {
		var assignee model.User
		if err := mgr.db.WithContext(c).First(&assignee, *defect.AssignedTo).Error; err == nil {
			recipients = append(recipients, assignee.Email)
		}
	}
	if len(recipients) > 0 {
		mgr.notifier.DefectStatusChanged(c, recipients, defect.Title, token.Username, oldStatus, newStatus.Name)
	}

	defect.DefectStatus = newStatus
	defect.DefectStatusID = newStatus.ID
	resputil.Success(c, toDefectResp(*defect))
}

type AssignReq struct {
	AssignedTo uint `json:"assignedTo" binding:"required"`
}

// Assign godoc
// @Summary Assign a defect
// @Description Records the assignment in history and mails the new assignee
// @Tags Defect
// @Accept json
// @Produce json
// @Security Bearer
// @Param projectId query int true "project id"
// @Param data body AssignReq true "assignee"
// @Success 200 {object} resputil.Response[DefectResp] "assigned defect"
// @Failure 400 {object} resputil.Response[any] "unknown user"
// @Router /v1/defects/{defectId}/assign [put]
func (mgr *DefectMgr) Assign(c *gin.Context) {
	token := util.GetToken(c)

	var req AssignReq
	if err := c.ShouldBind(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	defect, ok := mgr.projectDefect(c, false)
	if !ok {
		return
	}

	var assignee model.User
	if err := mgr.db.WithContext(c).First(&assignee, req.AssignedTo).Error; err != nil {
		resputil.BadRequestError(c, "User not found")
		return
	}

	oldValue := fmtIDPtr(defect.AssignedTo)
	err := mgr.db.WithContext(c).Transaction(func(tx *gorm.DB) error {
		inErr := tx.Model(defect).
			Updates(map[string]any{"assigned_to": assignee.ID, "assigned_by": token.UserID}).Error
		if inErr != nil {
			return inErr
		}
		return tx.Create(&model.DefectHistory{
			DefectID:  defect.ID,
			Action:    model.HistoryAssigned,
			FieldName: "assigned_to",
			OldValue:  oldValue,
			NewValue:  fmt.Sprint(assignee.ID),
			ChangedBy: token.UserID,
		}).Error
	})
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}

	mgr.notifier.DefectAssigned(c, assignee.Email, defect.Title, assignee.FirstName, token.Username)

	resputil.Success(c, toDefectResp(*defect))
}

// Deactivate godoc
// @Summary Deactivate a defect
// @Description Clears the active flag so the defect leaves listings and dashboard metrics; history is kept
// @Tags Defect
// @Produce json
// @Security Bearer
// @Param projectId query int true "project id"
// @Success 200 {object} resputil.Response[any] "deactivated"
// @Failure 404 {object} resputil.Response[any] "defect not in this project"
// @Router /v1/defects/{defectId} [delete]
func (mgr *DefectMgr) Deactivate(c *gin.Context) {
	token := util.GetToken(c)

	defect, ok := mgr.projectDefect(c, false)
	if !ok {
		return
	}
	err := mgr.db.WithContext(c).Transaction(func(tx *gorm.DB) error {
		if inErr := tx.Model(defect).Update("is_active", false).Error; inErr != nil {
			return inErr
		}
		return tx.Create(&model.DefectHistory{
			DefectID:  defect.ID,
			Action:    model.HistoryDeleted,
			ChangedBy: token.UserID,
		}).Error
	})
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, gin.H{"id": defect.ID})
}

type DefectHistoryResp struct {
	ID        uint                `json:"id"`
	Action    model.HistoryAction `json:"action"`
	FieldName string              `json:"fieldName"`
	OldValue  string              `json:"oldValue"`
	NewValue  string              `json:"newValue"`
	ChangedBy uint                `json:"changedBy"`
}

// History godoc
// @Summary Audit trail of a defect
// @Tags Defect
// @Produce json
// @Security Bearer
// @Param projectId query int true "project id"
// @Success 200 {object} resputil.Response[[]DefectHistoryResp] "newest first"
// @Router /v1/defects/{defectId}/history [get]
func (mgr *DefectMgr) History(c *gin.Context) {
	defect, ok := mgr.projectDefect(c, false)
	if !ok {
		return
	}
	var rows []model.DefectHistory
	err := mgr.db.WithContext(c).
		Where("defect_id = ?", defect.ID).
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, lo.Map(rows, func(h model.DefectHistory, _ int) DefectHistoryResp {
		return DefectHistoryResp{
			ID:        h.ID,
			Action:    h.Action,
			FieldName: h.FieldName,
			OldValue:  h.OldValue,
			NewValue:  h.NewValue,
			ChangedBy: h.ChangedBy,
		}
	}))
}

type (
	CommentReq struct {
		Body string `json:"body" binding:"required"`
	}

	CommentResp struct {
		ID     uint   `json:"id"`
		UserID uint   `json:"userId"`
		Body   string `json:"body"`
	}
)

// AddComment godoc
// @Summary Comment on a defect
// @Tags Defect
// @Accept json
// @Produce json
// @Security Bearer
// @Param projectId query int true "project id"
// @Param data body CommentReq true "comment body"
// @Success 200 {object} resputil.Response[CommentResp] "created comment"
// @Router /v1/defects/{defectId}/comments [post]
func (mgr *DefectMgr) AddComment(c *gin.Context) {
	token := util.GetToken(c)

	var req CommentReq
	if err := c.ShouldBind(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	defect, ok := mgr.projectDefect(c, false)
	if !ok {
		return
	}

	comment := model.Comment{
		DefectID: defect.ID,
		UserID:   token.UserID,
		Body:     req.Body,
		IsActive: true,
	}
	if err := mgr.db.WithContext(c).Create(&comment).Error; err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, CommentResp{ID: comment.ID, UserID: comment.UserID, Body: comment.Body})
}

// ListComments godoc
// @Summary List comments of a defect
// @Tags Defect
// @Produce json
// @Security Bearer
// @Param projectId query int true "project id"
// @Success 200 {object} resputil.Response[[]CommentResp] "oldest first"
// @Router /v1/defects/{defectId}/comments [get]
func (mgr *DefectMgr) ListComments(c *gin.Context) {
	defect, ok := mgr.projectDefect(c, false)
	if !ok {
		return
	}
	var comments []model.Comment
	err := mgr.db.WithContext(c).
		Where("defect_id = ? AND is_active = ?", defect.ID, true).
		Order("id ASC").
		Find(&comments).Error
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, lo.Map(comments, func(cm model.Comment, _ int) CommentResp {
		return CommentResp{ID: cm.ID, UserID: cm.UserID, Body: cm.Body}
	}))
}
