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
	Registers = append(Registers, NewSMTPMgr)
}

// SMTPMgr lets admins manage the mail configuration at runtime. The
// notifier always picks the newest active row, so creating a new setting
// takes effect without a restart.
type SMTPMgr struct {
	name string
	db   *gorm.DB
}

func NewSMTPMgr(conf *RegisterConfig) Manager {
	return &SMTPMgr{
		name: "smtp",
		db:   conf.DB,
	}
}

func (mgr *SMTPMgr) GetName() string { return mgr.name }

func (mgr *SMTPMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *SMTPMgr) RegisterProtected(_ *gin.RouterGroup) {}

func (mgr *SMTPMgr) RegisterAdmin(g *gin.RouterGroup) {
	g.GET("", mgr.List)
	g.POST("", mgr.Create)
	g.PUT(":settingId", mgr.Update)
	g.DELETE(":settingId", mgr.Deactivate)
}

type (
	SMTPCreateReq struct {
		Host      string `json:"host" binding:"required"`
		Port      int    `json:"port" binding:"required"`
		Username  string `json:"username" binding:"required"`
		Password  string `json:"password" binding:"required"`
		FromEmail string `json:"fromEmail" binding:"required,email"`
		FromName  string `json:"fromName"`
		UseTLS    *bool  `json:"useTLS"`
	}

	// SMTPResp never echoes the password.
	SMTPResp struct {
		ID        uint   `json:"id"`
		Host      string `json:"host"`
		Port      int    `json:"port"`
		Username  string `json:"username"`
		FromEmail string `json:"fromEmail"`
		FromName  string `json:"fromName"`
		UseTLS    bool   `json:"useTLS"`
		IsActive  bool   `json:"isActive"`
	}
)

func toSMTPResp(s model.SMTPSetting) SMTPResp {
	return SMTPResp{
		ID:        s.ID,
		Host:      s.Host,
		Port:      s.Port,
		Username:  s.Username,
		FromEmail: s.FromEmail,
		FromName:  s.FromName,
		UseTLS:    s.UseTLS,
		IsActive:  s.IsActive,
	}
}

// List godoc
// @Summary List mail settings
// @Tags SMTP
// @Produce json
// @Security Bearer
// @Success 200 {object} resputil.Response[[]SMTPResp] "newest first; the first active row is in use"
// @Router /v1/admin/smtp [get]
func (mgr *SMTPMgr) List(c *gin.Context) {
	var rows []model.SMTPSetting
	if err := mgr.db.WithContext(c).Order("id DESC").Find(&rows).Error; err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, lo.Map(rows, func(s model.SMTPSetting, _ int) SMTPResp { return toSMTPResp(s) }))
}

// Create godoc
// @Summary Create a mail setting
// @Description The new row becomes the active configuration immediately
// @Tags SMTP
// @Accept json
// @Produce json
// @Security Bearer
// @Param data body SMTPCreateReq true "smtp parameters"
// @Success 200 {object} resputil.Response[SMTPResp] "created setting"
// @Router /v1/admin/smtp [post]
func (mgr *SMTPMgr) Create(c *gin.Context) {
	var req SMTPCreateReq
	if err := c.ShouldBind(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	useTLS := true
	if req.UseTLS != nil {
		useTLS = *req.UseTLS
	}
	setting := model.SMTPSetting{
		Host:      req.Host,
		Port:      req.Port,
		Username:  req.Username,
		Password:  req.Password,
		FromEmail: req.FromEmail,
		FromName:  req.FromName,
		UseTLS:    useTLS,
		IsActive:  true,
	}
	if err := mgr.db.WithContext(c).Create(&setting).Error; err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, toSMTPResp(setting))
}

type SMTPUpdateReq struct {
	Host      *string `json:"host"`
	Port      *int    `json:"port"`
	Username  *string `json:"username"`
	Password  *string `json:"password"`
	FromEmail *string `json:"fromEmail"`
	FromName  *string `json:"fromName"`
	UseTLS    *bool   `json:"useTLS"`
	IsActive  *bool   `json:"isActive"`
}

// Update godoc
// @Summary Update a mail setting
// @Tags SMTP
// @Accept json
// @Produce json
// @Security Bearer
// @Param data body SMTPUpdateReq true "fields to change"
// @Success 200 {object} resputil.Response[SMTPResp] "updated setting"
// @Failure 404 {object} resputil.Response[any] "unknown setting"
// @Router /v1/admin/smtp/{settingId} [put]
func (mgr *SMTPMgr) Update(c *gin.Context) {
	var req SMTPUpdateReq
	if err := c.ShouldBind(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	var setting model.SMTPSetting
	if err := mgr.db.WithContext(c).First(&setting, c.Param("settingId")).Error; err != nil {
		resputil.NotFoundError(c, "SMTP setting not found")
		return
	}

	updates := map[string]any{}
	if req.Host != nil {
		updates["host"] = *req.Host
	}
	if req.Port != nil {
		updates["port"] = *req.Port
	}
	if req.Username != nil {
		updates["username"] = *req.Username
	}
	if req.Password != nil {
		updates["password"] = *req.Password
	}
	if req.FromEmail != nil {
		updates["from_email"] = *req.FromEmail
	}
	if req.FromName != nil {
		updates["from_name"] = *req.FromName
	}
	if req.UseTLS != nil {
		updates["use_tls"] = *req.UseTLS
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		resputil.BadRequestError(c, "No fields to update")
		return
	}
	if err := mgr.db.WithContext(c).Model(&setting).Updates(updates).Error; err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, toSMTPResp(setting))
}

// Deactivate godoc
// @Summary Deactivate a mail setting
// @Description The notifier falls back to the next active row, then to the config file
// @Tags SMTP
// @Produce json
// @Security Bearer
// @Success 200 {object} resputil.Response[any] "deactivated"
// @Failure 404 {object} resputil.Response[any] "unknown setting"
// @Router /v1/admin/smtp/{settingId} [delete]
func (mgr *SMTPMgr) Deactivate(c *gin.Context) {
	var setting model.SMTPSetting
	if err := mgr.db.WithContext(c).First(&setting, c.Param("settingId")).Error; err != nil {
		resputil.NotFoundError(c, "SMTP setting not found")
		return
	}
	if err := mgr.db.WithContext(c).Model(&setting).Update("is_active", false).Error; err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, gin.H{"id": setting.ID})
}
