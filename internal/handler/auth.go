package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/trackforge/defecttrack/dao/model"
	"github.com/trackforge/defecttrack/internal/resputil"
	"github.com/trackforge/defecttrack/internal/util"
	"github.com/trackforge/defecttrack/pkg/logutils"
	"github.com/trackforge/defecttrack/pkg/notify"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewAuthMgr)
}

type AuthMgr struct {
	name     string
	db       *gorm.DB
	tokenMgr *util.TokenManager
	notifier notify.Notifier
}

func NewAuthMgr(conf *RegisterConfig) Manager {
	return &AuthMgr{
		name:     "auth",
		db:       conf.DB,
		tokenMgr: util.GetTokenMgr(),
		notifier: conf.Notifier,
	}
}

func (mgr *AuthMgr) GetName() string { return mgr.name }

func (mgr *AuthMgr) RegisterPublic(g *gin.RouterGroup) {
	g.POST("/register", mgr.Register)
	g.POST("/login", mgr.Login)
	g.POST("/refresh", mgr.RefreshToken)
}

func (mgr *AuthMgr) RegisterProtected(g *gin.RouterGroup) {
	g.GET("/me", mgr.Me)
}

func (mgr *AuthMgr) RegisterAdmin(_ *gin.RouterGroup) {}

type (
	RegisterReq struct {
		FirstName     string  `json:"firstName" binding:"required"`
		LastName      string  `json:"lastName"`
		Email         string  `json:"email" binding:"required,email"`
		Password      string  `json:"password" binding:"required,min=8"`
		Phone         *string `json:"phone"`
		DesignationID *uint   `json:"designationId"`
	}

	RegisterResp struct {
		ID       uint   `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
	}
)

// nextUsername derives the next sequential login name. Counting includes
// soft-deleted rows so a removed user never frees its number.
func nextUsername(tx *gorm.DB) (string, error) {
	var count int64
	if err := tx.Unscoped().Model(&model.User{}).Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("US%04d", count+1), nil
}

// Register godoc
// @Summary Register a new user
// @Description Creates the user with a generated sequential username and mails the credentials
// @Tags Auth
// @Accept json
// @Produce json
// @Param data body RegisterReq true "registration form"
// @Success 200 {object} resputil.Response[RegisterResp] "created user summary"
// @Failure 400 {object} resputil.Response[any] "validation error or duplicate email"
// @Failure 500 {object} resputil.Response[any] "other errors"
// @Router /auth/register [post]
func (mgr *AuthMgr) Register(c *gin.Context) {
	var req RegisterReq
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

	user := model.User{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		Password:      string(hash),
		Role:          model.RoleUser,
		Phone:         req.Phone,
		DesignationID: req.DesignationID,
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

	resputil.Success(c, RegisterResp{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	})
}

type (
	LoginReq struct {
		Username string `json:"username" binding:"required"` // login name or email
		Password string `json:"password" binding:"required"`
	}

	LoginResp struct {
		AccessToken  string      `json:"accessToken"`
		RefreshToken string      `json:"refreshToken"`
		Context      UserContext `json:"context"`
	}

	UserContext struct {
		UserID    uint               `json:"userId"`
		Username  string             `json:"username"`
		FirstName string             `json:"firstName"`
		Role      model.PlatformRole `json:"role"`
	}
)

// Login godoc
// @Summary User login
// @Description Verifies the credentials and issues a JWT access/refresh token pair
// @Tags Auth
// @Accept json
// @Produce json
// @Param data body LoginReq true "credentials"
// @Success 200 {object} resputil.Response[LoginResp] "token pair and user context"
// @Failure 400 {object} resputil.Response[any] "validation error"
// @Failure 401 {object} resputil.Response[any] "wrong credentials or inactive user"
// @Failure 500 {object} resputil.Response[any] "other errors"
// @Router /auth/login [post]
func (mgr *AuthMgr) Login(c *gin.Context) {
	var req LoginReq
	if err := c.ShouldBind(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	l := logutils.Log.WithField("username", req.Username)

	var user model.User
	err := mgr.db.WithContext(c).
		Where("username = ? OR email = ?", req.Username, req.Username).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Info("login failed: user not found")
			resputil.HTTPError(c, http.StatusUnauthorized, "Invalid credentials", resputil.InvalidCredentials)
			return
		}
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		l.Info("login failed: wrong password")
		resputil.HTTPError(c, http.StatusUnauthorized, "Invalid credentials", resputil.InvalidCredentials)
		return
	}
	if !user.IsActive {
		l.Info("login failed: user inactive")
		resputil.HTTPError(c, http.StatusUnauthorized, "User is not active", resputil.UserInactive)
		return
	}

	now := time.Now()
	if err = mgr.db.WithContext(c).Model(&user).Update("last_login", now).Error; err != nil {
		// Login still succeeds; the timestamp is best-effort.
		l.Warn("update last_login: ", err)
	}

	jwtMessage := util.JWTMessage{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	}
	accessToken, refreshToken, err := mgr.tokenMgr.CreateTokens(&jwtMessage)
	if err != nil {
		resputil.HTTPError(c, http.StatusInternalServerError, err.Error(), resputil.NotSpecified)
		return
	}

	mgr.notifier.LoginNotice(c, user.Email, user.Username, user.FirstName,
		now.Format(time.RFC1123), c.ClientIP(), c.Request.UserAgent())

	resputil.Success(c, LoginResp{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Context: UserContext{
			UserID:    user.ID,
			Username:  user.Username,
			FirstName: user.FirstName,
			Role:      user.Role,
		},
	})
}

type (
	RefreshReq struct {
		RefreshToken string `json:"refreshToken" binding:"required"` // without the `Bearer ` prefix
	}

	RefreshResp struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
)

// RefreshToken godoc
// @Summary Refresh the token pair
// @Tags Auth
// @Accept json
// @Produce json
// @Param data body RefreshReq true "refresh token"
// @Success 200 {object} resputil.Response[RefreshResp] "new token pair"
// @Failure 401 {object} resputil.Response[any] "expired or malformed token"
// @Router /auth/refresh [post]
func (mgr *AuthMgr) RefreshToken(c *gin.Context) {
	var req RefreshReq
	if err := c.ShouldBind(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	claims, err := mgr.tokenMgr.CheckToken(req.RefreshToken)
	if err != nil {
		resputil.HTTPError(c, http.StatusUnauthorized, "Invalid refresh token", resputil.TokenInvalid)
		return
	}

	accessToken, refreshToken, err := mgr.tokenMgr.CreateTokens(&claims)
	if err != nil {
		resputil.HTTPError(c, http.StatusInternalServerError, err.Error(), resputil.NotSpecified)
		return
	}

	resputil.Success(c, RefreshResp{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

type MeResp struct {
	ID          uint               `json:"id"`
	Username    string             `json:"username"`
	FirstName   string             `json:"firstName"`
	LastName    string             `json:"lastName"`
	Email       string             `json:"email"`
	Role        model.PlatformRole `json:"role"`
	Designation *string            `json:"designation"`
	LastLogin   *time.Time         `json:"lastLogin"`
}

// Me godoc
// @Summary Current user profile
// @Tags Auth
// @Produce json
// @Security Bearer
// @Success 200 {object} resputil.Response[MeResp] "profile of the token's user"
// @Failure 404 {object} resputil.Response[any] "user no longer exists"
// @Router /v1/auth/me [get]
func (mgr *AuthMgr) Me(c *gin.Context) {
	token := util.GetToken(c)

	var user model.User
	err := mgr.db.WithContext(c).Preload("Designation").First(&user, token.UserID).Error
	if err != nil {
		resputil.NotFoundError(c, "User not found")
		return
	}

	resp := MeResp{
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Role:      user.Role,
		LastLogin: user.LastLogin,
	}
	if user.Designation != nil {
		resp.Designation = &user.Designation.Name
	}
	resputil.Success(c, resp)
}
