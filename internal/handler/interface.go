package handler

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/trackforge/defecttrack/internal/authz"
	"github.com/trackforge/defecttrack/internal/dashboard"
	"github.com/trackforge/defecttrack/pkg/notify"
)

type Manager interface {
	GetName() string
	RegisterPublic(group *gin.RouterGroup)
	RegisterProtected(group *gin.RouterGroup)
	RegisterAdmin(group *gin.RouterGroup)
}

// RegisterConfig carries the shared dependencies handed to every manager
// constructor at startup.
type RegisterConfig struct {
	DB       *gorm.DB
	Resolver *authz.Resolver
	Engine   *dashboard.Engine
	Notifier notify.Notifier
}

type ManagerRegister func(conf *RegisterConfig) Manager

// Registers is filled by the init() of each manager file.
var Registers []ManagerRegister
