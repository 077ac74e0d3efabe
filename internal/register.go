package internal

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	docs "github.com/trackforge/defecttrack/docs"
	"github.com/trackforge/defecttrack/internal/handler"
	"github.com/trackforge/defecttrack/internal/middleware"
	"github.com/trackforge/defecttrack/pkg/config"
	"github.com/trackforge/defecttrack/pkg/logutils"
)

const apiPrefix = "/v1"

type Backend struct {
	R *gin.Engine
}

// Register builds the gin engine: the health endpoint, the three route
// tiers (public, protected, admin) and one route group per manager. The
// prometheus exposition lives on its own listener, see middleware.Handler.
func Register(conf *handler.RegisterConfig) *Backend {
	s := new(Backend)
	s.R = gin.Default()
	s.R.Use(middleware.RequestID(), middleware.Metrics())

	// Liveness probe
	s.R.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})

	s.registerService(conf)

	// Swagger
	docs.SwaggerInfo.BasePath = "/"
	s.R.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return s
}

func (b *Backend) registerService(conf *handler.RegisterConfig) {
	// Enable CORS for the frontend dev server in debug mode
	if gin.Mode() == gin.DebugMode {
		fe := config.GetConfig().FrontendURL
		if fe != "" {
			corsConf := cors.DefaultConfig()
			corsConf.AllowOrigins = []string{fe}
			corsConf.AllowHeaders = append(corsConf.AllowHeaders, "Authorization")
			b.R.Use(cors.New(corsConf))
		}
	}

	managers := make([]handler.Manager, 0, len(handler.Registers))
	for _, register := range handler.Registers {
		manager := register(conf)
		managers = append(managers, manager)
		logutils.Log.Infof("Registered manager: %s", manager.GetName())
	}

	publicRouter := b.R.Group(apiPrefix)

	protectedRouter := b.R.Group(apiPrefix)
	protectedRouter.Use(middleware.AuthProtected(conf.DB))

	adminRouter := b.R.Group(apiPrefix + "/admin")
	adminRouter.Use(middleware.AuthProtected(conf.DB), middleware.AuthAdmin())

	for _, manager := range managers {
		name := manager.GetName()
		manager.RegisterPublic(publicRouter.Group(name))
		manager.RegisterProtected(protectedRouter.Group(name))
		manager.RegisterAdmin(adminRouter.Group(name))
	}
}
