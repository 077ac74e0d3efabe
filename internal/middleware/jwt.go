package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/trackforge/defecttrack/dao/model"
	"github.com/trackforge/defecttrack/internal/resputil"
	"github.com/trackforge/defecttrack/internal/util"
)

// AuthProtected validates the bearer token and loads its claims into the
// gin context. For mutating methods the user row is re-checked against
// the database so a deactivated account cannot keep writing on a token
// issued earlier.
func AuthProtected(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.Request.Header.Get("Authorization")
		t := strings.Split(authHeader, " ")
		if len(t) < 2 || t[0] != "Bearer" {
			resputil.HTTPError(c, http.StatusUnauthorized, "Invalid token", resputil.TokenInvalid)
			c.Abort()
			return
		}

		authToken := t[1]
		token, err := util.GetTokenMgr().CheckToken(authToken)
		if err != nil {
			resputil.HTTPError(c, http.StatusUnauthorized, err.Error(), resputil.TokenExpired)
			c.Abort()
			return
		}

		if c.Request.Method != http.MethodGet {
			var user model.User
			err := db.WithContext(c).Where("id = ?", token.UserID).First(&user).Error
			if err != nil {
				resputil.HTTPError(c, http.StatusUnauthorized, "User not found", resputil.TokenInvalid)
				c.Abort()
				return
			}
			if !user.IsActive {
				resputil.HTTPError(c, http.StatusUnauthorized, "User is inactive", resputil.UserInactive)
				c.Abort()
				return
			}
			if user.Role != token.Role {
				resputil.HTTPError(c, http.StatusUnauthorized, "Platform role not match", resputil.TokenInvalid)
				c.Abort()
				return
			}
		}

		// For GET requests the claims from the token are trusted as-is.
		util.SetJWTContext(c, token)
		c.Next()
	}
}

// AuthAdmin requires the platform admin role on top of AuthProtected.
func AuthAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := util.GetToken(c)
		if token.Role != model.RoleAdmin {
			resputil.HTTPError(c, http.StatusForbidden, "Not Admin", resputil.UserNotAllowed)
			c.Abort()
			return
		}
		c.Next()
	}
}
