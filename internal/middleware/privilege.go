package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/trackforge/defecttrack/dao/model"
	"github.com/trackforge/defecttrack/internal/authz"
	"github.com/trackforge/defecttrack/internal/resputil"
	"github.com/trackforge/defecttrack/internal/util"
)

// projectIDFromRequest reads the project id from the path parameter or,
// failing that, the query string.
func projectIDFromRequest(c *gin.Context) *uint {
	raw := c.Param("projectId")
	if raw == "" {
		raw = c.Query("projectId")
	}
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil
	}
	projectID := uint(id)
	return &projectID
}

// RequirePrivilege gates a route on the cascading privilege resolution.
// A denial maps to 403; a resolver failure maps to 500 and is never
// reported as a denial.
func RequirePrivilege(resolver *authz.Resolver, module string, action model.Action, projectScoped bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := util.GetToken(c)

		var projectID *uint
		if projectScoped {
			projectID = projectIDFromRequest(c)
			if projectID == nil {
				resputil.BadRequestError(c, "Project ID is required")
				c.Abort()
				return
			}
		}

		allowed, err := resolver.Authorize(c, token.UserID, module, action, projectID)
		if err != nil {
			resputil.Error(c, "Authorization check failed", resputil.InternalError)
			c.Abort()
			return
		}
		if !allowed {
			resputil.HTTPError(c, http.StatusForbidden,
				"Insufficient privileges to access this resource", resputil.UserNotAllowed)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireProjectAccess is the coarse membership gate applied before the
// finer-grained privilege checks on project-scoped routes: project owner
// or an active allocation passes.
func RequireProjectAccess(resolver *authz.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := util.GetToken(c)

		projectID := projectIDFromRequest(c)
		if projectID == nil {
			resputil.BadRequestError(c, "Project ID is required")
			c.Abort()
			return
		}

		member, err := resolver.IsProjectMember(c, token.UserID, *projectID)
		if err != nil {
			resputil.Error(c, "Project access check failed", resputil.InternalError)
			c.Abort()
			return
		}
		if !member {
			resputil.HTTPError(c, http.StatusForbidden,
				"Access denied. You are not associated with this project.", resputil.NotProjectMember)
			c.Abort()
			return
		}
		c.Next()
	}
}
