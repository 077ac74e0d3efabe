package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackforge/defecttrack/dao/model"
	"github.com/trackforge/defecttrack/internal/authz"
	"github.com/trackforge/defecttrack/internal/resputil"
	"github.com/trackforge/defecttrack/internal/util"
)

// fakeStore answers every lookup with fixed values; err poisons all of them.
type fakeStore struct {
	userGrant bool
	roleGrant bool
	owner     bool
	allocated bool
	err       error
}

func (f fakeStore) HasUserPrivilege(context.Context, uint, string, model.Action, *uint) (bool, error) {
	return f.userGrant, f.err
}

func (f fakeStore) HasProjectPrivilege(context.Context, uint, uint, string, model.Action) (bool, error) {
	return false, f.err
}

func (f fakeStore) ActiveAllocationRole(context.Context, uint, *uint) (uint, bool, error) {
	return 1, f.roleGrant, f.err
}

func (f fakeStore) HasGroupPrivilege(context.Context, uint, string, model.Action) (bool, error) {
	return f.roleGrant, f.err
}

func (f fakeStore) IsProjectOwner(context.Context, uint, uint) (bool, error) {
	return f.owner, f.err
}

func (f fakeStore) HasActiveAllocation(context.Context, uint, uint) (bool, error) {
	return f.allocated, f.err
}

func runRequest(t *testing.T, target string, mw gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/p/:projectId/defects", func(c *gin.Context) {
		util.SetJWTContext(c, util.JWTMessage{UserID: 7, Username: "US0007", Role: model.RoleUser})
	}, mw, func(c *gin.Context) {
		resputil.Success(c, "reached")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
	r.ServeHTTP(w, req)
	return w
}

func respCode(t *testing.T, w *httptest.ResponseRecorder) resputil.ErrorCode {
	t.Helper()
	var body struct {
		Code resputil.ErrorCode `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Code
}

func TestRequirePrivilegeAllows(t *testing.T) {
	store := fakeStore{userGrant: true}
	mw := RequirePrivilege(authz.NewResolver(store), model.ModuleDefects, model.ActionRead, true)

	w := runRequest(t, "/p/3/defects", mw)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, resputil.OK, respCode(t, w))
}

func TestRequirePrivilegeDenies(t *testing.T) {
	store := fakeStore{}
	mw := RequirePrivilege(authz.NewResolver(store), model.ModuleDefects, model.ActionRead, true)

	w := runRequest(t, "/p/3/defects", mw)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, resputil.UserNotAllowed, respCode(t, w))
}

func TestRequirePrivilegeStoreErrorIs500(t *testing.T) {
	store := fakeStore{err: errors.New("connection refused")}
	mw := RequirePrivilege(authz.NewResolver(store), model.ModuleDefects, model.ActionRead, true)

	w := runRequest(t, "/p/3/defects", mw)

	// A lookup failure must surface as a server error, never a denial.
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, resputil.InternalError, respCode(t, w))
}

func TestRequirePrivilegeScopedWithoutProjectID(t *testing.T) {
	store := fakeStore{userGrant: true}
	mw := RequirePrivilege(authz.NewResolver(store), model.ModuleDefects, model.ActionRead, true)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/defects", func(c *gin.Context) {
		util.SetJWTContext(c, util.JWTMessage{UserID: 7})
	}, mw, func(c *gin.Context) {
		resputil.Success(c, "reached")
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/defects", http.NoBody))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequireProjectAccessMember(t *testing.T) {
	store := fakeStore{allocated: true}
	mw := RequireProjectAccess(authz.NewResolver(store))

	w := runRequest(t, "/p/3/defects", mw)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireProjectAccessOutsider(t *testing.T) {
	store := fakeStore{}
	mw := RequireProjectAccess(authz.NewResolver(store))

	w := runRequest(t, "/p/3/defects", mw)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, resputil.NotProjectMember, respCode(t, w))
}

func TestProjectIDFromRequestPrefersPath(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var got *uint
	r.GET("/p/:projectId", func(c *gin.Context) {
		got = projectIDFromRequest(c)
		c.Status(http.StatusOK)
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/p/12?projectId=99", http.NoBody))

	require.NotNil(t, got)
	assert.Equal(t, uint(12), *got)
}

func TestAuthAdminRejectsNonAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin", func(c *gin.Context) {
		util.SetJWTContext(c, util.JWTMessage{UserID: 7, Role: model.RoleUser})
	}, AuthAdmin(), func(c *gin.Context) {
		resputil.Success(c, "reached")
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", http.NoBody))

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuthAdminPassesAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin", func(c *gin.Context) {
		util.SetJWTContext(c, util.JWTMessage{UserID: 7, Role: model.RoleAdmin})
	}, AuthAdmin(), func(c *gin.Context) {
		resputil.Success(c, "reached")
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", http.NoBody))

	assert.Equal(t, http.StatusOK, w.Code)
}
