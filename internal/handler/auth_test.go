package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/trackforge/defecttrack/pkg/config"
)

const testConfig = `
host: localhost
serverAddr: ":0"
auth:
  accessTokenSecret: "test-access-secret"
  refreshTokenSecret: "test-refresh-secret"
  accessTokenExpiryHour: 1
  refreshTokenExpiryHour: 24
`

// TestMain pins the config singleton to a throwaway file before any
// manager constructor touches the token manager.
func TestMain(m *testing.M) {
	f, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err = f.WriteString(testConfig); err != nil {
		panic(err)
	}
	_ = f.Close()
	os.Setenv("DEFECTTRACK_DEBUG_CONFIG_PATH", f.Name())
	config.GetConfig()
	gin.SetMode(gin.TestMode)

	code := m.Run()
	_ = os.Remove(f.Name())
	os.Exit(code)
}

// captureNotifier records which notifications fired without delivering.
type captureNotifier struct {
	welcomes     int
	loginNotices int
}

func (n *captureNotifier) Welcome(context.Context, string, string, string, string) { n.welcomes++ }
func (n *captureNotifier) LoginNotice(context.Context, string, string, string, string, string, string) {
	n.loginNotices++
}
func (n *captureNotifier) DefectAssigned(context.Context, string, string, string, string) {}
func (n *captureNotifier) DefectStatusChanged(context.Context, []string, string, string, string, string) {
}
func (n *captureNotifier) ProjectAssigned(context.Context, string, string, string, string) {}
func (n *captureNotifier) ReleaseCreated(context.Context, []string, string, string, string)  {}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	require.NoError(t, err)
	return db, mock
}

func newAuthRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock, *captureNotifier) {
	t.Helper()
	db, mock := newMockDB(t)
	notifier := &captureNotifier{}
	mgr := NewAuthMgr(&RegisterConfig{DB: db, Notifier: notifier}).(*AuthMgr)

	r := gin.New()
	mgr.RegisterPublic(r.Group("/auth"))
	return r, mock, notifier
}

func userColumns() []string {
	return []string{"id", "username", "first_name", "last_name", "email", "password", "role", "is_active"}
}

func TestLoginIssuesTokens(t *testing.T) {
	r, mock, notifier := newAuthRouter(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows(userColumns()).
			AddRow(7, "US0007", "Ada", "L", "ada@example.com", string(hash), 2, true))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	body, _ := json.Marshal(LoginReq{Username: "US0007", Password: "hunter2hunter2"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Data LoginResp `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Data.AccessToken)
	assert.NotEmpty(t, resp.Data.RefreshToken)
	assert.Equal(t, uint(7), resp.Data.Context.UserID)
	assert.Equal(t, 1, notifier.loginNotices)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginWrongPassword(t *testing.T) {
	r, mock, notifier := newAuthRouter(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.MinCost)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows(userColumns()).
			AddRow(7, "US0007", "Ada", "L", "ada@example.com", string(hash), 2, true))

	body, _ := json.Marshal(LoginReq{Username: "US0007", Password: "wrong-password"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, notifier.loginNotices)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginInactiveUser(t *testing.T) {
	r, mock, _ := newAuthRouter(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows(userColumns()).
			AddRow(7, "US0007", "Ada", "L", "ada@example.com", string(hash), 2, false))

	body, _ := json.Marshal(LoginReq{Username: "US0007", Password: "hunter2hunter2"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	// The password was right; the account state blocks the login.
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterGeneratesSequentialUsername(t *testing.T) {
	r, mock, notifier := newAuthRouter(t)

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows(userColumns()))
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(41))
	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
	mock.ExpectCommit()

	body, _ := json.Marshal(RegisterReq{
		FirstName: "Grace",
		Email:     "grace@example.com",
		Password:  "s3cret-password",
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Data RegisterResp `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "US0042", resp.Data.Username)
	assert.Equal(t, 1, notifier.welcomes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	r, mock, notifier := newAuthRouter(t)

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows(userColumns()).
			AddRow(7, "US0007", "Ada", "L", "ada@example.com", "x", 2, true))

	body, _ := json.Marshal(RegisterReq{
		FirstName: "Ada",
		Email:     "ada@example.com",
		Password:  "s3cret-password",
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, notifier.welcomes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshRejectsGarbageToken(t *testing.T) {
	r, _, _ := newAuthRouter(t)

	body, _ := json.Marshal(RefreshReq{RefreshToken: "not-a-jwt"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
