package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackforge/defecttrack/dao/model"
	"github.com/trackforge/defecttrack/internal/util"
)

// newDefectRouter wires the update route behind a stub auth context; the
// privilege middleware has its own tests.
func newDefectRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newMockDB(t)
	mgr := NewDefectMgr(&RegisterConfig{DB: db, Notifier: &captureNotifier{}}).(*DefectMgr)

	r := gin.New()
	r.PUT("/defects/:defectId", func(c *gin.Context) {
		util.SetJWTContext(c, util.JWTMessage{UserID: 7, Username: "US0007", Role: model.RoleUser})
	}, mgr.Update)
	return r, mock
}

func defectColumns() []string {
	return []string{
		"id", "title", "description", "project_id", "module_id", "sub_module_id",
		"defect_status_id", "type_id", "priority_id", "severity_id", "is_active",
	}
}

func putDefectUpdate(t *testing.T, r *gin.Engine, req DefectUpdateReq) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	httpReq := httptest.NewRequest(http.MethodPut, "/defects/12?projectId=3", bytes.NewReader(body))
	httpReq.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, httpReq)
	return w
}

func TestUpdateRecordsModuleChangeValues(t *testing.T) {
	r, mock := newDefectRouter(t)

	mock.ExpectQuery(`SELECT \* FROM "defects"`).
		WillReturnRows(sqlmock.NewRows(defectColumns()).
			AddRow(12, "Cart total wrong", "desc", 3, 4, nil, 1, 1, 1, 1, true))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "defects" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	// The audit row carries the ids as decimal strings, old then new.
	mock.ExpectQuery(`INSERT INTO "defect_histories"`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), nil,
			12, "updated", "module_id", "4", "9", 7).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	newModule := uint(9)
	w := putDefectUpdate(t, r, DefectUpdateReq{ModuleID: &newModule})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRecordsUnsetModuleAsEmpty(t *testing.T) {
	r, mock := newDefectRouter(t)

	// The defect had no module; the old value is blank, never a placeholder.
	mock.ExpectQuery(`SELECT \* FROM "defects"`).
		WillReturnRows(sqlmock.NewRows(defectColumns()).
			AddRow(12, "Cart total wrong", "desc", 3, nil, nil, 1, 1, 1, 1, true))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "defects" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "defect_histories"`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), nil,
			12, "updated", "sub_module_id", "", "5", 7).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	newSubModule := uint(5)
	w := putDefectUpdate(t, r, DefectUpdateReq{SubModuleID: &newSubModule})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}
