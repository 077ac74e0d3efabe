package dashboard

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestSeverityWeight(t *testing.T) {
	assert.Equal(t, 3, SeverityWeight("High"))
	assert.Equal(t, 3, SeverityWeight("HIGH"))
	assert.Equal(t, 2, SeverityWeight("medium"))
	assert.Equal(t, 1, SeverityWeight("low"))
	// Unrecognized names intentionally fall back to the lowest weight.
	assert.Equal(t, 1, SeverityWeight("Critical"))
	assert.Equal(t, 1, SeverityWeight(""))
}

func TestDSIFromCountsBounds(t *testing.T) {
	assert.Equal(t, 0.0, DSIFromCounts(nil), "no defects means zero, not an error")
	assert.Equal(t, 0.0, DSIFromCounts(map[string]int64{}))

	allHigh := DSIFromCounts(map[string]int64{"High": 10})
	assert.Equal(t, 100.0, allHigh)

	allLow := DSIFromCounts(map[string]int64{"Low": 10})
	assert.InDelta(t, 33.33, allLow, 0.001)

	mixed := DSIFromCounts(map[string]int64{"High": 1, "Medium": 1, "Low": 1})
	assert.GreaterOrEqual(t, mixed, 0.0)
	assert.LessOrEqual(t, mixed, 100.0)
}

func TestDSIMonotonicInSeverity(t *testing.T) {
	// Moving one defect from low to high for a fixed total never
	// decreases the index.
	before := DSIFromCounts(map[string]int64{"High": 2, "Low": 3})
	after := DSIFromCounts(map[string]int64{"High": 3, "Low": 2})
	assert.GreaterOrEqual(t, after, before)
}

func TestDSIEndToEndExample(t *testing.T) {
	// Two highs and a low: weighted 7 of max 9.
	pct := DSIFromCounts(map[string]int64{"High": 2, "Low": 1})
	assert.Equal(t, 77.78, pct)
	assert.Equal(t, "High Risk", RiskInterpretation(pct))
}

func TestRiskInterpretationBands(t *testing.T) {
	cases := map[float64]string{
		0:     "Low Risk",
		33.99: "Low Risk",
		34:    "Medium Risk",
		66.99: "Medium Risk",
		67:    "High Risk",
		100:   "High Risk",
	}
	for pct, want := range cases {
		assert.Equal(t, want, RiskInterpretation(pct), "pct=%v", pct)
	}
}

func TestRemarkRatio(t *testing.T) {
	assert.Equal(t, 0.0, RemarkRatio(5, 0), "no defects yields zero ratio")
	assert.Equal(t, 50.0, RemarkRatio(1, 2))
	assert.Equal(t, 150.0, RemarkRatio(3, 2), "ratio may exceed 100")
	assert.Equal(t, 33.33, RemarkRatio(1, 3))
}

func TestRemarkCategoryBands(t *testing.T) {
	cases := []struct {
		ratio    float64
		category string
		color    string
	}{
		{0, "Low", "green"},
		{29.99, "Low", "green"},
		{30, "Medium", "yellow"},
		{59.99, "Medium", "yellow"},
		{60, "High", "blue"},
		{100, "High", "blue"},
	}
	for _, tc := range cases {
		category, color := RemarkCategory(tc.ratio)
		assert.Equal(t, tc.category, category, "ratio=%v", tc.ratio)
		assert.Equal(t, tc.color, color, "ratio=%v", tc.ratio)
	}
}

func TestDensity(t *testing.T) {
	assert.Equal(t, 2.5, Density(5, 2))
	assert.Equal(t, 0.33, Density(1, 3))
	// Without modules the raw defect count is reported.
	assert.Equal(t, 7.0, Density(7, 0))
	assert.Equal(t, 0.0, Density(0, 0))
}

func TestCardColorFollowsDSIBands(t *testing.T) {
	assert.Equal(t, cardColorGreen, CardColor(0))
	assert.Equal(t, cardColorGreen, CardColor(33.99))
	assert.Equal(t, cardColorAmber, CardColor(34))
	assert.Equal(t, cardColorAmber, CardColor(66.99))
	assert.Equal(t, cardColorRed, CardColor(67))
	assert.Equal(t, cardColorRed, CardColor(100))
}

func newMockEngine(t *testing.T) (*Engine, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	return NewEngine(db), mock
}

func TestEngineDSI(t *testing.T) {
	engine, mock := newMockEngine(t)

	rows := sqlmock.NewRows([]string{"severity", "count"}).
		AddRow("High", 2).
		AddRow("Low", 1)
	mock.ExpectQuery(`SELECT severities.name AS severity, COUNT\(defects.id\) AS count FROM "?defects"?`).
		WillReturnRows(rows)

	result, err := engine.DSI(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 77.78, result.DSIPercentage)
	assert.Equal(t, "High Risk", result.Interpretation)
}

func TestEngineSeveritySummaryZeroFilled(t *testing.T) {
	engine, mock := newMockEngine(t)

	// Project has only high-severity defects; medium and low buckets must
	// still appear.
	rows := sqlmock.NewRows([]string{"severity", "status", "count"}).
		AddRow("High", "New", 2).
		AddRow("High", "Closed", 1)
	mock.ExpectQuery(`SELECT severities.name AS severity, defect_statuses.name AS status`).
		WillReturnRows(rows)

	result, err := engine.SeveritySummary(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, uint(3), result.ProjectID)
	assert.Equal(t, int64(3), result.TotalDefects)
	require.Len(t, result.DefectSummary, 3)

	assert.Equal(t, "high", result.DefectSummary[0].Severity)
	assert.Equal(t, int64(3), result.DefectSummary[0].TotalDefects)
	assert.Equal(t, int64(2), result.DefectSummary[0].Statuses["New"])

	assert.Equal(t, "medium", result.DefectSummary[1].Severity)
	assert.Zero(t, result.DefectSummary[1].TotalDefects)
	assert.Equal(t, "low", result.DefectSummary[2].Severity)
	assert.Zero(t, result.DefectSummary[2].TotalDefects)
}

func TestEngineSeveritySummaryEmptyProject(t *testing.T) {
	engine, mock := newMockEngine(t)

	mock.ExpectQuery(`SELECT severities.name AS severity, defect_statuses.name AS status`).
		WillReturnRows(sqlmock.NewRows([]string{"severity", "status", "count"}))

	result, err := engine.SeveritySummary(context.Background(), 3)
	require.NoError(t, err)
	assert.Zero(t, result.TotalDefects)
	require.Len(t, result.DefectSummary, 3, "shape is stable with zero defects")
	for _, bucket := range result.DefectSummary {
		assert.Zero(t, bucket.TotalDefects)
	}
}

func TestEngineSeveritySummaryExtraSeveritiesSorted(t *testing.T) {
	engine, mock := newMockEngine(t)

	// Custom severities beyond high/medium/low follow the fixed keys in
	// alphabetical order, regardless of row order.
	rows := sqlmock.NewRows([]string{"severity", "status", "count"}).
		AddRow("Trivial", "New", 1).
		AddRow("High", "New", 2).
		AddRow("Blocker", "Open", 4).
		AddRow("Critical", "New", 3)
	mock.ExpectQuery(`SELECT severities.name AS severity, defect_statuses.name AS status`).
		WillReturnRows(rows)

	result, err := engine.SeveritySummary(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, result.DefectSummary, 6)

	order := make([]string, 0, len(result.DefectSummary))
	for _, bucket := range result.DefectSummary {
		order = append(order, bucket.Severity)
	}
	assert.Equal(t, []string{"high", "medium", "low", "blocker", "critical", "trivial"}, order)
	assert.Equal(t, int64(4), result.DefectSummary[3].Statuses["Open"])
}

func TestEngineDefectRemarkRatio(t *testing.T) {
	engine, mock := newMockEngine(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "?defects"?`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "?comments"?`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	result, err := engine.DefectRemarkRatio(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 50.0, result.Ratio)
	assert.Equal(t, "Medium", result.Category)
	assert.Equal(t, "yellow", result.Color)
	assert.Equal(t, int64(4), result.Totals.Defects)
	assert.Equal(t, int64(2), result.Totals.Remarks)
}

func TestEngineDefectDensity(t *testing.T) {
	engine, mock := newMockEngine(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "?defects"?`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "?modules"?`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	result, err := engine.DefectDensity(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2.5, result.DefectDensity)
}

func TestEngineReopenCount(t *testing.T) {
	engine, mock := newMockEngine(t)

	// Statuses "Reopened" and "REOPEN-L2" match; "Open" and "Closed" do not.
	mock.ExpectQuery(`SELECT count\(\*\) FROM "?defects"?`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	result, err := engine.ReopenCount(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.ReopenCount)
}

func TestEngineProjectCardColor(t *testing.T) {
	engine, mock := newMockEngine(t)

	rows := sqlmock.NewRows([]string{"severity", "count"}).AddRow("Low", 9)
	mock.ExpectQuery(`SELECT severities.name AS severity, COUNT\(defects.id\) AS count`).
		WillReturnRows(rows)

	result, err := engine.ProjectCardColor(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, cardColorGreen, result.ProjectCardColor)
	assert.InDelta(t, 33.33, result.Basis.DSIPercentage, 0.001)
}

func TestEngineDefectsByModuleUnassignedBucket(t *testing.T) {
	engine, mock := newMockEngine(t)

	moduleID := uint(4)
	rows := sqlmock.NewRows([]string{"id", "name", "count"}).
		AddRow(moduleID, "Checkout", 3).
		AddRow(nil, nil, 2)
	mock.ExpectQuery(`SELECT modules.id AS id, modules.name AS name`).
		WillReturnRows(rows)

	result, err := engine.DefectsByModule(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "Checkout", result[0].Module)
	assert.Equal(t, int64(3), result[0].Defects)
	assert.Nil(t, result[1].ID)
	assert.Equal(t, "Unassigned", result[1].Module)
	assert.Equal(t, int64(2), result[1].Defects)
}
