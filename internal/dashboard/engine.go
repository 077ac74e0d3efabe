// Package dashboard derives health indicators for a project from its
// active defect set. Every computation re-aggregates from current row
// state on each request; at tens to low-thousands of defects per project
// this is deliberately simpler than maintaining incremental counters.
package dashboard

import (
	"context"
	"math"
	"sort"
	"strings"

	"gorm.io/gorm"
)

// Severity weights keyed by lower-cased severity name. Anything not
// listed, including "low", falls back to weight 1.
const (
	weightHigh    = 3
	weightMedium  = 2
	weightDefault = 1
)

// Risk band boundaries, inclusive on the lower edge.
const (
	dsiHighRiskFloor   = 67
	dsiMediumRiskFloor = 34

	ratioHighFloor   = 60
	ratioMediumFloor = 30
)

// Remark-ratio category/color table. The High/blue pairing looks inverted
// next to the red-for-danger convention but is a product decision; keep it
// a literal table.
var remarkCategories = []struct {
	floor    float64
	category string
	color    string
}{
	{ratioHighFloor, "High", "blue"},
	{ratioMediumFloor, "Medium", "yellow"},
	{0, "Low", "green"},
}

// Project card gradients keyed off the DSI bands.
const (
	cardColorRed   = "bg-gradient-to-r from-red-600 to-red-800"
	cardColorAmber = "bg-gradient-to-r from-amber-500 to-amber-700"
	cardColorGreen = "bg-gradient-to-r from-emerald-600 to-emerald-800"
)

// severityKeys is the fixed response shape of the severity summary; empty
// buckets are zero-filled so sparse data never changes the shape.
var severityKeys = []string{"high", "medium", "low"}

type (
	DSIResult struct {
		DSIPercentage  float64 `json:"dsiPercentage"`
		Interpretation string  `json:"interpretation"`
	}

	SeverityBucket struct {
		Severity     string           `json:"severity"`
		TotalDefects int64            `json:"totalDefects"`
		Statuses     map[string]int64 `json:"statuses"`
	}

	SeveritySummaryResult struct {
		ProjectID     uint             `json:"projectId"`
		TotalDefects  int64            `json:"totalDefects"`
		DefectSummary []SeverityBucket `json:"defectSummary"`
	}

	RemarkRatioResult struct {
		Ratio    float64     `json:"ratio"`
		Category string      `json:"category"`
		Color    string      `json:"color"`
		Totals   RatioTotals `json:"totals"`
	}

	RatioTotals struct {
		Defects int64 `json:"defects"`
		Remarks int64 `json:"remarks"`
	}

	DensityResult struct {
		DefectDensity float64 `json:"defectDensity"`
	}

	ReopenResult struct {
		ReopenCount int64 `json:"reopenCount"`
	}

	CardColorResult struct {
		ProjectCardColor string    `json:"projectCardColor"`
		Basis            DSIResult `json:"basis"`
	}

	TypeCount struct {
		ID    uint   `json:"id"`
		Name  string `json:"name"`
		Count int64  `json:"count"`
	}

	ModuleCount struct {
		ID      *uint  `json:"id"`
		Module  string `json:"module"`
		Defects int64  `json:"defects"`
	}
)

// SeverityWeight maps a severity display name to its DSI weight.
func SeverityWeight(name string) int {
	switch strings.ToLower(name) {
	case "high":
		return weightHigh
	case "medium":
		return weightMedium
	default:
		return weightDefault
	}
}

// Round2 rounds to two decimal places, matching the wire format of every
// percentage field.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// DSIFromCounts computes the defect severity index from per-severity-name
// counts. Result is a percentage in [0,100]; 0 exactly when there are no
// defects.
func DSIFromCounts(counts map[string]int64) float64 {
	var total, weighted int64
	for name, count := range counts {
		total += count
		weighted += count * int64(SeverityWeight(name))
	}
	maxWeighted := total * weightHigh
	if maxWeighted == 0 {
		return 0
	}
	return Round2(float64(weighted) / float64(maxWeighted) * 100)
}

// RiskInterpretation bands a DSI percentage.
func RiskInterpretation(pct float64) string {
	switch {
	case pct >= dsiHighRiskFloor:
		return "High Risk"
	case pct >= dsiMediumRiskFloor:
		return "Medium Risk"
	default:
		return "Low Risk"
	}
}

// RemarkRatio computes comments-per-defect as a percentage; 0 when the
// project has no active defects.
func RemarkRatio(comments, defects int64) float64 {
	if defects == 0 {
		return 0
	}
	return Round2(float64(comments) / float64(defects) * 100)
}

// RemarkCategory buckets a remark ratio into its category/color pair.
func RemarkCategory(ratio float64) (category, color string) {
	for _, band := range remarkCategories {
		if ratio >= band.floor {
			return band.category, band.color
		}
	}
	last := remarkCategories[len(remarkCategories)-1]
	return last.category, last.color
}

// Density computes defects per module; with no modules the raw defect
// count is reported instead.
func Density(defects, modules int64) float64 {
	if modules == 0 {
		return float64(defects)
	}
	return Round2(float64(defects) / float64(modules))
}

// CardColor maps a DSI percentage to the project card gradient.
func CardColor(pct float64) string {
	switch {
	case pct >= dsiHighRiskFloor:
		return cardColorRed
	case pct >= dsiMediumRiskFloor:
		return cardColorAmber
	default:
		return cardColorGreen
	}
}

// Engine runs the aggregation queries and applies the pure computations
// above. Read-only; all queries are scoped to active defects of one project.
type Engine struct {
	db *gorm.DB
}

func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

type severityCountRow struct {
	Severity string
	Count    int64
}

type severityStatusRow struct {
	Severity string
	Status   string
	Count    int64
}

func (e *Engine) activeDefects(ctx context.Context, projectID uint) *gorm.DB {
	return e.db.WithContext(ctx).Table("defects").
		Where("defects.project_id = ? AND defects.is_active = ?", projectID, true).
		Where("defects.deleted_at IS NULL")
}

func (e *Engine) severityCounts(ctx context.Context, projectID uint) (map[string]int64, error) {
	var rows []severityCountRow
	err := e.activeDefects(ctx, projectID).
		Select("severities.name AS severity, COUNT(defects.id) AS count").
		Joins("JOIN severities ON severities.id = defects.severity_id").
		Group("severities.name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Severity] += r.Count
	}
	return counts, nil
}

// DSI computes the defect severity index and its risk interpretation.
func (e *Engine) DSI(ctx context.Context, projectID uint) (DSIResult, error) {
	counts, err := e.severityCounts(ctx, projectID)
	if err != nil {
		return DSIResult{}, err
	}
	pct := DSIFromCounts(counts)
	return DSIResult{DSIPercentage: pct, Interpretation: RiskInterpretation(pct)}, nil
}

// SeveritySummary groups active defects by severity and status. The
// response always contains the three fixed severity keys, zero-filled.
func (e *Engine) SeveritySummary(ctx context.Context, projectID uint) (SeveritySummaryResult, error) {
	var rows []severityStatusRow
	err := e.activeDefects(ctx, projectID).
		Select("severities.name AS severity, defect_statuses.name AS status, COUNT(defects.id) AS count").
		Joins("JOIN severities ON severities.id = defects.severity_id").
		Joins("JOIN defect_statuses ON defect_statuses.id = defects.defect_status_id").
		Group("severities.name, defect_statuses.name").
		Scan(&rows).Error
	if err != nil {
		return SeveritySummaryResult{}, err
	}

	buckets := make(map[string]*SeverityBucket, len(severityKeys))
	for _, key := range severityKeys {
		buckets[key] = &SeverityBucket{Severity: key, Statuses: map[string]int64{}}
	}
	var total int64
	for _, r := range rows {
		key := strings.ToLower(r.Severity)
		bucket, ok := buckets[key]
		if !ok {
			bucket = &SeverityBucket{Severity: key, Statuses: map[string]int64{}}
			buckets[key] = bucket
		}
		bucket.TotalDefects += r.Count
		bucket.Statuses[r.Status] += r.Count
		total += r.Count
	}

	summary := make([]SeverityBucket, 0, len(buckets))
	for _, key := range severityKeys {
		summary = append(summary, *buckets[key])
		delete(buckets, key)
	}
	// Severities outside the fixed set (e.g. "critical") are appended
	// after the stable keys, sorted by name so the shape never depends
	// on map iteration order.
	extras := make([]string, 0, len(buckets))
	for key := range buckets {
		extras = append(extras, key)
	}
	sort.Strings(extras)
	for _, key := range extras {
		summary = append(summary, *buckets[key])
	}

	return SeveritySummaryResult{ProjectID: projectID, TotalDefects: total, DefectSummary: summary}, nil
}

// DefectRemarkRatio computes the comments-per-defect percentage with its
// category/color pair.
func (e *Engine) DefectRemarkRatio(ctx context.Context, projectID uint) (RemarkRatioResult, error) {
	var defects int64
	if err := e.activeDefects(ctx, projectID).Count(&defects).Error; err != nil {
		return RemarkRatioResult{}, err
	}

	var comments int64
	err := e.db.WithContext(ctx).Table("comments").
		Joins("JOIN defects ON defects.id = comments.defect_id").
		Where("defects.project_id = ? AND defects.is_active = ?", projectID, true).
		Where("comments.deleted_at IS NULL AND defects.deleted_at IS NULL").
		Count(&comments).Error
	if err != nil {
		return RemarkRatioResult{}, err
	}

	ratio := RemarkRatio(comments, defects)
	category, color := RemarkCategory(ratio)
	return RemarkRatioResult{
		Ratio:    ratio,
		Category: category,
		Color:    color,
		Totals:   RatioTotals{Defects: defects, Remarks: comments},
	}, nil
}

// DefectDensity computes active defects per active module. No risk
// banding applies to this metric.
func (e *Engine) DefectDensity(ctx context.Context, projectID uint) (DensityResult, error) {
	var defects int64
	if err := e.activeDefects(ctx, projectID).Count(&defects).Error; err != nil {
		return DensityResult{}, err
	}
	var modules int64
	err := e.db.WithContext(ctx).Table("modules").
		Where("project_id = ? AND is_active = ? AND deleted_at IS NULL", projectID, true).
		Count(&modules).Error
	if err != nil {
		return DensityResult{}, err
	}
	return DensityResult{DefectDensity: Density(defects, modules)}, nil
}

// ReopenCount counts active defects whose current status name contains
// "reopen", case-insensitively.
func (e *Engine) ReopenCount(ctx context.Context, projectID uint) (ReopenResult, error) {
	var count int64
	err := e.activeDefects(ctx, projectID).
		Joins("JOIN defect_statuses ON defect_statuses.id = defects.defect_status_id").
		Where("LOWER(defect_statuses.name) LIKE ?", "%reopen%").
		Count(&count).Error
	if err != nil {
		return ReopenResult{}, err
	}
	return ReopenResult{ReopenCount: count}, nil
}

// ProjectCardColor derives the card gradient from the DSI; presentation
// only, no independent state.
func (e *Engine) ProjectCardColor(ctx context.Context, projectID uint) (CardColorResult, error) {
	dsi, err := e.DSI(ctx, projectID)
	if err != nil {
		return CardColorResult{}, err
	}
	return CardColorResult{ProjectCardColor: CardColor(dsi.DSIPercentage), Basis: dsi}, nil
}

// DefectTypes summarizes active defects per defect type.
func (e *Engine) DefectTypes(ctx context.Context, projectID uint) ([]TypeCount, error) {
	var rows []TypeCount
	err := e.activeDefects(ctx, projectID).
		Select("defect_types.id AS id, defect_types.name AS name, COUNT(defects.id) AS count").
		Joins("JOIN defect_types ON defect_types.id = defects.type_id").
		Group("defect_types.id, defect_types.name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// DefectsByModule summarizes active defects per module; defects without a
// module land in an "Unassigned" bucket.
func (e *Engine) DefectsByModule(ctx context.Context, projectID uint) ([]ModuleCount, error) {
	var rows []struct {
		ID    *uint
		Name  *string
		Count int64
	}
	err := e.activeDefects(ctx, projectID).
		Select("modules.id AS id, modules.name AS name, COUNT(defects.id) AS count").
		Joins("LEFT JOIN modules ON modules.id = defects.module_id").
		Group("modules.id, modules.name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make([]ModuleCount, 0, len(rows))
	for _, r := range rows {
		name := "Unassigned"
		if r.Name != nil {
			name = *r.Name
		}
		result = append(result, ModuleCount{ID: r.ID, Module: name, Defects: r.Count})
	}
	return result, nil
}
