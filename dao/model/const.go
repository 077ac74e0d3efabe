// Constants mapped to database columns.
// Gin rejects zero values for fields tagged `required`, so the first
// constant of every enum starts at iota + 1.
package model

// PlatformRole is the user's role on the platform itself, independent of
// any per-project role assignment.
type PlatformRole uint8

const (
	RoleGuest PlatformRole = iota + 1
	RoleUser
	RoleAdmin
)

// Action is the atomic operation half of a privilege key.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionRead   Action = "READ"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
	ActionManage Action = "MANAGE"
)

// Privilege module names used as the other half of a privilege key.
const (
	ModuleProjects = "projects"
	ModuleModules  = "modules"
	ModuleDefects  = "defects"
	ModuleReleases = "releases"
	ModuleUsers    = "users"
	ModuleReports  = "reports"
)

// HistoryAction classifies rows in defect and allocation history tables.
type HistoryAction string

const (
	HistoryCreated       HistoryAction = "created"
	HistoryUpdated       HistoryAction = "updated"
	HistoryStatusChanged HistoryAction = "status_changed"
	HistoryAssigned      HistoryAction = "assigned"
	HistoryDeleted       HistoryAction = "deleted"
)
