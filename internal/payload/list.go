package payload

// Sort order constants for list endpoints.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

type (
	// ListReqQuery carries pagination parameters read from the query
	// string. Other filters must be declared inline on the request struct
	// because gin cannot validate embedded forms.
	ListReqQuery struct {
		PageIndex *int `form:"pageIndex" binding:"required"`
		PageSize  *int `form:"pageSize" binding:"required"`
	}
	ListResp[T any] struct {
		Rows  []T   `json:"rows"`
		Count int64 `json:"count"`
	}
)
