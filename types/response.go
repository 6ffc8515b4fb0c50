package types

// Pagination describes a page of a listing.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// PaginatedResponse wraps list endpoints.
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// ErrorResponse documents the error body rendered by the error middleware.
type ErrorResponse struct {
	Error   string `json:"error"`
	Type    string `json:"type"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// StatusResponse is a minimal acknowledgement body.
type StatusResponse struct {
	Status string `json:"status"`
}

// ListFeedbackParams are the query parameters of GET /feedbacks.
type ListFeedbackParams struct {
	Status string `form:"status"`
	Type   string `form:"type"`
	Page   int    `form:"page,default=1" binding:"omitempty,gte=1"`
	Limit  int    `form:"limit,default=20" binding:"omitempty,gte=1,lte=100"`
}
