package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope every endpoint answers with. Successes carry
// Data and optional Meta; failures carry Error instead.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo pairs a stable machine-readable code with a human-readable
// message. Clients branch on Code; Message is free to change.
type ErrorInfo struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// PaginationMeta describes the page window of a paginated listing.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// ListMeta carries the element count of an unpaginated listing.
type ListMeta struct {
	Count int `json:"count"`
}

// SuccessResponse answers statusCode with data in the standard envelope.
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	SuccessResponseWithMeta(c, statusCode, message, data, nil)
}

// SuccessResponseWithMeta additionally attaches meta, typically a
// PaginationMeta or ListMeta.
func SuccessResponseWithMeta(c *gin.Context, statusCode int, message string, data, meta interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    meta,
	})
}

// ErrorResponse answers statusCode with a coded error envelope.
func ErrorResponse(c *gin.Context, statusCode int, code, message string, details interface{}) {
	c.JSON(statusCode, Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// BadRequestResponse reports a request the server could not parse or that
// failed field validation.
func BadRequestResponse(c *gin.Context, details interface{}) {
	ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", "Invalid request data", details)
}

// UnprocessableResponse reports a well-formed request rejected by a
// hierarchy rule, under a domain-specific code.
func UnprocessableResponse(c *gin.Context, code, message string) {
	ErrorResponse(c, http.StatusUnprocessableEntity, code, message, nil)
}

// BusyResponse tells the client another writer holds the subtree and the
// request is worth retrying.
func BusyResponse(c *gin.Context, message string) {
	c.Header("Retry-After", "1")
	ErrorResponse(c, http.StatusServiceUnavailable, "BUSY", message, nil)
}

// NotFoundResponse reports that the named resource does not exist.
func NotFoundResponse(c *gin.Context, resource string) {
	ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", resource+" not found", nil)
}

// UnauthorizedResponse reports a missing or unverifiable token.
func UnauthorizedResponse(c *gin.Context) {
	ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized access", nil)
}

// ForbiddenResponse reports a verified caller without the needed grant.
func ForbiddenResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusForbidden, "FORBIDDEN", message, nil)
}

// InternalErrorResponse reports an unexpected server-side failure.
func InternalErrorResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", message, nil)
}

// ConflictResponse reports a state clash such as a duplicate slug.
func ConflictResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusConflict, "CONFLICT", message, nil)
}

// CreatedResponse answers 201 with the newly created resource.
func CreatedResponse(c *gin.Context, message string, data interface{}) {
	SuccessResponse(c, http.StatusCreated, message, data)
}

// UpdatedResponse answers 200 with the updated resource.
func UpdatedResponse(c *gin.Context, message string, data interface{}) {
	SuccessResponse(c, http.StatusOK, message, data)
}

// DeletedResponse answers 200 with no payload.
func DeletedResponse(c *gin.Context, message string) {
	SuccessResponse(c, http.StatusOK, message, nil)
}

// ListResponse answers 200 with data plus its element count.
func ListResponse(c *gin.Context, message string, data interface{}, count int) {
	SuccessResponseWithMeta(c, http.StatusOK, message, data, ListMeta{Count: count})
}

// PaginatedResponse answers 200 with data plus its page window.
func PaginatedResponse(c *gin.Context, message string, data interface{}, meta PaginationMeta) {
	SuccessResponseWithMeta(c, http.StatusOK, message, data, meta)
}
