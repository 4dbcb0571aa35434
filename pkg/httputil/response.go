package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clinicore/patient-registry/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents an API error. Code is the stable machine-readable
// reason, not the HTTP status.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Pagination represents pagination metadata
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// PaginatedResponse wraps paginated data
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

var statusByCode = map[errors.Code]int{
	errors.CodeNotFound:   http.StatusNotFound,
	errors.CodeConflict:   http.StatusConflict,
	errors.CodeForbidden:  http.StatusForbidden,
	errors.CodeValidation: http.StatusBadRequest,
	errors.CodeInternal:   http.StatusInternalServerError,
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithCreated sends a success response for a newly created resource
func RespondWithCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithError maps the error's reason code to an HTTP status and
// sends the error envelope.
func RespondWithError(c *gin.Context, err error) {
	code := errors.CodeOf(err)

	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}

	message := "internal server error"
	if appErr, ok := err.(*errors.AppError); ok && code != errors.CodeInternal {
		message = appErr.Message
	}

	c.JSON(status, Response{
		Success: false,
		Error: &Error{
			Code:    string(code),
			Message: message,
		},
	})
}

// ErrorResponse builds an error envelope without writing it, for use by
// middleware that aborts with an explicit status.
func ErrorResponse(code, message string) Response {
	return Response{
		Success: false,
		Error: &Error{
			Code:    code,
			Message: message,
		},
	}
}

// RespondWithPagination sends a paginated response. The caller supplies
// the page arithmetic; this only shapes the envelope.
func RespondWithPagination(c *gin.Context, data interface{}, p Pagination) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: PaginatedResponse{
			Data: data,
			Pagination: p,
		},
	})
}
