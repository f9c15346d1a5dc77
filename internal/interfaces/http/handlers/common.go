// Package handlers implements the HTTP endpoints.
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/verdantio/plotproof/pkg/errors"
)

// ErrorResponse is the structured error body every endpoint returns.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Code    string `json:"code,omitempty"`
}

// respondError maps an application error onto an HTTP status and the
// standard body.  Unrecognized errors are masked as internal.
func respondError(c *gin.Context, err error) {
	code := errors.CodeOf(err)
	status := errors.HTTPStatus(code)

	msg := "internal server error"
	details := ""
	if appErr, ok := err.(*errors.AppError); ok {
		msg = appErr.Message
		details = appErr.Detail
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:   msg,
		Details: details,
		Code:    string(code),
	})
}
