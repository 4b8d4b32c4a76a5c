package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joripage/matching-engine/pkg/oms"
	"github.com/joripage/matching-engine/pkg/oms/model"
	"github.com/joripage/matching-engine/pkg/oms/position"
)

// Error codes returned in Response.Error.Code.
const (
	CodeMissingFields        = "MISSING_FIELDS"
	CodeInvalidSide          = "INVALID_SIDE"
	CodeInvalidRequest       = "INVALID_REQUEST"
	CodeValidation           = "VALIDATION_ERROR"
	CodeInsufficientPosition = "INSUFFICIENT_POSITION"
	CodeDuplicateOrder       = "DUPLICATE_ORDER"
	CodeOrderNotFound        = "ORDER_NOT_FOUND"
	CodeCancelFailed         = "CANCEL_FAILED"
	CodeNotFound             = "NOT_FOUND"
	CodeInternal             = "INTERNAL_ERROR"
)

// Response is the envelope of every API answer.
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

type ErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// APIError carries the status and code a handler failure maps to.
type APIError struct {
	Status  int
	Message string
	Code    string
}

func (e *APIError) Error() string {
	return e.Message
}

func newAPIError(status int, code, message string) *APIError {
	return &APIError{Status: status, Message: message, Code: code}
}

func respondOK(c *gin.Context, status int, data any) {
	c.JSON(status, Response{Success: true, Data: data})
}

// respondError maps err onto the envelope. Errors the API does not know
// about become a 500 without leaking their text.
func respondError(c *gin.Context, err error) {
	apiErr := toAPIError(err)
	if apiErr.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(apiErr.Status, Response{
		Success: false,
		Error:   &ErrorBody{Message: apiErr.Message, Code: apiErr.Code},
	})
}

func toAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case errors.Is(err, oms.ErrInsufficientPosition):
		return newAPIError(http.StatusBadRequest, CodeInsufficientPosition, err.Error())
	case errors.Is(err, oms.ErrDuplicateOrder):
		return newAPIError(http.StatusConflict, CodeDuplicateOrder, err.Error())
	case errors.Is(err, model.ErrValidation), errors.Is(err, position.ErrNegativeQuantity):
		return newAPIError(http.StatusBadRequest, CodeValidation, err.Error())
	}
	return newAPIError(http.StatusInternalServerError, CodeInternal, "Internal server error")
}
