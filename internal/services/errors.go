// Package services holds the request logic between the HTTP handlers and the
// aggregation engine.
package services

import (
	"errors"

	"github.com/soltixdb/homedash/internal/aggregation"
	"github.com/soltixdb/homedash/internal/loader"
	"github.com/soltixdb/homedash/internal/readings"
	"github.com/soltixdb/homedash/internal/report"
)

// Error codes returned to clients
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeInvalidRange   = "INVALID_RANGE"
	CodeNotFound       = "NOT_FOUND"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeInternal       = "INTERNAL_ERROR"
)

// ServiceError represents a service layer error
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// NewServiceError creates a new ServiceError
func NewServiceError(code, message string) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
	}
}

// NewServiceErrorWithDetails creates a new ServiceError with details
func NewServiceErrorWithDetails(code, message string, details map[string]interface{}) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// classify converts a domain error into a ServiceError
func classify(err error) *ServiceError {
	var se *ServiceError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &se):
		return se
	case errors.Is(err, aggregation.ErrInvalidRange):
		return NewServiceError(CodeInvalidRange, err.Error())
	case errors.Is(err, aggregation.ErrInvalidGranularity),
		errors.Is(err, readings.ErrUnknownMetric),
		errors.Is(err, loader.ErrUnsupportedFormat),
		errors.Is(err, report.ErrInvalidDate):
		return NewServiceError(CodeInvalidRequest, err.Error())
	default:
		return NewServiceErrorWithDetails(CodeInternal, "internal error", map[string]interface{}{"error": err.Error()})
	}
}
