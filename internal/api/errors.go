package api

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/beachatlas/beachatlas-server/internal/errors"
	"github.com/beachatlas/beachatlas-server/internal/store"
)

// APIError is a custom error type that implements huma.StatusError.
// It maps domain errors to HTTP responses with consistent structure.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// RegisterErrorHandler configures huma to use domain errors.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		for _, err := range errs {
			var domainErr *domainerrors.Error
			if errors.As(err, &domainErr) {
				return &APIError{
					status:  domainErr.HTTPStatus(),
					Code:    string(domainErr.Code),
					Message: domainErr.Message,
					Details: domainErr.Details,
				}
			}

			if apiErr := fromStoreError(err); apiErr != nil {
				return apiErr
			}
		}

		// Request schema failures surface as plain validation errors.
		if status == http.StatusUnprocessableEntity {
			status = http.StatusBadRequest
		}

		apiErr := &APIError{
			status:  status,
			Code:    statusToCode(status),
			Message: message,
		}
		if status == http.StatusBadRequest && len(errs) > 0 {
			details := make([]string, 0, len(errs))
			for _, err := range errs {
				details = append(details, err.Error())
			}
			apiErr.Details = details
		}
		return apiErr
	}
}

// apiError converts a service error into a huma.StatusError carrying the
// mapped status. Unmapped errors are logged and become 500s.
func (s *Server) apiError(err error) error {
	var statusErr huma.StatusError
	if errors.As(err, &statusErr) {
		return statusErr
	}
	apiErr := huma.NewError(http.StatusInternalServerError, "unexpected error occurred", err)
	if apiErr.GetStatus() >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	return apiErr
}

// fromStoreError converts store sentinels that can reach a handler.
func fromStoreError(err error) *APIError {
	var storeErr *store.Error
	if !errors.As(err, &storeErr) {
		return nil
	}
	switch storeErr.HTTPCode() {
	case http.StatusNotFound, http.StatusConflict, http.StatusBadRequest:
		status := storeErr.HTTPCode()
		code := statusToCode(status)
		if status == http.StatusConflict {
			code = string(domainerrors.CodeAlreadyExists)
		}
		return &APIError{status: status, Code: code, Message: storeErr.Message}
	}
	return nil
}

// statusToCode maps HTTP status codes to our domain error codes.
func statusToCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return string(domainerrors.CodeValidation)
	case http.StatusNotFound:
		return string(domainerrors.CodeNotFound)
	case http.StatusConflict:
		return string(domainerrors.CodeConflict)
	case http.StatusTooManyRequests:
		return string(domainerrors.CodeRateLimited)
	case http.StatusServiceUnavailable:
		return string(domainerrors.CodeUnavailable)
	default:
		return string(domainerrors.CodeInternal)
	}
}
