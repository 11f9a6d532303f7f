package apiclient

import (
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-hms-client/authmodel"
	hmserrors "github.com/jrsteele09/go-hms-client/internal/errors"
)

// APIError is a failed call: either a non-2xx response or a transport failure.
type APIError struct {
	StatusCode int                      // zero for transport failures
	Problem    *authmodel.ErrorResponse // decoded problem body, if any
	Message    string                   // user-facing message
	Err        error                    // transport error, if any
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("request failed: %s", e.Message)
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return hmserrors.ErrUnauthorized
	}
	return e.Err
}

// Detail returns the backend's detail text, or "" when the body carried none
func (e *APIError) Detail() string {
	if e.Problem == nil {
		return ""
	}
	return e.Problem.Detail
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if hmserrors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// ClassifyStatus maps a failed response to the message shown to the user.
func ClassifyStatus(status int, problem *authmodel.ErrorResponse) string {
	detail := ""
	if problem != nil {
		detail = problem.Detail
	}
	orDefault := func(fallback string) string {
		if detail != "" {
			return detail
		}
		return fallback
	}

	switch status {
	case http.StatusBadRequest:
		return orDefault("Bad request. Please check your input.")
	case http.StatusUnauthorized:
		return "Unauthorized. Please login again."
	case http.StatusForbidden:
		return "Access denied. You do not have permission."
	case http.StatusNotFound:
		return "Resource not found."
	case http.StatusConflict:
		return orDefault("Conflict. Resource already exists.")
	case http.StatusUnprocessableEntity:
		return orDefault("Validation error.")
	case http.StatusTooManyRequests:
		return "Too many requests. Please try again later."
	case http.StatusInternalServerError:
		return "Internal server error. Please try again later."
	default:
		return orDefault(fmt.Sprintf("Error: %d", status))
	}
}
