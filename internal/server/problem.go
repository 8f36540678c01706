package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ProblemDetails represents an RFC 7807 Problem Details response.
type ProblemDetails struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
	Status   int               `json:"status"`
}

// ValidationError represents a single invalid request field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error types.
const (
	ErrorTypeValidation    = "https://spice.dev/errors/validation"
	ErrorTypeUnauthorized  = "https://spice.dev/errors/unauthorized"
	ErrorTypeNotFound      = "https://spice.dev/errors/not-found"
	ErrorTypeUnprocessable = "https://spice.dev/errors/unprocessable-statement"
	ErrorTypeRateLimit     = "https://spice.dev/errors/rate-limit"
	ErrorTypeInternal      = "https://spice.dev/errors/internal"
)

func problem(c echo.Context, status int, errorType, title, detail string, errs ...ValidationError) error {
	return c.JSON(status, ProblemDetails{
		Type:     errorType,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Errors:   errs,
	})
}

func newValidationError(c echo.Context, detail string, errs ...ValidationError) error {
	return problem(c, http.StatusBadRequest, ErrorTypeValidation, "Validation Error", detail, errs...)
}

func newUnauthorizedError(c echo.Context, detail string) error {
	return problem(c, http.StatusUnauthorized, ErrorTypeUnauthorized, "Unauthorized", detail)
}

func newNotFoundError(c echo.Context, detail string) error {
	return problem(c, http.StatusNotFound, ErrorTypeNotFound, "Not Found", detail)
}

func newUnprocessableError(c echo.Context, detail string) error {
	return problem(c, http.StatusUnprocessableEntity, ErrorTypeUnprocessable, "Unprocessable Statement", detail)
}

func newInternalError(c echo.Context, detail string) error {
	return problem(c, http.StatusInternalServerError, ErrorTypeInternal, "Internal Server Error", detail)
}
