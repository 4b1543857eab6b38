package app

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"folio/api/internal/auth"
	"folio/api/internal/authpw"
	"folio/api/internal/revision"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

// mapError translates service errors into HTTP responses.
func mapError(err error) (int, string, string, any) {
	var domain *DomainError
	if errors.As(err, &domain) {
		return domain.Status, domain.Code, domain.Message, domain.Details
	}
	if errors.Is(err, revision.ErrNotFound) || errors.Is(err, sql.ErrNoRows) {
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	}
	if errors.Is(err, authpw.ErrInvalidCredentials) {
		return http.StatusUnauthorized, "UNAUTHORIZED", "Invalid email or password", nil
	}
	if errors.Is(err, auth.ErrInvalidToken) {
		return http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil
	}
	var hard *revision.HardError
	if errors.As(err, &hard) {
		return http.StatusInternalServerError, "WRITE_FAILED", "The change could not be written", nil
	}
	return http.StatusInternalServerError, "INTERNAL", "Internal error", nil
}
