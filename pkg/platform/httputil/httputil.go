package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "relay/pkg/domain-errors"
)

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Errors after WriteHeader cannot change the status code, so we ignore encoding errors.
	_ = json.NewEncoder(w).Encode(response)
}

// ErrorBody is the JSON error envelope shared by all endpoints.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// WriteError centralizes domain error translation to HTTP responses.
// It translates transport-agnostic domain errors into HTTP status codes and
// error responses without leaking stack traces.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		WriteJSON(w, DomainCodeToHTTPStatus(domainErr.Code), ErrorBody{
			Code:    string(domainErr.Code),
			Message: domainErr.Message,
		})
		return
	}

	// Fallback for unexpected errors
	WriteJSON(w, http.StatusInternalServerError, ErrorBody{
		Code: string(dErrors.CodeInternal),
	})
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound, dErrors.CodeConfigNotResolved, dErrors.CodeBindingNotResolved:
		return http.StatusNotFound
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput, dErrors.CodeInvalidEvent,
		dErrors.CodeRevisionMismatch, dErrors.CodeContentSidInvalid, dErrors.CodeParamOrderRequired:
		return http.StatusBadRequest
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeTriggerFailed, dErrors.CodeResolveFailed:
		return http.StatusBadGateway
	case dErrors.CodeInternal, dErrors.CodeProcessingError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
