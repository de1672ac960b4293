package transport

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/teamdash/teamdash/internal/assistant"
	"github.com/teamdash/teamdash/internal/domain/message"
	"github.com/teamdash/teamdash/internal/domain/notification"
	"github.com/teamdash/teamdash/internal/domain/project"
	"github.com/teamdash/teamdash/internal/domain/staffing"
	"github.com/teamdash/teamdash/internal/reconcile"
)

type apiErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// apiError is the error envelope of every REST response.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body:   apiErrorBody{Code: code, Message: message, Details: details},
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func writeAPIError(w http.ResponseWriter, err huma.StatusError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.GetStatus())
	_ = json.NewEncoder(w).Encode(err)
}

// MapError maps domain errors to API errors. Unknown errors become a 500
// without leaking their text.
func MapError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var fetchErr *reconcile.DependencyFetchError
	switch {
	case errors.Is(err, ErrUnauthorized):
		return newAPIError(http.StatusUnauthorized, "", "authentication required", nil)
	case errors.Is(err, staffing.ErrAssignmentNotFound),
		errors.Is(err, staffing.ErrCandidateNotFound),
		errors.Is(err, project.ErrProjectNotFound),
		errors.Is(err, notification.ErrNotificationNotFound),
		errors.Is(err, message.ErrThreadNotFound):
		return newAPIError(http.StatusNotFound, "", err.Error(), nil)
	case errors.Is(err, staffing.ErrSeatTaken):
		return newAPIError(http.StatusConflict, "seat_taken", err.Error(), nil)
	case errors.Is(err, staffing.ErrInvalidTransition):
		return newAPIError(http.StatusConflict, "invalid_transition", err.Error(), nil)
	case errors.Is(err, notification.ErrArchived):
		return newAPIError(http.StatusConflict, "archived", err.Error(), nil)
	case errors.Is(err, staffing.ErrNotEligible),
		errors.Is(err, message.ErrNotParticipant):
		return newAPIError(http.StatusForbidden, "", err.Error(), nil)
	case errors.Is(err, staffing.ErrInvalidInput),
		errors.Is(err, project.ErrInvalidInput),
		errors.Is(err, project.ErrInvalidStatus),
		errors.Is(err, notification.ErrInvalidInput),
		errors.Is(err, message.ErrInvalidInput),
		errors.Is(err, assistant.ErrEmptyPrompt):
		return newAPIError(http.StatusBadRequest, "", err.Error(), nil)
	case errors.Is(err, assistant.ErrNoModel):
		return newAPIError(http.StatusServiceUnavailable, "assistant_unavailable", "assistant is not configured", nil)
	case errors.As(err, &fetchErr):
		return newAPIError(http.StatusBadGateway, "dependency_fetch_failed", "could not load project", map[string]any{"project_id": fetchErr.ProjectID})
	default:
		return newAPIError(http.StatusInternalServerError, "", "internal error", nil)
	}
}
