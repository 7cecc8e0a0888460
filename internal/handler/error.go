package handler

import (
	"errors"
	"log/slog"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/aidar/team-tasks/internal/domain"
)

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail содержит код и описание ошибки.
// Fields заполняется для ошибок валидации формы.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// RespondWithError отправляет ответ с ошибкой
func RespondWithError(w http.ResponseWriter, r *http.Request, statusCode int, code, message string) {
	render.Status(r, statusCode)
	render.JSON(w, r, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// HandleError преобразует доменные ошибки в HTTP ответы
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.MapErrorToCode(err)

	switch code {
	case domain.CodeValidation:
		var vErr *domain.ValidationError
		if !errors.As(err, &vErr) {
			vErr = domain.NewValidationError("username", "is already taken")
		}
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{
			Error: ErrorDetail{Code: string(code), Message: "validation failed", Fields: vErr.Fields},
		})
	case domain.CodeInvalidStatus:
		RespondWithError(w, r, http.StatusBadRequest, string(code), err.Error())
	case domain.CodeUnauthorized:
		RespondWithError(w, r, http.StatusUnauthorized, string(code), err.Error())
	case domain.CodeForbidden:
		RespondWithError(w, r, http.StatusForbidden, string(code), err.Error())
	case domain.CodeNotFound:
		RespondWithError(w, r, http.StatusNotFound, string(code), err.Error())
	case domain.CodeTeamExists:
		RespondWithError(w, r, http.StatusConflict, string(code), err.Error())
	case domain.CodeProfileIncomplete:
		redirect(w, r, "/setup", code, err.Error())
	case domain.CodeProfileComplete:
		redirect(w, r, "/", code, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", chimiddleware.GetReqID(r.Context()),
		)
		RespondWithError(w, r, http.StatusInternalServerError, string(domain.CodeInternal), "internal server error")
	}
}

// redirect отвечает 303 с Location, тело содержит код ошибки для JSON клиентов
func redirect(w http.ResponseWriter, r *http.Request, location string, code domain.ErrorCode, message string) {
	w.Header().Set("Location", location)
	RespondWithError(w, r, http.StatusSeeOther, string(code), message)
}
