package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/aidar/team-tasks/internal/domain"
	"github.com/aidar/team-tasks/internal/middleware"
)

// RespondWithJSON отправляет JSON ответ с указанным статус кодом
func RespondWithJSON(w http.ResponseWriter, r *http.Request, statusCode int, data interface{}) {
	render.Status(r, statusCode)
	render.JSON(w, r, data)
}

// decodeBody разбирает JSON или form-urlencoded тело по Content-Type.
// Пустое тело не ошибка: обязательные поля проверяет сервис.
func decodeBody(r *http.Request, v interface{}) error {
	if err := render.Decode(r, v); err != nil && !errors.Is(err, io.EOF) {
		return domain.NewValidationError("body", "invalid request body")
	}
	return nil
}

// taskIDParam читает {taskID} из пути. Неразбираемый id равнозначен несуществующей задаче.
func taskIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "taskID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrTaskNotFound
	}
	return id, nil
}

// actorFromRequest возвращает участника, положенного в контекст middleware.ProfileGate
func actorFromRequest(r *http.Request) (domain.Actor, error) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		return domain.Actor{}, domain.ErrProfileIncomplete
	}
	return actor, nil
}

// TaskResponse представление задачи в ответах API
type TaskResponse struct {
	ID          int64             `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	DueDate     string            `json:"due_date"`
	Status      domain.TaskStatus `json:"status"`
	TeamID      int64             `json:"team_id"`
	AssignedTo  *int64            `json:"assigned_to"`
}

func newTaskResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate.Format(domain.DateLayout),
		Status:      t.Status,
		TeamID:      t.TeamID,
		AssignedTo:  t.AssignedTo,
	}
}

func newTaskResponses(tasks []*domain.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, newTaskResponse(t))
	}
	return out
}
