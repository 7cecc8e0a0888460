package handler

import (
	"net/http"

	"github.com/aidar/team-tasks/internal/domain"
	"github.com/aidar/team-tasks/internal/service"
)

// TaskHandler обрабатывает эндпоинты задач команды
type TaskHandler struct {
	taskService *service.TaskService
	teamService *service.TeamService
}

// NewTaskHandler создает новый TaskHandler
func NewTaskHandler(taskService *service.TaskService, teamService *service.TeamService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		teamService: teamService,
	}
}

// TaskListFilters выбранные фильтры списка
type TaskListFilters struct {
	Status string `json:"status"`
	Worker string `json:"worker"`
}

// TaskListResponse содержит задачи команды и данные для фильтров
type TaskListResponse struct {
	Team       *domain.Team         `json:"team"`
	Tasks      []TaskResponse       `json:"tasks"`
	Members    []*domain.TeamMember `json:"members"`
	Statuses   []domain.TaskStatus  `json:"statuses"`
	Filters    TaskListFilters      `json:"filters"`
	IsManager  bool                 `json:"is_manager"`
	IsEmployee bool                 `json:"is_employee"`
}

// DeleteTaskResponse ответ на удаление задачи
type DeleteTaskResponse struct {
	Deleted int64 `json:"deleted"`
}

// List обрабатывает GET /?status=&worker=
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	filters := TaskListFilters{
		Status: r.URL.Query().Get("status"),
		Worker: r.URL.Query().Get("worker"),
	}
	filter, err := service.ParseTaskFilter(filters.Status, filters.Worker)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	tasks, err := h.taskService.List(r.Context(), actor, filter)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	team, err := h.teamService.Get(r.Context(), actor.TeamID)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	members, err := h.teamService.Members(r.Context(), actor)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, TaskListResponse{
		Team:       team,
		Tasks:      newTaskResponses(tasks),
		Members:    members,
		Statuses:   domain.TaskStatuses,
		Filters:    filters,
		IsManager:  actor.IsManager(),
		IsEmployee: actor.IsEmployee(),
	})
}

// Create обрабатывает POST /create
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	var req service.TaskInput
	if err := decodeBody(r, &req); err != nil {
		HandleError(w, r, err)
		return
	}

	task, err := h.taskService.Create(r.Context(), actor, req)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, newTaskResponse(task))
}

// EditForm обрабатывает GET /edit/{taskID}
func (h *TaskHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	actor, taskID, err := actorAndTaskID(r)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	task, err := h.taskService.GetEditable(r.Context(), actor, taskID)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, newTaskResponse(task))
}

// Edit обрабатывает POST /edit/{taskID}
func (h *TaskHandler) Edit(w http.ResponseWriter, r *http.Request) {
	actor, taskID, err := actorAndTaskID(r)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	var req service.TaskInput
	if err := decodeBody(r, &req); err != nil {
		HandleError(w, r, err)
		return
	}

	task, err := h.taskService.Edit(r.Context(), actor, taskID, req)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, newTaskResponse(task))
}

// Delete обрабатывает POST /delete/{taskID}
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, taskID, err := actorAndTaskID(r)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	if err := h.taskService.Delete(r.Context(), actor, taskID); err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, DeleteTaskResponse{Deleted: taskID})
}

// Assign обрабатывает POST /assign/{taskID}
func (h *TaskHandler) Assign(w http.ResponseWriter, r *http.Request) {
	actor, taskID, err := actorAndTaskID(r)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	task, err := h.taskService.Assign(r.Context(), actor, taskID)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, newTaskResponse(task))
}

// ChangeStatus обрабатывает POST /status/{taskID}
func (h *TaskHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	actor, taskID, err := actorAndTaskID(r)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	var req service.StatusInput
	if err := decodeBody(r, &req); err != nil {
		HandleError(w, r, err)
		return
	}

	task, err := h.taskService.ChangeStatus(r.Context(), actor, taskID, req.Status)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, newTaskResponse(task))
}

func actorAndTaskID(r *http.Request) (domain.Actor, int64, error) {
	actor, err := actorFromRequest(r)
	if err != nil {
		return domain.Actor{}, 0, err
	}
	taskID, err := taskIDParam(r)
	if err != nil {
		return domain.Actor{}, 0, err
	}
	return actor, taskID, nil
}
