package handler

import (
	"net/http"

	"github.com/aidar/team-tasks/internal/domain"
	"github.com/aidar/team-tasks/internal/service"
)

// TeamHandler обрабатывает эндпоинты команд
type TeamHandler struct {
	teamService *service.TeamService
}

// NewTeamHandler создает новый TeamHandler
func NewTeamHandler(teamService *service.TeamService) *TeamHandler {
	return &TeamHandler{
		teamService: teamService,
	}
}

// TeamsResponse представляет список команд
type TeamsResponse struct {
	Teams []*domain.Team `json:"teams"`
}

// List обрабатывает GET /teams
func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	teams, err := h.teamService.List(r.Context())
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, TeamsResponse{Teams: teams})
}

// TeamResponse представляет одну команду
type TeamResponse struct {
	Team *domain.Team `json:"team"`
}

// AddTeam обрабатывает POST /team/add
func (h *TeamHandler) AddTeam(w http.ResponseWriter, r *http.Request) {
	var req service.TeamInput
	if err := decodeBody(r, &req); err != nil {
		HandleError(w, r, err)
		return
	}

	team, err := h.teamService.Create(r.Context(), req.Name)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, TeamResponse{Team: team})
}

// RenameTeam обрабатывает POST /team/rename
func (h *TeamHandler) RenameTeam(w http.ResponseWriter, r *http.Request) {
	var req service.TeamInput
	if err := decodeBody(r, &req); err != nil {
		HandleError(w, r, err)
		return
	}

	team, err := h.teamService.Rename(r.Context(), req.TeamID, req.Name)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, TeamResponse{Team: team})
}
