package handler

import (
	"net/http"

	"github.com/aidar/team-tasks/internal/domain"
	"github.com/aidar/team-tasks/internal/middleware"
	"github.com/aidar/team-tasks/internal/service"
)

// ProfileHandler обрабатывает настройку профиля
type ProfileHandler struct {
	profileService *service.ProfileService
	teamService    *service.TeamService
}

// NewProfileHandler создает новый ProfileHandler
func NewProfileHandler(profileService *service.ProfileService, teamService *service.TeamService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		teamService:    teamService,
	}
}

// SetupFormResponse данные для формы настройки профиля
type SetupFormResponse struct {
	Profile *domain.Profile `json:"profile"`
	Teams   []*domain.Team  `json:"teams"`
	Roles   []domain.Role   `json:"roles"`
}

// SetupResponse ответ на успешную настройку профиля
type SetupResponse struct {
	Profile *domain.Profile `json:"profile"`
	Next    string          `json:"next"`
}

// SetupForm обрабатывает GET /setup
func (h *ProfileHandler) SetupForm(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profileService.GetOrCreate(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		HandleError(w, r, err)
		return
	}
	if profile.IsComplete() {
		HandleError(w, r, domain.ErrProfileAlreadyComplete)
		return
	}

	teams, err := h.teamService.List(r.Context())
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, SetupFormResponse{
		Profile: profile,
		Teams:   teams,
		Roles:   []domain.Role{domain.RoleManager, domain.RoleEmployee},
	})
}

// Setup обрабатывает POST /setup
func (h *ProfileHandler) Setup(w http.ResponseWriter, r *http.Request) {
	var req service.SetupInput
	if err := decodeBody(r, &req); err != nil {
		HandleError(w, r, err)
		return
	}

	profile, err := h.profileService.CompleteSetup(r.Context(), middleware.GetUserIDFromContext(r.Context()), req)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, SetupResponse{Profile: profile, Next: "/"})
}
