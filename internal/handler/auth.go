package handler

import (
	"net/http"
	"time"

	"github.com/aidar/team-tasks/internal/domain"
	"github.com/aidar/team-tasks/internal/middleware"
	"github.com/aidar/team-tasks/internal/service"
)

// CookieConfig настройки сессионной cookie
type CookieConfig struct {
	Name   string
	Secure bool
}

// AuthHandler обрабатывает эндпоинты аутентификации
type AuthHandler struct {
	authService    *service.AuthService
	profileService *service.ProfileService
	cookie         CookieConfig
}

// NewAuthHandler создает новый AuthHandler
func NewAuthHandler(authService *service.AuthService, profileService *service.ProfileService, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		profileService: profileService,
		cookie:         cookie,
	}
}

// SessionResponse ответ на регистрацию и логин
type SessionResponse struct {
	User    *domain.User    `json:"user"`
	Profile *domain.Profile `json:"profile"`
	Token   string          `json:"token"`
	Next    string          `json:"next"`
}

// Register обрабатывает POST /register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.Credentials
	if err := decodeBody(r, &req); err != nil {
		HandleError(w, r, err)
		return
	}

	user, profile, err := h.authService.Register(r.Context(), req)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	token, err := h.authService.IssueToken(user)
	if err != nil {
		HandleError(w, r, err)
		return
	}
	h.setSessionCookie(w, token)

	// Новый пользователь всегда начинает с настройки профиля
	RespondWithJSON(w, r, http.StatusCreated, SessionResponse{
		User:    user,
		Profile: profile,
		Token:   token,
		Next:    middleware.SetupPath,
	})
}

// Login обрабатывает POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.Credentials
	if err := decodeBody(r, &req); err != nil {
		HandleError(w, r, err)
		return
	}

	user, token, err := h.authService.Login(r.Context(), req)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	profile, err := h.profileService.GetOrCreate(r.Context(), user.ID)
	if err != nil {
		HandleError(w, r, err)
		return
	}
	h.setSessionCookie(w, token)

	next := "/"
	if !profile.IsComplete() {
		next = middleware.SetupPath
	}

	RespondWithJSON(w, r, http.StatusOK, SessionResponse{
		User:    user,
		Profile: profile,
		Token:   token,
		Next:    next,
	})
}

// Logout обрабатывает GET/POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Logout(r.Context(), middleware.GetClaimsFromContext(r.Context())); err != nil {
		HandleError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "logged_out"})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.authService.TokenExpiry().Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
