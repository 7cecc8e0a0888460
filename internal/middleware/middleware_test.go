package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidar/team-tasks/internal/domain"
	"github.com/aidar/team-tasks/internal/service"
)

type stubValidator struct {
	tokens map[string]*service.Claims
	err    error
}

func (s stubValidator) ValidateToken(_ context.Context, token string) (*service.Claims, error) {
	if s.err != nil {
		return nil, s.err
	}
	claims, ok := s.tokens[token]
	if !ok {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}

type stubResolver map[int64]domain.Actor

func (s stubResolver) Resolve(_ context.Context, userID int64) (domain.Actor, error) {
	actor, ok := s[userID]
	if !ok {
		return domain.Actor{}, domain.ErrProfileIncomplete
	}
	return actor, nil
}

func TestAuthMiddleware(t *testing.T) {
	validator := stubValidator{tokens: map[string]*service.Claims{"good": {UserID: 7}}}

	var gotUserID int64
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = GetUserIDFromContext(r.Context())
		require.NotNil(t, GetClaimsFromContext(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	})
	h := AuthMiddleware(validator, "session")(next)

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{"bearer header", func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") }, http.StatusNoContent},
		{"session cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "session", Value: "good"}) }, http.StatusNoContent},
		{"missing", func(r *http.Request) {}, http.StatusUnauthorized},
		{"malformed header", func(r *http.Request) { r.Header.Set("Authorization", "Token good") }, http.StatusUnauthorized},
		{"invalid token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer bad") }, http.StatusUnauthorized},
		{"wrong cookie name", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "other", Value: "good"}) }, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotUserID = 0
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusNoContent {
				assert.Equal(t, int64(7), gotUserID)
			} else {
				assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
			}
		})
	}
}

func TestAuthMiddleware_RevocationStoreDown(t *testing.T) {
	h := AuthMiddleware(stubValidator{err: errors.New("redis: connection refused")}, "session")(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { t.Fatal("handler must not run") }),
	)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer any")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestProfileGate(t *testing.T) {
	manager := domain.Actor{UserID: 1, TeamID: 10, Role: domain.RoleManager}
	resolver := stubResolver{1: manager}

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		actor, ok := ActorFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, manager, actor)
		w.WriteHeader(http.StatusOK)
	})
	h := ProfileGate(resolver)(next)

	t.Run("complete profile passes", func(t *testing.T) {
		called = false
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(context.WithValue(req.Context(), UserIDKey, int64(1)))
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, called)
	})

	t.Run("incomplete profile redirects to setup", func(t *testing.T) {
		called = false
		req := httptest.NewRequest(http.MethodPost, "/create", nil)
		req = req.WithContext(context.WithValue(req.Context(), UserIDKey, int64(2)))
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, SetupPath, rec.Header().Get("Location"))
		assert.Contains(t, rec.Body.String(), string(domain.CodeProfileIncomplete))
		assert.False(t, called, "handler must not run for an incomplete profile")
	})

	t.Run("no user in context", func(t *testing.T) {
		called = false
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, called)
	})
}

func TestAdminToken(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		token  string
		header string
		status int
	}{
		{"matching token", "operator", "operator", http.StatusNoContent},
		{"wrong token", "operator", "guest", http.StatusUnauthorized},
		{"missing header", "operator", "", http.StatusUnauthorized},
		{"unconfigured token", "", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/team/add", nil)
			if tt.header != "" {
				req.Header.Set(AdminTokenHeader, tt.header)
			}
			rec := httptest.NewRecorder()

			AdminToken(tt.token)(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
