package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"github.com/aidar/team-tasks/internal/domain"
	"github.com/aidar/team-tasks/internal/service"
)

// ContextKey это кастомный тип для ключей контекста
type ContextKey string

const (
	// UserIDKey ключ контекста для ID пользователя
	UserIDKey ContextKey = "user_id"
	// ClaimsKey ключ контекста для claims сессионного токена
	ClaimsKey ContextKey = "claims"
	// ActorKey ключ контекста для участника с завершенным профилем
	ActorKey ContextKey = "actor"
)

// TokenValidator проверяет сессионный токен
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*service.Claims, error)
}

// AuthMiddleware создает middleware для валидации JWT токенов.
// Токен берется из заголовка Authorization: Bearer или из cookie cookieName.
func AuthMiddleware(validator TokenValidator, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, msg := extractToken(r, cookieName)
			if token == "" {
				writeError(w, r, http.StatusUnauthorized, domain.CodeUnauthorized, msg)
				return
			}

			// Валидируем токен
			claims, err := validator.ValidateToken(r.Context(), token)
			if err != nil {
				if errors.Is(err, domain.ErrUnauthorized) {
					writeError(w, r, http.StatusUnauthorized, domain.CodeUnauthorized, "invalid or expired token")
					return
				}
				writeError(w, r, http.StatusInternalServerError, domain.CodeInternal, "internal server error")
				return
			}

			// Добавляем claims в контекст
			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, ClaimsKey, claims)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractToken(r *http.Request, cookieName string) (string, string) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		// Проверяем формат Bearer
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", "invalid authorization header format"
		}
		return parts[1], ""
	}

	if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
		return cookie.Value, ""
	}

	return "", "missing session"
}

// GetUserIDFromContext извлекает ID пользователя из контекста
func GetUserIDFromContext(ctx context.Context) int64 {
	userID, ok := ctx.Value(UserIDKey).(int64)
	if !ok {
		return 0
	}
	return userID
}

// GetClaimsFromContext извлекает claims токена из контекста
func GetClaimsFromContext(ctx context.Context) *service.Claims {
	claims, _ := ctx.Value(ClaimsKey).(*service.Claims)
	return claims
}

// writeError пишет ошибку в том же формате, что и handler.RespondWithError
func writeError(w http.ResponseWriter, r *http.Request, status int, code domain.ErrorCode, message string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]any{
		"error": map[string]string{
			"code":    string(code),
			"message": message,
		},
	})
}
