package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/aidar/team-tasks/internal/domain"
)

// SetupPath адрес настройки профиля
const SetupPath = "/setup"

// ActorResolver возвращает участника для пользователя с завершенным профилем
type ActorResolver interface {
	Resolve(ctx context.Context, userID int64) (domain.Actor, error)
}

// ProfileGate пропускает запрос дальше только при завершенном профиле.
// Незавершенный профиль получает 303 на /setup, обработчик не вызывается.
// Должен стоять после AuthMiddleware.
func ProfileGate(resolver ActorResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := GetUserIDFromContext(r.Context())
			if userID == 0 {
				writeError(w, r, http.StatusUnauthorized, domain.CodeUnauthorized, "missing session")
				return
			}

			actor, err := resolver.Resolve(r.Context(), userID)
			switch {
			case err == nil:
			case errors.Is(err, domain.ErrProfileIncomplete):
				w.Header().Set("Location", SetupPath)
				writeError(w, r, http.StatusSeeOther, domain.CodeProfileIncomplete, "complete profile setup first")
				return
			case errors.Is(err, domain.ErrUserNotFound):
				// Токен пережил удаление пользователя
				writeError(w, r, http.StatusUnauthorized, domain.CodeUnauthorized, "unknown user")
				return
			default:
				writeError(w, r, http.StatusInternalServerError, domain.CodeInternal, "internal server error")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// WithActor кладет участника в контекст
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, ActorKey, actor)
}

// ActorFromContext извлекает участника из контекста
func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(ActorKey).(domain.Actor)
	return actor, ok
}
