package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/aidar/team-tasks/internal/domain"
)

// AdminTokenHeader заголовок с токеном оператора
const AdminTokenHeader = "X-Admin-Token"

// AdminToken пропускает только запросы с токеном оператора в заголовке X-Admin-Token
func AdminToken(token string) func(http.Handler) http.Handler {
	expected := []byte(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(r.Header.Get(AdminTokenHeader))
			if len(expected) == 0 || subtle.ConstantTimeCompare(got, expected) != 1 {
				writeError(w, r, http.StatusUnauthorized, domain.CodeUnauthorized, "invalid admin token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
