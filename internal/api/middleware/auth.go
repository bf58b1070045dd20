package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gorilla/mux"

	"fxstats/pkg/crypto"
)

// BasicAuth защищает API HTTP Basic аутентификацией.
//
// Пароль сравнивается с bcrypt-хэшем из конфигурации, имя пользователя -
// constant-time сравнением. Если хэш не задан, аутентификация отключена:
// сервис рассчитан на локальное развертывание за reverse proxy, и пустая
// конфигурация означает "доступ открыт" осознанно.
func BasicAuth(username, passwordHash string) mux.MiddlewareFunc {
	enabled := passwordHash != ""

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				next.ServeHTTP(w, r)
				return
			}

			user, pass, ok := r.BasicAuth()
			if !ok {
				w.Header().Set("WWW-Authenticate", `Basic realm="fxstats"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
			passMatch := crypto.VerifyPassword(pass, passwordHash) == nil

			if !userMatch || !passMatch {
				w.Header().Set("WWW-Authenticate", `Basic realm="fxstats"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
