package middleware

import (
	"net/http"

	"github.com/HammerMeetNail/splitledger/internal/handlers"
	"github.com/HammerMeetNail/splitledger/internal/logging"
	"github.com/HammerMeetNail/splitledger/internal/services"
)

type AuthMiddleware struct {
	authService services.AuthServiceInterface
}

func NewAuthMiddleware(authService services.AuthServiceInterface) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// Authenticate validates the session token, if any, and adds the user to the
// request context. It does not reject unauthenticated requests.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := handlers.SessionToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, err := m.authService.ValidateSession(r.Context(), token)
		if err != nil {
			logging.Debug("Session rejected", map[string]interface{}{
				"error": err.Error(),
				"path":  r.URL.Path,
			})
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(handlers.SetUserInContext(r.Context(), user)))
	})
}

// RequireAuth rejects unauthenticated requests with 401.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handlers.GetUserFromContext(r.Context()) == nil {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Protect authenticates the request and rejects it when no session is present.
func (m *AuthMiddleware) Protect(next http.Handler) http.Handler {
	return m.Authenticate(m.RequireAuth(next))
}
