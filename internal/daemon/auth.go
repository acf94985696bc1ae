package daemon

import (
	"context"
	"net/http"
	"strings"

	"otrack/internal/identity"
	"otrack/internal/logging"
)

type sessionKey struct{}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	return token, token != ""
}

// authMiddleware resolves the bearer token to a session and stores it on the
// request context. Missing, unknown, and expired tokens get 401.
func (s *apiServer) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			s.writeError(w, r, http.StatusUnauthorized, "unauthorized")
			return
		}
		session, err := s.daemon.identity.GetSession(r.Context(), token)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		ctx := logging.WithActor(r.Context(), session.UserID)
		ctx = contextWithSession(ctx, session)
		next(w, r.WithContext(ctx))
	}
}

func sessionFromRequest(r *http.Request) *identity.Session {
	session, _ := r.Context().Value(sessionKey{}).(*identity.Session)
	return session
}

func contextWithSession(ctx context.Context, session *identity.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}
