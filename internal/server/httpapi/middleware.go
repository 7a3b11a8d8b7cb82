package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/avolkhin/roost/internal/server/auth"
	"github.com/avolkhin/roost/internal/server/models"
)

type ctxKey string

const principalKey ctxKey = "principal"

// principalFromContext returns the authenticated principal attached by
// requireAuth.
func principalFromContext(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(principalKey).(models.Principal)
	return p, ok
}

// requireAuth verifies the Bearer access token and checks that the
// device it was issued to is still registered; logging out a device
// revokes its tokens even before they expire. The principal is attached
// to the request context for the wrapped handler.
func (s *Server) requireAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, errcodeMissingToken, "Missing access token.")
			return
		}

		principal, err := auth.GetPrincipalFromToken(token, s.jwtSecret)
		if err != nil {
			writeError(w, http.StatusUnauthorized, errcodeUnknownToken, "Invalid access token.")
			return
		}

		localpart, err := models.LocalpartOf(principal.UserID)
		if err != nil {
			writeError(w, http.StatusUnauthorized, errcodeUnknownToken, "Invalid access token.")
			return
		}

		exists, err := s.store.DeviceIDExists(r.Context(), localpart, principal.DeviceID)
		if err != nil {
			s.logger.Error(r.Context(), "device check failed", "err", err.Error())
			writeError(w, http.StatusInternalServerError, errcodeUnknown, "Internal server error.")
			return
		}
		if !exists {
			writeError(w, http.StatusUnauthorized, errcodeUnknownToken, "Access token revoked.")
			return
		}

		ctx := context.WithValue(r.Context(), principalKey, principal)
		next(w, r.WithContext(ctx))
	})
}

// bearerToken extracts the access token from the Authorization header
// or, as older clients send it, the access_token query parameter.
func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		token := strings.TrimPrefix(h, "Bearer ")
		return token, token != ""
	}
	if token := r.URL.Query().Get("access_token"); token != "" {
		return token, true
	}
	return "", false
}
