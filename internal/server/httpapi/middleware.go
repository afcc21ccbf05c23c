package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/taskhub/internal/common"
	"github.com/dmitrijs2005/taskhub/internal/server/auth"
	"github.com/dmitrijs2005/taskhub/internal/server/models"
)

type ctxKey string

const actorKey ctxKey = "actor"

// ActorFromContext returns the authenticated user placed in the request
// context by the authenticate middleware.
func ActorFromContext(ctx context.Context) (*models.User, bool) {
	actor, ok := ctx.Value(actorKey).(*models.User)
	return actor, ok
}

// authenticate verifies the bearer token and resolves the user behind it.
// Every failure mode gets the same 401 body; the sub-cause only shows up in
// the logs, so callers cannot probe which accounts or tokens exist.
func (s *HTTPServer) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		token := extractBearerToken(r)
		if token == "" {
			s.unauthorized(w, r, "missing authentication token")
			return
		}

		userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
		if err != nil {
			s.unauthorized(w, r, "invalid or expired token")
			return
		}

		actor, err := s.usersRepo.GetByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				s.unauthorized(w, r, "user not found")
			} else {
				s.logger.Error(r.Context(), err.Error())
				s.unauthorized(w, r, "authentication failed")
			}
			return
		}

		ctx := context.WithValue(r.Context(), actorKey, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *HTTPServer) unauthorized(w http.ResponseWriter, r *http.Request, reason string) {
	s.logger.Debug(r.Context(), "authentication rejected", "reason", reason)
	writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
}

func extractBearerToken(r *http.Request) string {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}
