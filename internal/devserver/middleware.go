package devserver

import (
	"context"
	"net/http"
	"strings"
)

// Recovery recovers from panics in HTTP handlers and returns HTTP 500 to the client.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if recover() != nil {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				// Logging of panics is handled in Logging middleware
			}
		}()

		next.ServeHTTP(w, r)
	})
}

type userKey struct{}

// userFrom returns a snapshot of the user authenticated by requireAuth.
func userFrom(ctx context.Context) user {
	u, _ := ctx.Value(userKey{}).(user)
	return u
}

// requireAuth resolves the bearer access token to a user or answers 401 the way the
// real backend does.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if header == "" || !ok {
			writeDetail(ctx, w, "Authentication credentials were not provided.", http.StatusUnauthorized)
			return
		}

		u, ok := s.state.userByAccessToken(token)
		if !ok {
			writeJSON(ctx, w, ErrorResponse{
				Detail: "Given token not valid for any token type",
				Code:   "token_not_valid",
			}, http.StatusUnauthorized)
			return
		}

		next(w, r.WithContext(context.WithValue(ctx, userKey{}, u)))
	}
}

// requireRole answers 403 unless the authenticated user has one of roles.
func requireRole(next http.HandlerFunc, roles ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := userFrom(r.Context())
		for _, role := range roles {
			if u.Role == role {
				next(w, r)
				return
			}
		}
		writeDetail(r.Context(), w, "You do not have permission to perform this action.", http.StatusForbidden)
	}
}
