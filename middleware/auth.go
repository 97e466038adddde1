package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"repairdesk/models"
	"repairdesk/permission"
	"repairdesk/utils"
)

type contextKey string

const viewerKey contextKey = "viewer"

// UserLookup loads the account behind a session token (service.AuthService)
type UserLookup interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
}

// AuthMiddleware validates the session token and puts the caller in the request context
type AuthMiddleware struct {
	users     UserLookup
	jwtSecret []byte
}

// NewAuthMiddleware creates a new auth middleware. users may be nil to trust the token alone.
func NewAuthMiddleware(users UserLookup, jwtSecret string) *AuthMiddleware {
	return &AuthMiddleware{
		users:     users,
		jwtSecret: []byte(jwtSecret),
	}
}

// RequireAuth validates the Bearer token and sets the viewer in context
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Authorization header required. Please log in.")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Invalid authorization format. Expected: Bearer <token>")
			return
		}

		claims, err := utils.ParseJWT(parts[1], m.jwtSecret)
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Invalid or expired token. Please log in again.")
			return
		}

		// Role changes and deleted accounts take effect without waiting for token expiry
		if m.users != nil {
			user, err := m.users.GetUser(r.Context(), claims.UserID)
			if err != nil || user == nil || user.Role != claims.Role {
				respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Session no longer valid. Please log in again.")
				return
			}
		}

		ctx := WithViewer(r.Context(), permission.Viewer{UserID: claims.UserID, Role: claims.Role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole rejects callers whose role is not listed with 403. It must run after RequireAuth.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			v, ok := ViewerFromContext(r.Context())
			if !ok {
				respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Authentication required")
				return
			}
			for _, role := range roles {
				if v.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			respondWithError(w, http.StatusForbidden, "Forbidden", "Your role cannot perform this action")
		})
	}
}

// WithViewer returns ctx carrying v
func WithViewer(ctx context.Context, v permission.Viewer) context.Context {
	return context.WithValue(ctx, viewerKey, v)
}

// ViewerFromContext returns the authenticated caller set by RequireAuth
func ViewerFromContext(ctx context.Context) (permission.Viewer, bool) {
	v, ok := ctx.Value(viewerKey).(permission.Viewer)
	return v, ok
}

// Helper function for error responses
func respondWithError(w http.ResponseWriter, statusCode int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(models.ErrorResponse{
		Error:   errorType,
		Message: message,
		Code:    statusCode,
	})
}
