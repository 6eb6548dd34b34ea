package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"repairshop-backend/internal/auth"
	"repairshop-backend/internal/cache"
	"repairshop-backend/internal/models"
)

type contextKey string

const UserIDKey contextKey = "user_id"
const EmailKey contextKey = "email"
const RoleKey contextKey = "role"
const UserKey contextKey = "user"
const ClaimsKey contextKey = "claims"

// UserLoader reads the current user row.
type UserLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type AuthMiddleware struct {
	jwtManager *auth.JWTManager
	users      UserLoader
}

func NewAuthMiddleware(jwtManager *auth.JWTManager, users UserLoader) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		users:      users,
	}
}

func writeError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// BearerToken extracts the token from "Authorization: Bearer <token>" or,
// for websocket upgrades, the token query parameter.
func BearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if t := r.URL.Query().Get("token"); t != "" {
			return t, nil
		}
		return "", errors.New("Authorization header required")
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.New("Invalid authorization format")
	}
	return parts[1], nil
}

// Authenticate validates the session token and re-reads the user row so
// suspensions and role changes apply on the next request.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := BearerToken(r)
		if err != nil {
			writeError(w, err.Error(), http.StatusUnauthorized)
			return
		}

		claims, err := m.jwtManager.ValidateToken(token, auth.PurposeSession)
		if err != nil {
			writeError(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}
		if cache.IsDenied(r.Context(), claims.ID) {
			writeError(w, "Session signed out", http.StatusUnauthorized)
			return
		}
		uid, err := claims.UID()
		if err != nil {
			writeError(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		user, err := m.users.GetByID(r.Context(), uid)
		if err != nil {
			writeError(w, "User not found", http.StatusUnauthorized)
			return
		}
		if !user.IsActive() {
			writeError(w, "Account suspended. Please contact administrator.", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user, claims)))
	})
}

// WithUser stores the session in ctx.
func WithUser(ctx context.Context, user *models.User, claims *auth.Claims) context.Context {
	ctx = context.WithValue(ctx, UserKey, user)
	ctx = context.WithValue(ctx, UserIDKey, user.ID)
	ctx = context.WithValue(ctx, EmailKey, user.Email)
	ctx = context.WithValue(ctx, RoleKey, user.Role)
	if claims != nil {
		ctx = context.WithValue(ctx, ClaimsKey, claims)
	}
	return ctx
}

// GetUserFromContext returns the authenticated user
func GetUserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserKey).(*models.User)
	return user, ok && user != nil
}

// GetUserIDFromContext extracts user ID from request context
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// GetRoleFromContext extracts role from request context
func GetRoleFromContext(ctx context.Context) (models.Role, bool) {
	role, ok := ctx.Value(RoleKey).(models.Role)
	return role, ok
}

// GetClaimsFromContext returns the validated token claims
func GetClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*auth.Claims)
	return claims, ok
}

// RequireRole ensures the authenticated user has one of the allowed roles.
// It must run after Authenticate.
func (m *AuthMiddleware) RequireRole(allowedRoles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUserFromContext(r.Context())
			if !ok {
				writeError(w, "Authorization required", http.StatusUnauthorized)
				return
			}
			for _, role := range allowedRoles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, "Forbidden: Insufficient permissions", http.StatusForbidden)
		})
	}
}

// RequireStaff rejects accounts still waiting for approval.
func (m *AuthMiddleware) RequireStaff(next http.Handler) http.Handler {
	return m.RequireRole(models.RoleWorker, models.RoleSecretary, models.RoleAdmin, models.RoleCEO)(next)
}

// RequireFrontDesk allows the roles that take tickets and money.
func (m *AuthMiddleware) RequireFrontDesk(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := GetUserFromContext(r.Context())
		if !ok {
			writeError(w, "Authorization required", http.StatusUnauthorized)
			return
		}
		if user.Role == models.RoleSecretary || user.HasAdminAccess() {
			next.ServeHTTP(w, r)
			return
		}
		writeError(w, "Forbidden: Front desk access required", http.StatusForbidden)
	})
}

// RequireAdminAccess allows admin, ceo, or any user flagged with admin access.
func (m *AuthMiddleware) RequireAdminAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := GetUserFromContext(r.Context())
		if !ok {
			writeError(w, "Authorization required", http.StatusUnauthorized)
			return
		}
		if !user.HasAdminAccess() {
			writeError(w, "Forbidden: Admin access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
