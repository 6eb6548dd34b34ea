package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repairshop-backend/internal/auth"
	"repairshop-backend/internal/config"
	"repairshop-backend/internal/handlers"
	"repairshop-backend/internal/middleware"
	"repairshop-backend/internal/models"
)

type userTable map[uuid.UUID]*models.User

func (u userTable) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := u[id]; ok {
		return user, nil
	}
	return nil, errors.New("not found")
}

// Handlers carry no services: a request that passes the permission gate
// fails inside the handler, which the recovery middleware reports as 500.
func testRouter(t *testing.T, users userTable) (http.Handler, *auth.JWTManager) {
	t.Helper()
	cfg := &config.Config{}
	cfg.JWT.Secret = "router-secret"
	cfg.JWT.Issuer = "test"
	cfg.JWT.ExpirationHours = 1
	jm := auth.NewJWTManager(cfg)

	r := NewRouter(Handlers{
		Auth:      handlers.NewAuthHandler(nil),
		Users:     handlers.NewUserHandler(nil),
		Invites:   handlers.NewInviteHandler(nil),
		Orders:    handlers.NewOrderHandler(nil),
		Inventory: handlers.NewInventoryHandler(nil),
		Prices:    handlers.NewServicePriceHandler(nil),
		Payroll:   handlers.NewPayrollHandler(nil),
		Reports:   handlers.NewReportHandler(nil),
		Photos:    handlers.NewProofOfWorkHandler(nil),
		Issues:    handlers.NewIssueHandler(nil),
		WS:        handlers.NewWSHandler(nil),
		Health:    handlers.NewHealthHandler(nil),
	}, middleware.NewAuthMiddleware(jm, users), middleware.NewRateLimiter(1000))
	return middleware.PanicRecovery(r), jm
}

func TestRoutePermissions(t *testing.T) {
	accounts := map[string]*models.User{
		"pending":   {ID: uuid.New(), Role: models.RolePending},
		"worker":    {ID: uuid.New(), Role: models.RoleWorker},
		"flagged":   {ID: uuid.New(), Role: models.RoleWorker, IsAdminAccess: true},
		"secretary": {ID: uuid.New(), Role: models.RoleSecretary},
		"admin":     {ID: uuid.New(), Role: models.RoleAdmin},
		"ceo":       {ID: uuid.New(), Role: models.RoleCEO},
	}
	users := userTable{}
	for _, u := range accounts {
		users[u.ID] = u
	}
	router, jm := testRouter(t, users)

	id := uuid.NewString()
	staff := []string{"worker", "flagged", "secretary", "admin", "ceo"}
	frontDesk := []string{"flagged", "secretary", "admin", "ceo"}
	admins := []string{"flagged", "admin", "ceo"}
	everyone := []string{"pending", "worker", "flagged", "secretary", "admin", "ceo"}

	cases := []struct {
		method  string
		path    string
		allowed []string
	}{
		{"GET", "/api/me", everyone},
		{"POST", "/api/me/signout", everyone},
		{"GET", "/api/orders", staff},
		{"GET", "/api/orders/mine", staff},
		{"POST", "/api/orders", frontDesk},
		{"POST", "/api/orders/" + id + "/payments", frontDesk},
		{"POST", "/api/orders/" + id + "/refund", frontDesk},
		{"POST", "/api/orders/" + id + "/collect", frontDesk},
		{"POST", "/api/orders/" + id + "/void", admins},
		{"PUT", "/api/orders/" + id + "/items/a/services/b/status", staff},
		{"POST", "/api/orders/" + id + "/items/a/services/b/void", admins},
		{"POST", "/api/orders/" + id + "/parts", staff},
		{"DELETE", "/api/photos/" + id, admins},
		{"GET", "/api/inventory", staff},
		{"POST", "/api/inventory/" + id + "/stock", frontDesk},
		{"PUT", "/api/inventory/" + id, admins},
		{"DELETE", "/api/inventory/" + id, admins},
		{"PUT", "/api/prices", admins},
		{"GET", "/api/users", admins},
		{"POST", "/api/invites", admins},
		{"GET", "/api/payroll/me", staff},
		{"GET", "/api/payroll", admins},
		{"POST", "/api/payroll/" + id + "/confirm", admins},
		{"GET", "/api/reports/debt", admins},
		{"GET", "/api/dashboard/secretary", frontDesk},
		{"GET", "/api/dashboard/admin", admins},
		{"POST", "/api/issues", staff},
		{"GET", "/api/issues", admins},
	}

	for _, tc := range cases {
		allowed := map[string]bool{}
		for _, name := range tc.allowed {
			allowed[name] = true
		}
		for name, u := range accounts {
			token, err := jm.GenerateToken(u)
			require.NoError(t, err)
			req := httptest.NewRequest(tc.method, tc.path, nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if allowed[name] {
				assert.NotContains(t, []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusMethodNotAllowed},
					rec.Code, "%s %s as %s", tc.method, tc.path, name)
			} else {
				assert.Equal(t, http.StatusForbidden, rec.Code, "%s %s as %s", tc.method, tc.path, name)
			}
		}

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s without a token", tc.method, tc.path)
	}
}

func TestSuspendedAccountIsRefused(t *testing.T) {
	boss := &models.User{ID: uuid.New(), Role: models.RoleAdmin, Status: models.UserStatusSuspended}
	router, jm := testRouter(t, userTable{boss.ID: boss})
	token, err := jm.GenerateToken(boss)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHealthIsPublic(t *testing.T) {
	router, _ := testRouter(t, userTable{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	assert.NotEqual(t, http.StatusUnauthorized, rec.Code)
	assert.NotEqual(t, http.StatusForbidden, rec.Code)
}
