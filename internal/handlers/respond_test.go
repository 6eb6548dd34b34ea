package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repairshop-backend/internal/payroll"
	"repairshop-backend/internal/repositories"
	"repairshop-backend/internal/services"
	"repairshop-backend/internal/storage"
	"repairshop-backend/internal/ticket"
	"repairshop-backend/internal/timeutil"
)

func TestErrorStatus(t *testing.T) {
	cases := map[error]int{
		repositories.ErrNotFound:        http.StatusNotFound,
		ticket.ErrInsufficientStock:     http.StatusConflict,
		repositories.ErrVersionConflict: http.StatusConflict,
		repositories.ErrReferenceUsed:   http.StatusConflict,
		payroll.ErrLocked:               http.StatusConflict,
		ticket.ErrInvalidAmount:         http.StatusBadRequest,
		services.ErrPaymentUnverified:   http.StatusPaymentRequired,
		services.ErrRequiresRecentLogin: http.StatusUnauthorized,
		services.ErrSuspended:           http.StatusForbidden,
		storage.ErrDisabled:             http.StatusServiceUnavailable,
		errors.New("connection reset"):  http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, errorStatus(err), err.Error())
	}

	wrapped := fmt.Errorf("load order: %w", repositories.ErrNotFound)
	assert.Equal(t, http.StatusNotFound, errorStatus(wrapped))
}

func TestRespondErrorHidesInternalErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)

	rec := httptest.NewRecorder()
	respondError(rec, req, errors.New("pq: relation does not exist"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	respondError(rec, req, ticket.ErrInsufficientStock)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), ticket.ErrInsufficientStock.Error())
}

func TestDateRangeIsInclusive(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/reports/performance?from=2024-01-01&to=2024-01-31", nil)
	rg, err := dateRange(req)
	require.NoError(t, err)

	from, _ := timeutil.ParseDate("2024-01-01")
	next, _ := timeutil.ParseDate("2024-02-01")
	assert.True(t, rg.From.Equal(from))
	assert.True(t, rg.To.Equal(next))

	_, err = dateRange(httptest.NewRequest(http.MethodGet, "/x?from=01/02/2024", nil))
	assert.ErrorIs(t, err, services.ErrInvalidInput)
}

func TestVersionParam(t *testing.T) {
	assert.Nil(t, versionParam(httptest.NewRequest(http.MethodPost, "/x", nil)))
	assert.Nil(t, versionParam(httptest.NewRequest(http.MethodPost, "/x?version=abc", nil)))

	v := versionParam(httptest.NewRequest(http.MethodPost, "/x?version=7", nil))
	require.NotNil(t, v)
	assert.Equal(t, 7, *v)
}
