package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"repairshop-backend/internal/auth"
	"repairshop-backend/internal/middleware"
	"repairshop-backend/internal/models"
	"repairshop-backend/internal/payroll"
	"repairshop-backend/internal/reports"
	"repairshop-backend/internal/repositories"
	"repairshop-backend/internal/services"
	"repairshop-backend/internal/storage"
	"repairshop-backend/internal/ticket"
	"repairshop-backend/internal/timeutil"
	"repairshop-backend/pkg/utils"
)

// errorStatus maps domain errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, repositories.ErrNotFound),
		errors.Is(err, ticket.ErrItemNotFound),
		errors.Is(err, ticket.ErrServiceNotFound):
		return http.StatusNotFound

	case errors.Is(err, repositories.ErrVersionConflict),
		errors.Is(err, repositories.ErrDuplicate),
		errors.Is(err, repositories.ErrReferenceUsed),
		errors.Is(err, services.ErrEmailInUse),
		errors.Is(err, ticket.ErrInsufficientStock),
		errors.Is(err, ticket.ErrInvalidTransition),
		errors.Is(err, ticket.ErrOrderVoid),
		errors.Is(err, ticket.ErrAlreadyVoid),
		errors.Is(err, ticket.ErrAlreadyReturned),
		errors.Is(err, ticket.ErrNothingToRefund),
		errors.Is(err, ticket.ErrWarrantyParent),
		errors.Is(err, payroll.ErrAlreadyPaid),
		errors.Is(err, payroll.ErrNotPaid),
		errors.Is(err, payroll.ErrLocked):
		return http.StatusConflict

	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrInviteInvalid),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, payroll.ErrNotTech),
		errors.Is(err, ticket.ErrWrongItemType),
		errors.Is(err, ticket.ErrInvalidAmount),
		errors.Is(err, ticket.ErrInvalidQuantity),
		errors.Is(err, ticket.ErrRefundExceedsPaid),
		errors.Is(err, ticket.ErrEmptyOrder),
		errors.Is(err, ticket.ErrUnknownProduct),
		errors.Is(err, ticket.ErrUnpricedService),
		errors.Is(err, ticket.ErrInvalidOrder):
		return http.StatusBadRequest

	case errors.Is(err, services.ErrPaymentUnverified):
		return http.StatusPaymentRequired

	case errors.Is(err, services.ErrWrongPassword),
		errors.Is(err, services.ErrRequiresRecentLogin),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrWrongPurpose):
		return http.StatusUnauthorized

	case errors.Is(err, services.ErrSuspended),
		errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden

	case errors.Is(err, storage.ErrDisabled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondError writes err with its mapped status. Internal errors are logged
// and hidden from the client.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("[HTTP] %s %s: %v", r.Method, r.URL.Path, err)
		utils.Error(w, status, "Internal server error")
		return
	}
	utils.Error(w, status, err.Error())
}

func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s", name))
		return uuid.Nil, false
	}
	return id, true
}

// currentUser is set by the auth middleware on every protected route.
func currentUser(r *http.Request) *models.User {
	u, _ := middleware.GetUserFromContext(r.Context())
	return u
}

// versionParam reads an optional ?version= for bodiless mutations.
func versionParam(r *http.Request) *int {
	v := r.URL.Query().Get("version")
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}

func intParam(r *http.Request, name string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(name))
	return n
}

// dateRange reads ?from=YYYY-MM-DD&to=YYYY-MM-DD. The to date is inclusive.
func dateRange(r *http.Request) (reports.Range, error) {
	var rg reports.Range
	q := r.URL.Query()
	if v := strings.TrimSpace(q.Get("from")); v != "" {
		from, err := timeutil.ParseDate(v)
		if err != nil {
			return rg, fmt.Errorf("%w: from must be YYYY-MM-DD", services.ErrInvalidInput)
		}
		rg.From = from
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		to, err := timeutil.ParseDate(v)
		if err != nil {
			return rg, fmt.Errorf("%w: to must be YYYY-MM-DD", services.ErrInvalidInput)
		}
		rg.To = to.AddDate(0, 0, 1)
	}
	return rg, nil
}

func stamp() string {
	return timeutil.Now().Format("20060102_1504")
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
