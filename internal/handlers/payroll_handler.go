package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"repairshop-backend/internal/models"
	"repairshop-backend/internal/services"
	"repairshop-backend/internal/timeutil"
	"repairshop-backend/pkg/utils"
)

type PayrollHandler struct {
	Service *services.PayrollService
}

func NewPayrollHandler(s *services.PayrollService) *PayrollHandler {
	return &PayrollHandler{Service: s}
}

// week reads ?week=YYYY-MM-DD (any day of the week, default current)
func week(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	wk, err := services.ParseWeek(r.URL.Query().Get("week"))
	if err != nil {
		respondError(w, r, err)
		return time.Time{}, false
	}
	return wk, true
}

func (h *PayrollHandler) Overview(w http.ResponseWriter, r *http.Request) {
	wk, ok := week(w, r)
	if !ok {
		return
	}
	statements, err := h.Service.Overview(r.Context(), wk)
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, statements)
}

func (h *PayrollHandler) statement(w http.ResponseWriter, r *http.Request, techID uuid.UUID) {
	wk, ok := week(w, r)
	if !ok {
		return
	}
	st, err := h.Service.Statement(r.Context(), techID, wk)
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, st)
}

func (h *PayrollHandler) Statement(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	h.statement(w, r, id)
}

// MyStatement lets a technician see their own week
func (h *PayrollHandler) MyStatement(w http.ResponseWriter, r *http.Request) {
	h.statement(w, r, currentUser(r).ID)
}

func (h *PayrollHandler) AddAdjustment(w http.ResponseWriter, r *http.Request) {
	var req models.AdjustmentRequest
	if !decode(w, r, &req) {
		return
	}
	adj, err := h.Service.AddAdjustment(r.Context(), req, currentUser(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusCreated, adj)
}

func (h *PayrollHandler) DeleteAdjustment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.DeleteAdjustment(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PayrollHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	wk, ok := week(w, r)
	if !ok {
		return
	}
	rec, err := h.Service.Confirm(r.Context(), id, wk, currentUser(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusCreated, rec)
}

func (h *PayrollHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	wk, ok := week(w, r)
	if !ok {
		return
	}
	if err := h.Service.Revoke(r.Context(), id, wk, currentUser(r)); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PayrollHandler) Payslip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	wk, ok := week(w, r)
	if !ok {
		return
	}
	st, pdf, err := h.Service.Payslip(r.Context(), id, wk)
	if err != nil {
		respondError(w, r, err)
		return
	}
	name := strings.ToLower(strings.Join(strings.Fields(st.TechnicianName), "_"))
	utils.File(w, "application/pdf", "payslip_"+name+"_"+timeutil.WeekKey(wk)+".pdf", pdf)
}

// PayslipArchive zips every technician's payslip for the week
func (h *PayrollHandler) PayslipArchive(w http.ResponseWriter, r *http.Request) {
	wk, ok := week(w, r)
	if !ok {
		return
	}
	data, err := h.Service.PayslipArchive(r.Context(), wk)
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.File(w, "application/zip", "payslips_"+timeutil.WeekKey(wk)+".zip", data)
}
