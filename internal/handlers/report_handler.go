package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"repairshop-backend/internal/models"
	"repairshop-backend/internal/reports"
	"repairshop-backend/internal/services"
	"repairshop-backend/pkg/utils"
)

type ReportHandler struct {
	Service *services.ReportService
}

func NewReportHandler(service *services.ReportService) *ReportHandler {
	return &ReportHandler{Service: service}
}

// Performance handles GET /api/reports/performance?from=&to=
func (h *ReportHandler) Performance(w http.ResponseWriter, r *http.Request) {
	rg, err := dateRange(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	perf, err := h.Service.Performance(r.Context(), rg)
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, perf)
}

func (h *ReportHandler) Debt(w http.ResponseWriter, r *http.Request) {
	debt, err := h.Service.Debt(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, debt)
}

func (h *ReportHandler) Workers(w http.ResponseWriter, r *http.Request) {
	rg, err := dateRange(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	stats, err := h.Service.WorkerStats(r.Context(), rg)
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, stats)
}

// Jobs handles GET /api/reports/jobs?worker=&status=&q=&from=&to=&page=&page_size=
func (h *ReportHandler) Jobs(w http.ResponseWriter, r *http.Request) {
	rg, err := dateRange(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	q := r.URL.Query()
	page, err := h.Service.JobHistory(r.Context(), reports.JobFilter{
		Worker:   strings.TrimSpace(q.Get("worker")),
		Status:   models.ServiceStatus(q.Get("status")),
		Search:   strings.TrimSpace(q.Get("q")),
		Range:    rg,
		Page:     intParam(r, "page"),
		PageSize: intParam(r, "page_size"),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, page)
}

// ============================================
// Dashboards
// ============================================

func (h *ReportHandler) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.Service.AdminDashboard(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, d)
}

func (h *ReportHandler) SecretaryDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.Service.SecretaryDashboard(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, d)
}

// WorkerDashboard always shows the caller's own queue
func (h *ReportHandler) WorkerDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.Service.WorkerDashboard(r.Context(), currentUser(r).Name)
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, d)
}

// ============================================
// Exports
// ============================================

// Export handles GET /api/reports/export/{kind}?from=&to=
// kind: orders|inventory|performance
func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request) {
	kind := mux.Vars(r)["kind"]
	rg, err := dateRange(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	data, err := h.Service.Export(ctx, kind, rg)
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.File(w, reports.XLSXContentType, kind+"_"+stamp()+".xlsx", data)
}

// Archive stores the export in object storage and returns a download link
func (h *ReportHandler) Archive(w http.ResponseWriter, r *http.Request) {
	kind := mux.Vars(r)["kind"]
	rg, err := dateRange(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 120*time.Second)
	defer cancel()

	archive, err := h.Service.Archive(ctx, kind, rg)
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusCreated, archive)
}
