package handlers

import (
	"net/http"

	"repairshop-backend/internal/models"
	"repairshop-backend/internal/services"
	"repairshop-backend/pkg/utils"
)

type IssueHandler struct {
	Service *services.IssueService
}

func NewIssueHandler(s *services.IssueService) *IssueHandler {
	return &IssueHandler{Service: s}
}

func (h *IssueHandler) Report(w http.ResponseWriter, r *http.Request) {
	var req models.IssueReportRequest
	if !decode(w, r, &req) {
		return
	}
	issue, err := h.Service.Report(r.Context(), req, currentUser(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusCreated, issue)
}

// List handles ?status=open|resolved (empty lists all)
func (h *IssueHandler) List(w http.ResponseWriter, r *http.Request) {
	issues, err := h.Service.List(r.Context(), models.IssueStatus(r.URL.Query().Get("status")))
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, issues)
}

func (h *IssueHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req models.ResolveIssueRequest
	if !decode(w, r, &req) {
		return
	}
	issue, err := h.Service.Resolve(r.Context(), id, req, currentUser(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, issue)
}
