package handlers

import (
	"net/http"
	"strings"

	"repairshop-backend/internal/models"
	"repairshop-backend/internal/services"
	"repairshop-backend/pkg/utils"
)

type ServicePriceHandler struct {
	Service *services.ServicePriceService
}

func NewServicePriceHandler(s *services.ServicePriceService) *ServicePriceHandler {
	return &ServicePriceHandler{Service: s}
}

func (h *ServicePriceHandler) List(w http.ResponseWriter, r *http.Request) {
	prices, err := h.Service.List(r.Context(), strings.TrimSpace(r.URL.Query().Get("model")))
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, prices)
}

// Lookup returns the price for ?model=&service=
func (h *ServicePriceHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	price, err := h.Service.Lookup(r.Context(), q.Get("model"), q.Get("service"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, price)
}

func (h *ServicePriceHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req models.ServicePriceRequest
	if !decode(w, r, &req) {
		return
	}
	price, err := h.Service.Upsert(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, price)
}

func (h *ServicePriceHandler) BulkGenerate(w http.ResponseWriter, r *http.Request) {
	var req models.BulkServicePriceRequest
	if !decode(w, r, &req) {
		return
	}
	n, err := h.Service.BulkGenerate(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]int{"written": n})
}

func (h *ServicePriceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.Delete(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
