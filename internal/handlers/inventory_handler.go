package handlers

import (
	"io"
	"net/http"
	"strings"

	"repairshop-backend/internal/models"
	"repairshop-backend/internal/reports"
	"repairshop-backend/internal/services"
	"repairshop-backend/pkg/utils"
)

const maxImportBytes = 10 << 20

type InventoryHandler struct {
	Service *services.InventoryService
}

func NewInventoryHandler(s *services.InventoryService) *InventoryHandler {
	return &InventoryHandler{Service: s}
}

func (h *InventoryHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req models.ProductRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.Service.Create(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusCreated, p)
}

// ListProducts supports ?type=&category=&model=&q=&low_stock=true
func (h *InventoryHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	products, err := h.Service.List(r.Context(), models.ProductFilter{
		Type:     models.ProductType(q.Get("type")),
		Category: strings.TrimSpace(q.Get("category")),
		Model:    strings.TrimSpace(q.Get("model")),
		Search:   strings.TrimSpace(q.Get("q")),
		LowStock: q.Get("low_stock") == "true",
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, products)
}

func (h *InventoryHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	products, err := h.Service.LowStock(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, products)
}

func (h *InventoryHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.Service.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, p)
}

func (h *InventoryHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req models.ProductRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.Service.Update(r.Context(), id, req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, p)
}

func (h *InventoryHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
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

func (h *InventoryHandler) BulkGenerate(w http.ResponseWriter, r *http.Request) {
	var req models.BulkGenerateRequest
	if !decode(w, r, &req) {
		return
	}
	n, err := h.Service.BulkGenerate(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusCreated, map[string]int{"created": n})
}

// ============================================
// Stock
// ============================================

func (h *InventoryHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req models.StockAdjustRequest
	if !decode(w, r, &req) {
		return
	}
	req.ProductID = id
	p, err := h.Service.AdjustStock(r.Context(), req, currentUser(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, p)
}

func (h *InventoryHandler) BulkAdjustStock(w http.ResponseWriter, r *http.Request) {
	var req models.BulkStockRequest
	if !decode(w, r, &req) {
		return
	}
	n, err := h.Service.BulkAdjustStock(r.Context(), req, currentUser(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]int{"adjusted": n})
}

// ============================================
// Spreadsheets
// ============================================

func (h *InventoryHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	data, err := h.Service.ExportXLSX(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.File(w, reports.XLSXContentType, "inventory_"+stamp()+".xlsx", data)
}

// ImportXLSX accepts a multipart upload in field "file"
func (h *InventoryHandler) ImportXLSX(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes+1<<20)
	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		utils.Error(w, http.StatusBadRequest, "File too large or invalid form")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Missing file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImportBytes))
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Failed to read file")
		return
	}
	n, err := h.Service.ImportXLSX(r.Context(), data)
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]int{"imported": n})
}
