package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"repairshop-backend/internal/models"
	"repairshop-backend/internal/services"
	"repairshop-backend/pkg/utils"
)

type OrderHandler struct {
	Service *services.OrderService
}

func NewOrderHandler(s *services.OrderService) *OrderHandler {
	return &OrderHandler{Service: s}
}

func (h *OrderHandler) respond(w http.ResponseWriter, r *http.Request, order *models.Order, err error) {
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, order)
}

// Checkout opens a new ticket at the counter
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req models.CheckoutRequest
	if !decode(w, r, &req) {
		return
	}
	order, err := h.Service.Checkout(r.Context(), req, currentUser(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusCreated, order)
}

func (h *OrderHandler) CreateWarranty(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req models.WarrantyRequest
	if !decode(w, r, &req) {
		return
	}
	order, err := h.Service.CreateWarranty(r.Context(), id, req, currentUser(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusCreated, order)
}

// ListOrders supports ?status=&type=&worker=&phone=&q=&from=&to=&page=&page_size=
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rg, err := dateRange(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	filter := models.OrderFilter{
		Status:    models.OrderStatus(q.Get("status")),
		OrderType: models.OrderType(q.Get("type")),
		Worker:    strings.TrimSpace(q.Get("worker")),
		Phone:     strings.TrimSpace(q.Get("phone")),
		Search:    strings.TrimSpace(q.Get("q")),
		From:      timePtr(rg.From),
		To:        timePtr(rg.To),
		Page:      intParam(r, "page"),
		PageSize:  intParam(r, "page_size"),
	}
	page, err := h.Service.List(r.Context(), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, page)
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	order, err := h.Service.Get(r.Context(), id)
	h.respond(w, r, order, err)
}

func (h *OrderHandler) GetByTicket(w http.ResponseWriter, r *http.Request) {
	order, err := h.Service.GetByTicketID(r.Context(), mux.Vars(r)["ticket"])
	h.respond(w, r, order, err)
}

// Receipt streams the printable receipt PDF
func (h *OrderHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	order, pdf, err := h.Service.Receipt(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.File(w, "application/pdf", "receipt_"+order.TicketID+".pdf", pdf)
}

// ============================================
// Money
// ============================================

func (h *OrderHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req models.PaymentRequest
	if !decode(w, r, &req) {
		return
	}
	order, err := h.Service.RecordPayment(r.Context(), id, req, currentUser(r))
	h.respond(w, r, order, err)
}

func (h *OrderHandler) Refund(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req models.RefundRequest
	if !decode(w, r, &req) {
		return
	}
	order, err := h.Service.Refund(r.Context(), id, req, currentUser(r))
	h.respond(w, r, order, err)
}

func (h *OrderHandler) VoidOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	order, err := h.Service.VoidOrder(r.Context(), id, versionParam(r), currentUser(r))
	h.respond(w, r, order, err)
}

func (h *OrderHandler) VoidService(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	vars := mux.Vars(r)
	order, err := h.Service.VoidService(r.Context(), id, vars["itemId"], vars["serviceId"], versionParam(r), currentUser(r))
	h.respond(w, r, order, err)
}

func (h *OrderHandler) ReturnProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req models.ReturnRequest
	if !decode(w, r, &req) {
		return
	}
	order, err := h.Service.ReturnProduct(r.Context(), id, mux.Vars(r)["itemId"], req, currentUser(r))
	h.respond(w, r, order, err)
}

// ============================================
// Workflow
// ============================================

func (h *OrderHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req models.StatusRequest
	if !decode(w, r, &req) {
		return
	}
	order, err := h.Service.SetStatus(r.Context(), id, req, currentUser(r))
	h.respond(w, r, order, err)
}

func (h *OrderHandler) MarkCollected(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	order, err := h.Service.MarkCollected(r.Context(), id, versionParam(r), currentUser(r))
	h.respond(w, r, order, err)
}

func (h *OrderHandler) UndoCollected(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	order, err := h.Service.UndoCollected(r.Context(), id, versionParam(r), currentUser(r))
	h.respond(w, r, order, err)
}

func (h *OrderHandler) SetServiceStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req models.ServiceStatusRequest
	if !decode(w, r, &req) {
		return
	}
	vars := mux.Vars(r)
	order, err := h.Service.SetServiceStatus(r.Context(), id, vars["itemId"], vars["serviceId"], req, currentUser(r))
	h.respond(w, r, order, err)
}

func (h *OrderHandler) AssignService(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req models.AssignRequest
	if !decode(w, r, &req) {
		return
	}
	vars := mux.Vars(r)
	order, err := h.Service.AssignService(r.Context(), id, vars["itemId"], vars["serviceId"], req, currentUser(r))
	h.respond(w, r, order, err)
}

func (h *OrderHandler) AddService(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req models.AddServiceRequest
	if !decode(w, r, &req) {
		return
	}
	order, err := h.Service.AddService(r.Context(), id, mux.Vars(r)["itemId"], req, currentUser(r))
	h.respond(w, r, order, err)
}

func (h *OrderHandler) AddPartUsage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req models.PartUsageRequest
	if !decode(w, r, &req) {
		return
	}
	order, err := h.Service.AddPartUsage(r.Context(), id, req, currentUser(r))
	h.respond(w, r, order, err)
}

func (h *OrderHandler) UndoPartUsage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	order, err := h.Service.UndoPartUsage(r.Context(), id, mux.Vars(r)["itemId"], versionParam(r), currentUser(r))
	h.respond(w, r, order, err)
}

// MyJobs lists tickets carrying a service assigned to the signed-in technician
func (h *OrderHandler) MyJobs(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	page, err := h.Service.List(r.Context(), models.OrderFilter{
		Worker:   user.Name,
		Status:   models.OrderStatus(r.URL.Query().Get("status")),
		Page:     intParam(r, "page"),
		PageSize: intParam(r, "page_size"),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, page)
}
