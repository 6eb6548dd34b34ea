package handlers

import (
	"net/http"

	"repairshop-backend/internal/models"
	"repairshop-backend/internal/services"
	"repairshop-backend/pkg/utils"
)

type InviteHandler struct {
	Service *services.InviteService
}

func NewInviteHandler(s *services.InviteService) *InviteHandler {
	return &InviteHandler{Service: s}
}

func (h *InviteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateInviteRequest
	if !decode(w, r, &req) {
		return
	}
	inv, err := h.Service.Create(r.Context(), req, currentUser(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusCreated, inv)
}

func (h *InviteHandler) List(w http.ResponseWriter, r *http.Request) {
	invites, err := h.Service.ListOpen(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, invites)
}

func (h *InviteHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.Revoke(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Accept is public: the invite token is the credential.
func (h *InviteHandler) Accept(w http.ResponseWriter, r *http.Request) {
	var req models.AcceptInviteRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := h.Service.Accept(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusCreated, resp)
}
