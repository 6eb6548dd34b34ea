package handlers

import (
	"net/http"

	"repairshop-backend/internal/models"
	"repairshop-backend/internal/services"
	"repairshop-backend/pkg/utils"
)

// UserHandler serves staff administration.
type UserHandler struct {
	Service *services.StaffService
}

func NewUserHandler(s *services.StaffService) *UserHandler {
	return &UserHandler{Service: s}
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.List(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, users)
}

func (h *UserHandler) ListTechnicians(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.Technicians(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, users)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	user, err := h.Service.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req models.UpdateUserRequest
	if !decode(w, r, &req) {
		return
	}
	user, err := h.Service.Update(r.Context(), id, req, currentUser(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, user)
}

func (h *UserHandler) setStatus(w http.ResponseWriter, r *http.Request, status models.UserStatus) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	user, err := h.Service.SetStatus(r.Context(), id, status, currentUser(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, user)
}

func (h *UserHandler) SuspendUser(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, models.UserStatusSuspended)
}

func (h *UserHandler) ReactivateUser(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, models.UserStatusActive)
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.Delete(r.Context(), id, currentUser(r)); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
