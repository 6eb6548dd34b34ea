package handlers

import (
	"io"
	"net/http"

	"repairshop-backend/internal/services"
	"repairshop-backend/pkg/utils"
)

type ProofOfWorkHandler struct {
	Service *services.ProofOfWorkService
}

func NewProofOfWorkHandler(s *services.ProofOfWorkService) *ProofOfWorkHandler {
	return &ProofOfWorkHandler{Service: s}
}

// Upload takes multipart fields photo, item_id, service_id and caption
func (h *ProofOfWorkHandler) Upload(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, services.MaxPhotoBytes+1<<20)
	if err := r.ParseMultipartForm(services.MaxPhotoBytes); err != nil {
		utils.Error(w, http.StatusBadRequest, "Photo too large or invalid form")
		return
	}
	file, _, err := r.FormFile("photo")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Missing photo")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, services.MaxPhotoBytes+1))
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Failed to read photo")
		return
	}
	photo, err := h.Service.Upload(r.Context(), orderID,
		r.FormValue("item_id"), r.FormValue("service_id"), r.FormValue("caption"),
		data, currentUser(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusCreated, photo)
}

func (h *ProofOfWorkHandler) List(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	photos, err := h.Service.List(r.Context(), orderID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, photos)
}

func (h *ProofOfWorkHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "photoId")
	if !ok {
		return
	}
	if err := h.Service.Delete(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
