package handlers

import (
	"net/http"

	"repairshop-backend/internal/middleware"
	"repairshop-backend/internal/models"
	"repairshop-backend/internal/services"
	"repairshop-backend/pkg/utils"
)

type AuthHandler struct {
	Service *services.AuthService
}

func NewAuthHandler(s *services.AuthService) *AuthHandler {
	return &AuthHandler{Service: s}
}

// Signup handles user registration
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := h.Service.Signup(r.Context(), &req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusCreated, resp)
}

// Login handles user authentication
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := h.Service.Login(r.Context(), &req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req models.TokenRequest
	if !decode(w, r, &req) {
		return
	}
	user, err := h.Service.VerifyEmail(r.Context(), req.Token)
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, services.CurrentUser(user))
}

func (h *AuthHandler) SendSignInLink(w http.ResponseWriter, r *http.Request) {
	var req models.EmailLinkRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.Service.SendSignInLink(r.Context(), req.Email); err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

func (h *AuthHandler) SignInWithEmailLink(w http.ResponseWriter, r *http.Request) {
	var req models.TokenRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := h.Service.SignInWithEmailLink(r.Context(), req.Token)
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, resp)
}

// ============================================
// Signed-in account
// ============================================

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, services.CurrentUser(currentUser(r)))
}

func (h *AuthHandler) SendEmailVerification(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if user.EmailVerified {
		utils.JSON(w, http.StatusOK, map[string]string{"status": "already_verified"})
		return
	}
	if err := h.Service.SendEmailVerification(r.Context(), user); err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req models.UpdatePasswordRequest
	if !decode(w, r, &req) {
		return
	}
	claims, _ := middleware.GetClaimsFromContext(r.Context())
	if err := h.Service.UpdatePassword(r.Context(), currentUser(r), claims, &req); err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateProfileRequest
	if !decode(w, r, &req) {
		return
	}
	user, err := h.Service.UpdateProfile(r.Context(), currentUser(r), &req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, services.CurrentUser(user))
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.GetClaimsFromContext(r.Context())
	h.Service.SignOut(r.Context(), claims)
	w.WriteHeader(http.StatusNoContent)
}
