package user

import (
	"errors"
	"net/http"

	"shoply-be/internal/utils"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var input RegisterInput
	if err := utils.DecodeJSON(r, &input); err != nil {
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	token, u, err := h.svc.Register(r.Context(), input)
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrWeakPassword):
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, ErrEmailExists):
		utils.WriteJSONError(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		utils.WriteJSONError(w, "failed to register user", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, AuthResponse{Token: token, User: u})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var input LoginInput
	if err := utils.DecodeJSON(r, &input); err != nil {
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	token, u, err := h.svc.Login(r.Context(), input)
	if errors.Is(err, ErrInvalidCredentials) {
		utils.WriteJSONError(w, err.Error(), http.StatusUnauthorized)
		return
	}
	if err != nil {
		utils.WriteJSONError(w, "failed to login", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, http.StatusOK, AuthResponse{Token: token, User: u})
}
