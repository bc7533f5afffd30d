package category

import (
	"net/http"

	"shoply-be/internal/utils"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.repo.List(r.Context())
	if err != nil {
		utils.WriteJSONError(w, "error fetching categories", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, categories)
}
