package product

import (
	"errors"
	"net/http"

	"shoply-be/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.List(r.Context())
	if err != nil {
		utils.WriteJSONError(w, "error fetching products", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, products)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	p, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err, "error fetching product")
		return
	}
	utils.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var input ProductInput
	if err := utils.DecodeJSON(r, &input); err != nil {
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := h.svc.Create(r.Context(), input)
	if err != nil {
		writeError(w, err, "error creating product")
		return
	}
	utils.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	var input ProductInput
	if err := utils.DecodeJSON(r, &input); err != nil {
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := h.svc.Update(r.Context(), id, input)
	if err != nil {
		writeError(w, err, "error updating product")
		return
	}
	utils.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeError(w, err, "error deleting product")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "product deleted successfully"})
}

func productID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := utils.ToUint(chi.URLParam(r, "id"))
	if err != nil || id == 0 {
		utils.WriteJSONError(w, "invalid product id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrProductNotFound):
		utils.WriteJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrProductInUse):
		utils.WriteJSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrNameRequired), errors.Is(err, ErrPriceRequired),
		errors.Is(err, ErrInvalidPrice), errors.Is(err, ErrInvalidStock):
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
	default:
		utils.WriteJSONError(w, fallback, http.StatusInternalServerError)
	}
}
