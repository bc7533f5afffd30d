package cart

import (
	"errors"
	"net/http"

	"shoply-be/internal/product"
	"shoply-be/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	cart, err := h.svc.View(r.Context(), userID)
	if err != nil {
		utils.WriteJSONError(w, "error fetching cart", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, cart)
}

func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var input AddItemInput
	if err := utils.DecodeJSON(r, &input); err != nil {
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.svc.Add(r.Context(), userID, input)
	if err != nil {
		writeError(w, err, "error adding to cart")
		return
	}

	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	utils.WriteJSON(w, status, res)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	itemID, ok := cartItemID(w, r)
	if !ok {
		return
	}

	var input UpdateQuantityInput
	if err := utils.DecodeJSON(r, &input); err != nil {
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.svc.UpdateQuantity(r.Context(), userID, itemID, input.Quantity); err != nil {
		writeError(w, err, "error updating cart")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "cart item updated"})
}

func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	itemID, ok := cartItemID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Remove(r.Context(), userID, itemID); err != nil {
		writeError(w, err, "error removing from cart")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "item removed from cart"})
}

func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.svc.Clear(r.Context(), userID); err != nil {
		utils.WriteJSONError(w, "error clearing cart", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "cart cleared"})
}

func currentUser(w http.ResponseWriter, r *http.Request) (uint, bool) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteJSONError(w, "unauthorized", http.StatusUnauthorized)
	}
	return userID, ok
}

func cartItemID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := utils.ToUint(chi.URLParam(r, "id"))
	if err != nil || id == 0 {
		utils.WriteJSONError(w, "invalid cart item id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrProductRequired), errors.Is(err, ErrInvalidQuantity):
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrCartItemNotFound), errors.Is(err, product.ErrProductNotFound):
		utils.WriteJSONError(w, err.Error(), http.StatusNotFound)
	default:
		utils.WriteJSONError(w, fallback, http.StatusInternalServerError)
	}
}
