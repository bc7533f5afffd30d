package order

import (
	"errors"
	"net/http"

	"shoply-be/internal/utils"

	"github.com/go-chi/chi/v5"
)

const (
	CodeEmptyCart         = "EMPTY_CART"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeCheckoutBusy      = "CHECKOUT_BUSY"
	CodeStorageFault      = "STORAGE_FAULT"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

type placeOrderResponse struct {
	Message     string `json:"message"`
	OrderID     uint   `json:"orderId"`
	TotalAmount string `json:"totalAmount"`
}

type stockErrorResponse struct {
	Error      string `json:"error"`
	Code       string `json:"code"`
	ProductIDs []uint `json:"productIds"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var input PlaceOrderInput
	if err := utils.DecodeJSON(r, &input); err != nil && !errors.Is(err, utils.ErrEmptyBody) {
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.svc.PlaceOrder(r.Context(), userID, input)
	if err != nil {
		writeCheckoutError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, placeOrderResponse{
		Message:     "Order created successfully",
		OrderID:     res.OrderID,
		TotalAmount: res.TotalAmount.StringFixed(2),
	})
}

func writeCheckoutError(w http.ResponseWriter, err error) {
	var stockErr *StockError
	switch {
	case errors.Is(err, ErrEmptyCart):
		utils.WriteJSONError(w, ErrEmptyCart.Error(), http.StatusBadRequest, CodeEmptyCart)
	case errors.As(err, &stockErr):
		utils.WriteJSON(w, http.StatusConflict, stockErrorResponse{
			Error:      ErrInsufficientStock.Error(),
			Code:       CodeInsufficientStock,
			ProductIDs: stockErr.ProductIDs,
		})
	case errors.Is(err, ErrInsufficientStock):
		utils.WriteJSON(w, http.StatusConflict, stockErrorResponse{
			Error:      ErrInsufficientStock.Error(),
			Code:       CodeInsufficientStock,
			ProductIDs: []uint{},
		})
	case errors.Is(err, ErrCheckoutBusy):
		w.Header().Set("Retry-After", "1")
		utils.WriteJSONError(w, ErrCheckoutBusy.Error(), http.StatusServiceUnavailable, CodeCheckoutBusy)
	default:
		utils.WriteJSONError(w, "error creating order", http.StatusInternalServerError, CodeStorageFault)
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	orders, err := h.svc.List(r.Context(), userID)
	if err != nil {
		utils.WriteJSONError(w, "error fetching orders", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, orders)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	orderID, ok := orderIDParam(w, r)
	if !ok {
		return
	}

	o, err := h.svc.Get(r.Context(), userID, orderID)
	if errors.Is(err, ErrOrderNotFound) {
		utils.WriteJSONError(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		utils.WriteJSONError(w, "error fetching order", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	orderID, ok := orderIDParam(w, r)
	if !ok {
		return
	}

	var input UpdateStatusInput
	if err := utils.DecodeJSON(r, &input); err != nil {
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	err := h.svc.UpdateStatus(r.Context(), userID, orderID, input.Status)
	switch {
	case errors.Is(err, ErrInvalidStatus):
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrOrderNotFound):
		utils.WriteJSONError(w, err.Error(), http.StatusNotFound)
	case err != nil:
		utils.WriteJSONError(w, "error updating order status", http.StatusInternalServerError)
	default:
		utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "order status updated successfully"})
	}
}

func currentUser(w http.ResponseWriter, r *http.Request) (uint, bool) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteJSONError(w, "unauthorized", http.StatusUnauthorized)
	}
	return userID, ok
}

func orderIDParam(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := utils.ToUint(chi.URLParam(r, "id"))
	if err != nil || id == 0 {
		utils.WriteJSONError(w, "invalid order id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
