package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/atelierluz/storefront/internal/services"
)

const maxOrderBodyBytes = 64 << 10 // 64 KB

type createOrderRequest struct {
	Data services.CreateOrderInput `json:"data"`
}

// CreateOrder accepts an order payload, prices it and answers with the
// persisted order plus the Stripe checkout URL to redirect the customer to.
func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)
	r.Body = http.MaxBytesReader(w, r.Body, maxOrderBodyBytes)

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	result, err := h.orderService.CreateOrder(ctx, req.Data)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidInput):
			h.respondError(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrProductNotFound):
			h.respondError(w, r, http.StatusBadRequest, "unknown product in order")
		default:
			logger.Error("failed to create order", "error", err)
			h.respondError(w, r, http.StatusInternalServerError, "failed to create order")
		}
		return
	}

	h.respondJSON(w, r, http.StatusCreated, map[string]any{
		"order":     result.Order,
		"stripeUrl": result.CheckoutURL,
	})
}

// GetOrder resolves an order by its access token, the only shareable lookup
// key a customer has.
func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)

	accessToken := mux.Vars(r)["accessToken"]

	order, err := h.orderService.GetOrderByAccessToken(ctx, accessToken)
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			h.respondError(w, r, http.StatusNotFound, "order not found")
			return
		}
		logger.Error("failed to get order", "error", err)
		h.respondError(w, r, http.StatusInternalServerError, "failed to get order")
		return
	}

	h.respondJSON(w, r, http.StatusOK, map[string]any{
		"order":       order,
		"statusLabel": h.orderService.StatusLabel(order),
	})
}

// UpdateOrderStatus applies an operator-driven status change (ship, arrive,
// complete, cancel, problem). Exposed on the internal router only.
func (h *Handlers) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)
	r.Body = http.MaxBytesReader(w, r.Body, maxOrderBodyBytes)

	orderID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, "invalid order id")
		return
	}

	var input services.UpdateStatusInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	order, err := h.orderService.UpdateStatus(ctx, orderID, input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidInput):
			h.respondError(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrOrderNotFound):
			h.respondError(w, r, http.StatusNotFound, "order not found")
		case errors.Is(err, services.ErrInvalidTransition):
			h.respondError(w, r, http.StatusConflict, "status transition not allowed")
		default:
			logger.Error("failed to update order status", "error", err, "order_id", orderID)
			h.respondError(w, r, http.StatusInternalServerError, "failed to update order status")
		}
		return
	}

	h.respondJSON(w, r, http.StatusOK, map[string]any{"order": order})
}
