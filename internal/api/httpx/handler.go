package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jcmexdev/club-pos/internal/pkg/interceptors"
	"github.com/jcmexdev/club-pos/internal/pos/domain"
	"github.com/jcmexdev/club-pos/internal/pos/ports"
)

// Handler serves the cart, order and menu endpoints.
type Handler struct {
	pos ports.POSService
}

func NewHandler(pos ports.POSService) *Handler {
	return &Handler{pos: pos}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Menu(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.pos.Menu(r.Context()))
}

func (h *Handler) OpenCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.pos.OpenCart(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.pos.GetCart(r.Context(), chi.URLParam(r, "cartID"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) DiscardCart(w http.ResponseWriter, r *http.Request) {
	if err := h.pos.DiscardCart(r.Context(), chi.URLParam(r, "cartID")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if !decode(w, r, &req) {
		return
	}
	view, err := h.pos.AddToCart(r.Context(), chi.URLParam(r, "cartID"), req.MenuItemID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) IncreaseItem(w http.ResponseWriter, r *http.Request) {
	h.cartItemOp(w, r, h.pos.IncreaseItem)
}

func (h *Handler) DecreaseItem(w http.ResponseWriter, r *http.Request) {
	h.cartItemOp(w, r, h.pos.DecreaseItem)
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	h.cartItemOp(w, r, h.pos.RemoveItem)
}

type cartItemFunc func(ctx context.Context, cartID string, itemID int) (domain.CartView, error)

func (h *Handler) cartItemOp(w http.ResponseWriter, r *http.Request, op cartItemFunc) {
	itemID, err := strconv.Atoi(chi.URLParam(r, "itemID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_item_id", "item id must be an integer")
		return
	}
	view, err := op(r.Context(), chi.URLParam(r, "cartID"), itemID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) MergeIntoCart(w http.ResponseWriter, r *http.Request) {
	var req ItemsRequest
	if !decode(w, r, &req) {
		return
	}
	view, err := h.pos.MergeIntoCart(r.Context(), chi.URLParam(r, "cartID"), req.Items)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Checkout places the order, or revises it when the cart came from
// POST /orders/{orderNumber}/edit.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if !decode(w, r, &req) {
		return
	}
	order, err := h.pos.Checkout(r.Context(), chi.URLParam(r, "cartID"), req.Session, req.CheckoutRequest)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	view := r.URL.Query().Get("view")
	orders, err := h.pos.ListOrders(r.Context(), view)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if view == "" {
		view = "all"
	}
	writeJSON(w, http.StatusOK, OrderListResponse{View: view, Count: len(orders), Orders: orders})
}

func (h *Handler) ClearOrders(w http.ResponseWriter, r *http.Request) {
	if err := h.pos.ClearOrders(r.Context()); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CurrentOrder(w http.ResponseWriter, r *http.Request) {
	order, ok := h.pos.CurrentOrder(r.Context())
	if !ok {
		writeError(w, http.StatusNotFound, "no_current_order", "")
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.pos.GetOrder(r.Context(), chi.URLParam(r, "orderNumber"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) OrderHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.pos.History(r.Context(), chi.URLParam(r, "orderNumber"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) Transition(w http.ResponseWriter, r *http.Request) {
	var req TransitionRequest
	if !decode(w, r, &req) {
		return
	}
	order, err := h.pos.Transition(r.Context(), chi.URLParam(r, "orderNumber"), req.Action, req.PaymentMethod)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) AcceptOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.pos.AcceptOrder(r.Context(), chi.URLParam(r, "orderNumber"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) CloseOrder(w http.ResponseWriter, r *http.Request) {
	var req CloseOrderRequest
	if !decode(w, r, &req) {
		return
	}
	order, err := h.pos.CloseOrder(r.Context(), chi.URLParam(r, "orderNumber"), req.PaymentMethod)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) EditOrder(w http.ResponseWriter, r *http.Request) {
	view, err := h.pos.EditOrder(r.Context(), chi.URLParam(r, "orderNumber"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *Handler) ReviseOrder(w http.ResponseWriter, r *http.Request) {
	var req ItemsRequest
	if !decode(w, r, &req) {
		return
	}
	order, err := h.pos.ReviseOrder(r.Context(), chi.URLParam(r, "orderNumber"), req.Items)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return false
	}
	return true
}

// statusFor maps the domain error taxonomy onto HTTP status codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, domain.ErrDuplicateOrder):
		return http.StatusConflict, "duplicate_order"
	case errors.Is(err, domain.ErrPersistence):
		return http.StatusServiceUnavailable, "persistence_error"
	}
	return http.StatusInternalServerError, "internal_error"
}

func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	level := slog.LevelInfo
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
		w.Header().Set("Retry-After", "1")
	}
	slog.Log(r.Context(), level, "request failed",
		"request_id", interceptors.GetIDFromContext(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"error", err,
	)
	writeError(w, status, code, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}
