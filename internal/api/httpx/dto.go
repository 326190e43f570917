package httpx

import "github.com/jcmexdev/club-pos/internal/pos/domain"

type AddItemRequest struct {
	MenuItemID int `json:"menuItemId"`
}

type ItemsRequest struct {
	Items []domain.LineItem `json:"cartItems"`
}

// CheckoutRequest is the body of POST /carts/{id}/checkout: the session
// context plus the member and table details.
type CheckoutRequest struct {
	Session domain.SessionContext `json:"session"`
	domain.CheckoutRequest
}

type TransitionRequest struct {
	Action        string `json:"action"`
	PaymentMethod string `json:"paymentMethod,omitempty"`
}

type CloseOrderRequest struct {
	PaymentMethod string `json:"paymentMethod"`
}

type OrderListResponse struct {
	View   string         `json:"view"`
	Count  int            `json:"count"`
	Orders []domain.Order `json:"orders"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
