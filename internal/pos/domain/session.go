package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SessionContext is who and where the order is taken. It is passed
// explicitly to checkout rather than looked up from settings.
type SessionContext struct {
	OutletName     string `json:"outletName"`
	RestaurantName string `json:"restaurantName"`
	WaiterID       string `json:"waiterId"`
	WaiterName     string `json:"waiterName"`
}

// CheckoutRequest holds the member and table details entered at checkout.
type CheckoutRequest struct {
	MemberID    string `json:"memberId"`
	MemberType  string `json:"memberType"`
	MemberName  string `json:"memberName"`
	Pax         string `json:"pax"`
	TableNo     string `json:"tableNo"`
	ServiceType string `json:"serviceType"`
}

// CartView is the client-facing state of a cart session.
type CartView struct {
	ID           string          `json:"id"`
	EditingOrder string          `json:"editingOrder,omitempty"`
	Items        []LineItem      `json:"cartItems"`
	ItemCount    int             `json:"itemCount"`
	SubTotal     decimal.Decimal `json:"subTotal"`
	Fees         []Charge        `json:"fees,omitempty"`
	GrandTotal   decimal.Decimal `json:"grandTotal"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// Charge is one fee applied on top of a subtotal.
type Charge struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}
