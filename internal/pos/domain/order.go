package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Persisted blobs carry prices and totals as plain JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// LineItem is one menu item plus its quantity inside a cart or an order.
type LineItem struct {
	ID       int             `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

func (i LineItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Validate checks the invariants every stored line item must hold.
func (i LineItem) Validate() error {
	switch {
	case i.ID <= 0:
		return NewValidationError("item.id", "must be positive")
	case i.Name == "":
		return NewValidationError("item.name", "is required")
	case !i.Price.IsPositive():
		return NewValidationError("item.price", "must be greater than zero")
	case i.Quantity < 1:
		return NewValidationError("item.quantity", "must be at least 1")
	}
	return nil
}

type ServiceType string

const (
	DiningIn ServiceType = "DINING_IN"
	TakeAway ServiceType = "TAKE_AWAY"
)

// ParseServiceType maps loose UI values ("dining", "DINING_IN", "takeaway") to
// a ServiceType. Anything that does not mention dining is a take-away.
func ParseServiceType(s string) ServiceType {
	if strings.Contains(strings.ToUpper(s), "DINING") {
		return DiningIn
	}
	return TakeAway
}

type PaymentMethod string

const (
	PaymentCash    PaymentMethod = "Cash"
	PaymentCard    PaymentMethod = "Card"
	PaymentAccount PaymentMethod = "Account"
)

// ParsePaymentMethod matches s case-insensitively and returns the canonical
// method. Empty or unknown methods are a ValidationError.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", NewValidationError("paymentMethod", "is required to close an order")
	}
	for _, m := range []PaymentMethod{PaymentCash, PaymentCard, PaymentAccount} {
		if strings.EqualFold(s, string(m)) {
			return m, nil
		}
	}
	return "", NewValidationError("paymentMethod", "unknown method "+s)
}

// Order is the persisted record of a checked-out cart.
type Order struct {
	OrderNumber    string          `json:"orderNumber"`
	MemberID       string          `json:"memberId"`
	MemberType     string          `json:"memberType"`
	Pax            string          `json:"pax"`
	MemberName     string          `json:"memberName"`
	TableNo        string          `json:"tableNo"`
	WaiterID       string          `json:"waiterId"`
	WaiterName     string          `json:"waiterName"`
	ServiceType    ServiceType     `json:"serviceType"`
	Items          []LineItem      `json:"cartItems"`
	GrandTotal     decimal.Decimal `json:"grandTotal"`
	ItemCount      int             `json:"itemCount"`
	Timestamp      time.Time       `json:"timestamp"`
	Status         Status          `json:"status"`
	OutletName     string          `json:"outletName"`
	RestaurantName string          `json:"restaurantName"`
	PaymentMethod  PaymentMethod   `json:"paymentMethod,omitempty"`
	ClosedAt       *time.Time      `json:"closedAt,omitempty"`
}

// Patch carries the mutable part of an order. Nil fields are left untouched.
// OrderNumber and Timestamp are never part of a patch.
type Patch struct {
	MemberID       *string
	MemberType     *string
	Pax            *string
	MemberName     *string
	TableNo        *string
	WaiterID       *string
	WaiterName     *string
	ServiceType    *ServiceType
	Items          []LineItem
	GrandTotal     *decimal.Decimal
	ItemCount      *int
	Status         *Status
	OutletName     *string
	RestaurantName *string
	PaymentMethod  *PaymentMethod
	ClosedAt       *time.Time
}

// Apply copies the non-nil patch fields onto o.
func (p Patch) Apply(o *Order) {
	setString(&o.MemberID, p.MemberID)
	setString(&o.MemberType, p.MemberType)
	setString(&o.Pax, p.Pax)
	setString(&o.MemberName, p.MemberName)
	setString(&o.TableNo, p.TableNo)
	setString(&o.WaiterID, p.WaiterID)
	setString(&o.WaiterName, p.WaiterName)
	setString(&o.OutletName, p.OutletName)
	setString(&o.RestaurantName, p.RestaurantName)
	if p.ServiceType != nil {
		o.ServiceType = *p.ServiceType
	}
	if p.Items != nil {
		o.Items = append([]LineItem(nil), p.Items...)
	}
	if p.GrandTotal != nil {
		o.GrandTotal = *p.GrandTotal
	}
	if p.ItemCount != nil {
		o.ItemCount = *p.ItemCount
	}
	if p.Status != nil {
		o.Status = *p.Status
	}
	if p.PaymentMethod != nil {
		o.PaymentMethod = *p.PaymentMethod
	}
	if p.ClosedAt != nil {
		t := *p.ClosedAt
		o.ClosedAt = &t
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// NewOrderNumber builds the client-side order number, e.g. ORD20241201120000.
func NewOrderNumber(now time.Time) string {
	return "ORD" + now.UTC().Format("20060102150405")
}

// MenuItem is a catalog entry that can be added to a cart.
type MenuItem struct {
	ID    int             `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// LineItem returns the menu item as a single-quantity line item.
func (m MenuItem) LineItem() LineItem {
	return LineItem{ID: m.ID, Name: m.Name, Price: m.Price, Quantity: 1}
}
