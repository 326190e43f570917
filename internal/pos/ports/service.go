// Package ports declares what the delivery layers (HTTP, CLI) need from the
// point-of-sale application.
package ports

import (
	"context"

	"github.com/jcmexdev/club-pos/internal/pos/catalog"
	"github.com/jcmexdev/club-pos/internal/pos/domain"
	"github.com/jcmexdev/club-pos/internal/pos/orderlog"
)

type CartService interface {
	OpenCart(ctx context.Context) (domain.CartView, error)
	GetCart(ctx context.Context, cartID string) (domain.CartView, error)
	AddToCart(ctx context.Context, cartID string, menuItemID int) (domain.CartView, error)
	IncreaseItem(ctx context.Context, cartID string, itemID int) (domain.CartView, error)
	DecreaseItem(ctx context.Context, cartID string, itemID int) (domain.CartView, error)
	RemoveItem(ctx context.Context, cartID string, itemID int) (domain.CartView, error)
	MergeIntoCart(ctx context.Context, cartID string, items []domain.LineItem) (domain.CartView, error)
	DiscardCart(ctx context.Context, cartID string) error
	Checkout(ctx context.Context, cartID string, session domain.SessionContext, req domain.CheckoutRequest) (domain.Order, error)
}

type OrderService interface {
	GetOrder(ctx context.Context, orderNumber string) (domain.Order, error)
	CurrentOrder(ctx context.Context) (domain.Order, bool)
	ListOrders(ctx context.Context, view string) ([]domain.Order, error)
	EditOrder(ctx context.Context, orderNumber string) (domain.CartView, error)
	ReviseOrder(ctx context.Context, orderNumber string, items []domain.LineItem) (domain.Order, error)
	AcceptOrder(ctx context.Context, orderNumber string) (domain.Order, error)
	CloseOrder(ctx context.Context, orderNumber, paymentMethod string) (domain.Order, error)
	Transition(ctx context.Context, orderNumber, action, paymentMethod string) (domain.Order, error)
	History(ctx context.Context, orderNumber string) ([]orderlog.Entry, error)
	ClearOrders(ctx context.Context) error
}

type MenuService interface {
	Menu(ctx context.Context) []catalog.Course
}

// POSService is everything the HTTP API serves.
type POSService interface {
	CartService
	OrderService
	MenuService
}
