package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jcmexdev/club-pos/internal/pos/cart"
	"github.com/jcmexdev/club-pos/internal/pos/domain"
	"github.com/jcmexdev/club-pos/internal/pos/lifecycle"
)

// actionCreate is the order log action for a checkout.
const actionCreate = "create"

// Checkout turns the cart into an order. A plain cart becomes a new Pending
// order; a cart opened by EditOrder revises the order it was loaded from.
// The cart session is removed once the order is stored.
func (s *Service) Checkout(ctx context.Context, cartID string, session domain.SessionContext, req domain.CheckoutRequest) (domain.Order, error) {
	ctx, span := s.start(ctx, "Checkout", attribute.String("pos.cart_id", cartID))
	order, err := s.checkout(ctx, cartID, session, req)
	if err == nil {
		span.SetAttributes(attribute.String("pos.order_number", order.OrderNumber))
	}
	end(span, err)
	return order, err
}

func (s *Service) checkout(ctx context.Context, cartID string, session domain.SessionContext, req domain.CheckoutRequest) (domain.Order, error) {
	s.cartMu.Lock()
	defer s.cartMu.Unlock()
	sess, c, err := s.loadCart(ctx, cartID)
	if err != nil {
		return domain.Order{}, err
	}
	if c.IsEmpty() {
		return domain.Order{}, domain.NewValidationError("cartItems", "cannot check out an empty cart")
	}

	var order domain.Order
	if sess.EditingOrder != "" {
		order, err = s.revise(ctx, sess.EditingOrder, c, &req)
	} else {
		order, err = s.place(ctx, c, s.session(session), req)
	}
	if err != nil {
		return domain.Order{}, err
	}

	if err := s.kv.Delete(ctx, cartKey(cartID)); err != nil {
		s.log.WarnContext(ctx, "cart not removed after checkout", "cart_id", cartID, "error", err)
	}
	return order, nil
}

func (s *Service) session(in domain.SessionContext) domain.SessionContext {
	if in.OutletName == "" {
		in.OutletName = s.defaults.OutletName
	}
	if in.RestaurantName == "" {
		in.RestaurantName = s.defaults.RestaurantName
	}
	return in
}

func (s *Service) place(ctx context.Context, c *cart.Cart, session domain.SessionContext, req domain.CheckoutRequest) (domain.Order, error) {
	now := s.now()
	totals := c.Totals()
	order := domain.Order{
		MemberID:       req.MemberID,
		MemberType:     req.MemberType,
		Pax:            req.Pax,
		MemberName:     req.MemberName,
		TableNo:        req.TableNo,
		WaiterID:       session.WaiterID,
		WaiterName:     session.WaiterName,
		ServiceType:    domain.ParseServiceType(req.ServiceType),
		Items:          c.Items(),
		GrandTotal:     totals.GrandTotal,
		ItemCount:      totals.ItemCount,
		Timestamp:      now.UTC(),
		Status:         domain.StatusPending,
		OutletName:     session.OutletName,
		RestaurantName: session.RestaurantName,
	}

	base := domain.NewOrderNumber(now)
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		order.OrderNumber = base
		if attempt > 0 {
			order.OrderNumber = fmt.Sprintf("%s-%d", base, attempt)
		}
		err := s.orders.Append(ctx, order)
		if errors.Is(err, domain.ErrDuplicateOrder) {
			continue
		}
		if err != nil {
			return domain.Order{}, err
		}
		s.log.InfoContext(ctx, "order placed",
			"order_number", order.OrderNumber,
			"item_count", order.ItemCount,
			"grand_total", order.GrandTotal.String(),
			"outlet", order.OutletName,
		)
		s.record(ctx, order.OrderNumber, actionCreate, "", order.Status, "")
		return order, nil
	}
	return domain.Order{}, fmt.Errorf("app: no free order number after %d attempts from %s: %w", maxNumberAttempts, base, domain.ErrDuplicateOrder)
}

// EditOrder opens a cart preloaded with the order's items. Checking that
// cart out revises the order instead of placing a new one.
func (s *Service) EditOrder(ctx context.Context, orderNumber string) (domain.CartView, error) {
	ctx, span := s.start(ctx, "EditOrder", attribute.String("pos.order_number", orderNumber))
	view, err := s.editOrder(ctx, orderNumber)
	end(span, err)
	return view, err
}

func (s *Service) editOrder(ctx context.Context, orderNumber string) (domain.CartView, error) {
	order, err := s.GetOrder(ctx, orderNumber)
	if err != nil {
		return domain.CartView{}, err
	}
	if lifecycle.IsTerminal(order.Status) {
		return domain.CartView{}, &domain.TransitionError{From: order.Status, Action: string(lifecycle.Edit)}
	}
	c, err := cart.FromItems(order.Items, s.fees...)
	if err != nil {
		return domain.CartView{}, err
	}
	sess := &cartSession{ID: uuid.NewString(), EditingOrder: orderNumber}
	if err := s.saveCart(ctx, sess, c); err != nil {
		return domain.CartView{}, err
	}
	return s.view(sess, c), nil
}

// ReviseOrder replaces the items of an order. A processed order goes back to
// the kitchen queue as Pending.
func (s *Service) ReviseOrder(ctx context.Context, orderNumber string, items []domain.LineItem) (domain.Order, error) {
	ctx, span := s.start(ctx, "ReviseOrder", attribute.String("pos.order_number", orderNumber))
	c, err := cart.FromItems(items, s.fees...)
	if err == nil && c.IsEmpty() {
		err = domain.NewValidationError("cartItems", "cannot place an order with no items")
	}
	var order domain.Order
	if err == nil {
		order, err = s.revise(ctx, orderNumber, c, nil)
	}
	end(span, err)
	return order, err
}

func (s *Service) revise(ctx context.Context, orderNumber string, c *cart.Cart, req *domain.CheckoutRequest) (domain.Order, error) {
	totals := c.Totals()
	patch := domain.Patch{
		Items:      c.Items(),
		GrandTotal: &totals.GrandTotal,
		ItemCount:  &totals.ItemCount,
	}
	if req != nil {
		patch.MemberID = nonEmpty(req.MemberID)
		patch.MemberType = nonEmpty(req.MemberType)
		patch.MemberName = nonEmpty(req.MemberName)
		patch.Pax = nonEmpty(req.Pax)
		patch.TableNo = nonEmpty(req.TableNo)
		if req.ServiceType != "" {
			st := domain.ParseServiceType(req.ServiceType)
			patch.ServiceType = &st
		}
	}

	order, from, err := s.orders.Revise(ctx, orderNumber, patch)
	if err != nil {
		return domain.Order{}, err
	}
	s.log.InfoContext(ctx, "order revised",
		"order_number", orderNumber,
		"from", from,
		"to", order.Status,
		"grand_total", order.GrandTotal.String(),
	)
	s.record(ctx, orderNumber, string(lifecycle.Edit), from, order.Status, "")
	return order, nil
}

func nonEmpty(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// AcceptOrder is the kitchen "tick": Pending, or a legacy Open order, becomes
// Processed.
func (s *Service) AcceptOrder(ctx context.Context, orderNumber string) (domain.Order, error) {
	return s.transition(ctx, orderNumber, lifecycle.KitchenAccept, "")
}

// CloseOrder settles the bill. The payment method is validated before the
// order is touched.
func (s *Service) CloseOrder(ctx context.Context, orderNumber, paymentMethod string) (domain.Order, error) {
	return s.transition(ctx, orderNumber, lifecycle.Close, paymentMethod)
}

// Transition applies a lifecycle action given by name ("kitchen-accept",
// "tick", "close", ...). paymentMethod is only used when closing.
func (s *Service) Transition(ctx context.Context, orderNumber, action, paymentMethod string) (domain.Order, error) {
	a, err := lifecycle.ParseAction(strings.ToLower(strings.TrimSpace(action)))
	if err != nil {
		return domain.Order{}, err
	}
	if a == lifecycle.Edit {
		return domain.Order{}, domain.NewValidationError("action", "edit goes through EditOrder or ReviseOrder")
	}
	return s.transition(ctx, orderNumber, a, paymentMethod)
}

func (s *Service) transition(ctx context.Context, orderNumber string, action lifecycle.Action, paymentMethod string) (domain.Order, error) {
	ctx, span := s.start(ctx, "Transition",
		attribute.String("pos.order_number", orderNumber),
		attribute.String("pos.action", string(action)),
	)

	var patch domain.Patch
	var err error
	if action == lifecycle.Close {
		var method domain.PaymentMethod
		method, err = domain.ParsePaymentMethod(paymentMethod)
		if err == nil {
			closedAt := s.now().UTC()
			patch.PaymentMethod = &method
			patch.ClosedAt = &closedAt
		}
	}

	var (
		order domain.Order
		from  domain.Status
	)
	if err == nil {
		order, from, err = s.orders.Transition(ctx, orderNumber, action, patch)
	}
	end(span, err)
	if err != nil {
		s.log.WarnContext(ctx, "order transition rejected",
			"order_number", orderNumber,
			"action", action,
			"error", err,
		)
		return domain.Order{}, err
	}

	s.log.InfoContext(ctx, "order transitioned",
		"order_number", orderNumber,
		"action", action,
		"from", from,
		"to", order.Status,
	)
	s.record(ctx, orderNumber, string(action), from, order.Status, order.PaymentMethod)
	return order, nil
}

func (s *Service) GetOrder(ctx context.Context, orderNumber string) (domain.Order, error) {
	order, ok := s.orders.FindByNumber(ctx, orderNumber)
	if !ok {
		return domain.Order{}, &domain.NotFoundError{OrderNumber: orderNumber}
	}
	return order, nil
}

// CurrentOrder returns the last written order from the compatibility mirror.
func (s *Service) CurrentOrder(ctx context.Context) (domain.Order, bool) {
	return s.orders.Current(ctx)
}

// ListOrders returns the orders of a view: "all", "pending" (kitchen queue)
// or "history".
func (s *Service) ListOrders(ctx context.Context, view string) ([]domain.Order, error) {
	match, err := domain.ParseView(view)
	if err != nil {
		return nil, err
	}
	return s.orders.FilterByStatus(ctx, match), nil
}
