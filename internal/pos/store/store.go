// Package store persists every order as one JSON array under a single key.
// Each mutation reads the whole list, changes it and writes the whole list
// back; the kv adapter guarantees the write replaces the blob atomically.
package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/jcmexdev/club-pos/internal/pkg/kv"
	"github.com/jcmexdev/club-pos/internal/pos/domain"
	"github.com/jcmexdev/club-pos/internal/pos/lifecycle"
)

const (
	AllOrdersKey = "allOrders"
	// CurrentOrderKey mirrors the last appended or updated order for older
	// readers. It is never read back as a source of truth.
	CurrentOrderKey = "currentOrder"
)

// OrderStore is safe for use by several goroutines of one process. Writers
// on other devices are not coordinated: the last write wins.
type OrderStore struct {
	kv  kv.Store
	log *slog.Logger
	now func() time.Time
	mu  sync.Mutex
}

func New(store kv.Store, logger *slog.Logger) *OrderStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderStore{kv: store, log: logger, now: time.Now}
}

// All returns every stored order. Storage or parse failures are logged and
// yield an empty list.
func (s *OrderStore) All(ctx context.Context) []domain.Order {
	orders, err := s.load(ctx)
	if err != nil {
		s.log.WarnContext(ctx, "order list unreadable, using empty list", "key", AllOrdersKey, "error", err)
		return []domain.Order{}
	}
	return orders
}

// FindByNumber returns the order with the given number, if any.
func (s *OrderStore) FindByNumber(ctx context.Context, orderNumber string) (domain.Order, bool) {
	for _, o := range s.All(ctx) {
		if o.OrderNumber == orderNumber {
			return o, true
		}
	}
	return domain.Order{}, false
}

// FilterByStatus returns, in stored order, the orders whose status matches.
func (s *OrderStore) FilterByStatus(ctx context.Context, match domain.StatusFilter) []domain.Order {
	out := []domain.Order{}
	for _, o := range s.All(ctx) {
		if match(o.Status) {
			out = append(out, o)
		}
	}
	return out
}

// Current returns the backward-compatible mirror of the last written order.
func (s *OrderStore) Current(ctx context.Context) (domain.Order, bool) {
	b, err := s.kv.Get(ctx, CurrentOrderKey)
	if err != nil || b == nil {
		return domain.Order{}, false
	}
	var o domain.Order
	if err := json.Unmarshal(b, &o); err != nil {
		return domain.Order{}, false
	}
	return o, true
}

// Append adds a new order. The order number must not exist yet.
func (s *OrderStore) Append(ctx context.Context, order domain.Order) error {
	if err := validateNew(order); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := s.load(ctx)
	if err != nil {
		return err
	}
	if indexOf(orders, order.OrderNumber) >= 0 {
		return domain.ErrDuplicateOrder
	}
	orders = append(orders, order)
	return s.save(ctx, orders, order)
}

// Update applies patch to the order with the given number. OrderNumber and
// Timestamp are never changed. A status change must be one the lifecycle
// allows, and closed orders cannot be updated at all.
func (s *OrderStore) Update(ctx context.Context, orderNumber string, patch domain.Patch) (domain.Order, error) {
	if err := validatePatch(patch); err != nil {
		return domain.Order{}, err
	}
	closing := patch.Status != nil && *patch.Status == domain.StatusClosed
	if err := normalizePayment(&patch, closing); err != nil {
		return domain.Order{}, err
	}
	return s.mutate(ctx, orderNumber, func(o *domain.Order) error {
		if o.Status == domain.StatusClosed {
			return &domain.TransitionError{From: o.Status, Action: "update"}
		}
		if patch.Status != nil && *patch.Status != o.Status && !reachable(o.Status, *patch.Status) {
			return &domain.TransitionError{From: o.Status, Action: "set status " + string(*patch.Status) + " on"}
		}
		patch.Apply(o)
		s.stampClosed(o)
		return nil
	})
}

// Transition moves the order along the lifecycle. Closing requires a payment
// method in patch; the remaining patch fields are applied alongside the new
// status. It returns the updated order and the status it left.
func (s *OrderStore) Transition(ctx context.Context, orderNumber string, action lifecycle.Action, patch domain.Patch) (domain.Order, domain.Status, error) {
	if err := normalizePayment(&patch, action == lifecycle.Close); err != nil {
		return domain.Order{}, "", err
	}
	if err := validatePatch(patch); err != nil {
		return domain.Order{}, "", err
	}

	var from domain.Status
	o, err := s.mutate(ctx, orderNumber, func(o *domain.Order) error {
		next, err := lifecycle.Next(o.Status, action)
		if err != nil {
			return err
		}
		from = o.Status
		patch.Status = nil
		patch.Apply(o)
		o.Status = next
		s.stampClosed(o)
		return nil
	})
	return o, from, err
}

// normalizePayment rejects an unknown payment method and rewrites a known one
// to its canonical spelling. required makes a missing method an error.
func normalizePayment(patch *domain.Patch, required bool) error {
	if patch.PaymentMethod == nil {
		if required {
			return domain.NewValidationError("paymentMethod", "is required to close an order")
		}
		return nil
	}
	method, err := domain.ParsePaymentMethod(string(*patch.PaymentMethod))
	if err != nil {
		return err
	}
	patch.PaymentMethod = &method
	return nil
}

// stampClosed sets ClosedAt on a closed order that does not carry one yet.
func (s *OrderStore) stampClosed(o *domain.Order) {
	if o.Status == domain.StatusClosed && o.ClosedAt == nil {
		t := s.now().UTC()
		o.ClosedAt = &t
	}
}

// Revise replaces the content of an order after the cart was edited. A
// pending order keeps its status; a processed one re-enters the kitchen
// queue through the edit transition.
func (s *OrderStore) Revise(ctx context.Context, orderNumber string, patch domain.Patch) (domain.Order, domain.Status, error) {
	if err := validatePatch(patch); err != nil {
		return domain.Order{}, "", err
	}

	var from domain.Status
	o, err := s.mutate(ctx, orderNumber, func(o *domain.Order) error {
		from = o.Status
		next := o.Status
		if o.Status != domain.StatusPending {
			var err error
			if next, err = lifecycle.Next(o.Status, lifecycle.Edit); err != nil {
				return err
			}
		}
		patch.Status = nil
		patch.Apply(o)
		o.Status = next
		return nil
	})
	return o, from, err
}

// Clear removes the order list and its mirror.
func (s *OrderStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Delete(ctx, AllOrdersKey, CurrentOrderKey); err != nil {
		return &domain.PersistenceError{Op: "delete", Key: AllOrdersKey, Err: err}
	}
	return nil
}

func (s *OrderStore) mutate(ctx context.Context, orderNumber string, fn func(*domain.Order) error) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := s.load(ctx)
	if err != nil {
		return domain.Order{}, err
	}
	i := indexOf(orders, orderNumber)
	if i < 0 {
		return domain.Order{}, &domain.NotFoundError{OrderNumber: orderNumber}
	}

	updated := orders[i]
	updated.Items = append([]domain.LineItem(nil), updated.Items...)
	if err := fn(&updated); err != nil {
		return domain.Order{}, err
	}
	updated.OrderNumber = orders[i].OrderNumber
	updated.Timestamp = orders[i].Timestamp
	orders[i] = updated

	if err := s.save(ctx, orders, updated); err != nil {
		return domain.Order{}, err
	}
	return updated, nil
}

// load returns a *domain.PersistenceError when the kv read fails and a
// *domain.ValidationError when the blob is malformed. Mutations refuse to run
// on either so a bad read never overwrites the stored list.
func (s *OrderStore) load(ctx context.Context) ([]domain.Order, error) {
	b, err := s.kv.Get(ctx, AllOrdersKey)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "read", Key: AllOrdersKey, Err: err}
	}
	return Decode(b)
}

func (s *OrderStore) save(ctx context.Context, orders []domain.Order, touched domain.Order) error {
	b, err := Encode(orders)
	if err != nil {
		return &domain.PersistenceError{Op: "encode", Key: AllOrdersKey, Err: err}
	}
	if err := s.kv.Set(ctx, AllOrdersKey, b, 0); err != nil {
		return &domain.PersistenceError{Op: "write", Key: AllOrdersKey, Err: err}
	}

	mirror, err := json.Marshal(touched)
	if err == nil {
		err = s.kv.Set(ctx, CurrentOrderKey, mirror, 0)
	}
	if err != nil {
		s.log.WarnContext(ctx, "current order mirror not updated", "key", CurrentOrderKey, "order_number", touched.OrderNumber, "error", err)
	}
	return nil
}

func indexOf(orders []domain.Order, orderNumber string) int {
	for i, o := range orders {
		if o.OrderNumber == orderNumber {
			return i
		}
	}
	return -1
}

func reachable(from, to domain.Status) bool {
	for _, a := range lifecycle.Allowed(from) {
		if next, err := lifecycle.Next(from, a); err == nil && next == to {
			return true
		}
	}
	return false
}

func validateNew(o domain.Order) error {
	if o.OrderNumber == "" {
		return domain.NewValidationError("orderNumber", "is required")
	}
	if len(o.Items) == 0 {
		return domain.NewValidationError("cartItems", "cannot place an order with no items")
	}
	if !o.Status.Valid() {
		return domain.NewValidationError("status", "unknown value "+string(o.Status))
	}
	if o.Timestamp.IsZero() {
		return domain.NewValidationError("timestamp", "is required")
	}
	return validateItems(o.Items)
}

func validatePatch(p domain.Patch) error {
	if p.Items != nil {
		if len(p.Items) == 0 {
			return domain.NewValidationError("cartItems", "cannot place an order with no items")
		}
		if err := validateItems(p.Items); err != nil {
			return err
		}
	}
	if p.Status != nil && !p.Status.Valid() {
		return domain.NewValidationError("status", "unknown value "+string(*p.Status))
	}
	return nil
}

func validateItems(items []domain.LineItem) error {
	seen := make(map[int]struct{}, len(items))
	for _, it := range items {
		if err := it.Validate(); err != nil {
			return err
		}
		if _, dup := seen[it.ID]; dup {
			return domain.NewValidationError("cartItems", "duplicate item id")
		}
		seen[it.ID] = struct{}{}
	}
	return nil
}
