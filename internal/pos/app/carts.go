package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jcmexdev/club-pos/internal/pkg/kv"
	"github.com/jcmexdev/club-pos/internal/pos/cart"
	"github.com/jcmexdev/club-pos/internal/pos/domain"
)

// ErrCartNotFound is returned for unknown or expired cart sessions.
var ErrCartNotFound = fmt.Errorf("cart %w", domain.ErrNotFound)

// cartSession is the stored form of a cart, under pos:cart:<id>.
type cartSession struct {
	ID           string            `json:"id"`
	EditingOrder string            `json:"editingOrder,omitempty"`
	Items        []domain.LineItem `json:"cartItems"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

func cartKey(id string) string {
	return kv.Key("pos", "cart", id)
}

func (s *Service) OpenCart(ctx context.Context) (domain.CartView, error) {
	ctx, span := s.start(ctx, "OpenCart")
	sess := &cartSession{ID: uuid.NewString(), Items: []domain.LineItem{}}
	c := cart.New(s.fees...)
	err := s.saveCart(ctx, sess, c)
	end(span, err)
	if err != nil {
		return domain.CartView{}, err
	}
	return s.view(sess, c), nil
}

func (s *Service) GetCart(ctx context.Context, cartID string) (domain.CartView, error) {
	sess, c, err := s.loadCart(ctx, cartID)
	if err != nil {
		return domain.CartView{}, err
	}
	return s.view(sess, c), nil
}

// AddToCart adds one unit of the catalog item menuItemID.
func (s *Service) AddToCart(ctx context.Context, cartID string, menuItemID int) (domain.CartView, error) {
	item, ok := s.catalog.Lookup(menuItemID)
	if !ok {
		return domain.CartView{}, domain.NewValidationError("menuItemId", fmt.Sprintf("%d is not on the menu", menuItemID))
	}
	return s.updateCart(ctx, "AddToCart", cartID, func(c *cart.Cart) error {
		return c.AddItem(item)
	})
}

// IncreaseItem, DecreaseItem and RemoveItem leave the cart unchanged when
// itemID is not in it.
func (s *Service) IncreaseItem(ctx context.Context, cartID string, itemID int) (domain.CartView, error) {
	return s.updateCart(ctx, "IncreaseItem", cartID, func(c *cart.Cart) error {
		c.IncreaseItem(itemID)
		return nil
	})
}

func (s *Service) DecreaseItem(ctx context.Context, cartID string, itemID int) (domain.CartView, error) {
	return s.updateCart(ctx, "DecreaseItem", cartID, func(c *cart.Cart) error {
		c.DecreaseItem(itemID)
		return nil
	})
}

func (s *Service) RemoveItem(ctx context.Context, cartID string, itemID int) (domain.CartView, error) {
	return s.updateCart(ctx, "RemoveItem", cartID, func(c *cart.Cart) error {
		c.RemoveItem(itemID)
		return nil
	})
}

// MergeIntoCart folds items picked on another screen into the cart, summing
// quantities of shared ids.
func (s *Service) MergeIntoCart(ctx context.Context, cartID string, items []domain.LineItem) (domain.CartView, error) {
	incoming, err := cart.FromItems(items)
	if err != nil {
		return domain.CartView{}, err
	}
	return s.updateCart(ctx, "MergeIntoCart", cartID, func(c *cart.Cart) error {
		*c = *c.Merge(incoming)
		return nil
	})
}

func (s *Service) DiscardCart(ctx context.Context, cartID string) error {
	s.cartMu.Lock()
	defer s.cartMu.Unlock()
	if _, _, err := s.loadCart(ctx, cartID); err != nil {
		return err
	}
	if err := s.kv.Delete(ctx, cartKey(cartID)); err != nil {
		return &domain.PersistenceError{Op: "delete", Key: cartKey(cartID), Err: err}
	}
	return nil
}

func (s *Service) updateCart(ctx context.Context, op, cartID string, fn func(*cart.Cart) error) (domain.CartView, error) {
	ctx, span := s.start(ctx, op, attribute.String("pos.cart_id", cartID))
	s.cartMu.Lock()
	defer s.cartMu.Unlock()
	sess, c, err := s.loadCart(ctx, cartID)
	if err == nil {
		err = fn(c)
	}
	if err == nil {
		err = s.saveCart(ctx, sess, c)
	}
	end(span, err)
	if err != nil {
		return domain.CartView{}, err
	}
	return s.view(sess, c), nil
}

func (s *Service) loadCart(ctx context.Context, cartID string) (*cartSession, *cart.Cart, error) {
	if cartID == "" {
		return nil, nil, domain.NewValidationError("cartId", "is required")
	}
	b, err := s.kv.Get(ctx, cartKey(cartID))
	if err != nil {
		return nil, nil, &domain.PersistenceError{Op: "read", Key: cartKey(cartID), Err: err}
	}
	if b == nil {
		return nil, nil, fmt.Errorf("app: %q: %w", cartID, ErrCartNotFound)
	}
	var sess cartSession
	if err := json.Unmarshal(b, &sess); err != nil {
		return nil, nil, domain.NewValidationError("cart", "malformed persisted JSON: "+err.Error())
	}
	c, err := cart.FromItems(sess.Items, s.fees...)
	if err != nil {
		return nil, nil, err
	}
	return &sess, c, nil
}

func (s *Service) saveCart(ctx context.Context, sess *cartSession, c *cart.Cart) error {
	sess.Items = c.Items()
	sess.UpdatedAt = s.now().UTC()
	b, err := json.Marshal(sess)
	if err != nil {
		return &domain.PersistenceError{Op: "encode", Key: cartKey(sess.ID), Err: err}
	}
	if err := s.kv.Set(ctx, cartKey(sess.ID), b, s.cartTTL); err != nil {
		return &domain.PersistenceError{Op: "write", Key: cartKey(sess.ID), Err: err}
	}
	return nil
}

func (s *Service) view(sess *cartSession, c *cart.Cart) domain.CartView {
	t := c.Totals()
	return domain.CartView{
		ID:           sess.ID,
		EditingOrder: sess.EditingOrder,
		Items:        c.Items(),
		ItemCount:    t.ItemCount,
		SubTotal:     t.SubTotal,
		Fees:         t.Fees,
		GrandTotal:   t.GrandTotal,
		UpdatedAt:    sess.UpdatedAt,
	}
}
