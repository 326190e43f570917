package app

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/jcmexdev/club-pos/internal/pkg/kv"
	"github.com/jcmexdev/club-pos/internal/pos/cart"
	"github.com/jcmexdev/club-pos/internal/pos/catalog"
	"github.com/jcmexdev/club-pos/internal/pos/domain"
	"github.com/jcmexdev/club-pos/internal/pos/orderlog"
	"github.com/jcmexdev/club-pos/internal/pos/store"
)

var t0 = time.Date(2024, 12, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc  *Service
	kv   *kv.MemoryStore
	log  *orderlog.MemoryRepository
	now  time.Time
	tp   *sdktrace.TracerProvider
	sess domain.SessionContext
}

func newFixture(t *testing.T, fees ...cart.Fee) *fixture {
	t.Helper()
	f := &fixture{
		kv:   kv.NewMemoryStore(),
		log:  orderlog.NewMemoryRepository(),
		now:  t0,
		tp:   sdktrace.NewTracerProvider(),
		sess: domain.SessionContext{WaiterID: "W1", WaiterName: "Waiter One"},
	}
	t.Cleanup(func() { _ = f.tp.Shutdown(context.Background()) })

	svc, err := New(Options{
		KV:       f.kv,
		Catalog:  catalog.Sample(),
		OrderLog: f.log,
		Fees:     fees,
		CartTTL:  time.Hour,
		Defaults: domain.SessionContext{OutletName: "Main Bar", RestaurantName: "Club House"},
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Tracer:   f.tp.Tracer("test"),
		Now:      func() time.Time { return f.now },
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

// placeOrder checks out a cart holding the given catalog items.
func (f *fixture) placeOrder(t *testing.T, menuIDs ...int) domain.Order {
	t.Helper()
	ctx := context.Background()
	c, err := f.svc.OpenCart(ctx)
	require.NoError(t, err)
	for _, id := range menuIDs {
		_, err = f.svc.AddToCart(ctx, c.ID, id)
		require.NoError(t, err)
	}
	order, err := f.svc.Checkout(ctx, c.ID, f.sess, domain.CheckoutRequest{
		MemberID:    "M-100",
		MemberName:  "A. Member",
		Pax:         "2",
		TableNo:     "7",
		ServiceType: "Dining In",
	})
	require.NoError(t, err)
	return order
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Options{Catalog: catalog.Sample()})
	assert.Error(t, err)
	_, err = New(Options{KV: kv.NewMemoryStore()})
	assert.Error(t, err)
}

func TestCartSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.OpenCart(ctx)
	require.NoError(t, err)
	assert.Len(t, c.ID, 36)
	assert.Empty(t, c.Items)

	_, err = f.svc.AddToCart(ctx, c.ID, 1001)
	require.NoError(t, err)
	c, err = f.svc.AddToCart(ctx, c.ID, 1001)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 2, c.Items[0].Quantity)
	assert.True(t, decimal.NewFromInt(560).Equal(c.GrandTotal))

	c, err = f.svc.AddToCart(ctx, c.ID, 2001)
	require.NoError(t, err)
	assert.Equal(t, 3, c.ItemCount)

	c, err = f.svc.DecreaseItem(ctx, c.ID, 2001)
	require.NoError(t, err)
	assert.Len(t, c.Items, 1)

	c, err = f.svc.IncreaseItem(ctx, c.ID, 1001)
	require.NoError(t, err)
	assert.Equal(t, 3, c.ItemCount)

	c, err = f.svc.IncreaseItem(ctx, c.ID, 9999)
	require.NoError(t, err)
	assert.Equal(t, 3, c.ItemCount)

	c, err = f.svc.RemoveItem(ctx, c.ID, 1001)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.True(t, c.GrandTotal.IsZero())

	got, err := f.svc.GetCart(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
}

func TestCartIsStoredUnderPrefixedKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.OpenCart(ctx)
	require.NoError(t, err)

	b, err := f.kv.Get(ctx, "pos:cart:"+c.ID)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"cartItems":[]`)
}

func TestAddUnknownMenuItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.svc.OpenCart(ctx)
	require.NoError(t, err)

	_, err = f.svc.AddToCart(ctx, c.ID, 424242)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUnknownCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.GetCart(ctx, "missing")
	assert.ErrorIs(t, err, ErrCartNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.AddToCart(ctx, "missing", 1001)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, f.svc.DiscardCart(ctx, "missing"), domain.ErrNotFound)
}

func TestMergeIntoCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.svc.OpenCart(ctx)
	require.NoError(t, err)
	_, err = f.svc.AddToCart(ctx, c.ID, 1001)
	require.NoError(t, err)

	c, err = f.svc.MergeIntoCart(ctx, c.ID, []domain.LineItem{
		{ID: 1001, Name: "Chocolate Lava Cake", Price: decimal.NewFromInt(280), Quantity: 2},
		{ID: 4001, Name: "Watermelon Mint", Price: decimal.NewFromInt(150), Quantity: 1},
	})
	require.NoError(t, err)
	require.Len(t, c.Items, 2)
	assert.Equal(t, 3, c.Items[0].Quantity)
	assert.Equal(t, 4, c.ItemCount)

	_, err = f.svc.MergeIntoCart(ctx, c.ID, []domain.LineItem{{ID: 7, Name: "Free", Price: decimal.Zero, Quantity: 1}})
	assert.ErrorIs(t, err, domain.ErrValidation)

	got, err := f.svc.GetCart(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.ItemCount)
}

func TestConcurrentAddToCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.svc.OpenCart(ctx)
	require.NoError(t, err)

	const n = 200
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.AddToCart(ctx, c.ID, 1001)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := f.svc.GetCart(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, n, got.ItemCount)
	assert.Equal(t, n, got.Items[0].Quantity)
}

func TestDiscardCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.svc.OpenCart(ctx)
	require.NoError(t, err)

	require.NoError(t, f.svc.DiscardCart(ctx, c.ID))
	_, err = f.svc.GetCart(ctx, c.ID)
	assert.ErrorIs(t, err, ErrCartNotFound)
}

func TestCheckoutPlacesPendingOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := f.placeOrder(t, 1001, 1001, 2001)

	assert.Equal(t, "ORD20241201120000", order.OrderNumber)
	assert.Equal(t, domain.StatusPending, order.Status)
	assert.Equal(t, 3, order.ItemCount)
	assert.True(t, decimal.NewFromInt(740).Equal(order.GrandTotal))
	assert.Equal(t, domain.DiningIn, order.ServiceType)
	assert.Equal(t, "Main Bar", order.OutletName)
	assert.Equal(t, "Club House", order.RestaurantName)
	assert.Equal(t, "W1", order.WaiterID)
	assert.True(t, t0.Equal(order.Timestamp))

	stored, err := f.svc.GetOrder(ctx, order.OrderNumber)
	require.NoError(t, err)
	require.Len(t, stored.Items, 2)
	assert.Equal(t, 2, stored.Items[0].Quantity)
	assert.Equal(t, 2001, stored.Items[1].ID)

	current, ok := f.svc.CurrentOrder(ctx)
	require.True(t, ok)
	assert.Equal(t, order.OrderNumber, current.OrderNumber)

	entries, err := f.svc.History(ctx, order.OrderNumber)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "create", entries[0].Action)
	assert.Equal(t, "Pending", entries[0].To)
	assert.NotEmpty(t, entries[0].TraceID)
}

func TestCheckoutRemovesCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.svc.OpenCart(ctx)
	require.NoError(t, err)
	_, err = f.svc.AddToCart(ctx, c.ID, 1001)
	require.NoError(t, err)

	_, err = f.svc.Checkout(ctx, c.ID, f.sess, domain.CheckoutRequest{})
	require.NoError(t, err)

	_, err = f.svc.GetCart(ctx, c.ID)
	assert.ErrorIs(t, err, ErrCartNotFound)
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.svc.OpenCart(ctx)
	require.NoError(t, err)

	_, err = f.svc.Checkout(ctx, c.ID, f.sess, domain.CheckoutRequest{})
	assert.ErrorIs(t, err, domain.ErrValidation)

	orders, err := f.svc.ListOrders(ctx, "all")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCheckoutSameSecondGetsSuffix(t *testing.T) {
	f := newFixture(t)

	first := f.placeOrder(t, 1001)
	second := f.placeOrder(t, 2001)
	third := f.placeOrder(t, 4001)

	assert.Equal(t, "ORD20241201120000", first.OrderNumber)
	assert.Equal(t, "ORD20241201120000-1", second.OrderNumber)
	assert.Equal(t, "ORD20241201120000-2", third.OrderNumber)
}

func TestCheckoutWithFees(t *testing.T) {
	f := newFixture(t, cart.Tax(decimal.NewFromInt(10)), cart.DeliveryFee(decimal.NewFromInt(30)))

	order := f.placeOrder(t, 4001)

	// 150 + 15 tax + 30 delivery
	assert.True(t, decimal.NewFromInt(195).Equal(order.GrandTotal), order.GrandTotal.String())
}

func TestKitchenAcceptTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t, 1001)

	accepted, err := f.svc.AcceptOrder(ctx, order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessed, accepted.Status)

	_, err = f.svc.AcceptOrder(ctx, order.OrderNumber)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	stored, err := f.svc.GetOrder(ctx, order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessed, stored.Status)
}

func TestCloseWithoutPaymentMethod(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t, 1001)
	_, err := f.svc.AcceptOrder(ctx, order.OrderNumber)
	require.NoError(t, err)

	for _, method := range []string{"", "Bitcoin"} {
		_, err = f.svc.CloseOrder(ctx, order.OrderNumber, method)
		assert.ErrorIs(t, err, domain.ErrValidation)
	}

	stored, err := f.svc.GetOrder(ctx, order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessed, stored.Status)
	assert.Empty(t, stored.PaymentMethod)
}

func TestCloseOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t, 1001)
	_, err := f.svc.AcceptOrder(ctx, order.OrderNumber)
	require.NoError(t, err)

	f.now = t0.Add(45 * time.Minute)
	closed, err := f.svc.CloseOrder(ctx, order.OrderNumber, "card")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, closed.Status)
	assert.Equal(t, domain.PaymentCard, closed.PaymentMethod)
	require.NotNil(t, closed.ClosedAt)
	assert.True(t, f.now.Equal(*closed.ClosedAt))
	assert.True(t, t0.Equal(closed.Timestamp))

	_, err = f.svc.CloseOrder(ctx, order.OrderNumber, "Cash")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = f.svc.EditOrder(ctx, order.OrderNumber)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	entries, err := f.svc.History(ctx, order.OrderNumber)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "close", entries[2].Action)
	assert.Equal(t, "Processed", entries[2].From)
	assert.Equal(t, "Closed", entries[2].To)
	assert.Equal(t, "Card", entries[2].PaymentMethod)
}

func TestTransitionByName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t, 1001)

	got, err := f.svc.Transition(ctx, order.OrderNumber, "tick", "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessed, got.Status)

	got, err = f.svc.Transition(ctx, order.OrderNumber, "checkout", "Account")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, got.Status)

	_, err = f.svc.Transition(ctx, order.OrderNumber, "reopen", "")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.svc.Transition(ctx, order.OrderNumber, "edit", "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTransitionUnknownOrder(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.AcceptOrder(context.Background(), "ORD-404")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.History(context.Background(), "ORD-404")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEditProcessedOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t, 1001)
	_, err := f.svc.AcceptOrder(ctx, order.OrderNumber)
	require.NoError(t, err)

	c, err := f.svc.EditOrder(ctx, order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, order.OrderNumber, c.EditingOrder)
	require.Len(t, c.Items, 1)

	_, err = f.svc.AddToCart(ctx, c.ID, 6001)
	require.NoError(t, err)

	f.now = t0.Add(10 * time.Minute)
	revised, err := f.svc.Checkout(ctx, c.ID, f.sess, domain.CheckoutRequest{TableNo: "9"})
	require.NoError(t, err)

	assert.Equal(t, order.OrderNumber, revised.OrderNumber)
	assert.True(t, t0.Equal(revised.Timestamp))
	assert.Equal(t, domain.StatusPending, revised.Status)
	assert.Equal(t, 2, revised.ItemCount)
	assert.True(t, decimal.NewFromInt(700).Equal(revised.GrandTotal))
	assert.Equal(t, "9", revised.TableNo)
	assert.Equal(t, "A. Member", revised.MemberName)

	orders, err := f.svc.ListOrders(ctx, "all")
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	pending, err := f.svc.ListOrders(ctx, "pending")
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestReviseOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t, 1001)

	revised, err := f.svc.ReviseOrder(ctx, order.OrderNumber, []domain.LineItem{
		{ID: 2001, Name: "Cream of Mushroom", Price: decimal.NewFromInt(180), Quantity: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, revised.Status)
	assert.True(t, decimal.NewFromInt(360).Equal(revised.GrandTotal))

	_, err = f.svc.ReviseOrder(ctx, order.OrderNumber, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestListOrdersViews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.placeOrder(t, 1001)
	f.now = t0.Add(time.Second)
	b := f.placeOrder(t, 2001)
	f.now = t0.Add(2 * time.Second)
	f.placeOrder(t, 4001)

	_, err := f.svc.AcceptOrder(ctx, a.OrderNumber)
	require.NoError(t, err)
	_, err = f.svc.AcceptOrder(ctx, b.OrderNumber)
	require.NoError(t, err)
	_, err = f.svc.CloseOrder(ctx, b.OrderNumber, "Cash")
	require.NoError(t, err)

	pending, err := f.svc.ListOrders(ctx, "pending")
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	history, err := f.svc.ListOrders(ctx, "history")
	require.NoError(t, err)
	assert.Len(t, history, 2)

	_, err = f.svc.ListOrders(ctx, "archived")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestLegacyOpenOrderLeavesKitchenQueue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	legacy := f.placeOrder(t, 1001)
	legacy.OrderNumber = "ORD20230101120000"
	legacy.Status = domain.StatusOpen
	require.NoError(t, f.svc.orders.Append(ctx, legacy))

	pending, err := f.svc.ListOrders(ctx, "pending")
	require.NoError(t, err)
	require.Len(t, pending, 2)

	o, err := f.svc.AcceptOrder(ctx, legacy.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessed, o.Status)

	pending, err = f.svc.ListOrders(ctx, "pending")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.NotEqual(t, legacy.OrderNumber, pending[0].OrderNumber)

	history, err := f.svc.ListOrders(ctx, "history")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, legacy.OrderNumber, history[0].OrderNumber)
}

func TestClearOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.placeOrder(t, 1001)

	require.NoError(t, f.svc.ClearOrders(ctx))

	orders, err := f.svc.ListOrders(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, orders)
	_, ok := f.svc.CurrentOrder(ctx)
	assert.False(t, ok)
}

func TestWorksWithoutOrderLog(t *testing.T) {
	mem := kv.NewMemoryStore()
	svc, err := New(Options{
		KV:      mem,
		Orders:  store.New(mem, nil),
		Catalog: catalog.Sample(),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	ctx := context.Background()

	c, err := svc.OpenCart(ctx)
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, c.ID, 1001)
	require.NoError(t, err)
	order, err := svc.Checkout(ctx, c.ID, domain.SessionContext{}, domain.CheckoutRequest{})
	require.NoError(t, err)

	entries, err := svc.History(ctx, order.OrderNumber)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMenu(t *testing.T) {
	f := newFixture(t)
	courses := f.svc.Menu(context.Background())
	require.NotEmpty(t, courses)
	assert.Equal(t, 1, courses[0].ID)
}
