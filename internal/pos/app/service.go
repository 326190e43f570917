// Package app is the point-of-sale application service. It keeps cart
// sessions in the key-value store, turns them into orders and drives orders
// through their lifecycle, recording every transition in the order log.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jcmexdev/club-pos/internal/pkg/kv"
	"github.com/jcmexdev/club-pos/internal/pkg/telemetry"
	"github.com/jcmexdev/club-pos/internal/pos/cart"
	"github.com/jcmexdev/club-pos/internal/pos/catalog"
	"github.com/jcmexdev/club-pos/internal/pos/domain"
	"github.com/jcmexdev/club-pos/internal/pos/orderlog"
	"github.com/jcmexdev/club-pos/internal/pos/ports"
	"github.com/jcmexdev/club-pos/internal/pos/store"
)

// maxNumberAttempts bounds the "-N" suffixes tried when two checkouts land
// in the same second.
const maxNumberAttempts = 10

var _ ports.POSService = (*Service)(nil)

type Options struct {
	KV      kv.Store
	Orders  *store.OrderStore
	Catalog *catalog.Catalog
	// OrderLog may be nil, in which case transitions are not recorded.
	OrderLog orderlog.Repository
	Fees     []cart.Fee
	CartTTL  time.Duration
	// Defaults fill in an empty outlet or restaurant at checkout.
	Defaults domain.SessionContext
	Logger   *slog.Logger
	Tracer   trace.Tracer
	Now      func() time.Time
}

type Service struct {
	kv       kv.Store
	orders   *store.OrderStore
	catalog  *catalog.Catalog
	orderLog orderlog.Repository
	fees     []cart.Fee
	cartTTL  time.Duration
	defaults domain.SessionContext
	log      *slog.Logger
	tracer   trace.Tracer
	now      func() time.Time

	// cartMu serializes read-modify-write cycles on cart sessions.
	cartMu sync.Mutex
}

func New(opts Options) (*Service, error) {
	if opts.KV == nil {
		return nil, errors.New("app: kv store is required")
	}
	if opts.Catalog == nil {
		return nil, errors.New("app: catalog is required")
	}
	s := &Service{
		kv:       opts.KV,
		orders:   opts.Orders,
		catalog:  opts.Catalog,
		orderLog: opts.OrderLog,
		fees:     opts.Fees,
		cartTTL:  opts.CartTTL,
		defaults: opts.Defaults,
		log:      opts.Logger,
		tracer:   opts.Tracer,
		now:      opts.Now,
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.orders == nil {
		s.orders = store.New(opts.KV, s.log)
	}
	if s.tracer == nil {
		s.tracer = telemetry.Tracer()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

func (s *Service) Menu(ctx context.Context) []catalog.Course {
	return s.catalog.Courses()
}

func (s *Service) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "pos."+name, trace.WithAttributes(attrs...))
}

// end records err on span and ends it.
func end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// record appends a transition to the order log. Failures are logged and do
// not fail the operation.
func (s *Service) record(ctx context.Context, orderNumber, action string, from, to domain.Status, payment domain.PaymentMethod) {
	if s.orderLog == nil {
		return
	}
	entry := orderlog.NewEntry(ctx, orderNumber, action, string(from), string(to), string(payment))
	entry.At = s.now().UTC()
	if err := s.orderLog.Save(ctx, entry); err != nil {
		s.log.ErrorContext(ctx, "failed to record order transition",
			"order_number", orderNumber,
			"action", action,
			"error", err,
		)
	}
}

func (s *Service) ClearOrders(ctx context.Context) error {
	ctx, span := s.start(ctx, "ClearOrders")
	err := s.orders.Clear(ctx)
	end(span, err)
	if err == nil {
		s.log.WarnContext(ctx, "all orders cleared")
	}
	return err
}

// History returns the recorded transitions of one order, oldest first.
func (s *Service) History(ctx context.Context, orderNumber string) ([]orderlog.Entry, error) {
	if _, err := s.GetOrder(ctx, orderNumber); err != nil {
		return nil, err
	}
	if s.orderLog == nil {
		return []orderlog.Entry{}, nil
	}
	entries, err := s.orderLog.History(ctx, orderNumber)
	if err != nil {
		return nil, fmt.Errorf("app: order history %q: %w", orderNumber, err)
	}
	return entries, nil
}
