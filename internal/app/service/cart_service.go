package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/mrops-br/qkart-storefront/internal/domain"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ProductSource supplies the catalog used for reconciliation
type ProductSource interface {
	Products(ctx context.Context) []domain.Product
}

// CartView is the renderable cart
type CartView struct {
	Items     []domain.CartItem
	Total     decimal.Decimal
	ItemCount int
}

// CartService keeps the rendered cart in step with the store's cart.
// Every cart the store returns replaces the local entries wholesale and is
// reconciled against the catalog.
type CartService struct {
	api       domain.StoreAPI
	sessions  domain.SessionGateway
	catalog   ProductSource
	sink      domain.NotificationSink
	tracer    trace.Tracer
	logger    *slog.Logger
	mutations metric.Int64Counter
	stale     metric.Int64Counter

	issued atomic.Uint64

	mu      sync.RWMutex
	applied uint64
	entries []domain.CartEntry
	items   []domain.CartItem
}

// NewCartService creates a new cart service
func NewCartService(
	api domain.StoreAPI,
	sessions domain.SessionGateway,
	catalog ProductSource,
	sink domain.NotificationSink,
	tracer trace.Tracer,
	meter metric.Meter,
	logger *slog.Logger,
) *CartService {
	mutations, _ := meter.Int64Counter(
		"storefront.cart.mutations",
		metric.WithDescription("Total number of cart operations"),
	)

	stale, _ := meter.Int64Counter(
		"storefront.stale_responses",
		metric.WithDescription("Responses discarded because a newer request had already been applied"),
	)

	return &CartService{
		api:       api,
		sessions:  sessions,
		catalog:   catalog,
		sink:      sink,
		tracer:    tracer,
		logger:    logger,
		mutations: mutations,
		stale:     stale,
	}
}

// AddToCart puts a product that is not yet in the cart into it.
// Failures are reported to the user before the error is returned.
func (s *CartService) AddToCart(ctx context.Context, productID string, qty int) error {
	ctx, span := s.tracer.Start(ctx, "CartService.AddToCart")
	defer span.End()

	span.SetAttributes(
		attribute.String("product.id", productID),
		attribute.Int("cart.qty", qty),
	)

	session, ok := s.sessions.Current()
	if !ok {
		s.reject(ctx, span, "add", "unauthorized", domain.ErrUnauthorized, msgLoginToAdd)
		return domain.ErrUnauthorized
	}

	s.mu.RLock()
	duplicate := domain.ContainsProduct(s.entries, productID)
	s.mu.RUnlock()

	if duplicate {
		s.reject(ctx, span, "add", "duplicate", domain.ErrDuplicateItem, msgDuplicateItem)
		return domain.ErrDuplicateItem
	}

	return s.submit(ctx, span, "add", session.Token, productID, qty)
}

// UpdateQuantity sets the quantity of a product already in the cart.
// A quantity of 0 removes it.
func (s *CartService) UpdateQuantity(ctx context.Context, productID string, qty int) error {
	ctx, span := s.tracer.Start(ctx, "CartService.UpdateQuantity")
	defer span.End()

	span.SetAttributes(
		attribute.String("product.id", productID),
		attribute.Int("cart.qty", qty),
	)

	session, ok := s.sessions.Current()
	if !ok {
		s.reject(ctx, span, "update", "unauthorized", domain.ErrUnauthorized, msgLoginToUpdate)
		return domain.ErrUnauthorized
	}

	return s.submit(ctx, span, "update", session.Token, productID, qty)
}

// Refresh fetches the cart from the store
func (s *CartService) Refresh(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "CartService.Refresh")
	defer span.End()

	session, ok := s.sessions.Current()
	if !ok {
		span.SetStatus(codes.Error, "No session")
		return domain.ErrUnauthorized
	}

	seq := s.issued.Add(1)
	entries, err := s.api.FetchCart(ctx, session.Token)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to fetch cart")
		s.record(ctx, "fetch", "failure")
		s.logger.ErrorContext(ctx, "Failed to fetch cart",
			slog.String("error", err.Error()),
		)

		msg, ok := domain.ServiceMessage(err)
		if !errors.Is(err, domain.ErrUnauthorized) || !ok {
			msg = msgCartFetchFailed
		}
		s.sink.Notify(ctx, domain.SeverityError, msg)
		return err
	}

	s.replace(ctx, "fetch", seq, entries)
	s.record(ctx, "fetch", "success")

	span.SetStatus(codes.Ok, "Cart fetched")
	return nil
}

// Reconcile rebuilds the rendered cart from the current entries and catalog
func (s *CartService) Reconcile(ctx context.Context) {
	_, span := s.tracer.Start(ctx, "CartService.Reconcile")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = domain.Reconcile(s.entries, s.catalog.Products(ctx))
	span.SetAttributes(attribute.Int("cart.items", len(s.items)))
}

// Clear drops the cart and ignores responses to requests already in flight
func (s *CartService) Clear(ctx context.Context) {
	s.mu.Lock()
	s.applied = s.issued.Load()
	s.entries = nil
	s.items = nil
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Cart cleared")
}

// HandleSessionEvent keeps the cart in step with login and logout
func (s *CartService) HandleSessionEvent(ctx context.Context, event domain.SessionEvent) {
	switch event {
	case domain.EventLoggedIn:
		_ = s.Refresh(ctx)
	case domain.EventLoggedOut:
		s.Clear(ctx)
	}
}

// View returns the rendered cart with its total computed on demand
func (s *CartService) View() CartView {
	s.mu.RLock()
	items := append([]domain.CartItem(nil), s.items...)
	s.mu.RUnlock()

	return CartView{
		Items:     items,
		Total:     domain.Total(items),
		ItemCount: domain.ItemCount(items),
	}
}

// Entries returns the store's cart as last received
func (s *CartService) Entries() []domain.CartEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.CartEntry(nil), s.entries...)
}

func (s *CartService) submit(ctx context.Context, span trace.Span, operation, token, productID string, qty int) error {
	seq := s.issued.Add(1)

	entries, err := s.api.PutCartItem(ctx, token, productID, qty)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Cart update rejected")
		s.logger.ErrorContext(ctx, "Cart update failed",
			slog.String("operation", operation),
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)

		if errors.Is(err, domain.ErrUnknownProduct) {
			s.record(ctx, operation, "unknown_product")
			msg, ok := domain.ServiceMessage(err)
			if !ok {
				msg = msgUnknownProduct
			}
			s.sink.Notify(ctx, domain.SeverityError, msg)
			return err
		}

		s.record(ctx, operation, "transport_error")
		s.sink.Notify(ctx, domain.SeverityError, msgCartPostFailed)
		if !errors.Is(err, domain.ErrTransport) {
			err = fmt.Errorf("%w: %w", domain.ErrTransport, err)
		}
		return err
	}

	s.replace(ctx, operation, seq, entries)
	s.record(ctx, operation, "success")

	s.logger.InfoContext(ctx, "Cart updated",
		slog.String("operation", operation),
		slog.String("product_id", productID),
		slog.Int("qty", qty),
	)

	span.SetStatus(codes.Ok, "Cart updated")
	return nil
}

// replace installs entries unless a newer cart has already been applied
func (s *CartService) replace(ctx context.Context, operation string, seq uint64, entries []domain.CartEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq <= s.applied {
		s.stale.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", "cart_"+operation)))
		s.logger.DebugContext(ctx, "Discarding stale cart response",
			slog.String("operation", operation),
			slog.Uint64("seq", seq),
		)
		return
	}

	s.applied = seq
	s.entries = entries
	s.items = domain.Reconcile(entries, s.catalog.Products(ctx))
}

func (s *CartService) reject(ctx context.Context, span trace.Span, operation, result string, err error, message string) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.record(ctx, operation, result)
	s.logger.WarnContext(ctx, "Cart operation rejected before reaching the store",
		slog.String("operation", operation),
		slog.String("reason", result),
	)
	s.sink.Notify(ctx, domain.SeverityWarning, message)
}

func (s *CartService) record(ctx context.Context, operation, result string) {
	s.mutations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("result", result),
		),
	)
}
