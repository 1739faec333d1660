package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/mrops-br/qkart-storefront/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CatalogView is the renderable state of the product listing
type CatalogView struct {
	Products        []domain.Product
	NoProductsFound bool
	Loading         bool
}

// CatalogService holds the product catalog: the full list loaded from the
// store and the working set shown to the user, which searches replace.
type CatalogService struct {
	api      domain.StoreAPI
	repo     domain.ProductRepository
	sink     domain.NotificationSink
	tracer   trace.Tracer
	logger   *slog.Logger
	requests metric.Int64Counter
	stale    metric.Int64Counter

	// viewSeq orders every request that may replace the working set,
	// loadSeq only full-list loads.
	viewSeq atomic.Uint64
	loadSeq atomic.Uint64

	mu          sync.RWMutex
	viewApplied uint64
	loadApplied uint64
	visible     []domain.Product
	noResults   bool
	inFlight    int
	subscribers []func(context.Context)
}

// NewCatalogService creates a new catalog service
func NewCatalogService(
	api domain.StoreAPI,
	repo domain.ProductRepository,
	sink domain.NotificationSink,
	tracer trace.Tracer,
	meter metric.Meter,
	logger *slog.Logger,
) *CatalogService {
	requests, _ := meter.Int64Counter(
		"storefront.catalog.requests",
		metric.WithDescription("Total number of catalog requests sent to the store"),
	)

	stale, _ := meter.Int64Counter(
		"storefront.stale_responses",
		metric.WithDescription("Responses discarded because a newer request had already been applied"),
	)

	return &CatalogService{
		api:      api,
		repo:     repo,
		sink:     sink,
		tracer:   tracer,
		logger:   logger,
		requests: requests,
		stale:    stale,
	}
}

// Subscribe registers fn to run whenever the set of known products changes
func (s *CatalogService) Subscribe(fn func(context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Load fetches the full product list and makes it the working set
func (s *CatalogService) Load(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "CatalogService.Load")
	defer span.End()

	s.logger.InfoContext(ctx, "Loading product catalog")

	// A load's two sequence numbers must order identically against other loads
	s.mu.Lock()
	viewSeq := s.viewSeq.Add(1)
	loadSeq := s.loadSeq.Add(1)
	s.mu.Unlock()

	s.begin()
	products, err := s.api.ListProducts(ctx)
	s.end()

	if err != nil {
		s.mu.RLock()
		superseded := loadSeq < s.loadApplied || viewSeq < s.viewApplied
		s.mu.RUnlock()
		if superseded {
			s.discard(ctx, "load", loadSeq)
			return nil
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load catalog")
		s.record(ctx, "load", "failure")
		s.logger.ErrorContext(ctx, "Failed to load catalog",
			slog.String("error", err.Error()),
		)
		s.reportStoreFailure(ctx, err)
		return err
	}

	s.mu.Lock()
	freshList := loadSeq > s.loadApplied
	if freshList {
		s.loadApplied = loadSeq
	}
	freshView := viewSeq > s.viewApplied
	if freshView {
		s.viewApplied = viewSeq
		s.visible = products
		s.noResults = false
	}
	s.mu.Unlock()

	if !freshList {
		s.discard(ctx, "load", loadSeq)
		return nil
	}
	if !freshView {
		s.discard(ctx, "load_view", viewSeq)
	}

	if err := s.repo.ReplaceAll(ctx, products); err != nil {
		span.RecordError(err)
		return err
	}
	s.publish(ctx)

	span.SetAttributes(attribute.Int("product.count", len(products)))
	s.record(ctx, "load", "success")
	s.logger.InfoContext(ctx, "Catalog loaded",
		slog.Int("count", len(products)),
	)

	span.SetStatus(codes.Ok, "Catalog loaded")
	return nil
}

// Search replaces the working set with the products matching text.
// An empty text is a valid query. A 404 from the store switches the view to
// the "no products found" state without clearing the previous working set.
func (s *CatalogService) Search(ctx context.Context, text string) error {
	ctx, span := s.tracer.Start(ctx, "CatalogService.Search")
	defer span.End()

	seq := s.viewSeq.Add(1)
	span.SetAttributes(
		attribute.String("search.text", text),
		attribute.Int64("search.seq", int64(seq)),
	)

	s.logger.InfoContext(ctx, "Searching catalog",
		slog.String("text", text),
		slog.Uint64("seq", seq),
	)

	s.begin()
	products, err := s.api.SearchProducts(ctx, text)
	s.end()

	s.mu.Lock()
	if seq < s.viewApplied {
		s.mu.Unlock()
		s.discard(ctx, "search", seq)
		return nil
	}

	switch {
	case err == nil:
		s.viewApplied = seq
		s.visible = products
		s.noResults = false
	case errors.Is(err, domain.ErrNoProductsFound):
		s.viewApplied = seq
		s.noResults = true
	}
	s.mu.Unlock()

	if errors.Is(err, domain.ErrNoProductsFound) {
		span.SetStatus(codes.Ok, "No products matched")
		s.record(ctx, "search", "not_found")
		s.logger.InfoContext(ctx, "No products matched search",
			slog.String("text", text),
		)
		s.sink.Notify(ctx, domain.SeverityError, msgNoProductsFound)
		return err
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Search failed")
		s.record(ctx, "search", "failure")
		s.logger.ErrorContext(ctx, "Search failed",
			slog.String("text", text),
			slog.String("error", err.Error()),
		)
		s.sink.Notify(ctx, domain.SeverityError, msgStoreUnreachable)
		return err
	}

	// Search results also feed cart reconciliation
	if err := s.repo.Merge(ctx, products); err != nil {
		span.RecordError(err)
		return err
	}
	s.publish(ctx)

	span.SetAttributes(attribute.Int("product.count", len(products)))
	s.record(ctx, "search", "success")
	s.logger.InfoContext(ctx, "Search applied",
		slog.String("text", text),
		slog.Int("count", len(products)),
	)

	span.SetStatus(codes.Ok, "Search applied")
	return nil
}

// View returns the current working set and display flags
func (s *CatalogService) View() CatalogView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return CatalogView{
		Products:        append([]domain.Product(nil), s.visible...),
		NoProductsFound: s.noResults,
		Loading:         s.inFlight > 0,
	}
}

// Products returns every known product; this is the reconciliation input
func (s *CatalogService) Products(ctx context.Context) []domain.Product {
	products, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to read product repository",
			slog.String("error", err.Error()),
		)
		return nil
	}
	return products
}

// reportStoreFailure shows the store's own message only for a 400
func (s *CatalogService) reportStoreFailure(ctx context.Context, err error) {
	var se *domain.ServiceError
	if errors.As(err, &se) && se.Status == http.StatusBadRequest && se.Message != "" {
		s.sink.Notify(ctx, domain.SeverityError, se.Message)
		return
	}
	s.sink.Notify(ctx, domain.SeverityError, msgStoreUnreachable)
}

// Product returns one known product
func (s *CatalogService) Product(ctx context.Context, id string) (domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.Product")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Product not found")
		return domain.Product{}, err
	}

	span.SetStatus(codes.Ok, "Product found")
	return product, nil
}

func (s *CatalogService) publish(ctx context.Context) {
	s.mu.RLock()
	subscribers := slices.Clone(s.subscribers)
	s.mu.RUnlock()

	for _, fn := range subscribers {
		fn(ctx)
	}
}

func (s *CatalogService) discard(ctx context.Context, operation string, seq uint64) {
	s.stale.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
	s.logger.DebugContext(ctx, "Discarding stale catalog response",
		slog.String("operation", operation),
		slog.Uint64("seq", seq),
	)
}

func (s *CatalogService) record(ctx context.Context, operation, result string) {
	s.requests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("result", result),
		),
	)
}

func (s *CatalogService) begin() {
	s.mu.Lock()
	s.inFlight++
	s.mu.Unlock()
}

func (s *CatalogService) end() {
	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()
}
