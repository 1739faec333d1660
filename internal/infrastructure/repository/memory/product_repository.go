package memory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mrops-br/qkart-storefront/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ProductRepository is an in-memory implementation of domain.ProductRepository.
// It keeps every product the storefront has seen, in first-seen order.
type ProductRepository struct {
	mu       sync.RWMutex
	order    []string
	products map[string]domain.Product
	tracer   trace.Tracer
	logger   *slog.Logger
}

var _ domain.ProductRepository = (*ProductRepository)(nil)

// NewProductRepository creates a new in-memory product repository
func NewProductRepository(tracer trace.Tracer, logger *slog.Logger) *ProductRepository {
	return &ProductRepository{
		products: make(map[string]domain.Product),
		tracer:   tracer,
		logger:   logger,
	}
}

// ReplaceAll swaps the whole catalog for products
func (r *ProductRepository) ReplaceAll(ctx context.Context, products []domain.Product) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.ReplaceAll")
	defer span.End()

	span.SetAttributes(attribute.Int("product.count", len(products)))

	order := make([]string, 0, len(products))
	index := make(map[string]domain.Product, len(products))
	for _, p := range products {
		if _, dup := index[p.ID]; !dup {
			order = append(order, p.ID)
		}
		index[p.ID] = p
	}

	r.mu.Lock()
	r.order = order
	r.products = index
	r.mu.Unlock()

	r.logger.InfoContext(ctx, "Catalog replaced in repository",
		slog.Int("count", len(order)),
	)

	span.SetStatus(codes.Ok, "Catalog replaced")
	return nil
}

// Merge adds products not seen before and refreshes known ones
func (r *ProductRepository) Merge(ctx context.Context, products []domain.Product) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Merge")
	defer span.End()

	r.mu.Lock()
	added := 0
	for _, p := range products {
		if _, known := r.products[p.ID]; !known {
			r.order = append(r.order, p.ID)
			added++
		}
		r.products[p.ID] = p
	}
	r.mu.Unlock()

	span.SetAttributes(attribute.Int("product.added", added))

	r.logger.DebugContext(ctx, "Products merged into repository",
		slog.Int("received", len(products)),
		slog.Int("added", added),
	)

	span.SetStatus(codes.Ok, "Products merged")
	return nil
}

// FindByID retrieves a product by ID
func (r *ProductRepository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.FindByID")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	r.mu.RLock()
	defer r.mu.RUnlock()

	product, exists := r.products[id]
	if !exists {
		span.RecordError(domain.ErrProductNotFound)
		span.SetStatus(codes.Error, "Product not found")
		r.logger.DebugContext(ctx, "Product not found",
			slog.String("product_id", id),
		)
		return domain.Product{}, domain.ErrProductNotFound
	}

	span.SetStatus(codes.Ok, "Product found")
	return product, nil
}

// FindAll retrieves all known products in first-seen order
func (r *ProductRepository) FindAll(ctx context.Context) ([]domain.Product, error) {
	_, span := r.tracer.Start(ctx, "ProductRepository.FindAll")
	defer span.End()

	r.mu.RLock()
	defer r.mu.RUnlock()

	products := make([]domain.Product, 0, len(r.order))
	for _, id := range r.order {
		products = append(products, r.products[id])
	}

	span.SetAttributes(attribute.Int("product.count", len(products)))
	span.SetStatus(codes.Ok, "Products retrieved successfully")
	return products, nil
}
