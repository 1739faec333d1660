package service

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/mrops-br/qkart-storefront/internal/domain"
	"github.com/mrops-br/qkart-storefront/internal/infrastructure/repository/memory"
	"github.com/shopspring/decimal"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace/noop"
)

var (
	testTracer = noop.NewTracerProvider().Tracer("test")
	testMeter  = metricnoop.NewMeterProvider().Meter("test")
	testLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))
)

func phone() domain.Product {
	return domain.Product{ID: "A", Name: "Phone", Category: "Phones", Cost: decimal.NewFromInt(100), Rating: 4}
}

func ball() domain.Product {
	return domain.Product{ID: "B", Name: "Basketball", Category: "Sports", Cost: decimal.NewFromInt(25), Rating: 5}
}

// fakeStore is a scriptable domain.StoreAPI that records every call
type fakeStore struct {
	mu       sync.Mutex
	calls    []string
	products []domain.Product
	listErr  error
	listGate chan struct{}
	search   map[string][]domain.Product
	searchEr map[string]error
	gates    map[string]chan struct{}
	cart     []domain.CartEntry
	fetchErr error
	putErr   error
	putReply []domain.CartEntry
}

func newFakeStore(products ...domain.Product) *fakeStore {
	return &fakeStore{
		products: products,
		search:   map[string][]domain.Product{},
		searchEr: map[string]error{},
		gates:    map[string]chan struct{}{},
	}
}

func (f *fakeStore) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeStore) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Gate makes searches for text block until the returned func is called
func (f *fakeStore) Gate(text string) func() {
	ch := make(chan struct{})
	f.mu.Lock()
	f.gates[text] = ch
	f.mu.Unlock()
	return func() { close(ch) }
}

// GateList makes the next product list call block until the returned func
// is called. The reply is captured before blocking.
func (f *fakeStore) GateList() func() {
	ch := make(chan struct{})
	f.mu.Lock()
	f.listGate = ch
	f.mu.Unlock()
	return func() { close(ch) }
}

// SetProducts replaces what the next list call returns
func (f *fakeStore) SetProducts(products ...domain.Product) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products = products
}

func (f *fakeStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	f.record("list")

	f.mu.Lock()
	products, err := append([]domain.Product(nil), f.products...), f.listErr
	gate := f.listGate
	f.listGate = nil
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (f *fakeStore) SearchProducts(ctx context.Context, text string) ([]domain.Product, error) {
	f.record("search:" + text)

	f.mu.Lock()
	gate := f.gates[text]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.searchEr[text]; err != nil {
		return nil, err
	}
	return f.search[text], nil
}

func (f *fakeStore) FetchCart(ctx context.Context, token string) ([]domain.CartEntry, error) {
	f.record("fetch")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return append([]domain.CartEntry(nil), f.cart...), nil
}

func (f *fakeStore) PutCartItem(ctx context.Context, token, productID string, qty int) ([]domain.CartEntry, error) {
	f.record("put:" + productID)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return nil, f.putErr
	}
	if f.putReply != nil {
		return f.putReply, nil
	}

	updated := make([]domain.CartEntry, 0, len(f.cart)+1)
	found := false
	for _, e := range f.cart {
		if e.ProductID == productID {
			found = true
			if qty == 0 {
				continue
			}
			e.Qty = qty
		}
		updated = append(updated, e)
	}
	if !found && qty > 0 {
		updated = append(updated, domain.CartEntry{ProductID: productID, Qty: qty})
	}
	f.cart = updated
	return append([]domain.CartEntry(nil), updated...), nil
}

type note struct {
	severity domain.Severity
	message  string
}

// recordingSink is a domain.NotificationSink that keeps every message
type recordingSink struct {
	mu    sync.Mutex
	notes []note
}

func (r *recordingSink) Notify(_ context.Context, severity domain.Severity, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, note{severity: severity, message: message})
}

func (r *recordingSink) Notes() []note {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]note(nil), r.notes...)
}

func (r *recordingSink) Last() note {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notes) == 0 {
		return note{}
	}
	return r.notes[len(r.notes)-1]
}

type fixture struct {
	store      *fakeStore
	sink       *recordingSink
	sessions   *memory.SessionRepository
	catalog    *CatalogService
	cart       *CartService
	storefront *Storefront
}

func newFixture(products ...domain.Product) *fixture {
	store := newFakeStore(products...)
	sink := &recordingSink{}
	sessions := memory.NewSessionRepository(testTracer, testLogger)
	repo := memory.NewProductRepository(testTracer, testLogger)

	catalog := NewCatalogService(store, repo, sink, testTracer, testMeter, testLogger)
	cart := NewCartService(store, sessions, catalog, sink, testTracer, testMeter, testLogger)
	sessionSvc := NewSessionService(nil, sessions, sink, testTracer, testLogger)
	search := NewSearchDebouncer(DefaultSearchDebounce, func(text string) {
		_ = catalog.Search(context.Background(), text)
	}, testMeter, testLogger)

	return &fixture{
		store:      store,
		sink:       sink,
		sessions:   sessions,
		catalog:    catalog,
		cart:       cart,
		storefront: NewStorefront(catalog, cart, sessionSvc, search, sessions),
	}
}

// login installs a session without going through the auth API
func (f *fixture) login() {
	f.sessions.Save(context.Background(), domain.Session{Token: "tok", Username: "crio"})
}
