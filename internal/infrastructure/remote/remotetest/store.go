// Package remotetest provides an in-process fake of the QKart store for tests.
package remotetest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/mrops-br/qkart-storefront/internal/domain"
)

// Store is a fake QKart backend honoring the store's wire contract.
type Store struct {
	*httptest.Server

	mu       sync.Mutex
	products []domain.Product
	users    map[string]string // username -> password
	tokens   map[string]string // token -> username
	carts    map[string][]domain.CartEntry

	// FailWith, when non-zero, makes every endpoint answer with that status
	FailWith atomic.Int32
	calls    sync.Map // "METHOD /path" -> *atomic.Int64
}

// NewStore starts a fake store seeded with products
func NewStore(products ...domain.Product) *Store {
	s := &Store{
		products: products,
		users:    map[string]string{},
		tokens:   map[string]string{},
		carts:    map[string][]domain.CartEntry{},
	}

	r := chi.NewRouter()
	r.Use(s.countAndFail)
	r.Get("/products", s.listProducts)
	r.Get("/products/search", s.searchProducts)
	r.Get("/cart", s.getCart)
	r.Post("/cart", s.postCart)
	r.Post("/auth/login", s.login)

	s.Server = httptest.NewServer(r)
	return s
}

// AddUser registers credentials and returns the token login will hand out
func (s *Store) AddUser(username, password string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	token := "token-" + username
	s.users[username] = password
	s.tokens[token] = username
	return token
}

// SetCart replaces the cart behind token
func (s *Store) SetCart(token string, entries []domain.CartEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[token] = append([]domain.CartEntry(nil), entries...)
}

// Cart returns a copy of the cart behind token
func (s *Store) Cart(token string) []domain.CartEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.CartEntry(nil), s.carts[token]...)
}

// Calls reports how many times "METHOD /path" was requested
func (s *Store) Calls(route string) int {
	v, ok := s.calls.Load(route)
	if !ok {
		return 0
	}
	return int(v.(*atomic.Int64).Load())
}

// TotalCalls reports how many requests reached the store
func (s *Store) TotalCalls() int {
	total := 0
	s.calls.Range(func(_, v any) bool {
		total += int(v.(*atomic.Int64).Load())
		return true
	})
	return total
}

func (s *Store) countAndFail(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v, _ := s.calls.LoadOrStore(r.Method+" "+r.URL.Path, &atomic.Int64{})
		v.(*atomic.Int64).Add(1)

		if status := int(s.FailWith.Load()); status != 0 {
			fail(w, status, "Something went wrong. Check the backend console for more details")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Store) listProducts(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	products := append([]domain.Product(nil), s.products...)
	s.mu.Unlock()

	respond(w, http.StatusOK, products)
}

func (s *Store) searchProducts(w http.ResponseWriter, r *http.Request) {
	value := strings.ToLower(r.URL.Query().Get("value"))

	s.mu.Lock()
	var matches []domain.Product
	for _, p := range s.products {
		if strings.Contains(strings.ToLower(p.Name), value) || strings.Contains(strings.ToLower(p.Category), value) {
			matches = append(matches, p)
		}
	}
	s.mu.Unlock()

	if len(matches) == 0 {
		fail(w, http.StatusNotFound, "No products found")
		return
	}
	respond(w, http.StatusOK, matches)
}

func (s *Store) getCart(w http.ResponseWriter, r *http.Request) {
	token, ok := s.authorize(r)
	if !ok {
		fail(w, http.StatusUnauthorized, "Protected route, Oauth2 Bearer token not found")
		return
	}
	respond(w, http.StatusOK, s.Cart(token))
}

func (s *Store) postCart(w http.ResponseWriter, r *http.Request) {
	token, ok := s.authorize(r)
	if !ok {
		fail(w, http.StatusUnauthorized, "Protected route, Oauth2 Bearer token not found")
		return
	}

	var req struct {
		ProductID string `json:"productId"`
		Qty       int    `json:"qty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	known := false
	for _, p := range s.products {
		if p.ID == req.ProductID {
			known = true
			break
		}
	}
	if !known {
		fail(w, http.StatusNotFound, "Product doesn't exist")
		return
	}

	cart := s.carts[token]
	updated := make([]domain.CartEntry, 0, len(cart)+1)
	found := false
	for _, e := range cart {
		if e.ProductID == req.ProductID {
			found = true
			if req.Qty == 0 {
				continue
			}
			e.Qty = req.Qty
		}
		updated = append(updated, e)
	}
	if !found && req.Qty > 0 {
		updated = append(updated, domain.CartEntry{ProductID: req.ProductID, Qty: req.Qty})
	}
	s.carts[token] = updated

	respond(w, http.StatusOK, updated)
}

func (s *Store) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	password, ok := s.users[req.Username]
	s.mu.Unlock()

	if !ok {
		fail(w, http.StatusBadRequest, "Username does not exist")
		return
	}
	if password != req.Password {
		fail(w, http.StatusBadRequest, "Password is incorrect")
		return
	}

	respond(w, http.StatusCreated, map[string]any{
		"success":  true,
		"token":    "token-" + req.Username,
		"username": req.Username,
		"balance":  5000,
	})
}

func (s *Store) authorize(r *http.Request) (string, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		return "", false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, known := s.tokens[token]
	return token, known
}

func respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func fail(w http.ResponseWriter, status int, message string) {
	respond(w, status, map[string]any{
		"success": false,
		"message": message,
	})
}
