package service

import (
	"context"
	"errors"

	"github.com/mrops-br/qkart-storefront/internal/domain"
	"golang.org/x/sync/errgroup"
)

// SessionEvents publishes login and logout
type SessionEvents interface {
	Subscribe(fn func(context.Context, domain.SessionEvent))
}

// Storefront groups the services behind one storefront view
type Storefront struct {
	Catalog  *CatalogService
	Cart     *CartService
	Sessions *SessionService
	Search   *SearchDebouncer
}

// NewStorefront connects the services: catalog changes re-reconcile the
// cart, and session events refresh or clear it.
func NewStorefront(catalog *CatalogService, cart *CartService, sessions *SessionService, search *SearchDebouncer, events SessionEvents) *Storefront {
	catalog.Subscribe(cart.Reconcile)
	events.Subscribe(cart.HandleSessionEvent)

	return &Storefront{
		Catalog:  catalog,
		Cart:     cart,
		Sessions: sessions,
		Search:   search,
	}
}

// Bootstrap loads the catalog and, with a session, the cart concurrently.
// Failures have already been reported to the user; the first one is returned.
func (s *Storefront) Bootstrap(ctx context.Context) error {
	// Not errgroup.WithContext: one failed fetch must not cancel the other
	var g errgroup.Group

	g.Go(func() error {
		return s.Catalog.Load(ctx)
	})
	g.Go(func() error {
		err := s.Cart.Refresh(ctx)
		if errors.Is(err, domain.ErrUnauthorized) {
			if _, ok := s.Sessions.Current(); !ok {
				return nil
			}
		}
		return err
	})

	err := g.Wait()
	s.Cart.Reconcile(ctx)
	return err
}

// Close stops pending debounced searches
func (s *Storefront) Close() {
	s.Search.Stop()
}
