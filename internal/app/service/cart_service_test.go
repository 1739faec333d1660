package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/mrops-br/qkart-storefront/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartService_AddToCart_RequiresSession(t *testing.T) {
	f := newFixture(phone())

	err := f.cart.AddToCart(context.Background(), "A", 1)

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Empty(t, f.store.Calls(), "no store call without a session")
	assert.Equal(t, note{domain.SeverityWarning, msgLoginToAdd}, f.sink.Last())
}

func TestCartService_UpdateQuantity_RequiresSession(t *testing.T) {
	f := newFixture(phone())

	err := f.cart.UpdateQuantity(context.Background(), "A", 3)

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Empty(t, f.store.Calls())
	assert.Equal(t, domain.SeverityWarning, f.sink.Last().severity)
}

func TestCartService_AddToCart_RejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(phone())
	f.store.cart = []domain.CartEntry{{ProductID: "A", Qty: 1}}
	f.login()
	require.Equal(t, []domain.CartEntry{{ProductID: "A", Qty: 1}}, f.cart.Entries())
	before := len(f.store.Calls())

	err := f.cart.AddToCart(ctx, "A", 1)

	assert.ErrorIs(t, err, domain.ErrDuplicateItem)
	assert.Len(t, f.store.Calls(), before, "duplicate add must not reach the store")
	assert.Equal(t, note{domain.SeverityWarning, msgDuplicateItem}, f.sink.Last())
	assert.Equal(t, []domain.CartEntry{{ProductID: "A", Qty: 1}}, f.cart.Entries())
}

func TestCartService_AddToCart_ReconcilesStoreReply(t *testing.T) {
	ctx := context.Background()
	f := newFixture(phone(), ball())
	require.NoError(t, f.catalog.Load(ctx))
	f.login()

	require.NoError(t, f.cart.AddToCart(ctx, "A", 2))
	require.NoError(t, f.cart.AddToCart(ctx, "B", 1))

	view := f.cart.View()
	require.Len(t, view.Items, 2)
	assert.Equal(t, "Phone", view.Items[0].Name)
	assert.Equal(t, 2, view.Items[0].Qty)
	assert.Equal(t, "Basketball", view.Items[1].Name)
	assert.True(t, view.Total.Equal(decimal.NewFromInt(225)), "total %s", view.Total)
	assert.Equal(t, 3, view.ItemCount)
}

func TestCartService_UpdateQuantity_BypassesDuplicateCheck(t *testing.T) {
	ctx := context.Background()
	f := newFixture(phone())
	require.NoError(t, f.catalog.Load(ctx))
	f.store.cart = []domain.CartEntry{{ProductID: "A", Qty: 1}}
	f.login()

	require.NoError(t, f.cart.UpdateQuantity(ctx, "A", 4))

	assert.Contains(t, f.store.Calls(), "put:A")
	view := f.cart.View()
	require.Len(t, view.Items, 1)
	assert.Equal(t, 4, view.Items[0].Qty)
	assert.True(t, view.Total.Equal(decimal.NewFromInt(400)))
}

func TestCartService_UpdateQuantity_ZeroRemoves(t *testing.T) {
	ctx := context.Background()
	f := newFixture(phone(), ball())
	require.NoError(t, f.catalog.Load(ctx))
	f.store.cart = []domain.CartEntry{{ProductID: "A", Qty: 1}, {ProductID: "B", Qty: 2}}
	f.login()

	require.NoError(t, f.cart.UpdateQuantity(ctx, "A", 0))

	assert.Equal(t, []domain.CartEntry{{ProductID: "B", Qty: 2}}, f.cart.Entries())
	assert.True(t, f.cart.View().Total.Equal(decimal.NewFromInt(50)))
}

func TestCartService_UnknownProduct(t *testing.T) {
	ctx := context.Background()
	f := newFixture(phone())
	f.login()
	f.store.putErr = &domain.ServiceError{Kind: domain.ErrUnknownProduct, Status: http.StatusNotFound, Message: "Product doesn't exist"}

	err := f.cart.AddToCart(ctx, "ghost", 1)

	assert.ErrorIs(t, err, domain.ErrUnknownProduct)
	assert.NotErrorIs(t, err, domain.ErrTransport)
	assert.Equal(t, note{domain.SeverityError, "Product doesn't exist"}, f.sink.Last())
	assert.Empty(t, f.cart.Entries())
}

func TestCartService_TransportFailureKeepsCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(phone(), ball())
	require.NoError(t, f.catalog.Load(ctx))
	f.store.cart = []domain.CartEntry{{ProductID: "A", Qty: 1}}
	f.login()
	f.store.putErr = errors.New("connection refused")

	err := f.cart.AddToCart(ctx, "B", 1)

	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.NotErrorIs(t, err, domain.ErrUnknownProduct)
	assert.Equal(t, note{domain.SeverityError, msgCartPostFailed}, f.sink.Last())
	assert.Equal(t, []domain.CartEntry{{ProductID: "A", Qty: 1}}, f.cart.Entries())
	assert.Len(t, f.cart.View().Items, 1)
}

func TestCartService_Refresh(t *testing.T) {
	ctx := context.Background()

	t.Run("no session", func(t *testing.T) {
		f := newFixture(phone())
		assert.ErrorIs(t, f.cart.Refresh(ctx), domain.ErrUnauthorized)
		assert.Empty(t, f.store.Calls())
	})

	t.Run("store rejects token", func(t *testing.T) {
		f := newFixture(phone())
		f.store.fetchErr = &domain.ServiceError{Kind: domain.ErrUnauthorized, Status: http.StatusUnauthorized, Message: "Protected route, Oauth2 Bearer token not found"}
		f.login()

		assert.Equal(t, note{domain.SeverityError, "Protected route, Oauth2 Bearer token not found"}, f.sink.Last())
	})

	t.Run("store unreachable", func(t *testing.T) {
		f := newFixture(phone())
		f.store.fetchErr = domain.ErrTransport
		f.login()

		assert.Equal(t, note{domain.SeverityError, msgCartFetchFailed}, f.sink.Last())
	})
}

func TestCartService_UnresolvedEntryAfterCatalogDrift(t *testing.T) {
	ctx := context.Background()
	f := newFixture(phone())
	require.NoError(t, f.catalog.Load(ctx))
	f.store.cart = []domain.CartEntry{{ProductID: "A", Qty: 1}, {ProductID: "retired", Qty: 2}}
	f.login()

	view := f.cart.View()
	require.Len(t, view.Items, 2)
	assert.True(t, view.Items[0].Resolved)
	assert.False(t, view.Items[1].Resolved)
	assert.Equal(t, "retired", view.Items[1].ProductID)
	assert.True(t, view.Total.Equal(decimal.NewFromInt(100)))
}

func TestCartService_CatalogLoadReconcilesExistingCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(phone())
	f.store.cart = []domain.CartEntry{{ProductID: "A", Qty: 3}}
	f.login()

	// cart arrived before the catalog
	require.Len(t, f.cart.View().Items, 1)
	assert.False(t, f.cart.View().Items[0].Resolved)

	require.NoError(t, f.catalog.Load(ctx))

	view := f.cart.View()
	assert.True(t, view.Items[0].Resolved)
	assert.True(t, view.Total.Equal(decimal.NewFromInt(300)))
}

func TestCartService_LogoutClearsCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(phone())
	require.NoError(t, f.catalog.Load(ctx))
	f.store.cart = []domain.CartEntry{{ProductID: "A", Qty: 1}}
	f.login()
	require.Len(t, f.cart.View().Items, 1)

	f.sessions.Clear(ctx)

	assert.Empty(t, f.cart.View().Items)
	assert.True(t, f.cart.View().Total.IsZero())
}

func TestCartService_StaleReplyIsDiscarded(t *testing.T) {
	ctx := context.Background()
	f := newFixture(phone(), ball())
	require.NoError(t, f.catalog.Load(ctx))
	f.login()

	older := f.cart.issued.Add(1)
	f.cart.replace(ctx, "add", f.cart.issued.Add(1), []domain.CartEntry{{ProductID: "A", Qty: 1}, {ProductID: "B", Qty: 1}})
	f.cart.replace(ctx, "add", older, []domain.CartEntry{{ProductID: "A", Qty: 1}})

	assert.Len(t, f.cart.Entries(), 2, "older reply must not overwrite a newer cart")
}
