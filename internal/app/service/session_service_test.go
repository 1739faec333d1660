package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/mrops-br/qkart-storefront/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	calls   int
	session domain.Session
	err     error
}

func (f *fakeAuth) Login(ctx context.Context, username, password string) (domain.Session, error) {
	f.calls++
	if f.err != nil {
		return domain.Session{}, f.err
	}
	s := f.session
	s.Username = username
	return s, nil
}

func newSessionFixture(auth *fakeAuth, products ...domain.Product) (*fixture, *SessionService) {
	f := newFixture(products...)
	return f, NewSessionService(auth, f.sessions, f.sink, testTracer, testLogger)
}

func TestSessionService_Login_RequiresCredentials(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		message  string
	}{
		{name: "missing username", username: "  ", password: "secret", message: msgUsernameRequired},
		{name: "missing password", username: "crio", password: "", message: msgPasswordRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := &fakeAuth{}
			f, svc := newSessionFixture(auth)

			_, err := svc.Login(context.Background(), tt.username, tt.password)

			assert.ErrorIs(t, err, domain.ErrMissingCredentials)
			assert.Zero(t, auth.calls)
			assert.Equal(t, note{domain.SeverityWarning, tt.message}, f.sink.Last())
		})
	}
}

func TestSessionService_Login_BadCredentials(t *testing.T) {
	auth := &fakeAuth{err: &domain.ServiceError{Kind: domain.ErrBadCredentials, Status: http.StatusBadRequest, Message: "Password is incorrect"}}
	f, svc := newSessionFixture(auth)

	_, err := svc.Login(context.Background(), "crio", "wrong")

	assert.ErrorIs(t, err, domain.ErrBadCredentials)
	assert.Equal(t, note{domain.SeverityError, "Password is incorrect"}, f.sink.Last())
	_, ok := svc.Current()
	assert.False(t, ok)
}

func TestSessionService_Login_StoreUnreachable(t *testing.T) {
	auth := &fakeAuth{err: domain.ErrTransport}
	f, svc := newSessionFixture(auth)

	_, err := svc.Login(context.Background(), "crio", "secret")

	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.Equal(t, note{domain.SeverityError, msgStoreUnreachable}, f.sink.Last())
}

func TestSessionService_Login_RefreshesCart(t *testing.T) {
	ctx := context.Background()
	auth := &fakeAuth{session: domain.Session{Token: "tok", Balance: decimal.NewFromInt(5000)}}
	f, svc := newSessionFixture(auth, phone())
	require.NoError(t, f.catalog.Load(ctx))
	f.store.cart = []domain.CartEntry{{ProductID: "A", Qty: 2}}

	session, err := svc.Login(ctx, "crio", "secret")

	require.NoError(t, err)
	assert.Equal(t, "crio", session.Username)
	assert.True(t, session.Balance.Equal(decimal.NewFromInt(5000)))

	current, ok := svc.Current()
	require.True(t, ok)
	assert.Equal(t, "tok", current.Token)

	assert.Contains(t, f.store.Calls(), "fetch")
	assert.True(t, f.cart.View().Total.Equal(decimal.NewFromInt(200)))
	assert.Contains(t, f.sink.Notes(), note{domain.SeveritySuccess, msgLoggedIn})
}

func TestSessionService_Logout(t *testing.T) {
	ctx := context.Background()
	auth := &fakeAuth{session: domain.Session{Token: "tok"}}
	f, svc := newSessionFixture(auth, phone())
	require.NoError(t, f.catalog.Load(ctx))
	f.store.cart = []domain.CartEntry{{ProductID: "A", Qty: 1}}
	_, err := svc.Login(ctx, "crio", "secret")
	require.NoError(t, err)
	require.Len(t, f.cart.View().Items, 1)

	svc.Logout(ctx)

	_, ok := svc.Current()
	assert.False(t, ok)
	assert.Empty(t, f.cart.View().Items)
	assert.Equal(t, note{domain.SeverityInfo, msgLoggedOut}, f.sink.Last())

	// a second logout is a no-op
	before := len(f.sink.Notes())
	svc.Logout(ctx)
	assert.Len(t, f.sink.Notes(), before)
}
