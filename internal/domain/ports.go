package domain

import (
	"context"
)

// StoreAPI is the contract of the remote QKart service
type StoreAPI interface {
	ListProducts(ctx context.Context) ([]Product, error)
	SearchProducts(ctx context.Context, text string) ([]Product, error)
	FetchCart(ctx context.Context, token string) ([]CartEntry, error)
	PutCartItem(ctx context.Context, token, productID string, qty int) ([]CartEntry, error)
}

// AuthAPI exchanges credentials for a session
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (Session, error)
}

// ProductRepository caches every product the storefront knows about
type ProductRepository interface {
	ReplaceAll(ctx context.Context, products []Product) error
	Merge(ctx context.Context, products []Product) error
	FindByID(ctx context.Context, id string) (Product, error)
	FindAll(ctx context.Context) ([]Product, error)
}

// SessionGateway gives read-only access to the current session.
type SessionGateway interface {
	Current() (Session, bool)
}

// NotificationSink is a one-way channel for user-facing messages.
type NotificationSink interface {
	Notify(ctx context.Context, severity Severity, message string)
}
