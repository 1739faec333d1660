package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mrops-br/qkart-storefront/internal/app/dto"
	"github.com/mrops-br/qkart-storefront/internal/app/service"
	"github.com/mrops-br/qkart-storefront/internal/domain"
	"github.com/mrops-br/qkart-storefront/internal/infrastructure/http/response"
)

// NotificationFeed lists and dismisses user notifications
type NotificationFeed interface {
	List() []domain.Notification
	Dismiss(id string) bool
}

// StorefrontHandler handles HTTP requests for the storefront view
type StorefrontHandler struct {
	storefront    *service.Storefront
	notifications NotificationFeed
	logger        *slog.Logger
}

// NewStorefrontHandler creates a new storefront handler
func NewStorefrontHandler(storefront *service.Storefront, notifications NotificationFeed, logger *slog.Logger) *StorefrontHandler {
	return &StorefrontHandler{
		storefront:    storefront,
		notifications: notifications,
		logger:        logger,
	}
}

// ListProducts handles GET /api/products
func (h *StorefrontHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, dto.ToCatalogResponse(h.storefront.Catalog.View()))
}

// GetProduct handles GET /api/products/{id}
func (h *StorefrontHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	product, err := h.storefront.Catalog.Product(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, dto.ToProductResponse(product))
}

// ReloadProducts handles POST /api/products/reload
func (h *StorefrontHandler) ReloadProducts(w http.ResponseWriter, r *http.Request) {
	if err := h.storefront.Catalog.Load(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, dto.ToCatalogResponse(h.storefront.Catalog.View()))
}

// Keystroke handles POST /api/search/keystroke
func (h *StorefrontHandler) Keystroke(w http.ResponseWriter, r *http.Request) {
	var req dto.KeystrokeRequest
	if !h.decode(w, r, &req) {
		return
	}

	h.storefront.Search.Keystroke(req.Text)
	w.WriteHeader(http.StatusAccepted)
}

// GetCart handles GET /api/cart
func (h *StorefrontHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, dto.ToCartResponse(h.storefront.Cart.View()))
}

// RefreshCart handles POST /api/cart/refresh
func (h *StorefrontHandler) RefreshCart(w http.ResponseWriter, r *http.Request) {
	if err := h.storefront.Cart.Refresh(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, dto.ToCartResponse(h.storefront.Cart.View()))
}

// AddCartItem handles POST /api/cart/items
func (h *StorefrontHandler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req dto.AddCartItemRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	if err := h.storefront.Cart.AddToCart(r.Context(), req.ProductID, req.Qty); err != nil {
		h.fail(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, dto.ToCartResponse(h.storefront.Cart.View()))
}

// UpdateCartItem handles PUT /api/cart/items/{productId}
func (h *StorefrontHandler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	var req dto.UpdateQuantityRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	if err := h.storefront.Cart.UpdateQuantity(r.Context(), productID, *req.Qty); err != nil {
		h.fail(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, dto.ToCartResponse(h.storefront.Cart.View()))
}

// Login handles POST /api/session
func (h *StorefrontHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	session, err := h.storefront.Sessions.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.JSON(w, http.StatusCreated, dto.ToSessionResponse(session))
}

// Logout handles DELETE /api/session
func (h *StorefrontHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.storefront.Sessions.Logout(r.Context())
	response.NoContent(w)
}

// GetSession handles GET /api/session
func (h *StorefrontHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.storefront.Sessions.Current()
	if !ok {
		response.Error(w, http.StatusUnauthorized, domain.ErrUnauthorized)
		return
	}

	response.JSON(w, http.StatusOK, dto.ToSessionResponse(session))
}

// ListNotifications handles GET /api/notifications
func (h *StorefrontHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, dto.ToNotificationResponseList(h.notifications.List()))
}

// DismissNotification handles DELETE /api/notifications/{id}
func (h *StorefrontHandler) DismissNotification(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if !h.notifications.Dismiss(id) {
		response.Error(w, http.StatusNotFound, errNotificationNotFound)
		return
	}

	response.NoContent(w)
}

var errNotificationNotFound = errors.New("notification not found")

func (h *StorefrontHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to decode request body",
			slog.String("error", err.Error()),
		)
		response.Error(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

func (h *StorefrontHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "Request failed",
			slog.String("error", err.Error()),
			slog.Int("status", status),
		)
	}
	response.Error(w, status, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, dto.ErrInvalidRequest),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrMissingCredentials):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrBadCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrDuplicateItem):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnknownProduct),
		errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrNoProductsFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrTransport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
