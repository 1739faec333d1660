package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/mrops-br/qkart-storefront/internal/domain"
	"github.com/mrops-br/qkart-storefront/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxResponseBytes = 4 << 20

// Client talks to the remote QKart service over JSON/HTTP.
// It implements domain.StoreAPI and domain.AuthAPI.
type Client struct {
	baseURL string
	http    *http.Client
	tracer  trace.Tracer
	logger  *slog.Logger
}

var (
	_ domain.StoreAPI = (*Client)(nil)
	_ domain.AuthAPI  = (*Client)(nil)
)

// NewClient creates a store client; outbound requests are traced by otelhttp
func NewClient(cfg *config.StoreConfig, tracer trace.Tracer, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
					return fmt.Sprintf("%s %s", r.Method, r.URL.Path)
				}),
			),
		},
		tracer: tracer,
		logger: logger,
	}
}

// failureBody is the store's error envelope
type failureBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type cartItemRequest struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success  bool            `json:"success"`
	Token    string          `json:"token"`
	Username string          `json:"username"`
	Balance  decimal.Decimal `json:"balance"`
}

// call describes one request against the store
type call struct {
	method string
	path   string
	query  url.Values
	token  string
	body   any
	// statusKinds maps non-2xx statuses to domain errors; the rest become ErrTransport
	statusKinds map[int]error
}

// ListProducts handles GET /products
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	err := c.do(ctx, "Client.ListProducts", call{
		method: http.MethodGet,
		path:   "/products",
	}, &products)
	if err != nil {
		return nil, err
	}
	return c.validProducts(ctx, products), nil
}

// SearchProducts handles GET /products/search?value=<text>
func (c *Client) SearchProducts(ctx context.Context, text string) ([]domain.Product, error) {
	var products []domain.Product
	err := c.do(ctx, "Client.SearchProducts", call{
		method:      http.MethodGet,
		path:        "/products/search",
		query:       url.Values{"value": []string{text}},
		statusKinds: map[int]error{http.StatusNotFound: domain.ErrNoProductsFound},
	}, &products)
	if err != nil {
		return nil, err
	}
	return c.validProducts(ctx, products), nil
}

// FetchCart handles GET /cart
func (c *Client) FetchCart(ctx context.Context, token string) ([]domain.CartEntry, error) {
	var entries []domain.CartEntry
	err := c.do(ctx, "Client.FetchCart", call{
		method:      http.MethodGet,
		path:        "/cart",
		token:       token,
		statusKinds: map[int]error{http.StatusUnauthorized: domain.ErrUnauthorized},
	}, &entries)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// PutCartItem handles POST /cart; the store replies with the full updated cart
func (c *Client) PutCartItem(ctx context.Context, token, productID string, qty int) ([]domain.CartEntry, error) {
	var entries []domain.CartEntry
	err := c.do(ctx, "Client.PutCartItem", call{
		method:      http.MethodPost,
		path:        "/cart",
		token:       token,
		body:        cartItemRequest{ProductID: productID, Qty: qty},
		statusKinds: map[int]error{http.StatusNotFound: domain.ErrUnknownProduct},
	}, &entries)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Login handles POST /auth/login
func (c *Client) Login(ctx context.Context, username, password string) (domain.Session, error) {
	var resp loginResponse
	err := c.do(ctx, "Client.Login", call{
		method:      http.MethodPost,
		path:        "/auth/login",
		body:        loginRequest{Username: username, Password: password},
		statusKinds: map[int]error{http.StatusBadRequest: domain.ErrBadCredentials},
	}, &resp)
	if err != nil {
		return domain.Session{}, err
	}
	if resp.Token == "" {
		return domain.Session{}, fmt.Errorf("%w: login response carried no token", domain.ErrTransport)
	}

	return domain.Session{
		Token:    resp.Token,
		Username: resp.Username,
		Balance:  resp.Balance,
	}, nil
}

func (c *Client) do(ctx context.Context, spanName string, cl call, out any) error {
	ctx, span := c.tracer.Start(ctx, spanName)
	defer span.End()

	span.SetAttributes(
		attribute.String("http.request.method", cl.method),
		attribute.String("store.path", cl.path),
	)

	err := c.roundTrip(ctx, cl, out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "Store call succeeded")
	return nil
}

func (c *Client) roundTrip(ctx context.Context, cl call, out any) error {
	target := c.baseURL + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}

	var body io.Reader
	if cl.body != nil {
		payload, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("encode %s %s request: %w", cl.method, cl.path, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, target, body)
	if err != nil {
		return fmt.Errorf("%w: build %s %s: %w", domain.ErrTransport, cl.method, cl.path, err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cl.token != "" {
		req.Header.Set("Authorization", "Bearer "+cl.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "Store request failed",
			slog.String("method", cl.method),
			slog.String("path", cl.path),
			slog.String("request_id", requestID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%w: %s %s: %w", domain.ErrTransport, cl.method, cl.path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read %s %s: %w", domain.ErrTransport, cl.method, cl.path, err)
	}

	c.logger.DebugContext(ctx, "Store responded",
		slog.String("method", cl.method),
		slog.String("path", cl.path),
		slog.String("request_id", requestID),
		slog.Int("status", resp.StatusCode),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.failure(cl, resp.StatusCode, data)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode %s %s: %w", domain.ErrTransport, cl.method, cl.path, err)
	}
	return nil
}

func (c *Client) failure(cl call, status int, data []byte) error {
	kind, ok := cl.statusKinds[status]
	if !ok {
		kind = domain.ErrTransport
	}

	// A body that is not the store's envelope leaves Message empty
	var fb failureBody
	_ = json.Unmarshal(data, &fb)

	return &domain.ServiceError{
		Kind:    kind,
		Status:  status,
		Message: fb.Message,
	}
}

// validProducts drops products that fail validation rather than failing the whole list
func (c *Client) validProducts(ctx context.Context, products []domain.Product) []domain.Product {
	valid := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if err := p.Validate(); err != nil {
			c.logger.WarnContext(ctx, "Dropping invalid product from store response",
				slog.String("product_id", p.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		valid = append(valid, p)
	}
	return valid
}
