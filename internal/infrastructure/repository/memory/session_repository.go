package memory

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/mrops-br/qkart-storefront/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// SessionRepository holds the current session in memory and
// publishes login/logout events to subscribers.
type SessionRepository struct {
	mu          sync.RWMutex
	session     domain.Session
	subscribers []func(context.Context, domain.SessionEvent)
	tracer      trace.Tracer
	logger      *slog.Logger
}

var _ domain.SessionGateway = (*SessionRepository)(nil)

// NewSessionRepository creates an empty session store
func NewSessionRepository(tracer trace.Tracer, logger *slog.Logger) *SessionRepository {
	return &SessionRepository{
		tracer: tracer,
		logger: logger,
	}
}

// Current returns the session if one is active
func (r *SessionRepository) Current() (domain.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.session.Authenticated() {
		return domain.Session{}, false
	}
	return r.session, true
}

// Subscribe registers fn for session events. Callbacks run synchronously
// after the session has changed, outside the repository lock.
func (r *SessionRepository) Subscribe(fn func(context.Context, domain.SessionEvent)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers = append(r.subscribers, fn)
}

// Save replaces the current session
func (r *SessionRepository) Save(ctx context.Context, session domain.Session) {
	ctx, span := r.tracer.Start(ctx, "SessionRepository.Save")
	defer span.End()

	span.SetAttributes(attribute.String("session.username", session.Username))

	r.mu.Lock()
	r.session = session
	subscribers := slices.Clone(r.subscribers)
	r.mu.Unlock()

	r.logger.InfoContext(ctx, "Session stored",
		slog.String("username", session.Username),
	)

	r.publish(ctx, subscribers, domain.EventLoggedIn)
}

// Clear drops the current session and notifies subscribers
func (r *SessionRepository) Clear(ctx context.Context) {
	ctx, span := r.tracer.Start(ctx, "SessionRepository.Clear")
	defer span.End()

	r.mu.Lock()
	had := r.session.Authenticated()
	r.session = domain.Session{}
	subscribers := slices.Clone(r.subscribers)
	r.mu.Unlock()

	if !had {
		return
	}

	r.logger.InfoContext(ctx, "Session cleared")
	r.publish(ctx, subscribers, domain.EventLoggedOut)
}

func (r *SessionRepository) publish(ctx context.Context, subscribers []func(context.Context, domain.SessionEvent), event domain.SessionEvent) {
	for _, fn := range subscribers {
		fn(ctx, event)
	}
}
