package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/mrops-br/qkart-storefront/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SessionStore persists the session behind the SessionGateway
type SessionStore interface {
	domain.SessionGateway
	Save(ctx context.Context, session domain.Session)
	Clear(ctx context.Context)
}

// SessionService handles login and logout
type SessionService struct {
	auth   domain.AuthAPI
	store  SessionStore
	sink   domain.NotificationSink
	tracer trace.Tracer
	logger *slog.Logger
}

// NewSessionService creates a new session service
func NewSessionService(auth domain.AuthAPI, store SessionStore, sink domain.NotificationSink, tracer trace.Tracer, logger *slog.Logger) *SessionService {
	return &SessionService{
		auth:   auth,
		store:  store,
		sink:   sink,
		tracer: tracer,
		logger: logger,
	}
}

// Login validates credentials locally, then exchanges them for a session
func (s *SessionService) Login(ctx context.Context, username, password string) (domain.Session, error) {
	ctx, span := s.tracer.Start(ctx, "SessionService.Login")
	defer span.End()

	span.SetAttributes(attribute.String("session.username", username))

	if strings.TrimSpace(username) == "" {
		s.sink.Notify(ctx, domain.SeverityWarning, msgUsernameRequired)
		span.SetStatus(codes.Error, "Missing username")
		return domain.Session{}, domain.ErrMissingCredentials
	}
	if password == "" {
		s.sink.Notify(ctx, domain.SeverityWarning, msgPasswordRequired)
		span.SetStatus(codes.Error, "Missing password")
		return domain.Session{}, domain.ErrMissingCredentials
	}

	session, err := s.auth.Login(ctx, username, password)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Login failed")
		s.logger.WarnContext(ctx, "Login failed",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)

		msg, ok := domain.ServiceMessage(err)
		if !errors.Is(err, domain.ErrBadCredentials) || !ok {
			msg = msgStoreUnreachable
		}
		s.sink.Notify(ctx, domain.SeverityError, msg)
		return domain.Session{}, err
	}

	s.store.Save(ctx, session)
	s.sink.Notify(ctx, domain.SeveritySuccess, msgLoggedIn)

	s.logger.InfoContext(ctx, "User logged in",
		slog.String("username", session.Username),
	)

	span.SetStatus(codes.Ok, "Logged in")
	return session, nil
}

// Logout clears the session; subscribers react to the logout event
func (s *SessionService) Logout(ctx context.Context) {
	ctx, span := s.tracer.Start(ctx, "SessionService.Logout")
	defer span.End()

	if _, ok := s.store.Current(); !ok {
		return
	}

	s.store.Clear(ctx)
	s.sink.Notify(ctx, domain.SeverityInfo, msgLoggedOut)
}

// Current returns the active session, if any
func (s *SessionService) Current() (domain.Session, bool) {
	return s.store.Current()
}
