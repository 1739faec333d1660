package main

import (
	"context"
	"log"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/mrops-br/qkart-storefront/internal/app/service"
	"github.com/mrops-br/qkart-storefront/internal/infrastructure/config"
	"github.com/mrops-br/qkart-storefront/internal/infrastructure/http"
	"github.com/mrops-br/qkart-storefront/internal/infrastructure/http/handler"
	"github.com/mrops-br/qkart-storefront/internal/infrastructure/remote"
	"github.com/mrops-br/qkart-storefront/internal/infrastructure/repository/memory"
	"github.com/mrops-br/qkart-storefront/internal/infrastructure/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize OpenTelemetry
	telem, err := telemetry.NewTelemetry(&cfg.OTLP)
	if err != nil {
		log.Fatalf("Failed to initialize telemetry: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Ensure telemetry is shutdown on exit
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := telem.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down telemetry: %v", err)
		}
	}()

	tracer := telem.TracerProvider.Tracer("qkart-storefront")
	meter := telem.MeterProvider.Meter("qkart-storefront")
	logger := telem.Logger

	logger.Info("Starting QKart storefront",
		slog.String("store", cfg.Store.BaseURL),
	)

	// Remote store
	client := remote.NewClient(&cfg.Store, tracer, logger)

	// Local state
	products := memory.NewProductRepository(tracer, logger)
	sessions := memory.NewSessionRepository(tracer, logger)
	notifications := memory.NewNotificationRepository(cfg.Storefront.NotificationBuffer, meter, logger)

	// Services
	catalog := service.NewCatalogService(client, products, notifications, tracer, meter, logger)
	cart := service.NewCartService(client, sessions, catalog, notifications, tracer, meter, logger)
	sessionService := service.NewSessionService(client, sessions, notifications, tracer, logger)
	search := service.NewSearchDebouncer(cfg.Storefront.SearchDebounce, func(text string) {
		_ = catalog.Search(ctx, text)
	}, meter, logger)

	storefront := service.NewStorefront(catalog, cart, sessionService, search, sessions)
	defer storefront.Close()

	if err := storefront.Bootstrap(ctx); err != nil {
		// The failure is already in the notification feed; keep serving
		logger.Warn("Initial catalog or cart load failed", slog.String("error", err.Error()))
	}

	storefrontHandler := handler.NewStorefrontHandler(storefront, notifications, logger)
	server := http.NewServer(&cfg.Server, storefrontHandler, logger, telem)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down server...")
	case err := <-errCh:
		if err != nil {
			logger.Error("Server error", slog.String("error", err.Error()))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", slog.String("error", err.Error()))
	}

	logger.Info("Server stopped")
}
