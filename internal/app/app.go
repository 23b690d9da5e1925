package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"golang.org/x/sync/errgroup"

	"chavostd/internal/config"
	"chavostd/internal/dataset"
	apierrors "chavostd/internal/errors"
	"chavostd/internal/infrastructure"
	customMiddleware "chavostd/internal/middleware"
	"chavostd/internal/services"
	"chavostd/internal/store"
	transporthttp "chavostd/internal/transport/http"
	"chavostd/internal/validation"
	"chavostd/internal/websocket"
)

// Application wires the dataset store, services and HTTP transport together.
type Application struct {
	Config         *config.Config
	Logger         *slog.Logger
	OTelProviders  *infrastructure.OTelProviders
	Router         chi.Router
	Server         *http.Server
	WebSocketHub   *websocket.Hub
	DatasetService *services.DatasetService
	HealthService  *services.HealthService
	errorHandler   *apierrors.ErrorHandler
}

// NewApplication builds a fully wired application from the environment.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to prepare directories: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	providers, err := infrastructure.InitializeOTel(cfg.Logging.Development, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: providers,
		errorHandler:  apierrors.NewErrorHandler(logger, cfg.Logging.Development),
	}

	if err := app.initializeServices(); err != nil {
		return nil, err
	}
	app.setupRouter()
	app.createServer()
	return app, nil
}

func (a *Application) initializeServices() error {
	a.WebSocketHub = websocket.NewHub(a.Logger)

	metrics, err := infrastructure.CreateDatasetMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create dataset metrics: %w", err)
	}

	datasetPath := a.Config.Paths.DatasetPath()
	csvStore := store.NewCSVStore(datasetPath, a.Logger)
	summarizer := dataset.NewSummarizer(a.Logger, dataset.SummarizerConfig{TopN: a.Config.Dataset.TopN})
	uploads := validation.NewUploadValidator(a.Config.Dataset.MaxUploadBytes, a.Logger)

	a.DatasetService = services.NewDatasetService(services.DatasetServiceConfig{
		Store:       csvStore,
		Summarizer:  summarizer,
		Uploads:     uploads,
		Notifier:    a.WebSocketHub,
		Metrics:     metrics,
		Logger:      a.Logger,
		PriceIsUnit: a.Config.Dataset.PriceIsUnit,
	})
	a.HealthService = services.NewHealthService(datasetPath, infrastructure.ServiceVersion, a.WebSocketHub, a.Logger)
	return nil
}

func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Minimal middleware first so the WebSocket upgrade is not wrapped by
	// response-writer-replacing layers.
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.HandleFunc("/ws", a.handleWebSocket)

	r.Group(func(r chi.Router) {
		otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders)
		if err != nil {
			a.Logger.Error("failed to create telemetry middleware", slog.String("error", err.Error()))
		} else {
			r.Use(otelMiddleware.Handler)
		}

		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)
		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
				AllowedOrigins: a.Config.Security.AllowedOrigins,
			}))
		}
		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r)
	})

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Timeout(a.Config.Server.ReadTimeout, a.Logger))

		healthHandler := transporthttp.NewHealthHandler(a.HealthService, a.Logger)
		r.Get("/health", healthHandler.HealthCheck)

		dataHandler := transporthttp.NewDataHandler(
			a.DatasetService, a.Logger, a.errorHandler, a.Config.Dataset.MaxUploadBytes)
		r.Mount("/data", dataHandler.Routes())
	})
}

func (a *Application) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if err := websocket.ServeWS(a.WebSocketHub, w, r); err != nil {
		a.Logger.ErrorContext(r.Context(), "websocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("remote", r.RemoteAddr))
	}
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Run starts the server and the websocket hub and blocks until the context
// is cancelled, an interrupt arrives or the listener fails.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.Logger.InfoContext(ctx, "starting server",
		slog.String("service", infrastructure.ServiceName),
		slog.String("version", infrastructure.ServiceVersion),
		slog.Int("port", a.Config.Server.Port),
		slog.String("dataset", a.Config.Paths.DatasetPath()))

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.WebSocketHub.Run()
		return nil
	})

	g.Go(func() error {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		return a.shutdown()
	})

	err := g.Wait()
	a.Logger.Info("server stopped")
	return err
}

func (a *Application) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	a.Logger.InfoContext(shutdownCtx, "shutting down")

	var firstErr error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		firstErr = fmt.Errorf("server shutdown: %w", err)
	}
	a.WebSocketHub.Stop()

	if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
		a.Logger.ErrorContext(shutdownCtx, "telemetry shutdown failed", slog.String("error", err.Error()))
	}
	if err := infrastructure.CloseLogFile(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
