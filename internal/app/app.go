package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"cellviewer/internal/config"
	apierrors "cellviewer/internal/errors"
	"cellviewer/internal/infrastructure"
	customMiddleware "cellviewer/internal/middleware"
	"cellviewer/internal/services"
	"cellviewer/internal/storage"
	handlers "cellviewer/internal/transport/http"
	ws "cellviewer/internal/websocket"
)

// runtimeMetricsInterval is how often Go runtime gauges are sampled
const runtimeMetricsInterval = 15 * time.Second

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.AnalysisMetrics
	Store         storage.Store
	WebSocketHub  *ws.Hub
	Services      *ServiceContainer

	runtime      *infrastructure.RuntimeCollector
	errorHandler *apierrors.ErrorHandler
	validator    *customMiddleware.Validator
	preview      *handlers.PreviewHandler
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Analysis    *services.AnalysisService
	Labels      *services.LabelService
	Jobs        *services.JobService
	Aggregation *services.AggregationService
	Health      *services.HealthService
}

// NewApplication wires every component for cfg. logger may be nil, in which
// case one is built from cfg.Logging.
func NewApplication(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		var err error
		logger, err = infrastructure.InitializeLogger(cfg.Logging)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("storage", cfg.Storage.Driver))

	otelProviders, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	metrics, err := infrastructure.CreateAnalysisMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		errorHandler:  apierrors.NewErrorHandler(logger, cfg.Logging.Development),
		validator:     customMiddleware.NewValidator(logger),
	}

	if app.runtime, err = infrastructure.NewRuntimeCollector(otelProviders.Meter, runtimeMetricsInterval); err != nil {
		return nil, fmt.Errorf("failed to create runtime metrics: %w", err)
	}

	if err := app.openStore(); err != nil {
		return nil, err
	}
	app.initializeServices()
	app.setupRouter()
	app.createServer()

	return app, nil
}

// openStore opens the configured storage backend
func (a *Application) openStore() error {
	switch a.Config.Storage.Driver {
	case config.StorageSQLite:
		dsn := a.Config.Storage.DSN
		if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
				return fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		store, err := storage.OpenSQLite(dsn, a.Logger)
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}
		a.Store = store
	default:
		a.Store = storage.NewMemoryStore()
	}
	return nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() {
	cfg := a.Config.Analysis

	analysis := services.NewAnalysisService(cfg, a.Metrics, a.Logger)
	labels := services.NewLabelService(a.Store, a.Logger)
	jobs := services.NewJobService(a.Store, labels, analysis, a.Metrics, a.Logger)
	aggregation := services.NewAggregationService(jobs, cfg, a.Metrics, a.Logger)

	upgrader := ws.NewUpgrader(a.Config.WebSocket, a.Config.Security.AllowedOrigins, a.Logger)
	a.preview = handlers.NewPreviewHandler(jobs, analysis, a.validator, upgrader, a.Logger)
	a.WebSocketHub = ws.NewHub(a.preview, a.Config.WebSocket, a.Metrics, a.Logger)
	a.preview.SetHub(a.WebSocketHub)

	a.Services = &ServiceContainer{
		Analysis:    analysis,
		Labels:      labels,
		Jobs:        jobs,
		Aggregation: aggregation,
		Health:      services.NewHealthService(config.AppVersion, a.Store, a.WebSocketHub, a.Logger),
	}
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()
	r.NotFound(a.errorHandler.NotFound)
	r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

	// The websocket route only gets middleware that leaves the
	// ResponseWriter unwrapped, so the upgrade can hijack it
	r.Use(customMiddleware.RequestID)
	r.Use(chimw.RealIP)
	r.Get("/ws/preview", a.preview.ServeWS)

	r.Group(func(r chi.Router) {
		// Order: OTel → Logger → Recoverer → headers → rate limit
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.errorHandler))
		r.Use(customMiddleware.SecurityHeaders)
		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.getCORSConfig()))
		}
		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
				a.errorHandler,
			).Handler)
		}

		health := handlers.NewHealthHandler(a.Services.Health, a.Logger, a.errorHandler)
		r.Get("/healthz", health.LivenessCheck)
		a.setupAPIRoutes(r, health)
	})

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router, health *handlers.HealthHandler) {
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))
		r.Use(customMiddleware.MaxBodySize(a.Config.Storage.MaxUploadBytes()))

		r.Get("/health", health.HealthCheck)
		r.Get("/health/ready", health.ReadinessCheck)
		r.Get("/health/live", health.LivenessCheck)
		r.Get("/stats", health.Stats)

		s := a.Services
		r.Mount("/analyze", handlers.NewAnalyzeHandler(s.Analysis, a.Logger, a.errorHandler).Routes())
		r.Mount("/files", handlers.NewFileHandler(s.Jobs, a.Logger, a.errorHandler).Routes())
		r.Mount("/labels", handlers.NewLabelHandler(s.Labels, a.validator, a.Logger, a.errorHandler).Routes())
		r.Mount("/jobs", handlers.NewJobHandler(s.Jobs, s.Analysis, a.validator, a.WebSocketHub, a.Logger, a.errorHandler).Routes())
		r.Mount("/aggregate", handlers.NewAggregateHandler(s.Aggregation, s.Analysis, a.validator, a.Logger, a.errorHandler).Routes())
	})
}

// getCORSConfig returns the CORS settings for the configured origins
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders: []string{"X-Request-ID", "Content-Disposition"},
		MaxAge:         300,
		Logger:         a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Server.Addr(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts background services and the HTTP server. A listen failure
// cancels ctx through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("address", a.Server.Addr),
		slog.String("level", a.Config.Logging.Level))

	a.WebSocketHub.Start()
	go a.runtime.Start(ctx)

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://%s", a.Server.Addr)))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	a.WebSocketHub.Stop()
	a.runtime.Stop()

	if err := a.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("storage close error: %w", err))
	}

	if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
		a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	<-ctx.Done()
	a.Logger.Info("Received shutdown signal")

	return a.Stop(context.Background())
}
