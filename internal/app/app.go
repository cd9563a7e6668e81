package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"assesspulse/internal/config"
	"assesspulse/internal/dataprocessing"
	apierrors "assesspulse/internal/errors"
	"assesspulse/internal/infrastructure"
	customMiddleware "assesspulse/internal/middleware"
	"assesspulse/internal/services"
	handlers "assesspulse/internal/transport/http"
	"assesspulse/pkg/contracts"
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Reports       *services.ReportService
	Health        *services.HealthService
	ErrorHandler  *apierrors.ErrorHandler
	Validation    *customMiddleware.ValidationMiddleware
	ReportMetrics *infrastructure.ReportMetrics
}

// NewApplication loads configuration, initializes the process logger and
// builds the application.
func NewApplication(ctx context.Context) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(ctx, cfg, logger)
}

// New builds an application from an explicit configuration and logger.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Application, error) {
	logger.InfoContext(ctx, "Application starting",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version))

	paths, err := cfg.GetPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	otelProviders, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
	}

	if err := app.initializeServices(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()
	return app, nil
}

// NewRecordSource builds the configured record source.
func NewRecordSource(ctx context.Context, cfg config.DataConfig, paths *config.Paths, logger *slog.Logger) (dataprocessing.RecordSource, error) {
	switch cfg.Source {
	case config.SourceSheets:
		return dataprocessing.NewSheetsLoader(ctx, dataprocessing.SheetsConfig{
			SheetID:         cfg.SheetID,
			Range:           cfg.SheetRange,
			CredentialsFile: paths.ResolveFile(cfg.CredentialsFile),
			APIKey:          cfg.APIKey,
		}, logger)
	case config.SourceWorkbook, "":
		workbook := cfg.WorkbookPath
		if workbook != "" {
			workbook = paths.ResolveFile(workbook)
		}
		return dataprocessing.NewWorkbookSource(workbook, paths.DataDir, logger), nil
	default:
		return nil, fmt.Errorf("unsupported data source %q", cfg.Source)
	}
}

// initializeServices initializes all application services
func (a *Application) initializeServices(ctx context.Context) error {
	source, err := NewRecordSource(ctx, a.Config.Data, a.Paths, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create record source: %w", err)
	}

	reportMetrics, err := infrastructure.CreateReportMetrics(a.OTelProviders.Meter)
	if err != nil {
		// Reports still work without instruments; ReportMetrics is nil-safe.
		a.Logger.WarnContext(ctx, "Failed to create report metrics", slog.String("error", err.Error()))
	}

	a.ReportMetrics = reportMetrics
	a.Reports = services.NewReportService(source, reportMetrics, a.Logger)
	a.Health = services.NewHealthService(a.Reports, a.Paths.DataDir, a.Logger)
	a.ErrorHandler = apierrors.NewErrorHandler(a.Logger, a.Config.Logging.Development)
	a.Validation = customMiddleware.NewValidationMiddleware(a.Logger, a.ErrorHandler)
	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Ordering: RequestID → RealIP → OTel → Logger → Recoverer → headers → CORS → rate limit
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders)
	if err != nil {
		a.Logger.Error("Failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
	} else {
		r.Use(otelMiddleware.Handler)
	}

	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.Logger))

	secure := customMiddleware.DefaultSecureHeaders()
	secure.DevMode = a.Config.Logging.Development
	r.Use(secure.Handler)

	if a.Config.Security.EnableCORS {
		r.Use(customMiddleware.CORS(a.getCORSConfig()))
	}

	if a.Config.Security.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
		).Handler)
	}

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	a.setupAPIRoutes(r)

	// Prometheus scrape endpoint, outside /api so it skips the request timeout
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	reportHandler := handlers.NewReportHandler(a.Reports, a.Config.Data, a.Validation, a.ErrorHandler, a.ReportMetrics, a.Logger)
	healthHandler := handlers.NewHealthHandler(a.Health, a.Logger)
	clientLogHandler := handlers.NewClientLogHandler(a.Validation, a.ErrorHandler, a.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(customMiddleware.StripSlashes)
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))

		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)

		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Compress(5, "application/json"))
			r.Mount("/report", reportHandler.ReportRoutes())
			r.Mount("/departments", reportHandler.DepartmentRoutes())
			r.Mount("/students", reportHandler.StudentRoutes())
		})

		r.Mount("/export", reportHandler.ExportRoutes())

		r.Group(func(r chi.Router) {
			r.Use(apierrors.NewErrorMiddleware(a.ErrorHandler, a.Logger).Handler)
			r.Use(customMiddleware.ContentTypeValidator(a.ErrorHandler, "application/json"))
			r.Use(a.Validation.ValidateRequest)
			r.Post("/logs", clientLogHandler.Handle)
		})
	})
}

func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			customMiddleware.RequestIDHeader,
			"X-Requested-With",
		},
		ExposedHeaders: []string{customMiddleware.RequestIDHeader, "Content-Disposition"},
		MaxAge:         300,
		Logger:         a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Serve runs the HTTP server, the initial load and the periodic reload until
// ctx is cancelled or one of them fails, then shuts everything down.
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	a.Logger.InfoContext(ctx, "Application started",
		slog.String("address", ln.Addr().String()),
		slog.String("source", a.Reports.SourceName()))

	g.Go(func() error {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		// A failed first load is not fatal; requests report it until a reload succeeds.
		if _, err := a.Reports.Reload(gctx); err != nil && gctx.Err() == nil {
			a.Logger.WarnContext(gctx, "Initial report load failed", slog.String("error", err.Error()))
		}
		return a.Reports.RunPeriodicReload(gctx, a.Config.Data.ReloadInterval)
	})

	g.Go(func() error {
		<-gctx.Done()
		return a.Stop(context.WithoutCancel(ctx))
	})

	return g.Wait()
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run listens on the configured port and serves until interrupted.
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}

	start := time.Now()
	err = a.Serve(ctx, ln)
	a.Logger.Info("Application stopped", slog.Duration("uptime", time.Since(start)))
	return err
}
