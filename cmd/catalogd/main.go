package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/Ramsey-B/fern/config"
	avrepo "github.com/Ramsey-B/fern/internal/repositories/attributevalue"
	vtrepo "github.com/Ramsey-B/fern/internal/repositories/variationtype"
	"github.com/Ramsey-B/fern/internal/images"
	"github.com/Ramsey-B/fern/internal/routes"
	avroutes "github.com/Ramsey-B/fern/internal/routes/attributevalue"
	vtroutes "github.com/Ramsey-B/fern/internal/routes/variationtype"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/middleware"
	"github.com/Ramsey-B/fern/pkg/routes/health"
	"github.com/Ramsey-B/fern/pkg/startup"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/tracing/exporters"
)

const serviceName = "catalogd"

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := initTracing(ctx, cfg, logger)
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.WithError(err).Warn("failed to shut down tracing")
		}
	}()

	db, err := database.Connect(database.ConnectionConfig{
		Driver:          cfg.DatabaseDriver,
		Host:            cfg.DatabaseHost,
		Port:            cfg.DatabasePort,
		User:            cfg.DatabaseUserName,
		Password:        cfg.DatabasePassword,
		Name:            cfg.DatabaseName,
		SSLMode:         cfg.DatabaseSSLMode,
		RetryCount:      cfg.DatabaseReconnectRetryCount,
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.WithError(err).Error("failed to connect to database")
		os.Exit(1)
	}
	defer db.Close()

	if err := runMigrations(cfg, db, logger); err != nil {
		logger.WithError(err).Error("failed to run migrations")
		os.Exit(1)
	}

	typeRepo := vtrepo.NewRepository(db, logger)
	attrRepo := avrepo.NewRepository(db, logger)
	imageStore := images.NewStore(cfg.ImageStorageDir, cfg.ImageBaseURL, logger)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = routes.ErrorHandler(logger)
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.Use(otelecho.Middleware(serviceName))
	e.Use(echomw.Recover())

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.Static("/images", imageStore.Dir())

	vtroutes.NewHandler(typeRepo, logger).RegisterRoutes(e.Group("/variation-types"))
	avroutes.NewHandler(attrRepo, typeRepo, imageStore, logger).RegisterRoutes(e.Group("/attributes"))

	checker := health.NewChecker(serviceName, health.Check{
		Name: "postgres",
		Ping: db.PingContext,
	})
	checker.RegisterRoutes(e)

	boot := startup.NewStartup(logger, cfg.StartupMaxAttempts)
	boot.AddDependency(newServerDependency(e, cfg, logger))

	if err := boot.Start(ctx); err != nil {
		logger.WithError(err).Error("startup failed")
		os.Exit(1)
	}
	checker.SetReady(true)

	<-ctx.Done()
	logger.Info("shutting down")
	checker.SetReady(false)

	stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := boot.Stop(stopCtx); err != nil {
		logger.WithError(err).Error("shutdown failed")
	}
}

func newLogger(cfg *config.Config) ectologger.Logger {
	var zapLogger *zap.Logger
	var err error
	if cfg.PrettyLogs {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		panic(fmt.Sprintf("failed to build logger: %v", err))
	}
	return zapadapter.NewZapEctoLogger(zapLogger.Named(serviceName), nil)
}

func initTracing(ctx context.Context, cfg *config.Config, logger ectologger.Logger) func(context.Context) error {
	var exporter sdktrace.SpanExporter = &exporters.ConsoleExporter{}
	if cfg.OTLPEnabled {
		otlp, err := exporters.NewOTLPExporter(ctx, exporters.OTLPConfig{
			Endpoint: cfg.OTLPEndpoint,
			Protocol: cfg.OTLPProtocol,
			Insecure: cfg.OTLPInsecure,
		})
		if err != nil {
			logger.WithError(err).Warn("failed to create OTLP exporter, tracing disabled")
		} else {
			exporter = otlp
		}
	}
	return tracing.Init(serviceName, exporter)
}

func runMigrations(cfg *config.Config, db database.DB, logger ectologger.Logger) error {
	driver, err := migratepg.WithInstance(db.Unsafe().DB, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	service := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		Force:               cfg.DatabaseMigrationForce,
		AutoRollback:        cfg.DatabaseMigrationAutoRollback,
	})
	return service.Migrate(cfg.DatabaseName, driver)
}

type serverDependency struct {
	e      *echo.Echo
	cfg    *config.Config
	logger ectologger.Logger
}

func newServerDependency(e *echo.Echo, cfg *config.Config, logger ectologger.Logger) *serverDependency {
	return &serverDependency{e: e, cfg: cfg, logger: logger}
}

func (s *serverDependency) GetName() string {
	return "http-server"
}

func (s *serverDependency) DependsOn() []string {
	return nil
}

func (s *serverDependency) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		ReadTimeout:       time.Duration(s.cfg.HttpServerReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.HttpServerWriteTimeoutSeconds) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.HttpServerIdleTimeoutSeconds) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.ReadHeaderTimeoutSeconds) * time.Second,
		MaxHeaderBytes:    s.cfg.MaxHeaderBytes,
	}

	go func() {
		s.logger.Infof("listening on %s", server.Addr)
		if err := s.e.StartServer(server); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("http server stopped")
		}
	}()
	return nil
}

func (s *serverDependency) Stop(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}
