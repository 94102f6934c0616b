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
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/pkg/assets"
	"github.com/Ramsey-B/fern/pkg/catalog"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/hierarchy"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/middleware"
	"github.com/Ramsey-B/fern/pkg/notify"
	"github.com/Ramsey-B/fern/pkg/routes/attributevalue"
	"github.com/Ramsey-B/fern/pkg/routes/health"
	"github.com/Ramsey-B/fern/pkg/routes/variationtype"
	"github.com/Ramsey-B/fern/pkg/routes/visibility"
	"github.com/Ramsey-B/fern/pkg/startup"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/tracing/exporters"
)

const serviceName = "fern-api"

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

	clientCfg := catalog.DefaultClientConfig(cfg.RecordStoreBaseURL)
	clientCfg.Timeout = cfg.RecordStoreTimeout
	if cfg.StoreKey != "" {
		clientCfg.Headers = map[string]string{"X-Store-Key": cfg.StoreKey}
	}
	remote := catalog.NewClient(clientCfg, logger)

	var sink notify.Sink = notify.NewLogSink(logger)
	var producer *kafka.Producer
	var emitter *events.Emitter
	if cfg.KafkaEnabled {
		producer = kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaOutputTopic,
			BatchSize:    cfg.KafkaBatchSize,
			BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
			RequiredAcks: cfg.KafkaRequiredAcks,
			Compression:  cfg.KafkaCompression,
		}, logger)
		defer func() {
			if err := producer.Close(); err != nil {
				logger.WithError(err).Warn("failed to close kafka producer")
			}
		}()
		emitter = events.NewEmitter(producer, cfg.StoreKey, logger)
		sink = notify.Multi{sink, notify.NewKafkaSink(producer, cfg.StoreKey, logger)}
	}

	store := hierarchy.NewStore()
	controller := hierarchy.NewController(store, remote, sink, emitter, logger)
	orchestrator := hierarchy.NewOrchestrator(store, remote, logger)
	stager := assets.NewStager(logger)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.Use(otelecho.Middleware(serviceName))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1")
	variationtype.NewHandler(controller, orchestrator, store).RegisterRoutes(api.Group("/variation-types"))
	attributevalue.NewHandler(controller, store, stager).RegisterRoutes(api.Group("/attributes"))
	visibility.NewHandler(store).RegisterRoutes(api.Group("/visibility"))

	checker := health.NewChecker(serviceName, health.Check{
		Name: "record-store",
		Ping: func(ctx context.Context) error {
			_, err := remote.ListVariationTypes(ctx)
			return err
		},
	})
	checker.RegisterRoutes(e)

	boot := startup.NewStartup(logger, cfg.StartupMaxAttempts)
	boot.AddDependency(newWorkingCopyDependency(orchestrator, logger))
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

// workingCopyDependency hydrates the local working copy from the record store
// before the server starts taking traffic. A failed initial load retries with
// the startup backoff.
type workingCopyDependency struct {
	orchestrator *hierarchy.Orchestrator
	logger       ectologger.Logger
}

func newWorkingCopyDependency(orchestrator *hierarchy.Orchestrator, logger ectologger.Logger) *workingCopyDependency {
	return &workingCopyDependency{orchestrator: orchestrator, logger: logger}
}

func (w *workingCopyDependency) GetName() string {
	return "working-copy"
}

func (w *workingCopyDependency) DependsOn() []string {
	return nil
}

func (w *workingCopyDependency) Start(ctx context.Context) error {
	if err := w.orchestrator.Load(ctx); err != nil {
		return fmt.Errorf("failed to load working copy: %w", err)
	}
	w.logger.Info("working copy loaded")
	return nil
}

func (w *workingCopyDependency) Stop(ctx context.Context) error {
	return nil
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
	return []string{"working-copy"}
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
