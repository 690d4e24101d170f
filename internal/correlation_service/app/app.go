package app

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/langowen/corra/deploy/config"
	"github.com/langowen/corra/internal/correlation_service/adapter/api_client/valet"
	"github.com/langowen/corra/internal/correlation_service/adapter/journal/postgres"
	"github.com/langowen/corra/internal/correlation_service/adapter/journal/redis"
	"github.com/langowen/corra/internal/correlation_service/metrics"
	"github.com/langowen/corra/internal/correlation_service/ports/http/public"
	"github.com/langowen/corra/internal/correlation_service/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	redisPack "github.com/redis/go-redis/v9"
	"gopkg.in/natefinch/lumberjack.v2"
)

type App struct {
	cfg      *config.Config
	log      *slog.Logger
	registry *prometheus.Registry
	closers  []func()
}

func NewApp(cfg *config.Config) *App {
	return &App{cfg: cfg}
}

func (a *App) Start(ctx context.Context) <-chan struct{} {
	a.initLogger()
	slog.Info("Logger initialized")

	slog.Info("starting server",
		"address", a.cfg.HTTPServer.Address,
		"upstream", a.cfg.Upstream.BaseURL,
		"alignment", a.cfg.Correlation.Alignment,
	)

	a.initMetrics()
	slog.Info("Metrics initialized")

	httpClient := a.initHTTPClient()
	slog.Info("HTTP client initialized")

	opts := []service.Option{
		service.WithLogger(a.log),
		service.WithMetrics(metrics.New(a.registry)),
	}

	if journal := a.initJournal(ctx); journal != nil {
		opts = append(opts, service.WithJournal(journal))
		slog.Info("Journal initialized")
	}

	if publisher := a.initRedis(ctx); publisher != nil {
		opts = append(opts, service.WithPublisher(publisher))
		slog.Info("Redis publisher initialized")
	}

	svc := a.initService(httpClient, opts...)
	slog.Info("Service initialized")

	serverDone := a.StartServer(ctx, svc)
	slog.Info("server started")

	done := make(chan struct{})
	go func() {
		<-serverDone
		for _, c := range a.closers {
			c()
		}
		close(done)
	}()

	return done
}

func (a *App) initLogger() {
	var out io.Writer = os.Stdout

	if a.cfg.Log.File != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   a.cfg.Log.File,
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     28,
		})
	}

	a.log = slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level:     parseLevel(a.cfg.Log.Level),
		AddSource: false,
	}))
	slog.SetDefault(a.log)
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelDebug
	}
	return level
}

func (a *App) initMetrics() {
	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

func (a *App) initHTTPClient() *valet.HTTPClient {
	return valet.NewHTTPClient(&http.Client{Timeout: a.cfg.Upstream.Timeout}, a.cfg.Upstream.BaseURL)
}

func (a *App) initJournal(ctx context.Context) service.Journal {
	if a.cfg.Journal.DSN == "" {
		return nil
	}

	pgStorage, err := postgres.InitStorage(ctx, a.cfg.Journal.DSN, a.cfg.Journal.Timeout)
	if err != nil {
		log.Fatalln("Failed to initialize PostgresSQL journal", "error", err)
	}
	a.closers = append(a.closers, pgStorage.Close)

	return pgStorage
}

func (a *App) initRedis(ctx context.Context) service.Publisher {
	if a.cfg.Redis.Host == "" {
		return nil
	}

	options := &redisPack.Options{
		Addr:     a.cfg.Redis.Host,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	}

	rdStorage, err := redis.InitStorage(ctx, options)
	if err != nil {
		log.Fatalln("Failed to initialize Redis publisher", "error", err)
	}
	a.closers = append(a.closers, func() { _ = rdStorage.Close() })

	return rdStorage
}

func (a *App) initService(client service.RateFetcher, opts ...service.Option) *service.Service {
	svc, err := service.NewService(client, a.cfg, opts...)
	if err != nil {
		log.Fatalln("Failed to initialize service", "error", err)
	}

	return svc
}

func (a *App) StartServer(ctx context.Context, svc *service.Service) <-chan struct{} {
	return public.StartServer(ctx, svc, a.cfg, a.log, a.registry)
}
