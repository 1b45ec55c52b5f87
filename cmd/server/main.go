package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/goldquote/internal/config"
	"github.com/mamadbah2/goldquote/internal/metrics"
	"github.com/mamadbah2/goldquote/internal/rates"
	"github.com/mamadbah2/goldquote/internal/repository/mongodb"
	"github.com/mamadbah2/goldquote/internal/repository/sheets"
	"github.com/mamadbah2/goldquote/internal/scheduler"
	"github.com/mamadbah2/goldquote/internal/server/handlers"
	"github.com/mamadbah2/goldquote/internal/server/router"
	quotesvc "github.com/mamadbah2/goldquote/internal/service/quote"
	"github.com/mamadbah2/goldquote/internal/service/ratesync"
	"github.com/mamadbah2/goldquote/pkg/clients/ratefeed"
	"github.com/mamadbah2/goldquote/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	decimal.MarshalJSONWithoutQuotes = true

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.NewMetrics(registry)

	store := rates.NewStore()
	store.Initialize(cfg.Quote.InitialRate, cfg.Quote.InitialPurity)

	syncOpts := []ratesync.Option{ratesync.WithMetrics(appMetrics)}
	if cfg.MongoDB.URI != "" {
		mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()

		seedFromSnapshot(mongoRepo, store, baseLogger)
		syncOpts = append(syncOpts, ratesync.WithSnapshotSaver(mongoRepo))
	} else {
		baseLogger.Warn("mongodb uri missing, rate snapshots disabled")
	}

	var fetcher ratesync.Fetcher
	switch cfg.RateFeed.Source {
	case config.RateSourceSheets:
		reader, err := sheets.NewGoogleSheetReader(context.Background(), cfg.Sheets, logger.Named(baseLogger, "repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets reader", zap.Error(err))
		}
		fetcher = sheets.NewRateSource(reader, cfg.Sheets.Range)
	default:
		fetcher = ratefeed.NewClient(cfg.RateFeed.URL, cfg.RateFeed.Timeout)
	}

	primary := ratesync.NewSyncer("primary", fetcher, store, logger.Named(baseLogger, "sync.primary"), syncOpts...)
	jobs := []scheduler.Job{primary}

	ctrlOpts := []quotesvc.Option{quotesvc.WithMetrics(appMetrics)}
	if cfg.RateFeed.SecondaryURL != "" {
		secondaryRate := &rates.Reference{}
		secondary := ratesync.NewSyncer("secondary",
			ratefeed.NewClient(cfg.RateFeed.SecondaryURL, cfg.RateFeed.Timeout),
			secondaryRate,
			logger.Named(baseLogger, "sync.secondary"),
			ratesync.WithMetrics(appMetrics))
		jobs = append(jobs, secondary)
		ctrlOpts = append(ctrlOpts, quotesvc.WithSecondaryRate(secondaryRate))
	}

	board := quotesvc.NewBoard()
	controller := quotesvc.NewController(store, board, quotesvc.Inputs{
		Weight:        cfg.Quote.Weight,
		MakingPercent: cfg.Quote.MakingPercent,
	}, logger.Named(baseLogger, "svc.quote"), ctrlOpts...)
	controller.Recalculate()

	sched := scheduler.NewScheduler(cfg.RateFeed.SyncSchedule, cfg.RateFeed.Timeout, logger.Named(baseLogger, "scheduler"), jobs...)
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	quoteHandler := handlers.NewQuoteHandler(controller, board, primary, logger.Named(baseLogger, "handlers.quote"))
	engine := router.New(quoteHandler, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), logger.Named(baseLogger, "router"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // quote stream is long-lived
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("rate_source", cfg.RateFeed.Source))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func seedFromSnapshot(repo mongodb.SnapshotRepository, store *rates.Store, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	snapshot, err := repo.LatestSnapshot(ctx)
	if err != nil {
		log.Warn("failed to load rate snapshot", zap.Error(err))
		return
	}
	if snapshot == nil {
		return
	}
	if store.SetBaseRate(snapshot.BaseRate) {
		log.Info("base rate seeded from snapshot",
			zap.Float64("base_rate", snapshot.BaseRate),
			zap.Time("fetched_at", snapshot.FetchedAt))
	}
}
