package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/bapokting/internal/config"
	"github.com/mamadbah2/bapokting/internal/repository/factory"
	"github.com/mamadbah2/bapokting/internal/repository/mongodb"
	"github.com/mamadbah2/bapokting/internal/repository/sheets"
	"github.com/mamadbah2/bapokting/internal/scheduler"
	"github.com/mamadbah2/bapokting/internal/server/handlers"
	"github.com/mamadbah2/bapokting/internal/server/router"
	catalogsvc "github.com/mamadbah2/bapokting/internal/service/catalog"
	exportsvc "github.com/mamadbah2/bapokting/internal/service/export"
	"github.com/mamadbah2/bapokting/internal/service/reference"
	reportingsvc "github.com/mamadbah2/bapokting/internal/service/reporting"
	"github.com/mamadbah2/bapokting/internal/trace"
	"github.com/mamadbah2/bapokting/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	shutdownTracing, err := trace.Init(cfg.Log.TracingEnabled, "bapokting")
	if err != nil {
		baseLogger.Fatal("failed to init tracing", zap.Error(err))
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			baseLogger.Error("failed to flush traces", zap.Error(err))
		}
	}()

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	store, err := factory.Open(startCtx, cfg.Database, logger.Named(baseLogger, "repo.store"))
	if err != nil {
		baseLogger.Fatal("failed to open survey store", zap.Error(err), zap.String("driver", cfg.Database.Driver))
	}
	defer func() {
		if err := store.Close(); err != nil {
			baseLogger.Error("failed to close survey store", zap.Error(err))
		}
	}()

	refs := reference.NewProvider(store, cfg.Reference.CacheTTL, logger.Named(baseLogger, "svc.reference"))
	invalidator, _ := refs.(reference.Invalidator)

	var sheetsRepo *sheets.GoogleSheetRepository
	var sheetsWriter exportsvc.SheetsWriter
	if cfg.Sheets.Enabled() {
		sheetsRepo, err = sheets.NewGoogleSheetRepository(startCtx, cfg.Sheets, logger.Named(baseLogger, "repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		sheetsWriter = sheetsRepo
	} else {
		baseLogger.Warn("google sheets credentials missing, sheets export disabled")
	}

	var archive handlers.SnapshotLister
	schedOpts := []scheduler.Option{}
	if cfg.MongoDB.Enabled() {
		mongoRepo, err := mongodb.NewMongoDBRepository(startCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		archive = mongoRepo
		schedOpts = append(schedOpts, scheduler.WithArchive(mongoRepo))
	} else {
		baseLogger.Warn("mongodb uri missing, report archive disabled")
	}
	if sheetsRepo != nil {
		schedOpts = append(schedOpts, scheduler.WithSheets(sheetsRepo, cfg.Sheets.ArchiveTab))
	}

	reportingSvc := reportingsvc.NewService(store, refs, cfg.Location(), logger.Named(baseLogger, "svc.reporting"))
	exportSvc := exportsvc.NewService(sheetsWriter, logger.Named(baseLogger, "svc.export"))
	catalogSvc := catalogsvc.NewService(store, store, invalidator, logger.Named(baseLogger, "svc.catalog"))

	panels := reportingsvc.NewPanels(reportingSvc.PriceReport)
	reportHandler := handlers.NewReportHandler(reportingSvc, exportSvc, archive, panels, logger.Named(baseLogger, "handlers.reports"))
	catalogHandler := handlers.NewCatalogHandler(catalogSvc, logger.Named(baseLogger, "handlers.catalog"))
	engine := router.New(reportHandler, catalogHandler, logger.Named(baseLogger, "router"))

	sched := scheduler.NewScheduler(cfg.Reporting.CronSchedule, cfg.Location(), reportingSvc, logger.Named(baseLogger, "scheduler"), schedOpts...)
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Database.Driver))
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
