package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/ekamauln/livo-mobile-order/api/controllers"
	"github.com/ekamauln/livo-mobile-order/api/routes"
	"github.com/ekamauln/livo-mobile-order/internal/approval"
	"github.com/ekamauln/livo-mobile-order/internal/assign"
	"github.com/ekamauln/livo-mobile-order/internal/journal"
	"github.com/ekamauln/livo-mobile-order/internal/scanner"
	"github.com/ekamauln/livo-mobile-order/internal/session"
	"github.com/ekamauln/livo-mobile-order/internal/station"
	"github.com/ekamauln/livo-mobile-order/internal/users"
	"github.com/ekamauln/livo-mobile-order/pkg/backend"
	"github.com/ekamauln/livo-mobile-order/pkg/config"
	"github.com/ekamauln/livo-mobile-order/pkg/db"
	"github.com/ekamauln/livo-mobile-order/pkg/logger"
	"github.com/ekamauln/livo-mobile-order/pkg/redis"
)

// logSink reflects focus state into the station log; a wedge bridge
// has no on-screen input to manage.
type logSink struct {
	logg *logger.Logger
}

func (s logSink) Focus() {
	s.logg.Debug(context.Background(), "scan input focused")
}

func (s logSink) Clear() {
	s.logg.Debug(context.Background(), "scan input cleared")
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "station"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "station",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	deps := map[string]controllers.Pinger{}

	var journalRec journal.Recorder = journal.Nop{}
	if !cfg.Journal.Disabled {
		dbClient, err := db.New(context.Background(), cfg.Journal, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to open journal store", err)
			os.Exit(1)
		}
		defer func() {
			if err := dbClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing journal store", err)
			}
		}()
		store, err := journal.NewStore(dbClient.DB())
		if err != nil {
			logg.Error(context.Background(), "failed to prepare journal", err)
			os.Exit(1)
		}
		journalRec = store
		deps["journal"] = dbClient
	}

	var cache users.Cache
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		cache = redisClient
		deps["cache"] = redisClient
	}

	sessions := session.NewStore()
	backendClient, err := backend.NewClient(
		cfg.Backend.BaseURL,
		backend.WithTokenSource(sessions),
		backend.WithTimeout(cfg.Backend.Timeout),
		backend.WithLogger(logg),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to build backend client", err)
		os.Exit(1)
	}
	sessions.Bind(backendClient)

	gate, err := approval.NewGate(backendClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build approval gate", err)
		os.Exit(1)
	}
	reconciler, err := assign.NewReconciler(backendClient, journalRec, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build assign reconciler", err)
		os.Exit(1)
	}
	directory := users.NewDirectory(backendClient, cache, cfg.Directory, logg)

	// The aggregator's handler closes over the station service, which in
	// turn steers the aggregator; the closure defers the lookup until
	// emission time.
	var svc *station.Service
	aggregator, err := scanner.New(
		logSink{logg: logg},
		func(code scanner.Code) { svc.HandleScan(code) },
		scanner.WithQuietPeriod(cfg.Scanner.QuietPeriod),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to build scan aggregator", err)
		os.Exit(1)
	}

	svc, err = station.NewService(station.Params{
		Scans:      aggregator,
		Orders:     backendClient,
		Completer:  backendClient,
		Approver:   gate,
		Reconciler: reconciler,
		Directory:  directory,
		Journal:    journalRec,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build station service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting station server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, aggregator, svc, sessions, deps),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "station server stopped unexpectedly", err)
		os.Exit(1)
	}
}
