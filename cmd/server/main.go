package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	assignmenthandler "vetcore/internal/assignment/handler"
	assignmentmetrics "vetcore/internal/assignment/metrics"
	assignmentservice "vetcore/internal/assignment/service"
	assignmentstore "vetcore/internal/assignment/store"
	"vetcore/internal/audit"
	"vetcore/internal/catalog"
	catalogcache "vetcore/internal/catalog/cache"
	"vetcore/internal/directory"
	dosehandler "vetcore/internal/dose/handler"
	dosemetrics "vetcore/internal/dose/metrics"
	doseservice "vetcore/internal/dose/service"
	dosestore "vetcore/internal/dose/store"
	"vetcore/internal/platform/config"
	"vetcore/internal/platform/httpserver"
	"vetcore/internal/platform/logger"
	"vetcore/internal/platform/metrics"
	"vetcore/internal/platform/postgres"
	"vetcore/internal/platform/redis"
	"vetcore/internal/token"
	httptransport "vetcore/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores fall back to in-memory when no database is configured so the
	// server runs standalone in development.
	var (
		db          *sql.DB
		assignments assignmentstore.Store
		doses       dosestore.Store
		cat         catalog.Catalog
		dir         directory.Directory
	)
	if cfg.DatabaseURL != "" {
		var err error
		db, err = postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("postgres connect failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		doseStore := dosestore.NewPostgres(db)
		doses = doseStore
		assignments = assignmentstore.NewPostgres(db, doseStore)
		cat = catalog.NewPostgres(db)
		dir = directory.NewPostgres(db)
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		doseStore := dosestore.NewInMemory()
		doses = doseStore
		assignments = assignmentstore.NewInMemory(doseStore)
		cat = catalog.NewInMemory()
		dir = directory.NewInMemory()
	}

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connect failed", "error", err)
		os.Exit(1)
	}
	var cacheClient *goredis.Client
	if redisClient != nil {
		cacheClient = redisClient.Client
		defer redisClient.Close()
	}
	cachedCatalog := catalogcache.New(cat, cacheClient)
	cat = cachedCatalog

	// Audit events flow through a buffered emitter so request handling
	// never waits on the broker.
	var sink audit.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafka, err := audit.NewKafka(ctx, cfg.Kafka.Brokers)
		if err != nil {
			log.Error("kafka connect failed", "error", err)
			os.Exit(1)
		}
		sink = kafka
	} else {
		log.Warn("KAFKA_BROKERS not set, audit events stay in process")
		sink = audit.NewMemory()
	}
	defer sink.Close()

	emitter := audit.NewEmitter(1024, log)
	worker := audit.NewWorker(emitter, sink, log)

	assignmentSvc := assignmentservice.New(assignments, cat, dir,
		assignmentservice.WithLogger(log),
		assignmentservice.WithAuditPublisher(emitter),
		assignmentservice.WithMetrics(assignmentmetrics.New()),
	)
	doseSvc := doseservice.New(doses, assignments, cat,
		doseservice.WithLogger(log),
		doseservice.WithAuditPublisher(emitter),
		doseservice.WithMetrics(dosemetrics.New()),
	)

	jwtService := token.NewJWTService(cfg.JWTSigningKey, cfg.Issuer)

	router := httptransport.NewRouter(httptransport.Deps{
		Assignments: assignmenthandler.New(assignmentSvc, log),
		Doses:       dosehandler.New(doseSvc, log),
		Validator:   token.NewJWTServiceAdapter(jwtService),
		HTTPMetrics: metrics.NewHTTP(),
		Health: func(ctx context.Context) error {
			if db != nil {
				if err := db.PingContext(ctx); err != nil {
					return err
				}
			}
			if redisClient != nil {
				return redisClient.Health(ctx)
			}
			return nil
		},
		Logger:       log,
		AdminToken:   cfg.AdminToken,
		CatalogCache: cachedCatalog,
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Run(gctx)
	})
	g.Go(func() error {
		log.Info("starting vetcore", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
