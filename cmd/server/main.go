package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"veriform/internal/annexure"
	annexuremetrics "veriform/internal/annexure/metrics"
	"veriform/internal/audit"
	"veriform/internal/dyntable"
	"veriform/internal/engine"
	"veriform/internal/engine/adapters"
	"veriform/internal/platform/config"
	"veriform/internal/platform/httpserver"
	"veriform/internal/platform/kafka"
	"veriform/internal/platform/logger"
	"veriform/internal/platform/postgres"
	platformredis "veriform/internal/platform/redis"
	"veriform/internal/schema"
	schemacache "veriform/internal/schema/cache"
	schemametrics "veriform/internal/schema/metrics"
	schemastore "veriform/internal/schema/store"
	"veriform/internal/shape"
	shapemetrics "veriform/internal/shape/metrics"
)

const auditTopic = "veriform.annexure.audit"

// main wires platform resources into the engine and keeps the server
// lifecycle small. The engine itself is consumed as a library by the
// controller layer; this process serves operational endpoints only.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("postgres unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	registryOpts := []schema.Option{
		schema.WithLogger(log),
		schema.WithMetrics(schemametrics.New()),
	}
	if !cfg.SchemaCacheDisabled {
		if cfg.RedisURL != "" {
			redisClient, err := platformredis.New(ctx, cfg.RedisURL)
			if err != nil {
				log.Error("redis unavailable", "error", err)
				os.Exit(1)
			}
			defer redisClient.Close()
			registryOpts = append(registryOpts,
				schema.WithCache(schemacache.NewRedis(redisClient.Client, cfg.SchemaCacheTTL, log)))
		} else {
			registryOpts = append(registryOpts,
				schema.WithCache(schemacache.NewInMemory(cfg.SchemaCacheTTL)))
		}
	}
	registry := schema.NewRegistry(schemastore.NewPostgres(db), registryOpts...)

	gateway := dyntable.NewPostgres(db, dyntable.References{
		Candidates:   "candidates",
		Branches:     "branches",
		Customers:    "customers",
		Applications: "applications",
	})
	shapes := shape.NewSynchronizer(gateway,
		shape.WithLogger(log),
		shape.WithMetrics(shapemetrics.New()))
	records := annexure.NewStore(gateway,
		annexure.WithLogger(log),
		annexure.WithMetrics(annexuremetrics.New()))

	var auditPublisher *audit.Publisher
	if cfg.KafkaSeeds != "" {
		producer, err := kafka.NewProducer(ctx, strings.Split(cfg.KafkaSeeds, ","), auditTopic)
		if err != nil {
			log.Error("kafka unavailable", "error", err)
			os.Exit(1)
		}
		defer producer.Close()

		channel := audit.NewChannelSink(1024, log)
		auditPublisher = audit.NewPublisher(channel)
		worker := audit.NewWorker(audit.NewKafkaSink(producer), channel.Inbox(), log)
		go func() {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("audit worker stopped", "error", err)
			}
		}()
	}

	eng := engine.New(registry, shapes, records, adapters.NewPostgresApplications(db), cfg.TablePrefix,
		engine.WithLogger(log),
		engine.WithAudit(auditPublisher))
	_ = eng // consumed by the controller layer; wired here to fail fast on misconfiguration

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "db unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	srv := httpserver.New(cfg.Addr, mux)
	log.Info("starting veriform", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
