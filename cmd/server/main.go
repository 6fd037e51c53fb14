// Command server runs the land-parcel orchestration service: parcel creation
// (snapshot render + IPFS pinning), the verification workflow, and the loan
// lifecycle, all against the on-chain contracts configured via LANDQ_* env.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"landq/internal/cas"
	"landq/internal/events"
	"landq/internal/ledger"
	"landq/internal/lending"
	"landq/internal/parcel"
	"landq/internal/platform/config"
	"landq/internal/platform/httpserver"
	"landq/internal/platform/logger"
	"landq/internal/platform/metrics"
	"landq/internal/platform/postgres"
	platformredis "landq/internal/platform/redis"
	"landq/internal/snapshot"
	httptransport "landq/internal/transport/http"
	"landq/internal/verification"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	chain, err := ledger.Dial(ctx, cfg.Ledger, m)
	if err != nil {
		log.Error("ledger dial failed", "error", err)
		os.Exit(1)
	}
	defer chain.Close()

	// Verification record store: postgres when configured, memory otherwise.
	var store verification.Store = verification.NewInMemory()
	db, err := postgres.Open(cfg.Postgres)
	if err != nil {
		log.Error("postgres open failed", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
		if _, err := db.ExecContext(ctx, verification.Schema); err != nil {
			log.Error("schema apply failed", "error", err)
			os.Exit(1)
		}
		store = verification.NewPostgres(db)
		log.Info("verification store: postgres")
	} else {
		log.Info("verification store: in-memory")
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connect failed", "error", err)
		os.Exit(1)
	}
	projection := verification.NewProjection(redisClient)
	if redisClient != nil {
		defer redisClient.Close()
		log.Info("parcel view projection: redis")
	}

	// Workflow events: buffered publisher drained by a worker into Kafka.
	// Without brokers the publisher still runs and the worker discards.
	publisher := events.NewPublisher(log)
	var sink events.Sink = events.DiscardSink{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err := events.NewKafkaSink(ctx, cfg.Kafka)
		if err != nil {
			log.Error("kafka connect failed", "error", err)
			os.Exit(1)
		}
		sink = kafkaSink
		log.Info("event sink: kafka", "topic", cfg.Kafka.Topic)
	}
	defer sink.Close()

	pinner := cas.New(cfg.Pinata)
	renderer := snapshot.New(cfg.Snapshot)

	parcelSvc := parcel.NewService(renderer, pinner, publisher, log, m)
	verifySvc := verification.NewService(chain, store, pinner, projection, publisher, log, m)
	lendSvc := lending.NewService(chain, publisher, log, m)

	router := httptransport.NewRouter(httptransport.Deps{
		Parcels:      parcel.NewHandler(parcelSvc, log),
		Verification: verification.NewHandler(verifySvc, log),
		Lending:      lending.NewHandler(lendSvc, log),
		OperatorKey:  cfg.Server.OperatorJWTKey,
		Logger:       log,
	})
	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return events.NewWorker(publisher.Inbox(), sink, log).Run(gctx)
	})
	g.Go(func() error {
		log.Info("listening", "addr", cfg.Server.Addr)
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
		log.Error("exiting", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
