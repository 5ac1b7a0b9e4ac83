// Command server runs the dana food-donation coordination API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	actorhandler "dana/internal/actor/handler"
	actorservice "dana/internal/actor/service"
	actorstore "dana/internal/actor/store"
	donationhandler "dana/internal/donation/handler"
	donationmetrics "dana/internal/donation/metrics"
	donationservice "dana/internal/donation/service"
	donationstore "dana/internal/donation/store"
	"dana/internal/events"
	"dana/internal/identity"
	"dana/internal/platform/config"
	"dana/internal/platform/database"
	"dana/internal/platform/httpserver"
	"dana/internal/platform/logger"
	"dana/internal/platform/metrics"
	"dana/internal/platform/redis"
	transport "dana/internal/transport/http"
	verificationhandler "dana/internal/verification/handler"
	verificationservice "dana/internal/verification/service"
	verificationstore "dana/internal/verification/store"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	log := logger.New()
	cfg := config.FromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	var checks []transport.HealthCheck

	// Stores: postgres when DATABASE_URL is set, in-memory otherwise.
	var (
		actors        actorservice.Store
		donations     donationservice.Store
		verifications verificationservice.Store
		actorFlags    verificationservice.ActorFlags
	)
	if cfg.DatabaseURL != "" {
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			return err
		}
		db, err := database.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		pgActors := actorstore.NewPostgres(db)
		actors = pgActors
		actorFlags = pgActors
		donations = donationstore.NewPostgres(db)
		verifications = verificationstore.NewPostgres(db)
		checks = append(checks, transport.HealthCheck{Name: "database", Check: db.PingContext})
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		memActors := actorstore.NewInMemory()
		actors = memActors
		actorFlags = memActors
		donations = donationstore.NewInMemory()
		verifications = verificationstore.NewInMemory()
	}

	// Event pipeline: channel publisher drained by a worker into sinks.
	publisher := events.NewChannelPublisher(256, log)
	sinks := []events.Sink{events.NewLogSink(log)}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := events.NewKafkaSink(ctx, cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return err
		}
		defer kafkaSink.Close()
		sinks = append(sinks, kafkaSink)
	}
	worker := events.NewWorker(publisher.Inbox(), log, sinks...)

	// Verification cache: redis when configured.
	var cache verificationservice.Cache = verificationservice.NopCache{}
	redisClient, err := redis.New(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		cache = verificationservice.NewRedisCache(redisClient, 15*time.Minute)
		checks = append(checks, transport.HealthCheck{Name: "redis", Check: redisClient.Health})
	}

	actorSvc := actorservice.New(actors, actorservice.WithLogger(log))
	verificationSvc := verificationservice.New(verifications, actorFlags,
		verificationservice.WithLogger(log),
		verificationservice.WithPublisher(publisher),
		verificationservice.WithCache(cache),
	)
	lifecycleMetrics := donationmetrics.New(prometheus.DefaultRegisterer)
	donationSvc := donationservice.New(donations, actorSvc, verificationSvc,
		donationservice.WithLogger(log),
		donationservice.WithPublisher(publisher),
		donationservice.WithMetrics(lifecycleMetrics),
	)
	sweeper := donationservice.NewSweeper(donations, cfg.ExpirySweepInterval,
		donationservice.SweeperWithLogger(log),
		donationservice.SweeperWithPublisher(publisher),
		donationservice.SweeperWithMetrics(lifecycleMetrics),
	)

	verifier := identity.NewJWTVerifier(cfg.IdentitySigningKey, cfg.IdentityIssuer, cfg.IdentityAudience)
	router := transport.NewRouter(transport.Config{
		Logger:   log,
		Metrics:  metrics.New(),
		Verifier: verifier,
		Actors:   actorSvc,
		Handlers: []transport.Registrar{
			actorhandler.New(actorSvc, log),
			donationhandler.New(donationSvc, log),
			verificationhandler.New(verificationSvc, log),
		},
		Checks: checks,
	})
	server := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		return worker.Run(groupCtx)
	})
	group.Go(func() error {
		return sweeper.Run(groupCtx)
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
