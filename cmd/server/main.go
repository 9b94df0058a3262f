package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"declara/internal/declaration"
	declservice "declara/internal/declaration/service"
	declpostgres "declara/internal/declaration/store/postgres"
	"declara/internal/platform/config"
	"declara/internal/platform/httpserver"
	"declara/internal/platform/jwt"
	"declara/internal/platform/logger"
	"declara/internal/platform/metrics"
	platformredis "declara/internal/platform/redis"
	"declara/internal/ratelimit"
	"declara/internal/renderer"
	"declara/internal/storage"
	"declara/internal/storage/gcs"
	httptransport "declara/internal/transport/http"
	auditkafka "declara/pkg/platform/audit/kafka"
	auditpostgres "declara/pkg/platform/audit/store/postgres"
	auditworker "declara/pkg/platform/audit/worker"
)

// main wires the declaration lifecycle engine: persistence, object storage,
// rendering, rate limiting, the HTTP surface, and the audit outbox worker.
// Every backing service degrades to an in-memory implementation when its
// configuration is absent so the binary runs standalone in development.
func main() {
	log := logger.New()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	m := metrics.New()

	var (
		store    declaration.Store
		txRunner declservice.TxRunner
		db       *sql.DB
	)
	if cfg.Postgres.DSN != "" {
		var err error
		db, err = sql.Open("postgres", cfg.Postgres.DSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}

		pgStore := declpostgres.New(db)
		if err := pgStore.Migrate(ctx); err != nil {
			return err
		}
		store = pgStore
		txRunner = newDeclarationPostgresTx(db)
		log.InfoContext(ctx, "using postgres persistence")
	} else {
		store = declaration.NewInMemoryStore()
		txRunner = declservice.NewInMemoryTxRunner()
		log.InfoContext(ctx, "using in-memory persistence")
	}

	var objects storage.ObjectStore
	if cfg.Storage.Bucket != "" {
		var opts []gcs.Option
		if cfg.Storage.CredentialsFile != "" {
			opts = append(opts, gcs.WithCredentialsFile(cfg.Storage.CredentialsFile))
		}
		if cfg.Storage.PublicBaseURL != "" {
			opts = append(opts, gcs.WithPublicBaseURL(cfg.Storage.PublicBaseURL))
		}
		gcsStore, err := gcs.New(ctx, cfg.Storage.Bucket, opts...)
		if err != nil {
			return err
		}
		defer gcsStore.Close()
		objects = gcsStore
		log.InfoContext(ctx, "using GCS artifact storage", "bucket", cfg.Storage.Bucket)
	} else {
		objects = storage.NewInMemoryStore()
		log.InfoContext(ctx, "using in-memory artifact storage")
	}

	var limiterStore ratelimit.Store
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		limiterStore = ratelimit.NewRedisStore(redisClient.Client)
		log.InfoContext(ctx, "using redis rate limiting")
	} else {
		limiterStore = ratelimit.NewInMemoryStore(ratelimit.DefaultMaxKeys)
	}
	limiter := ratelimit.NewMiddleware(
		ratelimit.NewLimiter(limiterStore, cfg.Server.RateLimit, time.Duration(cfg.Server.RateWindowSec)*time.Second),
		log,
	)

	svc := declservice.New(
		store,
		objects,
		renderer.New(log),
		txRunner,
		log,
		declservice.WithMetrics(m),
	)

	handler := httptransport.New(svc, jwt.NewValidator(cfg.Server.JWTSigningKey), limiter, log)
	srv := httpserver.New(cfg.Server.Addr, httptransport.NewRouter(handler))

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.InfoContext(ctx, "starting http server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	// The audit outbox worker only runs against postgres with Kafka brokers
	// configured. Without it the trail still lives in the database; only the
	// downstream fan-out is disabled.
	if db != nil && len(cfg.Kafka.Brokers) > 0 {
		publisher, err := auditkafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return err
		}
		defer publisher.Close()
		if err := publisher.EnsureTopic(ctx, 3, 1); err != nil {
			return err
		}

		worker := auditworker.New(auditpostgres.New(db), publisher, log)
		group.Go(func() error {
			log.InfoContext(ctx, "starting audit outbox worker", "topic", cfg.Kafka.Topic)
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	return group.Wait()
}
